package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Bearer  abc123 ", "abc123"},
		{"Basic abc123", ""},
		{"Bearer", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := BearerToken(req); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestExtractToken_QueryFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?token=tok-from-query", nil)
	if got := extractToken(req); got != "tok-from-query" {
		t.Errorf("extractToken = %q, want tok-from-query", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/?token=tok-from-query", nil)
	req.Header.Set("Authorization", "Bearer tok-from-header")
	if got := extractToken(req); got != "tok-from-header" {
		t.Errorf("header must win over query, got %q", got)
	}
}
