package issues

import (
	"strings"
	"sync"

	"prophecal/models"
)

// memoCache memoizes issue-check results per trip plan for the lifetime of a
// session. There is no eviction: volume is bounded by how many events one
// operator works through.
type memoCache struct {
	mu      sync.RWMutex
	entries map[string][]models.Issue
}

func newMemoCache() *memoCache {
	return &memoCache{entries: make(map[string][]models.Issue)}
}

// cacheKey builds the composite memo key. The event name is deliberately not
// part of it: two events sharing the same location, date and travel plan
// share one set of advisories, matching the original behavior.
func cacheKey(location, date string, transport models.TransportMode, arrival, departure string) string {
	return strings.Join([]string{location, date, string(transport), arrival, departure}, "|")
}

func (c *memoCache) get(key string) ([]models.Issue, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	issues, ok := c.entries[key]
	return issues, ok
}

func (c *memoCache) put(key string, issues []models.Issue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = issues
}

func (c *memoCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
