package models

// TransportMode is the closed set of travel modes a user can pick for a trip.
type TransportMode string

const (
	TransportCar       TransportMode = "car"
	TransportTrain     TransportMode = "train"
	TransportBus       TransportMode = "bus"
	TransportWalk      TransportMode = "walk"
	TransportBike      TransportMode = "bike"
	TransportRideshare TransportMode = "rideshare"
	TransportOther     TransportMode = "other"
)

// TransportModes lists the selectable modes in display order.
func TransportModes() []TransportMode {
	return []TransportMode{
		TransportCar, TransportTrain, TransportBus,
		TransportWalk, TransportBike, TransportRideshare, TransportOther,
	}
}

// Valid reports whether m is one of the known transport modes.
func (m TransportMode) Valid() bool {
	switch m {
	case TransportCar, TransportTrain, TransportBus,
		TransportWalk, TransportBike, TransportRideshare, TransportOther:
		return true
	}
	return false
}

// EventDetails holds user-supplied trip details for one event, keyed by the
// event identity. Records are created lazily the first time an event needs
// detail collection and mutated field by field as the user answers prompts.
type EventDetails struct {
	Location      string        `json:"location,omitempty"`
	ArrivalTime   string        `json:"arrivalTime,omitempty"`   // HH:MM
	DepartureTime string        `json:"departureTime,omitempty"` // HH:MM
	TransportMode TransportMode `json:"transportMode,omitempty"`
}

// Complete reports whether all three required fields (location, arrival,
// departure) are populated. Transport mode is optional.
func (d EventDetails) Complete() bool {
	return d.Location != "" && d.ArrivalTime != "" && d.DepartureTime != ""
}
