package place

// Transition is a geofence boundary crossing signal.
type Transition int

const (
	TransitionUnknown Transition = iota
	TransitionEnter
	TransitionExit
)

// Event types carried on proximity analytics events.
const (
	EventTypeEntry = "location.entry"
	EventTypeExit  = "location.exit"
)

// POI is a point of interest a proximity signal refers to.
type POI struct {
	Name        string  `json:"name"`
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	BeaconMajor float64 `json:"beaconMajor"`
	BeaconMinor float64 `json:"beaconMinor"`
}

// ProximityEvent is the canonical shape sent to the analytics collaborator
// for a geofence or beacon transition.
type ProximityEvent struct {
	EventType   string  `json:"eventType"`
	POIName     string  `json:"poiName"`
	POIID       string  `json:"poiId"`
	Category    string  `json:"category"`
	BeaconMajor float64 `json:"beaconMajor"`
	BeaconMinor float64 `json:"beaconMinor"`
	Entries     float64 `json:"entries"`
	Exits       float64 `json:"exits"`
}

// Location is a geographic fix delivered by the location collaborator.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
