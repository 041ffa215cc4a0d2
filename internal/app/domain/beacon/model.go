package beacon

// Beacon is a registered iBeacon with its point-of-interest metadata.
// Status is the only field that changes after load.
type Beacon struct {
	UUID       string `json:"uuid"`
	Major      int    `json:"major"`
	Minor      int    `json:"minor"`
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Location   string `json:"location"`
	Category   string `json:"category"`
	Status     string `json:"status"`
	Symbol     string `json:"symbol"`
}

// Key is the composite identity of a beacon.
type Key struct {
	UUID  string
	Major int
	Minor int
}

// Key returns the beacon's composite identity.
func (b Beacon) Key() Key {
	return Key{UUID: b.UUID, Major: b.Major, Minor: b.Minor}
}

// Document mirrors the ibeacons.json document.
type Document struct {
	Beacons []Beacon `json:"ibeacons"`
}
