// Package proximity converts geofence and beacon transition signals into
// canonical analytics events.
package proximity

import "github.com/luma-mobile/companion-service/internal/app/domain/place"

// Normalize maps a transition signal onto the canonical proximity event.
// Enter sets the entry counter, exit the exit counter; any other transition
// value produces an event with both counters zero.
func Normalize(transition place.Transition, poi place.POI) place.ProximityEvent {
	ev := place.ProximityEvent{
		POIName:     poi.Name,
		POIID:       poi.ID,
		Category:    poi.Category,
		BeaconMajor: poi.BeaconMajor,
		BeaconMinor: poi.BeaconMinor,
	}
	switch transition {
	case place.TransitionEnter:
		ev.EventType = place.EventTypeEntry
		ev.Entries = 1.0
	case place.TransitionExit:
		ev.EventType = place.EventTypeExit
		ev.Exits = 1.0
	}
	return ev
}

// Payload wraps a proximity event into the XDM placeContext shape expected
// by the analytics collaborator.
func Payload(ev place.ProximityEvent) map[string]any {
	return map[string]any{
		"eventType": ev.EventType,
		"placeContext": map[string]any{
			"POIinteraction": map[string]any{
				"poiDetail": map[string]any{
					"name":         ev.POIName,
					"poiID":        ev.POIID,
					"locatingType": "beacon",
					"category":     ev.Category,
					"beaconInteractionDetails": map[string]any{
						"beaconMajor": ev.BeaconMajor,
						"beaconMinor": ev.BeaconMinor,
					},
				},
				"poiEntries": map[string]any{"value": ev.Entries},
				"poiExits":   map[string]any{"value": ev.Exits},
			},
		},
	}
}
