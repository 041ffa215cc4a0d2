package proximity

import (
	"testing"

	"github.com/luma-mobile/companion-service/internal/app/domain/place"
)

var storeEntrance = place.POI{
	Name:        "Luma Store Entrance",
	ID:          "poi-1",
	Category:    "store",
	BeaconMajor: 100,
	BeaconMinor: 1,
}

func TestNormalizeEnter(t *testing.T) {
	ev := Normalize(place.TransitionEnter, storeEntrance)
	if ev.EventType != place.EventTypeEntry {
		t.Fatalf("event type: got %q, want %q", ev.EventType, place.EventTypeEntry)
	}
	if ev.Entries != 1.0 || ev.Exits != 0.0 {
		t.Fatalf("counters: got entries=%v exits=%v, want 1/0", ev.Entries, ev.Exits)
	}
	if ev.POIName != storeEntrance.Name || ev.POIID != storeEntrance.ID {
		t.Fatalf("POI fields not carried: %#v", ev)
	}
}

func TestNormalizeExit(t *testing.T) {
	ev := Normalize(place.TransitionExit, storeEntrance)
	if ev.EventType != place.EventTypeExit {
		t.Fatalf("event type: got %q, want %q", ev.EventType, place.EventTypeExit)
	}
	if ev.Entries != 0.0 || ev.Exits != 1.0 {
		t.Fatalf("counters: got entries=%v exits=%v, want 0/1", ev.Entries, ev.Exits)
	}
}

func TestNormalizeUnknownTransition(t *testing.T) {
	ev := Normalize(place.TransitionUnknown, storeEntrance)
	if ev.EventType != "" {
		t.Fatalf("unknown transition produced event type %q", ev.EventType)
	}
	if ev.Entries != 0.0 || ev.Exits != 0.0 {
		t.Fatalf("unknown transition must leave both counters zero, got %v/%v", ev.Entries, ev.Exits)
	}
}

func TestPayloadShape(t *testing.T) {
	ev := Normalize(place.TransitionEnter, storeEntrance)
	payload := Payload(ev)

	if payload["eventType"] != place.EventTypeEntry {
		t.Fatalf("payload eventType: %v", payload["eventType"])
	}
	interaction := payload["placeContext"].(map[string]any)["POIinteraction"].(map[string]any)
	detail := interaction["poiDetail"].(map[string]any)
	if detail["locatingType"] != "beacon" {
		t.Fatalf("locatingType: %v", detail["locatingType"])
	}
	beacon := detail["beaconInteractionDetails"].(map[string]any)
	if beacon["beaconMajor"] != 100.0 || beacon["beaconMinor"] != 1.0 {
		t.Fatalf("beacon details: %v", beacon)
	}
	entries := interaction["poiEntries"].(map[string]any)
	exits := interaction["poiExits"].(map[string]any)
	if entries["value"] != 1.0 || exits["value"] != 0.0 {
		t.Fatalf("counter values: entries=%v exits=%v", entries["value"], exits["value"])
	}
}
