package beacons

import (
	"context"
	"testing"

	"github.com/luma-mobile/companion-service/internal/app/configsource"
	"github.com/luma-mobile/companion-service/internal/app/domain/beacon"
	"github.com/luma-mobile/companion-service/internal/app/domain/place"
	"github.com/luma-mobile/companion-service/internal/app/edge"
	"github.com/luma-mobile/companion-service/internal/app/proximity"
	"github.com/luma-mobile/companion-service/internal/app/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	prox := proximity.New(edge.NewRecorder(store, nil), nil, nil)
	svc := New(configsource.New(nil, nil), prox, nil)
	svc.Load(context.Background(), "")
	return svc, store
}

func TestLoadBundledRegistry(t *testing.T) {
	svc, _ := newTestService(t)

	beacons := svc.Beacons()
	if len(beacons) != 2 {
		t.Fatalf("expected 2 bundled beacons, got %d", len(beacons))
	}
	if beacons[0].Identifier != "lumaStoreEntrance" {
		t.Fatalf("document order not preserved: first is %q", beacons[0].Identifier)
	}

	b, ok := svc.Get(beacons[0].Key())
	if !ok {
		t.Fatal("lookup by composite key failed")
	}
	if b.Identifier != beacons[0].Identifier {
		t.Fatalf("key lookup returned wrong beacon: %q", b.Identifier)
	}
}

func TestSetStatusByCompositeKey(t *testing.T) {
	svc, _ := newTestService(t)
	key := svc.Beacons()[0].Key()

	updated, ok := svc.SetStatus(key, StatusInside)
	if !ok {
		t.Fatal("SetStatus on known key failed")
	}
	if updated.Status != StatusInside {
		t.Fatalf("status not applied: %q", updated.Status)
	}

	b, _ := svc.Get(key)
	if b.Status != StatusInside {
		t.Fatalf("status not visible through Get: %q", b.Status)
	}

	if _, ok := svc.SetStatus(beacon.Key{UUID: "missing"}, StatusInside); ok {
		t.Fatal("SetStatus on unknown key succeeded")
	}
}

func TestProcessTransitionEnter(t *testing.T) {
	svc, store := newTestService(t)

	ev, err := svc.ProcessTransition(context.Background(), "lumaStoreEntrance", place.TransitionEnter)
	if err != nil {
		t.Fatalf("process transition: %v", err)
	}
	if ev.EventType != place.EventTypeEntry || ev.Entries != 1.0 {
		t.Fatalf("unexpected event: %#v", ev)
	}

	b, _ := svc.Get(svc.Beacons()[0].Key())
	if b.Status != StatusInside {
		t.Fatalf("enter transition should mark the beacon inside, got %q", b.Status)
	}

	records, err := store.ListEvents(context.Background(), 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(records) != 1 || records[0].EventType != place.EventTypeEntry {
		t.Fatalf("proximity event not audited: %#v", records)
	}
}

func TestProcessTransitionExit(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.ProcessTransition(context.Background(), "lumaStoreCheckout", place.TransitionEnter); err != nil {
		t.Fatalf("enter: %v", err)
	}
	ev, err := svc.ProcessTransition(context.Background(), "lumaStoreCheckout", place.TransitionExit)
	if err != nil {
		t.Fatalf("exit: %v", err)
	}
	if ev.EventType != place.EventTypeExit || ev.Exits != 1.0 {
		t.Fatalf("unexpected event: %#v", ev)
	}

	for _, b := range svc.Beacons() {
		if b.Identifier == "lumaStoreCheckout" && b.Status != StatusOutside {
			t.Fatalf("exit transition should mark the beacon outside, got %q", b.Status)
		}
	}
}

func TestProcessTransitionUnknownIdentifier(t *testing.T) {
	svc, store := newTestService(t)

	if _, err := svc.ProcessTransition(context.Background(), "nope", place.TransitionEnter); err == nil {
		t.Fatal("expected error for unknown identifier")
	}
	records, _ := store.ListEvents(context.Background(), 0)
	if len(records) != 0 {
		t.Fatalf("unknown identifier must not emit events, got %d", len(records))
	}
}

func TestLoadFailureEmptiesRegistry(t *testing.T) {
	svc, _ := newTestService(t)
	if len(svc.Beacons()) == 0 {
		t.Fatal("seed load should populate the registry")
	}

	// http:// location that refuses connections empties the registry.
	svc.Load(context.Background(), "http://127.0.0.1:0")
	if got := svc.Beacons(); len(got) != 0 {
		t.Fatalf("failed load should empty the registry, got %d", len(got))
	}
}
