package system

import (
	"context"
	"errors"
	"testing"
)

type fakeService struct {
	name     string
	startErr error
	stopErr  error
	events   *[]string
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(context.Context) error {
	*f.events = append(*f.events, "start:"+f.name)
	return f.startErr
}

func (f *fakeService) Stop(context.Context) error {
	*f.events = append(*f.events, "stop:"+f.name)
	return f.stopErr
}

func TestManagerStartsInOrderStopsInReverse(t *testing.T) {
	m := NewManager()
	var events []string
	for _, name := range []string{"a", "b", "c"} {
		if err := m.Register(&fakeService{name: name, events: &events}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}
	if len(events) != len(want) {
		t.Fatalf("events: %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d: got %s, want %s (all: %v)", i, events[i], want[i], events)
		}
	}
}

func TestManagerRejectsDuplicateNames(t *testing.T) {
	m := NewManager()
	var events []string
	if err := m.Register(&fakeService{name: "dup", events: &events}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(&fakeService{name: "dup", events: &events}); err == nil {
		t.Fatal("duplicate registration accepted")
	}
}

func TestManagerRejectsRegistrationAfterStart(t *testing.T) {
	m := NewManager()
	var events []string
	if err := m.Register(&fakeService{name: "a", events: &events}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop(context.Background())

	if err := m.Register(&fakeService{name: "late", events: &events}); err == nil {
		t.Fatal("registration after start accepted")
	}
}

func TestManagerRollsBackOnStartFailure(t *testing.T) {
	m := NewManager()
	var events []string
	boom := errors.New("boom")
	m.Register(&fakeService{name: "a", events: &events})
	m.Register(&fakeService{name: "b", startErr: boom, events: &events})
	m.Register(&fakeService{name: "c", events: &events})

	err := m.Start(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("start error: %v", err)
	}

	want := []string{"start:a", "start:b", "stop:a"}
	if len(events) != len(want) {
		t.Fatalf("events: %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events: %v", events)
		}
	}
}

func TestManagerStopCollectsFirstError(t *testing.T) {
	m := NewManager()
	var events []string
	bad := errors.New("stop failed")
	m.Register(&fakeService{name: "a", stopErr: bad, events: &events})
	m.Register(&fakeService{name: "b", events: &events})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	err := m.Stop(context.Background())
	if !errors.Is(err, bad) {
		t.Fatalf("stop error: %v", err)
	}
	// Both services were still stopped.
	if events[len(events)-1] != "stop:a" {
		t.Fatalf("events: %v", events)
	}
}
