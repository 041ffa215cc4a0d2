package edge

import (
	"context"
	"testing"
	"time"

	"github.com/luma-mobile/companion-service/internal/app/domain/decision"
	"github.com/luma-mobile/companion-service/internal/app/domain/offer"
	"github.com/luma-mobile/companion-service/internal/app/storage/memory"
)

func TestRecorderSendEventAudits(t *testing.T) {
	store := memory.New()
	r := NewRecorder(store, nil)

	xdm := map[string]any{"eventType": "application.interaction"}
	if err := r.SendEvent(context.Background(), xdm); err != nil {
		t.Fatalf("send event: %v", err)
	}

	records, err := store.ListEvents(context.Background(), 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if records[0].EventType != "application.interaction" {
		t.Fatalf("event type: %q", records[0].EventType)
	}
	if records[0].ID == "" || records[0].RecordedAt.IsZero() {
		t.Fatalf("record not stamped: %#v", records[0])
	}
}

func TestRecorderIdentityLifecycle(t *testing.T) {
	r := NewRecorder(memory.New(), nil)
	ctx := context.Background()

	if err := r.UpdateIdentities(ctx, map[string]string{"Email": "a@example.com"}); err != nil {
		t.Fatalf("update identities: %v", err)
	}
	id, ok := r.Identity("Email")
	if !ok || id != "a@example.com" {
		t.Fatalf("identity not recorded: %q %v", id, ok)
	}

	// Removing a different value leaves the identity alone.
	if err := r.RemoveIdentity(ctx, "Email", "b@example.com"); err != nil {
		t.Fatalf("remove identity: %v", err)
	}
	if _, ok := r.Identity("Email"); !ok {
		t.Fatal("mismatched removal dropped the identity")
	}

	if err := r.RemoveIdentity(ctx, "Email", "a@example.com"); err != nil {
		t.Fatalf("remove identity: %v", err)
	}
	if _, ok := r.Identity("Email"); ok {
		t.Fatal("identity survived removal")
	}
}

func TestRecorderTrackActionAndPush(t *testing.T) {
	r := NewRecorder(memory.New(), nil)
	ctx := context.Background()

	if err := r.TrackAction(ctx, "purchase", map[string]string{"sku": "X"}); err != nil {
		t.Fatalf("track action: %v", err)
	}
	actions := r.Actions()
	if len(actions) != 1 || actions[0].Name != "purchase" {
		t.Fatalf("actions: %#v", actions)
	}

	if err := r.SetPushIdentifier(ctx, "tok"); err != nil {
		t.Fatalf("set push identifier: %v", err)
	}
	if r.PushToken() != "tok" {
		t.Fatalf("push token: %q", r.PushToken())
	}
}

func TestSimulatorDeliversCannedPropositions(t *testing.T) {
	sim := NewSimulator()
	scope := decision.TargetScope("lumaHome")
	sim.Stub(scope, offer.Proposition{Items: []offer.Item{{ID: "a", Content: `{}`}}})

	got := make(chan map[decision.Scope]offer.Proposition, 1)
	remove := sim.OnPropositionsUpdate(func(batch map[decision.Scope]offer.Proposition) {
		got <- batch
	})
	defer remove()

	if err := sim.UpdatePropositions(context.Background(), []decision.Scope{scope}, nil); err != nil {
		t.Fatalf("update propositions: %v", err)
	}

	select {
	case batch := <-got:
		prop, ok := batch[scope]
		if !ok || len(prop.Items) != 1 {
			t.Fatalf("unexpected batch: %#v", batch)
		}
	case <-time.After(time.Second):
		t.Fatal("canned proposition never delivered")
	}
}

func TestSimulatorUnstubbedScopeStaysSilent(t *testing.T) {
	sim := NewSimulator()
	got := make(chan map[decision.Scope]offer.Proposition, 1)
	remove := sim.OnPropositionsUpdate(func(batch map[decision.Scope]offer.Proposition) {
		got <- batch
	})
	defer remove()

	if err := sim.UpdatePropositions(context.Background(), []decision.Scope{decision.TargetScope("nope")}, nil); err != nil {
		t.Fatalf("update propositions: %v", err)
	}
	select {
	case batch := <-got:
		t.Fatalf("unexpected delivery: %#v", batch)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSimulatorSubscriptionRemoval(t *testing.T) {
	sim := NewSimulator()
	calls := 0
	remove := sim.OnPropositionsUpdate(func(map[decision.Scope]offer.Proposition) { calls++ })
	remove()

	sim.Deliver(map[decision.Scope]offer.Proposition{
		decision.TargetScope("x"): {},
	})
	if calls != 0 {
		t.Fatalf("removed subscription still invoked %d times", calls)
	}
}

func TestSimulatorClearCount(t *testing.T) {
	sim := NewSimulator()
	sim.ClearCachedPropositions()
	sim.ClearCachedPropositions()
	if sim.ClearCount() != 2 {
		t.Fatalf("clear count: %d", sim.ClearCount())
	}
}

func TestSessionRecorder(t *testing.T) {
	d := NewSessionRecorder()
	if err := d.StartSession(context.Background(), "luma://products"); err != nil {
		t.Fatalf("start session: %v", err)
	}
	sessions := d.Sessions()
	if len(sessions) != 1 || sessions[0] != "luma://products" {
		t.Fatalf("sessions: %#v", sessions)
	}
}
