package location

import (
	"context"
	"testing"
	"time"

	"github.com/luma-mobile/companion-service/internal/app/configsource"
	"github.com/luma-mobile/companion-service/internal/app/domain/place"
	"github.com/luma-mobile/companion-service/internal/app/edge"
	"github.com/luma-mobile/companion-service/internal/app/state"
	"github.com/luma-mobile/companion-service/internal/app/storage/memory"
)

func newTestState(t *testing.T) *state.Service {
	t.Helper()
	return state.New(configsource.New(nil, nil), edge.NewRecorder(memory.New(), nil), nil)
}

func TestRunnerRecordsFixesWhileAuthorized(t *testing.T) {
	st := newTestState(t)
	st.UpdateTrackingStatus(state.TrackingAuthorized)

	fix := place.Location{Latitude: 52.37, Longitude: 4.89}
	r := NewRunner(st, SourceFunc(func() place.Location { return fix }), nil)
	r.WithSchedule("@every 1s")

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer r.Stop(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if st.Location() == fix {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("authorized runner never recorded a fix")
}

func TestRunnerSkipsFixesWithoutAuthorization(t *testing.T) {
	st := newTestState(t)

	r := NewRunner(st, SourceFunc(func() place.Location {
		return place.Location{Latitude: 1, Longitude: 1}
	}), nil)
	r.tick()

	if st.Location() != (place.Location{}) {
		t.Fatalf("fix recorded without authorization: %#v", st.Location())
	}

	st.UpdateTrackingStatus(state.TrackingDenied)
	r.tick()
	if st.Location() != (place.Location{}) {
		t.Fatalf("fix recorded while denied: %#v", st.Location())
	}

	st.UpdateTrackingStatus(state.TrackingAuthorized)
	r.tick()
	if st.Location() == (place.Location{}) {
		t.Fatal("authorized tick did not record a fix")
	}
}

func TestRunnerStartStopIdempotent(t *testing.T) {
	st := newTestState(t)
	r := NewRunner(st, nil, nil)
	r.WithSchedule("@every 1s")

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestRunnerRejectsBadSchedule(t *testing.T) {
	st := newTestState(t)
	r := NewRunner(st, nil, nil)
	r.WithSchedule("not a schedule")

	if err := r.Start(context.Background()); err == nil {
		r.Stop(context.Background())
		t.Fatal("bad schedule accepted")
	}
}

func TestWalkStaysNearMapCenter(t *testing.T) {
	st := newTestState(t)
	w := NewWalk(st)

	center := st.Configuration().MapCenter
	for i := 0; i < 10; i++ {
		loc := w.Next()
		if diff := loc.Latitude - center.Latitude; diff > 1 || diff < -1 {
			t.Fatalf("walk strayed from center: %#v", loc)
		}
	}
}
