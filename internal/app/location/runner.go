// Package location feeds periodic location fixes into the application
// state, standing in for the device's fused location provider.
package location

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/luma-mobile/companion-service/internal/app/domain/place"
	"github.com/luma-mobile/companion-service/internal/app/state"
	"github.com/luma-mobile/companion-service/internal/app/system"
	"github.com/luma-mobile/companion-service/pkg/logger"
)

// DefaultSchedule matches the ~10 second update interval of the device
// location provider.
const DefaultSchedule = "@every 10s"

// Source produces the next location fix.
type Source interface {
	Next() place.Location
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() place.Location

func (f SourceFunc) Next() place.Location {
	if f == nil {
		return place.Location{}
	}
	return f()
}

// Walk is a Source that wanders around the configured map center with
// small random steps.
type Walk struct {
	state *state.Service
	rand  *rand.Rand

	mu      sync.Mutex
	current place.Location
	primed  bool
}

// NewWalk creates a walk anchored to the state's map center.
func NewWalk(st *state.Service) *Walk {
	return &Walk{
		state: st,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (w *Walk) Next() place.Location {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.primed {
		center := w.state.Configuration().MapCenter
		w.current = place.Location{Latitude: center.Latitude, Longitude: center.Longitude}
		w.primed = true
	}
	w.current.Latitude += (w.rand.Float64() - 0.5) * 0.001
	w.current.Longitude += (w.rand.Float64() - 0.5) * 0.001
	return w.current
}

var _ system.Service = (*Runner)(nil)

// Runner is the lifecycle-managed location feed. Fixes are only recorded
// while tracking is authorized.
type Runner struct {
	state    *state.Service
	source   Source
	log      *logger.Logger
	schedule string

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewRunner creates a runner on the default schedule. A nil source gets a
// simulated walk.
func NewRunner(st *state.Service, source Source, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewDefault("location-runner")
	}
	if source == nil {
		source = NewWalk(st)
	}
	return &Runner{
		state:    st,
		source:   source,
		log:      log,
		schedule: DefaultSchedule,
	}
}

// WithSchedule overrides the cron schedule, e.g. "@every 2s".
func (r *Runner) WithSchedule(spec string) {
	r.mu.Lock()
	r.schedule = spec
	r.mu.Unlock()
}

func (r *Runner) Name() string { return "location-runner" }

func (r *Runner) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(r.schedule, r.tick); err != nil {
		return err
	}
	c.Start()
	r.cron = c
	r.running = true
	r.log.WithField("schedule", r.schedule).Info("location runner started")
	return nil
}

func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	c := r.cron
	r.cron = nil
	r.running = false
	r.mu.Unlock()

	stopped := c.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (r *Runner) tick() {
	if r.state.TrackingStatus() != state.TrackingAuthorized {
		return
	}
	loc := r.source.Next()
	r.state.SetLocation(loc)
	r.log.WithField("lat", loc.Latitude).WithField("lon", loc.Longitude).Debug("location fix recorded")
}
