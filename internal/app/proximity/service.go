package proximity

import (
	"context"
	"sync"
	"time"

	"github.com/luma-mobile/companion-service/internal/app/domain/place"
	"github.com/luma-mobile/companion-service/internal/app/edge"
	"github.com/luma-mobile/companion-service/internal/app/metrics"
	"github.com/luma-mobile/companion-service/pkg/logger"
)

// POIFinder resolves points of interest near a location.
type POIFinder interface {
	NearbyPOIs(ctx context.Context, loc place.Location, limit int) ([]place.POI, error)
}

// POIFinderFunc adapts a function to the POIFinder interface.
type POIFinderFunc func(ctx context.Context, loc place.Location, limit int) ([]place.POI, error)

func (f POIFinderFunc) NearbyPOIs(ctx context.Context, loc place.Location, limit int) ([]place.POI, error) {
	if f == nil {
		return nil, nil
	}
	return f(ctx, loc, limit)
}

// Service normalizes transition signals into analytics events and answers
// nearby-POI queries with a bounded wait.
type Service struct {
	analytics  edge.Analytics
	finder     POIFinder
	log        *logger.Logger
	poiTimeout time.Duration

	mu     sync.RWMutex
	nearby []place.POI
}

// New constructs the proximity service. finder may be nil.
func New(analytics edge.Analytics, finder POIFinder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("proximity")
	}
	return &Service{
		analytics:  analytics,
		finder:     finder,
		log:        log,
		poiTimeout: time.Second,
	}
}

// SendTransition normalizes the transition and hands the wrapped payload to
// the analytics collaborator. Fire-and-forget from the caller's view.
func (s *Service) SendTransition(ctx context.Context, transition place.Transition, poi place.POI) (place.ProximityEvent, error) {
	ev := Normalize(transition, poi)
	if err := s.analytics.SendEvent(ctx, Payload(ev)); err != nil {
		s.log.WithError(err).WithField("poi", ev.POIName).Warn("proximity event send failed")
		return ev, err
	}
	metrics.IncEventSent(ev.EventType)
	return ev, nil
}

// NearbyPointsOfInterest returns POIs near the location. The already-cached
// list is served when present; otherwise the finder is queried with a one
// second bound and failures degrade to whatever is cached.
func (s *Service) NearbyPointsOfInterest(ctx context.Context, loc place.Location) []place.POI {
	s.mu.RLock()
	cached := s.nearby
	s.mu.RUnlock()
	if len(cached) > 0 {
		return append([]place.POI(nil), cached...)
	}
	if s.finder == nil {
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.poiTimeout)
	defer cancel()

	pois, err := s.finder.NearbyPOIs(lookupCtx, loc, 200)
	if err != nil {
		s.log.WithError(err).Debug("nearby POI lookup degraded to cache")
		return append([]place.POI(nil), cached...)
	}

	s.mu.Lock()
	s.nearby = pois
	s.mu.Unlock()
	return append([]place.POI(nil), pois...)
}

// ClearNearby drops the cached POI list, forcing the next query to hit the
// finder again.
func (s *Service) ClearNearby() {
	s.mu.Lock()
	s.nearby = nil
	s.mu.Unlock()
}
