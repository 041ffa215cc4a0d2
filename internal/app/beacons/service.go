// Package beacons maintains the beacon registry and turns geofence
// transitions for known beacons into proximity events.
package beacons

import (
	"context"
	"fmt"
	"sync"

	"github.com/luma-mobile/companion-service/internal/app/configsource"
	"github.com/luma-mobile/companion-service/internal/app/domain/beacon"
	"github.com/luma-mobile/companion-service/internal/app/domain/place"
	"github.com/luma-mobile/companion-service/internal/app/metrics"
	"github.com/luma-mobile/companion-service/internal/app/proximity"
	"github.com/luma-mobile/companion-service/pkg/logger"
)

// Statuses recorded on a beacon after a transition.
const (
	StatusInside  = "inside"
	StatusOutside = "outside"
)

// Service holds the loaded beacons keyed by their composite identity.
// Updates are copy-on-write on the stored value; readers get copies.
type Service struct {
	source    *configsource.Source
	proximity *proximity.Service
	log       *logger.Logger

	mu           sync.RWMutex
	byKey        map[beacon.Key]beacon.Beacon
	order        []beacon.Key
	byIdentifier map[string]beacon.Key
}

// New constructs the beacon service.
func New(source *configsource.Source, prox *proximity.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("beacons")
	}
	return &Service{
		source:       source,
		proximity:    prox,
		log:          log,
		byKey:        make(map[beacon.Key]beacon.Beacon),
		byIdentifier: make(map[string]beacon.Key),
	}
}

// Load replaces the registry from the beacons document. Fetch or parse
// failure yields an empty registry; no error surfaces.
func (s *Service) Load(ctx context.Context, location string) []beacon.Beacon {
	doc, err := s.source.LoadBeacons(ctx, location)
	if err != nil {
		s.log.WithError(err).Warn("beacons load failed, registry emptied")
		metrics.IncConfigLoad(string(configsource.KindBeacons), "fallback")
		doc = beacon.Document{}
	} else {
		metrics.IncConfigLoad(string(configsource.KindBeacons), "ok")
	}

	byKey := make(map[beacon.Key]beacon.Beacon, len(doc.Beacons))
	byIdentifier := make(map[string]beacon.Key, len(doc.Beacons))
	order := make([]beacon.Key, 0, len(doc.Beacons))
	for _, b := range doc.Beacons {
		key := b.Key()
		byKey[key] = b
		byIdentifier[b.Identifier] = key
		order = append(order, key)
	}

	s.mu.Lock()
	s.byKey = byKey
	s.byIdentifier = byIdentifier
	s.order = order
	s.mu.Unlock()

	s.log.WithField("count", len(doc.Beacons)).Info("beacon registry loaded")
	return s.Beacons()
}

// Beacons returns the registry in document order.
func (s *Service) Beacons() []beacon.Beacon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]beacon.Beacon, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key])
	}
	return out
}

// Get returns the beacon for a composite key.
func (s *Service) Get(key beacon.Key) (beacon.Beacon, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byKey[key]
	return b, ok
}

// SetStatus updates a beacon's status by composite key, returning the
// updated copy.
func (s *Service) SetStatus(key beacon.Key, status string) (beacon.Beacon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byKey[key]
	if !ok {
		return beacon.Beacon{}, false
	}
	b.Status = status
	s.byKey[key] = b
	return b, true
}

// ProcessTransition handles a geofence transition for the beacon registered
// under the identifier, updating its status and emitting a proximity event.
func (s *Service) ProcessTransition(ctx context.Context, identifier string, transition place.Transition) (place.ProximityEvent, error) {
	s.mu.RLock()
	key, ok := s.byIdentifier[identifier]
	b := s.byKey[key]
	s.mu.RUnlock()
	if !ok {
		return place.ProximityEvent{}, fmt.Errorf("unknown beacon identifier %q", identifier)
	}

	status := StatusOutside
	if transition == place.TransitionEnter {
		status = StatusInside
	}
	s.SetStatus(key, status)

	poi := place.POI{
		Name:        b.Title,
		ID:          b.Identifier,
		Category:    b.Category,
		BeaconMajor: float64(b.Major),
		BeaconMinor: float64(b.Minor),
	}
	return s.proximity.SendTransition(ctx, transition, poi)
}
