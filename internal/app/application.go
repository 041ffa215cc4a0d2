package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/luma-mobile/companion-service/internal/app/beacons"
	"github.com/luma-mobile/companion-service/internal/app/catalog"
	"github.com/luma-mobile/companion-service/internal/app/configsource"
	"github.com/luma-mobile/companion-service/internal/app/edge"
	"github.com/luma-mobile/companion-service/internal/app/location"
	"github.com/luma-mobile/companion-service/internal/app/personalization"
	"github.com/luma-mobile/companion-service/internal/app/proximity"
	"github.com/luma-mobile/companion-service/internal/app/push"
	"github.com/luma-mobile/companion-service/internal/app/state"
	"github.com/luma-mobile/companion-service/internal/app/storage"
	"github.com/luma-mobile/companion-service/internal/app/storage/memory"
	"github.com/luma-mobile/companion-service/internal/app/system"
	"github.com/luma-mobile/companion-service/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Events storage.EventStore
}

// Collaborators are the external SDK surfaces. Nil collaborators default
// to the local recording/simulation implementations.
type Collaborators struct {
	Analytics       edge.Analytics
	Personalization edge.Personalization
	Diagnostics     edge.Diagnostics
}

// Options tune optional application behavior.
type Options struct {
	// ConfigLocation is the base URL for remote configuration documents;
	// empty selects the bundled copies.
	ConfigLocation string
	// CatalogCache enables the Redis catalog snapshot when non-nil.
	CatalogCache *catalog.Cache
	// POIFinder resolves nearby points of interest; nil disables lookups.
	POIFinder proximity.POIFinder
	// LocationSchedule overrides the location runner's cron schedule.
	LocationSchedule string
	// OfferTimeout overrides the proposition wait bound.
	OfferTimeout time.Duration
}

// Application ties the state, catalog and event pipeline services together
// and manages their lifecycle.
type Application struct {
	manager        *system.Manager
	log            *logger.Logger
	configLocation string

	State           *state.Service
	Catalog         *catalog.Service
	Beacons         *beacons.Service
	Proximity       *proximity.Service
	Personalization *personalization.Gateway
	Push            *push.Service
	Location        *location.Runner
	Events          storage.EventStore
	Analytics       edge.Analytics
	Diagnostics     edge.Diagnostics
}

// New builds a fully initialised application with the provided stores and
// collaborators.
func New(stores Stores, collabs Collaborators, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	if stores.Events == nil {
		stores.Events = memory.New()
	}
	if collabs.Analytics == nil {
		collabs.Analytics = edge.NewRecorder(stores.Events, log)
	}
	if collabs.Personalization == nil {
		collabs.Personalization = edge.NewSimulator()
	}
	if collabs.Diagnostics == nil {
		collabs.Diagnostics = edge.NewSessionRecorder()
	}

	manager := system.NewManager()
	source := configsource.New(nil, log)

	stateService := state.New(source, collabs.Analytics, log)
	catalogService := catalog.New(source, opts.CatalogCache, log)
	proximityService := proximity.New(collabs.Analytics, opts.POIFinder, log)
	beaconService := beacons.New(source, proximityService, log)
	gateway := personalization.New(collabs.Personalization, source, log)
	if opts.OfferTimeout > 0 {
		gateway.WithTimeout(opts.OfferTimeout)
	}
	pushService := push.New(stateService, log)

	locationRunner := location.NewRunner(stateService, nil, log)
	if spec := strings.TrimSpace(opts.LocationSchedule); spec != "" {
		locationRunner.WithSchedule(spec)
	}

	for _, name := range []string{"state", "catalog", "beacons", "personalization"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}
	if err := manager.Register(locationRunner); err != nil {
		return nil, fmt.Errorf("register %s: %w", locationRunner.Name(), err)
	}

	return &Application{
		manager:        manager,
		log:            log,
		configLocation: opts.ConfigLocation,

		State:           stateService,
		Catalog:         catalogService,
		Beacons:         beaconService,
		Proximity:       proximityService,
		Personalization: gateway,
		Push:            pushService,
		Location:        locationRunner,
		Events:          stores.Events,
		Analytics:       collabs.Analytics,
		Diagnostics:     collabs.Diagnostics,
	}, nil
}

// ConfigLocation returns the configured remote base URL, empty for bundled.
func (a *Application) ConfigLocation() string {
	return a.configLocation
}

// LoadAll loads every configuration document from the location configured
// at construction. Individual failures fall back per document; LoadAll
// itself never fails.
func (a *Application) LoadAll(ctx context.Context) {
	a.Catalog.WarmFromCache(ctx)
	if err := a.State.Reload(ctx, a.configLocation); err != nil {
		a.log.WithError(err).Warn("general config load degraded")
	}
	a.Catalog.Load(ctx, a.configLocation)
	a.Personalization.LoadScopes(ctx, a.configLocation)
	a.Beacons.Load(ctx, a.configLocation)
}

// HandleDeeplink forwards a deep link URI to the diagnostics collaborator.
func (a *Application) HandleDeeplink(ctx context.Context, uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return fmt.Errorf("deeplink uri is required")
	}
	a.log.WithField("uri", uri).Info("deeplink received")
	return a.Diagnostics.StartSession(ctx, uri)
}

// Attach registers an additional lifecycle-managed service. Call before
// Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services and removes the proposition subscription.
func (a *Application) Stop(ctx context.Context) error {
	err := a.manager.Stop(ctx)
	a.Personalization.Close()
	return err
}
