// Package state holds the process-wide application state: the merged
// configuration snapshot, identity fields, tracking status and live
// location data.
package state

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/luma-mobile/companion-service/internal/app/configsource"
	"github.com/luma-mobile/companion-service/internal/app/domain/general"
	"github.com/luma-mobile/companion-service/internal/app/domain/place"
	"github.com/luma-mobile/companion-service/internal/app/domain/product"
	"github.com/luma-mobile/companion-service/internal/app/edge"
	"github.com/luma-mobile/companion-service/internal/app/metrics"
	"github.com/luma-mobile/companion-service/pkg/logger"
)

// TrackingStatus is the user's location-tracking authorization state.
type TrackingStatus int

const (
	TrackingNotDetermined TrackingStatus = iota
	TrackingDenied
	TrackingAuthorized
)

func (t TrackingStatus) String() string {
	switch t {
	case TrackingDenied:
		return "denied"
	case TrackingAuthorized:
		return "authorized"
	default:
		return "not_determined"
	}
}

// Identity defaults applied at construction and after RemoveIdentities.
const (
	DefaultEmail = "testUser@gmail.com"
	DefaultCRMID = "112ca06ed53d3db37e4cea49cc45b71e"
)

// Identity namespaces forwarded to the analytics collaborator.
const (
	NamespaceEmail = "Email"
	NamespaceCRM   = "lumaCRMId"
)

// Service is the application state container. It is constructed once and
// passed by reference; the configuration snapshot is replaced atomically so
// readers never observe a mix of old and new fields.
type Service struct {
	source    *configsource.Source
	analytics edge.Analytics
	log       *logger.Logger

	config atomic.Pointer[general.Configuration]

	// reloadSeq fences concurrent reloads: a response that finished after a
	// later reload already published is dropped instead of clobbering it.
	reloadMu   sync.Mutex
	reloadSeq  uint64
	appliedSeq uint64

	mu          sync.RWMutex
	ecid        string
	email       string
	crmID       string
	deviceToken string
	tracking    TrackingStatus
	location    place.Location
}

// New constructs the state service with identity defaults and the built-in
// example configuration.
func New(source *configsource.Source, analytics edge.Analytics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("state")
	}
	s := &Service{
		source:    source,
		analytics: analytics,
		log:       log,
		email:     DefaultEmail,
		crmID:     DefaultCRMID,
	}
	cfg := general.Example().Configuration()
	s.config.Store(&cfg)
	return s
}

// Reload loads the general document from the location and publishes the new
// configuration snapshot in one atomic swap. Fetch and parse failures fall
// back to the example document; no error reaches the caller's UI.
func (s *Service) Reload(ctx context.Context, location string) error {
	s.reloadMu.Lock()
	s.reloadSeq++
	seq := s.reloadSeq
	s.reloadMu.Unlock()

	doc, err := s.source.LoadGeneral(ctx, location)
	if err != nil {
		s.log.WithError(err).Warn("general config load failed, using example document")
		metrics.IncConfigLoad(string(configsource.KindGeneral), "fallback")
		doc = general.Example()
	} else {
		metrics.IncConfigLoad(string(configsource.KindGeneral), "ok")
	}
	cfg := doc.Configuration()

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	if seq < s.appliedSeq {
		// A reload issued after this one already published; drop the stale
		// response.
		s.log.WithField("seq", seq).Debug("dropping superseded config reload")
		return nil
	}
	s.appliedSeq = seq
	s.config.Store(&cfg)
	s.log.WithField("tenant", cfg.Tenant).Info("configuration reloaded")
	return err
}

// Configuration returns the current snapshot.
func (s *Service) Configuration() general.Configuration {
	return *s.config.Load()
}

// UpdateTrackingStatus records the tracking authorization. Any transition
// is accepted; callers decide legality.
func (s *Service) UpdateTrackingStatus(status TrackingStatus) {
	s.mu.Lock()
	s.tracking = status
	s.mu.Unlock()
}

// TrackingStatus returns the current tracking authorization.
func (s *Service) TrackingStatus() TrackingStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracking
}

// UpdateConsent forwards a collect-consent value to the analytics
// collaborator.
func (s *Service) UpdateConsent(ctx context.Context, value string) error {
	collect := map[string]any{"collect": map[string]any{"val": value}}
	return s.analytics.UpdateConsent(ctx, map[string]any{"consents": collect})
}

// UpdateIdentities forwards the email and CRM id to the analytics
// collaborator and records them as the current identities.
func (s *Service) UpdateIdentities(ctx context.Context, email, crmID string) error {
	if err := s.analytics.UpdateIdentities(ctx, map[string]string{
		NamespaceEmail: email,
		NamespaceCRM:   crmID,
	}); err != nil {
		return err
	}
	s.mu.Lock()
	s.email = email
	s.crmID = crmID
	s.mu.Unlock()
	return nil
}

// RemoveIdentities removes the identities from the analytics collaborator
// and resets email and CRM id to their defaults.
func (s *Service) RemoveIdentities(ctx context.Context, email, crmID string) error {
	if err := s.analytics.RemoveIdentity(ctx, NamespaceEmail, email); err != nil {
		return err
	}
	if err := s.analytics.RemoveIdentity(ctx, NamespaceCRM, crmID); err != nil {
		return err
	}
	s.mu.Lock()
	s.email = DefaultEmail
	s.crmID = DefaultCRMID
	s.mu.Unlock()
	return nil
}

// Identities returns the current email and CRM id.
func (s *Service) Identities() (email, crmID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email, s.crmID
}

// SetECID records the experience cloud id.
func (s *Service) SetECID(ecid string) {
	s.mu.Lock()
	s.ecid = ecid
	s.mu.Unlock()
}

// ECID returns the experience cloud id.
func (s *Service) ECID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ecid
}

// SetDeviceToken records the push registration token and forwards it to
// the analytics collaborator.
func (s *Service) SetDeviceToken(ctx context.Context, token string) error {
	if err := s.analytics.SetPushIdentifier(ctx, token); err != nil {
		return err
	}
	s.mu.Lock()
	s.deviceToken = token
	s.mu.Unlock()
	return nil
}

// DeviceToken returns the last registered push token.
func (s *Service) DeviceToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceToken
}

// SetLocation records the latest location fix.
func (s *Service) SetLocation(loc place.Location) {
	s.mu.Lock()
	s.location = loc
	s.mu.Unlock()
}

// Location returns the latest location fix.
func (s *Service) Location() place.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

// SendAppInteraction sends an application.interaction experience event.
func (s *Service) SendAppInteraction(ctx context.Context, actionName string) error {
	cfg := s.Configuration()
	xdm := map[string]any{
		"eventType": "application.interaction",
		cfg.Tenant: map[string]any{
			"appInformation": map[string]any{
				"appInteraction": map[string]any{
					"name":      actionName,
					"appAction": map[string]any{"value": 1},
				},
			},
		},
	}
	return s.sendEvent(ctx, xdm)
}

// SendTrackScreen sends an application.scene experience event.
func (s *Service) SendTrackScreen(ctx context.Context, stateName string) error {
	cfg := s.Configuration()
	xdm := map[string]any{
		"eventType": "application.scene",
		cfg.Tenant: map[string]any{
			"appInformation": map[string]any{
				"appStateDetails": map[string]any{
					"screenType": "App",
					"screenName": stateName,
					"screenView": map[string]any{"value": 1},
				},
			},
		},
	}
	return s.sendEvent(ctx, xdm)
}

// SendCommerceEvent sends a commerce.<type> experience event for a product.
func (s *Service) SendCommerceEvent(ctx context.Context, commerceType string, p product.Product) error {
	xdm := map[string]any{
		"eventType": "commerce." + commerceType,
		"commerce":  map[string]any{commerceType: map[string]any{"value": 1}},
		"productListItems": []map[string]any{
			{
				"name":       p.Name,
				"priceTotal": p.Price,
				"SKU":        p.SKU,
			},
		},
	}
	return s.sendEvent(ctx, xdm)
}

// SendTestPush sends the configured test push event type for an
// application id.
func (s *Service) SendTestPush(ctx context.Context, applicationID, eventType string) error {
	xdm := map[string]any{
		"eventType":   eventType,
		"application": map[string]any{"id": applicationID},
	}
	return s.sendEvent(ctx, xdm)
}

// TrackAction forwards a named action to the analytics collaborator.
func (s *Service) TrackAction(ctx context.Context, name string, data map[string]string) error {
	return s.analytics.TrackAction(ctx, name, data)
}

func (s *Service) sendEvent(ctx context.Context, xdm map[string]any) error {
	eventType, _ := xdm["eventType"].(string)
	if err := s.analytics.SendEvent(ctx, xdm); err != nil {
		s.log.WithError(err).WithField("event_type", eventType).Warn("send event")
		return err
	}
	metrics.IncEventSent(eventType)
	return nil
}
