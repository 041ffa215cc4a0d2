package edge

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/luma-mobile/companion-service/internal/app/domain/decision"
	"github.com/luma-mobile/companion-service/internal/app/domain/event"
	"github.com/luma-mobile/companion-service/internal/app/domain/offer"
	"github.com/luma-mobile/companion-service/internal/app/storage"
	"github.com/luma-mobile/companion-service/pkg/logger"
)

// Recorder is an Analytics implementation that records every call locally
// instead of talking to a vendor SDK. Outbound events are rate limited and
// written to the event audit store.
type Recorder struct {
	store   storage.EventStore
	limiter *rate.Limiter
	log     *logger.Logger

	mu         sync.RWMutex
	identities map[string]string
	consents   map[string]any
	pushToken  string
	actions    []TrackedAction
}

// TrackedAction is a recorded trackAction call.
type TrackedAction struct {
	Name string
	Data map[string]string
}

var _ Analytics = (*Recorder)(nil)

// NewRecorder creates a recorder writing to the given audit store.
func NewRecorder(store storage.EventStore, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.NewDefault("edge")
	}
	return &Recorder{
		store:      store,
		limiter:    rate.NewLimiter(rate.Limit(20), 50),
		log:        log,
		identities: make(map[string]string),
		consents:   make(map[string]any),
	}
}

// SendEvent records the XDM payload in the audit store. The limiter smooths
// bursts the way the vendor SDK's batching would.
func (r *Recorder) SendEvent(ctx context.Context, xdm map[string]any) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	eventType, _ := xdm["eventType"].(string)
	if r.store != nil {
		if _, err := r.store.RecordEvent(ctx, event.Record{EventType: eventType, XDM: xdm}); err != nil {
			return err
		}
	}
	r.log.WithField("event_type", eventType).Debug("event sent")
	return nil
}

func (r *Recorder) UpdateIdentities(_ context.Context, identities map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ns, id := range identities {
		r.identities[ns] = id
	}
	return nil
}

func (r *Recorder) RemoveIdentity(_ context.Context, namespace, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.identities[namespace] == id {
		delete(r.identities, namespace)
	}
	return nil
}

func (r *Recorder) UpdateConsent(_ context.Context, consents map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range consents {
		r.consents[k] = v
	}
	return nil
}

func (r *Recorder) TrackAction(_ context.Context, name string, data map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, TrackedAction{Name: name, Data: data})
	return nil
}

func (r *Recorder) SetPushIdentifier(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushToken = token
	return nil
}

// Identity returns the recorded identity for a namespace.
func (r *Recorder) Identity(namespace string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.identities[namespace]
	return id, ok
}

// PushToken returns the last registered push identifier.
func (r *Recorder) PushToken() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pushToken
}

// Actions returns a copy of the recorded trackAction calls.
func (r *Recorder) Actions() []TrackedAction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]TrackedAction(nil), r.actions...)
}

// Consent returns the recorded consent value for a key.
func (r *Recorder) Consent(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.consents[key]
	return v, ok
}

// Simulator is a Personalization implementation backed by canned
// propositions. UpdatePropositions answers asynchronously through the
// registered subscriptions, mimicking the vendor callback contract.
type Simulator struct {
	mu      sync.Mutex
	subs    map[int]PropositionCallback
	nextSub int
	canned  map[decision.Scope]offer.Proposition
	delay   time.Duration
	cleared int
}

var _ Personalization = (*Simulator)(nil)

// NewSimulator creates a simulator with no canned responses.
func NewSimulator() *Simulator {
	return &Simulator{
		subs:   make(map[int]PropositionCallback),
		canned: make(map[decision.Scope]offer.Proposition),
	}
}

// Stub registers a canned proposition for a scope.
func (s *Simulator) Stub(scope decision.Scope, prop offer.Proposition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prop.Scope = scope
	s.canned[scope] = prop
}

// WithDelay sets the artificial response latency.
func (s *Simulator) WithDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// UpdatePropositions delivers canned propositions for the requested scopes
// to every subscriber. Scopes without a canned response produce nothing,
// which is how a timeout is exercised.
func (s *Simulator) UpdatePropositions(_ context.Context, scopes []decision.Scope, _ map[string]any) error {
	s.mu.Lock()
	batch := make(map[decision.Scope]offer.Proposition)
	for _, scope := range scopes {
		if prop, ok := s.canned[scope]; ok {
			batch[scope] = prop
		}
	}
	delay := s.delay
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		s.Deliver(batch)
	}()
	return nil
}

// Deliver pushes a proposition batch to every current subscriber. Tests use
// this directly to simulate unsolicited updates.
func (s *Simulator) Deliver(batch map[decision.Scope]offer.Proposition) {
	s.mu.Lock()
	cbs := make([]PropositionCallback, 0, len(s.subs))
	for _, cb := range s.subs {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()

	for _, cb := range cbs {
		cb(batch)
	}
}

func (s *Simulator) OnPropositionsUpdate(cb PropositionCallback) (remove func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = cb
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Simulator) ClearCachedPropositions() {
	s.mu.Lock()
	s.cleared++
	s.mu.Unlock()
}

// ClearCount reports how many times the proposition cache was cleared.
func (s *Simulator) ClearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

// SessionRecorder is a Diagnostics implementation that records started
// sessions.
type SessionRecorder struct {
	mu       sync.Mutex
	sessions []string
}

var _ Diagnostics = (*SessionRecorder)(nil)

// NewSessionRecorder creates an empty session recorder.
func NewSessionRecorder() *SessionRecorder {
	return &SessionRecorder{}
}

func (d *SessionRecorder) StartSession(_ context.Context, uri string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions = append(d.sessions, uri)
	return nil
}

// Sessions returns the recorded session URIs.
func (d *SessionRecorder) Sessions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.sessions...)
}
