// Package personalization resolves decision-scope offer lookups against the
// personalization collaborator.
package personalization

import (
	"context"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/luma-mobile/companion-service/internal/app/configsource"
	"github.com/luma-mobile/companion-service/internal/app/domain/decision"
	"github.com/luma-mobile/companion-service/internal/app/domain/offer"
	"github.com/luma-mobile/companion-service/internal/app/edge"
	"github.com/luma-mobile/companion-service/internal/app/metrics"
	"github.com/luma-mobile/companion-service/pkg/logger"
)

// DefaultTimeout bounds the wait for a proposition response.
const DefaultTimeout = 2 * time.Second

// Gateway issues decision-scope lookups and bridges the collaborator's
// asynchronous proposition callback into a bounded blocking wait.
type Gateway struct {
	collab  edge.Personalization
	source  *configsource.Source
	log     *logger.Logger
	timeout time.Duration

	mu      sync.Mutex
	waiters map[decision.Scope][]chan offer.Proposition
	remove  func()

	scopesMu sync.RWMutex
	scopes   []decision.Scope
}

// New constructs a gateway and installs its durable proposition
// subscription on the collaborator.
func New(collab edge.Personalization, source *configsource.Source, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.NewDefault("personalization")
	}
	g := &Gateway{
		collab:  collab,
		source:  source,
		log:     log,
		timeout: DefaultTimeout,
		waiters: make(map[decision.Scope][]chan offer.Proposition),
	}
	g.remove = collab.OnPropositionsUpdate(g.dispatch)
	return g
}

// WithTimeout overrides the proposition wait bound.
func (g *Gateway) WithTimeout(d time.Duration) {
	if d > 0 {
		g.timeout = d
	}
}

// Close removes the proposition subscription.
func (g *Gateway) Close() {
	if g.remove != nil {
		g.remove()
	}
}

// dispatch fans an arriving batch out to every waiter whose scope matches.
// Batches may carry scopes nobody asked for; those are ignored.
func (g *Gateway) dispatch(batch map[decision.Scope]offer.Proposition) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for scope, prop := range batch {
		for _, ch := range g.waiters[scope] {
			// Buffered; a waiter that already timed out and deregistered is
			// simply not in the list anymore.
			ch <- prop
		}
		delete(g.waiters, scope)
	}
}

// FetchOffers requests propositions for the scope carrying the caller's
// ECID and waits up to the configured bound. A timeout or collaborator
// failure yields an empty list, never an indefinite block.
func (g *Gateway) FetchOffers(ctx context.Context, scope decision.Scope, ecid string) []offer.Offer {
	start := time.Now()

	// Stale offers must never be shown for a new scope.
	g.collab.ClearCachedPropositions()

	ch := make(chan offer.Proposition, 1)
	g.mu.Lock()
	g.waiters[scope] = append(g.waiters[scope], ch)
	g.mu.Unlock()

	xdm := map[string]any{
		"xdm": map[string]any{
			"identityMap": map[string]any{
				"ECID": map[string]any{"id": ecid, "primary": true},
			},
		},
	}
	if err := g.collab.UpdatePropositions(ctx, []decision.Scope{scope}, xdm); err != nil {
		g.deregister(scope, ch)
		g.log.WithError(err).Warn("update propositions failed")
		metrics.RecordOfferRequest("error", time.Since(start))
		return []offer.Offer{}
	}

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case prop := <-ch:
		offers := g.parseOffers(prop)
		metrics.RecordOfferRequest("fulfilled", time.Since(start))
		return offers
	case <-timer.C:
		g.deregister(scope, ch)
		g.log.WithField("scope", scopeKey(scope)).Info("proposition wait timed out")
		metrics.RecordOfferRequest("timeout", time.Since(start))
		return []offer.Offer{}
	case <-ctx.Done():
		g.deregister(scope, ch)
		metrics.RecordOfferRequest("cancelled", time.Since(start))
		return []offer.Offer{}
	}
}

// deregister removes a single waiter channel so a late callback cannot fire
// into an abandoned wait.
func (g *Gateway) deregister(scope decision.Scope, ch chan offer.Proposition) {
	g.mu.Lock()
	defer g.mu.Unlock()
	waiters := g.waiters[scope]
	for i, w := range waiters {
		if w == ch {
			waiters = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(waiters) == 0 {
		delete(g.waiters, scope)
	} else {
		g.waiters[scope] = waiters
	}
}

// parseOffers extracts display content from each proposition item in
// arrival order. Items whose content blob does not parse are skipped.
func (g *Gateway) parseOffers(prop offer.Proposition) []offer.Offer {
	offers := make([]offer.Offer, 0, len(prop.Items))
	for _, item := range prop.Items {
		content := gjson.Parse(item.Content)
		if !content.IsObject() {
			g.log.WithField("item", item.ID).Debug("skipping proposition item with malformed content")
			continue
		}
		offers = append(offers, offer.Offer{
			Title: content.Get("title").String(),
			Text:  content.Get("text").String(),
			Image: content.Get("image").String(),
		})
	}
	return offers
}

// LoadScopes loads the decisions document and replaces the scope registry.
// Failures fall back to the built-in example document.
func (g *Gateway) LoadScopes(ctx context.Context, location string) []decision.Scope {
	doc, err := g.source.LoadDecisions(ctx, location)
	if err != nil {
		g.log.WithError(err).Warn("decisions load failed, using example document")
		metrics.IncConfigLoad(string(configsource.KindDecisions), "fallback")
		doc = decision.Example()
	} else {
		metrics.IncConfigLoad(string(configsource.KindDecisions), "ok")
	}

	g.scopesMu.Lock()
	g.scopes = append([]decision.Scope(nil), doc.DecisionScopes...)
	g.scopesMu.Unlock()
	return g.Scopes()
}

// Scopes returns a copy of the registered decision scopes.
func (g *Gateway) Scopes() []decision.Scope {
	g.scopesMu.RLock()
	defer g.scopesMu.RUnlock()
	return append([]decision.Scope(nil), g.scopes...)
}

func scopeKey(s decision.Scope) string {
	if s.IsTarget() {
		return s.Name
	}
	return s.ActivityID + "/" + s.PlacementID
}
