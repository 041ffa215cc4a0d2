// Package edge defines the contracts for the external analytics,
// personalization and diagnostics collaborators, plus local
// implementations used when no vendor SDK is attached.
package edge

import (
	"context"

	"github.com/luma-mobile/companion-service/internal/app/domain/decision"
	"github.com/luma-mobile/companion-service/internal/app/domain/offer"
)

// Analytics accepts outbound XDM events and identity operations. Calls are
// fire-and-forget from the caller's perspective; implementations own
// batching and retries.
type Analytics interface {
	SendEvent(ctx context.Context, xdm map[string]any) error
	UpdateIdentities(ctx context.Context, identities map[string]string) error
	RemoveIdentity(ctx context.Context, namespace, id string) error
	UpdateConsent(ctx context.Context, consents map[string]any) error
	TrackAction(ctx context.Context, name string, data map[string]string) error
	SetPushIdentifier(ctx context.Context, token string) error
}

// PropositionCallback receives proposition batches. The collaborator may
// deliver batches for any scope it tracks, not just the last requested one.
type PropositionCallback func(propositions map[decision.Scope]offer.Proposition)

// Personalization issues decision-scope lookups and delivers asynchronous
// proposition responses through a durable, multi-fire subscription.
type Personalization interface {
	UpdatePropositions(ctx context.Context, scopes []decision.Scope, xdm map[string]any) error
	// OnPropositionsUpdate registers a callback and returns a function that
	// removes it. The subscription fires for every delivered batch until
	// removed.
	OnPropositionsUpdate(cb PropositionCallback) (remove func())
	ClearCachedPropositions()
}

// Diagnostics starts assurance/diagnostics sessions from deep links.
type Diagnostics interface {
	StartSession(ctx context.Context, uri string) error
}
