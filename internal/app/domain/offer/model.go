package offer

import "github.com/luma-mobile/companion-service/internal/app/domain/decision"

// Offer is display-ready personalization content resolved for a scope.
type Offer struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Image string `json:"image"`
}

// Proposition is a server-resolved personalization response bound to a
// decision scope. Each item carries an opaque content blob.
type Proposition struct {
	Scope decision.Scope
	Items []Item
}

// Item is a single offer inside a proposition; Content is the raw JSON
// blob delivered by the personalization collaborator.
type Item struct {
	ID      string
	Content string
}
