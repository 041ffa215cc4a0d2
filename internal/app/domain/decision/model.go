package decision

// Scope identifies a personalization request target. Exactly one of the two
// variants is populated: a named target location, or an activity/placement
// pair with an item count. Scopes compare structurally, so a Scope value is
// usable directly as a map key when correlating proposition responses.
type Scope struct {
	Name        string `json:"name,omitempty"`
	ActivityID  string `json:"activityId,omitempty"`
	PlacementID string `json:"placementId,omitempty"`
	ItemCount   int    `json:"itemCount,omitempty"`
}

// TargetScope builds the named-location variant.
func TargetScope(name string) Scope {
	return Scope{Name: name}
}

// OfferScope builds the activity/placement variant.
func OfferScope(activityID, placementID string, itemCount int) Scope {
	return Scope{ActivityID: activityID, PlacementID: placementID, ItemCount: itemCount}
}

// IsTarget reports whether the scope is the named-location variant.
func (s Scope) IsTarget() bool {
	return s.Name != "" && s.ActivityID == ""
}

// Document mirrors the decisions.json document.
type Document struct {
	DecisionScopes []Scope `json:"decisionScopes"`
}

// Example is the built-in fallback document used when the decisions config
// cannot be fetched or parsed.
func Example() Document {
	return Document{DecisionScopes: []Scope{{}}}
}
