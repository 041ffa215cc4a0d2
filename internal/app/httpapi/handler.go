// Package httpapi exposes the application services over a small REST
// surface used by demo tooling and test harnesses.
package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	app "github.com/luma-mobile/companion-service/internal/app"
	"github.com/luma-mobile/companion-service/internal/app/domain/beacon"
	"github.com/luma-mobile/companion-service/internal/app/domain/decision"
	"github.com/luma-mobile/companion-service/internal/app/domain/place"
	"github.com/luma-mobile/companion-service/internal/app/domain/push"
	"github.com/luma-mobile/companion-service/internal/app/metrics"
	"github.com/luma-mobile/companion-service/internal/app/state"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the core REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.healthz)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/config", h.config)
	mux.HandleFunc("/config/reload", h.configReload)
	mux.HandleFunc("/products", h.products)
	mux.HandleFunc("/products/", h.productBySKU)
	mux.HandleFunc("/products/reload", h.productsReload)
	mux.HandleFunc("/decisions", h.decisions)
	mux.HandleFunc("/offers", h.offers)
	mux.HandleFunc("/proximity", h.proximity)
	mux.HandleFunc("/beacons", h.beacons)
	mux.HandleFunc("/beacons/status", h.beaconStatus)
	mux.HandleFunc("/identities", h.identities)
	mux.HandleFunc("/consent", h.consent)
	mux.HandleFunc("/tracking", h.tracking)
	mux.HandleFunc("/location", h.location)
	mux.HandleFunc("/push/token", h.pushToken)
	mux.HandleFunc("/push/messages", h.pushMessages)
	mux.HandleFunc("/push/test", h.pushTest)
	mux.HandleFunc("/deeplink", h.deeplink)
	mux.HandleFunc("/events", h.events)
	mux.HandleFunc("/events/interaction", h.eventInteraction)
	mux.HandleFunc("/events/screen", h.eventScreen)
	mux.HandleFunc("/events/commerce", h.eventCommerce)
	return metrics.InstrumentHandler(mux)
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) config(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.app.State.Configuration())
}

func (h *handler) configReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Location *string `json:"location"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	location := h.app.ConfigLocation()
	if payload.Location != nil {
		location = *payload.Location
	}
	// Fail-soft: a failed load already fell back to the example document.
	_ = h.app.State.Reload(r.Context(), location)
	writeJSON(w, http.StatusOK, h.app.State.Configuration())
}

func (h *handler) products(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.app.Catalog.Products())
}

func (h *handler) productsReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Location *string `json:"location"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	location := h.app.ConfigLocation()
	if payload.Location != nil {
		location = *payload.Location
	}
	writeJSON(w, http.StatusOK, h.app.Catalog.Load(r.Context(), location))
}

func (h *handler) productBySKU(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sku := strings.Trim(strings.TrimPrefix(r.URL.Path, "/products"), "/")
	if sku == "" || strings.Contains(sku, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	p, ok := h.app.Catalog.Lookup(sku)
	if !ok {
		writeError(w, http.StatusNotFound, errUnknownSKU(sku))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) decisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.app.Personalization.Scopes())
}

func (h *handler) offers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Name        string `json:"name"`
		ActivityID  string `json:"activityId"`
		PlacementID string `json:"placementId"`
		ItemCount   int    `json:"itemCount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var scope decision.Scope
	switch {
	case payload.ActivityID != "" && payload.PlacementID != "":
		scope = decision.OfferScope(payload.ActivityID, payload.PlacementID, payload.ItemCount)
	case payload.Name != "":
		scope = decision.TargetScope(payload.Name)
	default:
		writeError(w, http.StatusBadRequest, errScopeRequired)
		return
	}
	offers := h.app.Personalization.FetchOffers(r.Context(), scope, h.app.State.ECID())
	writeJSON(w, http.StatusOK, offers)
}

func (h *handler) proximity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Identifier string `json:"identifier"`
		Transition string `json:"transition"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ev, err := h.app.Beacons.ProcessTransition(r.Context(), payload.Identifier, parseTransition(payload.Transition))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *handler) beacons(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.app.Beacons.Beacons())
}

func (h *handler) beaconStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		UUID   string `json:"uuid"`
		Major  int    `json:"major"`
		Minor  int    `json:"minor"`
		Status string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b, ok := h.app.Beacons.SetStatus(beacon.Key{UUID: payload.UUID, Major: payload.Major, Minor: payload.Minor}, payload.Status)
	if !ok {
		writeError(w, http.StatusNotFound, errUnknownBeacon)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handler) identities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		email, crmID := h.app.State.Identities()
		writeJSON(w, http.StatusOK, map[string]string{
			"ecid":  h.app.State.ECID(),
			"email": email,
			"crmId": crmID,
		})
	case http.MethodPost:
		var payload struct {
			Email string `json:"email"`
			CRMID string `json:"crmId"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := h.app.State.UpdateIdentities(r.Context(), payload.Email, payload.CRMID); err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		email, crmID := h.app.State.Identities()
		if err := h.app.State.RemoveIdentities(r.Context(), email, crmID); err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) consent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.State.UpdateConsent(r.Context(), payload.Value); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) tracking(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]string{"status": h.app.State.TrackingStatus().String()})
	case http.MethodPost:
		var payload struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		status, err := parseTrackingStatus(payload.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		h.app.State.UpdateTrackingStatus(status)
		writeJSON(w, http.StatusOK, map[string]string{"status": status.String()})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) location(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.app.State.TrackingStatus() == state.TrackingDenied {
		writeError(w, http.StatusForbidden, errTrackingDenied)
		return
	}
	writeJSON(w, http.StatusOK, h.app.State.Location())
}

func (h *handler) pushToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.Push.Register(r.Context(), payload.Token); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) pushMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.app.Push.Messages())
	case http.MethodPost:
		var payload struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		msg := h.app.Push.Receive(push.Message{Title: payload.Title, Body: payload.Body})
		writeJSON(w, http.StatusCreated, msg)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) pushTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		ApplicationID string `json:"applicationId"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.Push.SendTest(r.Context(), payload.ApplicationID); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) deeplink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		URI string `json:"uri"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.HandleDeeplink(r.Context(), payload.URI); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		limit = parsed
	}
	records, err := h.app.Events.ListEvents(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) eventInteraction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.State.SendAppInteraction(r.Context(), payload.Name); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) eventScreen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.State.SendTrackScreen(r.Context(), payload.Name); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) eventCommerce(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Type string `json:"type"`
		SKU  string `json:"sku"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, ok := h.app.Catalog.Lookup(payload.SKU)
	if !ok {
		writeError(w, http.StatusNotFound, errUnknownSKU(payload.SKU))
		return
	}
	if err := h.app.State.SendCommerceEvent(r.Context(), payload.Type, p); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseTransition(raw string) place.Transition {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "enter", "entry":
		return place.TransitionEnter
	case "exit":
		return place.TransitionExit
	default:
		return place.TransitionUnknown
	}
}

func parseTrackingStatus(raw string) (state.TrackingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "not_determined":
		return state.TrackingNotDetermined, nil
	case "denied":
		return state.TrackingDenied, nil
	case "authorized":
		return state.TrackingAuthorized, nil
	default:
		return state.TrackingNotDetermined, errBadTrackingStatus(raw)
	}
}
