package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	errScopeRequired  = errors.New("a scope name or activityId/placementId pair is required")
	errUnknownBeacon  = errors.New("unknown beacon key")
	errTrackingDenied = errors.New("location tracking permission denied")
)

func errUnknownSKU(sku string) error {
	return fmt.Errorf("unknown sku %q", sku)
}

func errBadTrackingStatus(raw string) error {
	return fmt.Errorf("unknown tracking status %q", raw)
}

func decodeJSON(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
