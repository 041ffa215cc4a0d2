// Package configsource fetches the application's configuration documents
// from either the bundled copies or a remote HTTP location.
package configsource

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/luma-mobile/companion-service/internal/app/domain/beacon"
	"github.com/luma-mobile/companion-service/internal/app/domain/decision"
	"github.com/luma-mobile/companion-service/internal/app/domain/general"
	"github.com/luma-mobile/companion-service/internal/app/domain/product"
	"github.com/luma-mobile/companion-service/pkg/logger"
)

//go:embed data/general.json data/products.json data/decisions.json data/ibeacons.json
var bundled embed.FS

// Kind names a configuration document.
type Kind string

const (
	KindGeneral   Kind = "general"
	KindProducts  Kind = "products"
	KindDecisions Kind = "decisions"
	KindBeacons   Kind = "beacons"
)

// Filename returns the document filename for the kind, both in the bundle
// and relative to a remote location.
func (k Kind) Filename() string {
	if k == KindBeacons {
		return "ibeacons.json"
	}
	return string(k) + ".json"
}

// Stage identifies where a load failed.
type Stage int

const (
	StageFetch Stage = iota
	StageParse
)

// Error is a configuration load failure. Callers use IsFetch/IsParse to
// pick a fallback; no load failure is fatal.
type Error struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	stage := "fetch"
	if e.Stage == StageParse {
		stage = "parse"
	}
	return fmt.Sprintf("config %s: %s %s: %v", e.Kind, stage, e.Kind.Filename(), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsParse reports whether err is a configuration parse failure.
func IsParse(err error) bool {
	var cerr *Error
	return errors.As(err, &cerr) && cerr.Stage == StageParse
}

// IsFetch reports whether err is a configuration fetch failure.
func IsFetch(err error) bool {
	var cerr *Error
	return errors.As(err, &cerr) && cerr.Stage == StageFetch
}

// Source loads configuration documents. An empty location selects the
// bundled copy; anything else is treated as a base URL.
type Source struct {
	client *http.Client
	log    *logger.Logger
}

// New creates a source using the provided HTTP client. A nil client gets a
// 10 second timeout default.
func New(client *http.Client, log *logger.Logger) *Source {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("configsource")
	}
	return &Source{client: client, log: log}
}

// Load returns the raw document bytes for the kind.
func (s *Source) Load(ctx context.Context, kind Kind, location string) ([]byte, error) {
	if location == "" {
		data, err := bundled.ReadFile("data/" + kind.Filename())
		if err != nil {
			return nil, &Error{Kind: kind, Stage: StageFetch, Err: err}
		}
		s.log.WithField("kind", string(kind)).Debug("loaded bundled document")
		return data, nil
	}

	url := location + "/" + kind.Filename()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: kind, Stage: StageFetch, Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: kind, Stage: StageFetch, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: kind, Stage: StageFetch, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: kind, Stage: StageFetch, Err: err}
	}
	s.log.WithField("kind", string(kind)).WithField("url", url).Debug("loaded remote document")
	return data, nil
}

// LoadGeneral loads and parses the general document.
func (s *Source) LoadGeneral(ctx context.Context, location string) (general.Document, error) {
	var doc general.Document
	if err := s.loadInto(ctx, KindGeneral, location, &doc); err != nil {
		return general.Document{}, err
	}
	return doc, nil
}

// LoadProducts loads and parses the product catalog document.
func (s *Source) LoadProducts(ctx context.Context, location string) (product.Document, error) {
	var doc product.Document
	if err := s.loadInto(ctx, KindProducts, location, &doc); err != nil {
		return product.Document{}, err
	}
	return doc, nil
}

// LoadDecisions loads and parses the decision scopes document.
func (s *Source) LoadDecisions(ctx context.Context, location string) (decision.Document, error) {
	var doc decision.Document
	if err := s.loadInto(ctx, KindDecisions, location, &doc); err != nil {
		return decision.Document{}, err
	}
	return doc, nil
}

// LoadBeacons loads and parses the beacon registry document.
func (s *Source) LoadBeacons(ctx context.Context, location string) (beacon.Document, error) {
	var doc beacon.Document
	if err := s.loadInto(ctx, KindBeacons, location, &doc); err != nil {
		return beacon.Document{}, err
	}
	return doc, nil
}

func (s *Source) loadInto(ctx context.Context, kind Kind, location string, v any) error {
	data, err := s.Load(ctx, kind, location)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &Error{Kind: kind, Stage: StageParse, Err: err}
	}
	return nil
}
