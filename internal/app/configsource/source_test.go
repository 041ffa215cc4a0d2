package configsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoadBundledDocuments(t *testing.T) {
	source := New(nil, nil)

	general, err := source.LoadGeneral(context.Background(), "")
	if err != nil {
		t.Fatalf("load general: %v", err)
	}
	if general.Customer.Name == "" {
		t.Fatalf("bundled general missing customer name: %#v", general)
	}

	products, err := source.LoadProducts(context.Background(), "")
	if err != nil {
		t.Fatalf("load products: %v", err)
	}
	if len(products.Products) == 0 {
		t.Fatal("bundled products document is empty")
	}

	decisions, err := source.LoadDecisions(context.Background(), "")
	if err != nil {
		t.Fatalf("load decisions: %v", err)
	}
	if len(decisions.DecisionScopes) == 0 {
		t.Fatal("bundled decisions document is empty")
	}

	beacons, err := source.LoadBeacons(context.Background(), "")
	if err != nil {
		t.Fatalf("load beacons: %v", err)
	}
	if len(beacons.Beacons) == 0 {
		t.Fatal("bundled beacons document is empty")
	}
}

func TestLoadRemoteRequestsExactPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"config":{"tenant":"remote"},"customer":{},"testPush":{},"target":{},"map":{}}`))
	}))
	defer server.Close()

	source := New(server.Client(), nil)
	doc, err := source.LoadGeneral(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("load general: %v", err)
	}
	if gotPath != "/general.json" {
		t.Fatalf("expected GET /general.json, got %s", gotPath)
	}
	if doc.Config.Tenant != "remote" {
		t.Fatalf("unexpected tenant %q", doc.Config.Tenant)
	}

	if _, err := source.Load(context.Background(), KindBeacons, server.URL); err != nil {
		t.Fatalf("load beacons: %v", err)
	}
	if gotPath != "/ibeacons.json" {
		t.Fatalf("expected GET /ibeacons.json, got %s", gotPath)
	}
}

func TestLoadRemoteStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	source := New(server.Client(), nil)
	_, err := source.LoadGeneral(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if !IsFetch(err) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if IsParse(err) {
		t.Fatalf("fetch error misreported as parse: %v", err)
	}
}

func TestLoadRemoteParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	source := New(server.Client(), nil)
	_, err := source.LoadProducts(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !IsParse(err) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestKindFilenames(t *testing.T) {
	cases := map[Kind]string{
		KindGeneral:   "general.json",
		KindProducts:  "products.json",
		KindDecisions: "decisions.json",
		KindBeacons:   "ibeacons.json",
	}
	for kind, want := range cases {
		if got := kind.Filename(); got != want {
			t.Fatalf("filename for %s: got %s, want %s", kind, got, want)
		}
	}
}
