// Package catalog caches the loaded product list and its SKU index.
package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/luma-mobile/companion-service/internal/app/configsource"
	"github.com/luma-mobile/companion-service/internal/app/domain/product"
	"github.com/luma-mobile/companion-service/internal/app/metrics"
	"github.com/luma-mobile/companion-service/pkg/logger"
)

// Service loads the product catalog and answers SKU lookups. The list and
// index are replaced wholesale on every load; identifiers assigned in one
// load generation must not be dereferenced after the next.
type Service struct {
	source *configsource.Source
	cache  *Cache
	log    *logger.Logger

	mu       sync.RWMutex
	products []product.Product
	index    map[string]product.Product
}

// New constructs the catalog service. cache may be nil.
func New(source *configsource.Source, cache *Cache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{
		source: source,
		cache:  cache,
		log:    log,
		index:  make(map[string]product.Product),
	}
}

// Load fetches the catalog document and swaps the product list and SKU
// index. Fetch or parse failure yields an empty catalog; no error surfaces.
func (s *Service) Load(ctx context.Context, location string) []product.Product {
	doc, err := s.source.LoadProducts(ctx, location)
	if err != nil {
		s.log.WithError(err).Warn("product load failed, catalog emptied")
		metrics.IncConfigLoad(string(configsource.KindProducts), "fallback")
		doc = product.Document{}
	} else {
		metrics.IncConfigLoad(string(configsource.KindProducts), "ok")
	}

	products := make([]product.Product, len(doc.Products))
	index := make(map[string]product.Product, len(doc.Products))
	for i, p := range doc.Products {
		p.ID = uuid.NewString()
		products[i] = p
		index[p.SKU] = p
	}

	s.mu.Lock()
	s.products = products
	s.index = index
	s.mu.Unlock()

	if s.cache != nil && err == nil {
		if cacheErr := s.cache.Store(ctx, products); cacheErr != nil {
			s.log.WithError(cacheErr).Warn("catalog cache write failed")
		}
	}

	s.log.WithField("count", len(products)).Info("product catalog loaded")
	return products
}

// WarmFromCache seeds the catalog from the cache snapshot, used at startup
// before the first load. It never fails the caller.
func (s *Service) WarmFromCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	products, err := s.cache.Fetch(ctx)
	if err != nil || len(products) == 0 {
		return
	}
	index := make(map[string]product.Product, len(products))
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = uuid.NewString()
		}
		index[products[i].SKU] = products[i]
	}
	s.mu.Lock()
	s.products = products
	s.index = index
	s.mu.Unlock()
	s.log.WithField("count", len(products)).Info("product catalog warmed from cache")
}

// Lookup returns the product for a SKU from the current load generation.
func (s *Service) Lookup(sku string) (product.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.index[sku]
	return p, ok
}

// Products returns a copy of the current product list.
func (s *Service) Products() []product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]product.Product(nil), s.products...)
}
