package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/fruteira-pos/terminal/internal/sale"
	"go.uber.org/zap"
)

// ErrCatalogUnavailable is returned while no successful load has happened
// since the last failure.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// ErrProductNotFound is returned by Lookup for an unknown product ID.
var ErrProductNotFound = errors.New("product not found in catalog")

// Directory is the product source. Satisfied by *backend.Client and
// *store.ProductStore.
type Directory interface {
	ListProducts(ctx context.Context) ([]sale.Product, error)
}

// Loader holds the products available for selection.
type Loader struct {
	dir    Directory
	logger *zap.Logger

	mu       sync.RWMutex
	status   string
	products []sale.Product
	byID     map[string]int
	lastErr  error
}

// NewLoader creates a Loader. Nothing is fetched until Load is called.
func NewLoader(dir Directory, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		dir:    dir,
		logger: logger,
		status: enum.CatalogStatusNotLoaded,
	}
}

// Load fetches the full product list. On failure the catalog becomes
// unavailable until a later Load succeeds.
func (l *Loader) Load(ctx context.Context) error {
	products, err := l.dir.ListProducts(ctx)
	if err != nil {
		l.mu.Lock()
		l.status = enum.CatalogStatusUnavailable
		l.products = nil
		l.byID = nil
		l.lastErr = err
		l.mu.Unlock()

		l.logger.Warn("catalog load failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	valid := make([]sale.Product, 0, len(products))
	byID := make(map[string]int, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			l.logger.Warn("skipping invalid product",
				zap.String("product_id", p.ID),
				zap.String("name", p.Name),
				zap.Error(err),
			)
			continue
		}
		byID[p.ID] = len(valid)
		valid = append(valid, p)
	}

	l.mu.Lock()
	l.status = enum.CatalogStatusLoaded
	l.products = valid
	l.byID = byID
	l.lastErr = nil
	l.mu.Unlock()

	l.logger.Info("catalog loaded", zap.Int("products", len(valid)))
	return nil
}

// Products returns the loaded products in directory order.
func (l *Loader) Products() ([]sale.Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.status != enum.CatalogStatusLoaded {
		return nil, ErrCatalogUnavailable
	}
	out := make([]sale.Product, len(l.products))
	copy(out, l.products)
	return out, nil
}

// Lookup returns the product with the given ID.
func (l *Loader) Lookup(id string) (*sale.Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.status != enum.CatalogStatusLoaded {
		return nil, ErrCatalogUnavailable
	}
	i, ok := l.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	p := l.products[i]
	return &p, nil
}

// Status reports the load state and the last load error, if any.
func (l *Loader) Status() (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status, l.lastErr
}

// Available reports whether products can be selected.
func (l *Loader) Available() bool {
	status, _ := l.Status()
	return status == enum.CatalogStatusLoaded
}
