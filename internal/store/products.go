package store

import (
	"context"
	"fmt"

	"github.com/fruteira-pos/terminal/internal/sale"
)

// ProductLister defines the DB methods needed to read the catalog.
// Satisfied by *Queries.
type ProductLister interface {
	ListActiveProducts(ctx context.Context) ([]ProductRow, error)
}

// ProductStore serves the catalog from Postgres. It satisfies
// catalog.Directory.
type ProductStore struct {
	q ProductLister
}

func NewProductStore(q ProductLister) *ProductStore {
	return &ProductStore{q: q}
}

func (s *ProductStore) ListProducts(ctx context.Context) ([]sale.Product, error) {
	rows, err := s.q.ListActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products := make([]sale.Product, len(rows))
	for i, r := range rows {
		products[i] = sale.Product{
			ID:          r.ID,
			Name:        r.Name,
			Price:       numericToDecimal(r.Price),
			PricingMode: r.PricingMode,
			ImageRef:    r.ImageRef,
		}
	}
	return products, nil
}

// SeedProduct inserts or refreshes p.
func SeedProduct(ctx context.Context, q *Queries, p sale.Product) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("product %q: %w", p.ID, err)
	}
	return q.UpsertProduct(ctx, UpsertProductParams{
		ID:          p.ID,
		Name:        p.Name,
		Price:       decimalToNumeric(p.Price, 2),
		PricingMode: p.PricingMode,
		ImageRef:    p.ImageRef,
	})
}
