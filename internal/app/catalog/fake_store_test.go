package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-app/internal/domain/access"
	"storefront-app/internal/domain/products"
)

var t0 = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

// memStore is an in-memory Store that orders with access.SortRecent and
// counts with access.Newer, so it agrees with the gorm store's SQL.
type memStore struct {
	items    []products.Product
	countErr error
	listErr  error
}

func newMemStore(ps ...products.Product) *memStore {
	s := &memStore{items: append([]products.Product(nil), ps...)}
	access.SortRecent(s.items)
	return s
}

func (s *memStore) ListRecent(_ context.Context, offset, limit int) ([]products.Product, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if offset >= len(s.items) {
		return nil, nil
	}
	end := min(offset+limit, len(s.items))
	return append([]products.Product(nil), s.items[offset:end]...), nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*products.Product, error) {
	for _, p := range s.items {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}

func (s *memStore) CountNewerThan(_ context.Context, p products.Product) (int64, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	var n int64
	for _, q := range s.items {
		if access.Newer(q, p) {
			n++
		}
	}
	return n, nil
}

// seedCatalog builds n products, newest first, with a few timestamp ties.
func seedCatalog(n int) []products.Product {
	ps := make([]products.Product, 0, n)
	for i := 0; i < n; i++ {
		ps = append(ps, products.Product{
			ID:        fmt.Sprintf("prod-%03d", i),
			Name:      fmt.Sprintf("Product %d", i),
			CreatedAt: t0.Add(-time.Duration(i/2) * time.Minute),
		})
	}
	return ps
}

var errStoreDown = errors.New("store unavailable")
