package access

import (
	"slices"

	"storefront-app/internal/domain/products"
)

// Newer reports whether a precedes b in the catalog's recency order:
// created_at descending, then id descending. The order is total, so a
// product always lands on the same absolute index.
func Newer(a, b products.Product) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// SortRecent sorts ps in place into recency order.
func SortRecent(ps []products.Product) {
	slices.SortStableFunc(ps, func(a, b products.Product) int {
		switch {
		case Newer(a, b):
			return -1
		case Newer(b, a):
			return 1
		}
		return 0
	})
}

// PositionLocked is the position rule shared by listing and detail paths.
func PositionLocked(absoluteIndex, freeWindowSize int) bool {
	return absoluteIndex >= freeWindowSize
}

// Positioned is a product stamped with its absolute catalog index.
type Positioned struct {
	Product        products.Product
	Index          int
	PositionLocked bool
}

// Assign stamps each product of one page with its absolute index and
// derived position lock. ordered must already be in recency order and
// start at windowStart in the full catalog.
func Assign(ordered []products.Product, windowStart, freeWindowSize int) []Positioned {
	if windowStart < 0 {
		windowStart = 0
	}
	out := make([]Positioned, 0, len(ordered))
	for i, p := range ordered {
		idx := windowStart + i
		out = append(out, Positioned{
			Product:        p,
			Index:          idx,
			PositionLocked: PositionLocked(idx, freeWindowSize),
		})
	}
	return out
}
