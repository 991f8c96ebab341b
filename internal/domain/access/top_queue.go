package access

import (
	"slices"
	"time"

	"storefront-app/internal/domain/products"
)

// TopQueue orders curated top products by priority. The first ExemptCount
// entries never release to the free tier; the rest are still tier-locked
// through the top flag and form the pool curation promotes from.
type TopQueue struct {
	ExemptCount int
}

type TopEntry struct {
	Product products.Product
	Rank    int
	Exempt  bool
	Verdict Verdict
}

// Order keeps only top products, sorted by priority descending, then
// created_at descending, then id descending.
func (q TopQueue) Order(ps []products.Product) []products.Product {
	out := make([]products.Product, 0, len(ps))
	for _, p := range ps {
		if p.IsTopProduct {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b products.Product) int {
		if a.Priority != b.Priority {
			if a.Priority > b.Priority {
				return -1
			}
			return 1
		}
		switch {
		case Newer(a, b):
			return -1
		case Newer(b, a):
			return 1
		}
		return 0
	})
	return out
}

// Audit returns the ordered queue with each entry's verdict for tier.
// Top products are never position-locked; their gate is the top flag.
func (q TopQueue) Audit(ps []products.Product, tier Tier, now time.Time) []TopEntry {
	ordered := q.Order(ps)
	out := make([]TopEntry, 0, len(ordered))
	for i, p := range ordered {
		out = append(out, TopEntry{
			Product: p,
			Rank:    i + 1,
			Exempt:  i < q.ExemptCount,
			Verdict: Evaluate(tier, p, false, now),
		})
	}
	return out
}
