package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storefront-app/internal/domain/access"
	"storefront-app/internal/domain/products"
	"storefront-app/internal/pkg/clock"
)

// AnnotatedProduct is a product plus the transient gating annotations
// derived at read time. Nothing here is persisted.
type AnnotatedProduct struct {
	Product    products.Product
	Index      int // -1 when not resolved (privileged detail views)
	AutoLocked bool
	Verdict    access.Verdict
	Countdown  *access.Countdown
}

// Assembler composes the gating steps over fetched products. Listing and
// detail share the same position rule and the same Evaluate call so they
// cannot disagree about a product.
type Assembler struct {
	store  Store
	policy access.Policy
	clock  clock.Clock
	log    *slog.Logger
}

func NewAssembler(store Store, policy access.Policy, clk clock.Clock, log *slog.Logger) *Assembler {
	if clk == nil {
		clk = clock.Real()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{store: store, policy: policy, clock: clk, log: log}
}

func (a *Assembler) Policy() access.Policy { return a.policy }

// AssembleListing renders one 1-based page. pageSize only controls how many
// rows are fetched; the free window always comes from the policy.
func (a *Assembler) AssembleListing(ctx context.Context, page, pageSize int, tier access.Tier) ([]AnnotatedProduct, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = a.policy.PageSize
	}
	start := (page - 1) * pageSize

	batch, err := a.store.ListRecent(ctx, start, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	now := a.clock.Now()
	out := make([]AnnotatedProduct, 0, len(batch))
	for _, pp := range access.Assign(batch, start, a.policy.FreeWindowSize()) {
		out = append(out, annotate(tier, pp.Product, pp.Index, pp.PositionLocked, now))
	}
	return out, nil
}

// AssembleRows annotates rows fetched outside the recency listing, such as
// a filtered or re-sorted page. Each row gets its absolute index from the
// store the way the detail path does, so a filter never moves a product in
// or out of the free window.
func (a *Assembler) AssembleRows(ctx context.Context, rows []products.Product, tier access.Tier) []AnnotatedProduct {
	now := a.clock.Now()
	out := make([]AnnotatedProduct, 0, len(rows))
	for _, p := range rows {
		if tier.Privileged() {
			out = append(out, annotate(tier, p, -1, false, now))
			continue
		}
		index, locked := a.resolvePosition(ctx, p)
		out = append(out, annotate(tier, p, index, locked, now))
	}
	return out
}

// AssembleDetail renders a single product. Its absolute index is recomputed
// from the store; if that fails the product is treated as position-locked.
func (a *Assembler) AssembleDetail(ctx context.Context, id string, tier access.Tier) (AnnotatedProduct, error) {
	p, err := a.store.GetByID(ctx, id)
	if err != nil {
		return AnnotatedProduct{}, err
	}

	if tier.Privileged() {
		return annotate(tier, *p, -1, false, a.clock.Now()), nil
	}

	index, locked := a.resolvePosition(ctx, *p)
	return annotate(tier, *p, index, locked, a.clock.Now()), nil
}

func (a *Assembler) resolvePosition(ctx context.Context, p products.Product) (int, bool) {
	n, err := a.store.CountNewerThan(ctx, p)
	if err != nil {
		a.log.Warn("index resolution failed, treating product as locked",
			"product_id", p.ID, "error", errors.Join(ErrIndexResolution, err))
		return -1, true
	}
	index := int(n)
	return index, access.PositionLocked(index, a.policy.FreeWindowSize())
}

// Reevaluate is AssembleDetail under the name countdown consumers use when
// a timer reaches zero.
func (a *Assembler) Reevaluate(ctx context.Context, id string, tier access.Tier) (AnnotatedProduct, error) {
	return a.AssembleDetail(ctx, id, tier)
}

func annotate(tier access.Tier, p products.Product, index int, positionLocked bool, now time.Time) AnnotatedProduct {
	v := access.Evaluate(tier, p, positionLocked, now)
	ap := AnnotatedProduct{
		Product:    p,
		Index:      index,
		AutoLocked: positionLocked && !tier.Privileged(),
		Verdict:    v,
	}
	if v.Kind == access.TimeLocked {
		cd := access.FormatCountdown(v.Remaining)
		ap.Countdown = &cd
	}
	return ap
}
