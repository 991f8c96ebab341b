package catalog

import (
	"context"
	"sync"
	"time"

	"storefront-app/internal/domain/access"
	"storefront-app/internal/pkg/clock"
)

// Tick is one countdown refresh for a product. Elapsed is set exactly once,
// on the final tick, and the consumer must re-evaluate the product then.
type Tick struct {
	ProductID string
	Remaining time.Duration
	Elapsed   bool
}

type countdownTimer struct {
	cancel context.CancelFunc
}

// Countdowns is the set of live countdown timers for one view, keyed by
// product id. Every timer recomputes the remaining time from the clock on
// each tick; none of them keeps a decrementing counter.
type Countdowns struct {
	clock    clock.Clock
	interval time.Duration

	mu     sync.Mutex
	timers map[string]*countdownTimer
	wg     sync.WaitGroup
}

func NewCountdowns(clk clock.Clock, interval time.Duration) *Countdowns {
	if clk == nil {
		clk = clock.Real()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdowns{
		clock:    clk,
		interval: interval,
		timers:   make(map[string]*countdownTimer),
	}
}

// Start runs a timer for productID, replacing any timer already running for
// it. Ticks go to out until the release elapses, ctx ends, or the timer is
// cancelled. A release already in the past yields a single Elapsed tick.
func (c *Countdowns) Start(ctx context.Context, productID string, releaseAt time.Time, out chan<- Tick) {
	tctx, cancel := context.WithCancel(ctx)
	t := &countdownTimer{cancel: cancel}

	c.mu.Lock()
	if old, ok := c.timers[productID]; ok {
		old.cancel()
	}
	c.timers[productID] = t
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.release(productID, t)
		c.run(tctx, productID, releaseAt, out)
	}()
}

func (c *Countdowns) run(ctx context.Context, productID string, releaseAt time.Time, out chan<- Tick) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		rem, pending := access.Remaining(&releaseAt, c.clock.Now())
		tick := Tick{ProductID: productID, Remaining: rem, Elapsed: !pending}
		select {
		case out <- tick:
		case <-ctx.Done():
			return
		}
		if tick.Elapsed {
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// release drops the registry entry only if it still belongs to t; a
// replacement timer keeps its slot.
func (c *Countdowns) release(productID string, t *countdownTimer) {
	t.cancel()
	c.mu.Lock()
	if cur, ok := c.timers[productID]; ok && cur == t {
		delete(c.timers, productID)
	}
	c.mu.Unlock()
}

func (c *Countdowns) Cancel(productID string) {
	c.mu.Lock()
	t, ok := c.timers[productID]
	if ok {
		delete(c.timers, productID)
	}
	c.mu.Unlock()
	if ok {
		t.cancel()
	}
}

// CancelAll stops every timer and waits for their goroutines to exit.
func (c *Countdowns) CancelAll() {
	c.mu.Lock()
	for id, t := range c.timers {
		t.cancel()
		delete(c.timers, id)
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// Wait blocks until every started timer has finished.
func (c *Countdowns) Wait() {
	c.wg.Wait()
}

func (c *Countdowns) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
