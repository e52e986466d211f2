package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/deusflow/newslens/internal/logger"
)

// ErrBudgetExhausted is returned by Budget.Take once the cap is reached.
var ErrBudgetExhausted = errors.New("request budget exhausted")

// Pacer spaces requests to one upstream at least interval apart.
// The first request goes out immediately.
type Pacer struct {
	name    string
	limiter *rate.Limiter
}

// NewPacer creates a pacer. A non-positive interval disables pacing.
func NewPacer(name string, interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{name: name, limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next request may be sent or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	start := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s pacer: %w", p.name, err)
	}
	if waited := time.Since(start); waited > time.Second {
		logger.Debug("paced request", "source", p.name, "waited", waited.Round(time.Millisecond))
	}
	return nil
}

// Budget caps how many requests one ingestion run may make to a source.
type Budget struct {
	mu   sync.Mutex
	name string
	used int
	max  int
}

// NewBudget creates a budget of max requests. Zero or less means unlimited.
func NewBudget(name string, max int) *Budget {
	return &Budget{name: name, max: max}
}

// Take reserves one request.
func (b *Budget) Take() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.used >= b.max {
		logger.Debug("request budget reached", "source", b.name, "used", b.used, "max", b.max)
		return ErrBudgetExhausted
	}
	b.used++
	return nil
}

// Used reports how many requests were taken.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// GetStats returns current usage.
func (b *Budget) GetStats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]interface{}{
		"source": b.name,
		"used":   b.used,
		"limit":  b.max,
	}
}
