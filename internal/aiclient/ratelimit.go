package aiclient

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// minBurst keeps small per-minute budgets usable in short bursts
const minBurst = 5

// limiterPool holds one token-bucket limiter per model endpoint. The first
// caller for a model fixes its rate; later callers with a different
// configured rate keep the original so two campaigns sharing a model cannot
// double its budget.
type limiterPool struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rpm      map[string]int
	logger   *slog.Logger
}

func newLimiterPool(logger *slog.Logger) *limiterPool {
	return &limiterPool{
		limiters: make(map[string]*rate.Limiter),
		rpm:      make(map[string]int),
		logger:   logger,
	}
}

// wait blocks until the model's limiter releases a token or ctx is done
func (p *limiterPool) wait(ctx context.Context, modelID string, requestsPerMinute int) error {
	return p.limiterFor(modelID, requestsPerMinute).Wait(ctx)
}

func (p *limiterPool) limiterFor(modelID string, requestsPerMinute int) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, ok := p.limiters[modelID]; ok {
		if p.rpm[modelID] != requestsPerMinute {
			p.logger.Warn("Model already rate limited at a different rate, keeping original",
				"model_id", modelID,
				"active_rpm", p.rpm[modelID],
				"requested_rpm", requestsPerMinute)
		}
		return limiter
	}

	burst := requestsPerMinute / 5
	if burst < minBurst {
		burst = minBurst
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
	p.limiters[modelID] = limiter
	p.rpm[modelID] = requestsPerMinute

	p.logger.Debug("Registered rate limiter", "model_id", modelID, "rpm", requestsPerMinute, "burst", burst)
	return limiter
}
