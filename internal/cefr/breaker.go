package cefr

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerInvoker wraps an Invoker with one circuit breaker per model. A
// model whose breaker is open fails immediately and contributes a soft
// failure to the vote, exactly like a timeout would.
type BreakerInvoker struct {
	next Invoker

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerInvoker wraps next with per-model circuit breakers.
func NewBreakerInvoker(next Invoker) *BreakerInvoker {
	return &BreakerInvoker{
		next:     next,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (b *BreakerInvoker) breakerFor(modelID string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[modelID]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        modelID,
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	b.breakers[modelID] = cb
	return cb
}

// Invoke calls the wrapped invoker through the model's circuit breaker.
func (b *BreakerInvoker) Invoke(ctx context.Context, modelID, prompt string) (string, error) {
	result, err := b.breakerFor(modelID).Execute(func() (interface{}, error) {
		return b.next.Invoke(ctx, modelID, prompt)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Router dispatches each model ID to a registered invoker, so one engine
// can mix providers in a single ensemble.
type Router struct {
	routes   map[string]Invoker
	fallback Invoker
}

// NewRouter creates a Router. The fallback invoker handles model IDs with
// no explicit route; it may be nil.
func NewRouter(fallback Invoker) *Router {
	return &Router{routes: make(map[string]Invoker), fallback: fallback}
}

// Register routes a model ID to an invoker.
func (r *Router) Register(modelID string, invoker Invoker) {
	r.routes[modelID] = invoker
}

// Invoke dispatches to the invoker registered for modelID.
func (r *Router) Invoke(ctx context.Context, modelID, prompt string) (string, error) {
	if invoker, ok := r.routes[modelID]; ok {
		return invoker.Invoke(ctx, modelID, prompt)
	}
	if r.fallback != nil {
		return r.fallback.Invoke(ctx, modelID, prompt)
	}
	return "", &NoRouteError{ModelID: modelID}
}

// NoRouteError indicates a model ID with no registered invoker.
type NoRouteError struct {
	ModelID string
}

func (e *NoRouteError) Error() string {
	return "no invoker registered for model " + e.ModelID
}
