package payments

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaista/boutique/internal/money"
	"github.com/sony/gobreaker/v2"
)

// Breaker wraps a Backend so that a run of failed intent creations stops
// further calls for a while. Checkout treats the open-state error like any
// other backend failure.
type Breaker struct {
	next    Backend
	intents *gobreaker.CircuitBreaker[*Intent]
}

type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

func NewBreaker(next Backend, settings BreakerSettings) *Breaker {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 3
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[*Intent](gobreaker.Settings{
		Name:        "payment-intents",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("payment circuit breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Breaker{next: next, intents: cb}
}

func (b *Breaker) CreateIntent(ctx context.Context, amount money.Cents, currency string) (*Intent, error) {
	return b.intents.Execute(func() (*Intent, error) {
		return b.next.CreateIntent(ctx, amount, currency)
	})
}

// Confirmation is not guarded by the breaker.
func (b *Breaker) Confirmation(ctx context.Context, intentID string) (*Confirmation, error) {
	return b.next.Confirmation(ctx, intentID)
}

// State reports the breaker state for health output.
func (b *Breaker) State() string {
	return b.intents.State().String()
}
