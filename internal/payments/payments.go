// Package payments talks to the payment processor on behalf of checkout.
package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/khaista/boutique/internal/money"
)

// ErrMissingClientSecret is returned when the backend answers without a
// client secret, which leaves the payment form nothing to confirm against.
var ErrMissingClientSecret = errors.New("payment intent has no client secret")

// Intent is one attempted charge. It is never reused across checkouts.
type Intent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
}

// Confirmation is the processor's view of an intent after the customer
// submitted the payment form.
type Confirmation struct {
	Status    string      `json:"status"`
	Succeeded bool        `json:"succeeded"`
	Amount    money.Cents `json:"amount"`
	Message   string      `json:"message,omitempty"`
}

// Backend creates intents for checkout and reports how they ended.
type Backend interface {
	CreateIntent(ctx context.Context, amount money.Cents, currency string) (*Intent, error)
	Confirmation(ctx context.Context, intentID string) (*Confirmation, error)
}

// IntentIDFromSecret recovers the intent id from a client secret of the
// form "pi_123_secret_abc".
func IntentIDFromSecret(secret string) string {
	if i := strings.Index(secret, "_secret_"); i > 0 {
		return secret[:i]
	}
	return ""
}
