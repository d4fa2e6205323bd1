package stripe

import (
	"context"
	"os"
	"testing"

	"github.com/khaista/boutique/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLiveCreateIntent creates and reads back a real test-mode intent.
// Skipped unless STRIPE_LIVE_TEST=1.
//
// Usage:
//
//	STRIPE_LIVE_TEST=1 STRIPE_SECRET_KEY=sk_test_xxx go test -v ./internal/stripe -run TestLiveCreateIntent
func TestLiveCreateIntent(t *testing.T) {
	if os.Getenv("STRIPE_LIVE_TEST") != "1" {
		t.Skip("Skipping live Stripe API test. Set STRIPE_LIVE_TEST=1 to enable.")
	}

	key := os.Getenv("STRIPE_SECRET_KEY")
	require.NotEmpty(t, key, "STRIPE_SECRET_KEY environment variable must be set")

	svc := NewStripeService(key)
	ctx := context.Background()

	intent, err := svc.CreateIntent(ctx, money.Cents(4500), "usd")
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ClientSecret)
	t.Logf("created intent %s", intent.ID)

	conf, err := svc.Confirmation(ctx, intent.ID)
	require.NoError(t, err)
	assert.False(t, conf.Succeeded, "a fresh intent has no payment method yet")
	assert.Equal(t, "requires_payment_method", conf.Status)
}
