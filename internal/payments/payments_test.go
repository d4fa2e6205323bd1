package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/khaista/boutique/internal/money"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentIDFromSecret(t *testing.T) {
	assert.Equal(t, "pi_123", IntentIDFromSecret("pi_123_secret_abc"))
	assert.Equal(t, "", IntentIDFromSecret("garbage"))
}

func TestHTTPBackendCreateIntent(t *testing.T) {
	t.Run("returns client secret", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/create-payment-intent", r.URL.Path)

			var req createIntentRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.InDelta(t, 25.5, req.Amount, 0.001)
			assert.Equal(t, "usd", req.Currency)

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"clientSecret":"pi_42_secret_xyz"}`))
		}))
		defer srv.Close()

		intent, err := NewHTTPBackend(srv.URL, time.Second).CreateIntent(context.Background(), 2550, "usd")
		require.NoError(t, err)
		assert.Equal(t, "pi_42_secret_xyz", intent.ClientSecret)
		assert.Equal(t, "pi_42", intent.ID)
	})

	t.Run("missing client secret", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		_, err := NewHTTPBackend(srv.URL, time.Second).CreateIntent(context.Background(), 100, "usd")
		assert.ErrorIs(t, err, ErrMissingClientSecret)
	})

	t.Run("non-2xx carries the server message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"Failed to create payment intent: boom"}`))
		}))
		defer srv.Close()

		_, err := NewHTTPBackend(srv.URL, time.Second).CreateIntent(context.Background(), 100, "usd")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		_, err := NewHTTPBackend(srv.URL, time.Second).CreateIntent(context.Background(), 100, "usd")
		assert.ErrorContains(t, err, "malformed")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		_, err := NewHTTPBackend(srv.URL, 20*time.Millisecond).CreateIntent(context.Background(), 100, "usd")
		assert.Error(t, err)
	})
}

func TestHTTPBackendConfirmation(t *testing.T) {
	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/payment-intents/pi_1", r.URL.Path)
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"status":"succeeded","succeeded":true,"amount":"25.50"}`))
		}))
		defer srv.Close()

		conf, err := NewHTTPBackend(srv.URL, time.Second).Confirmation(context.Background(), "pi_1")
		require.NoError(t, err)
		assert.True(t, conf.Succeeded)
		assert.Equal(t, money.Cents(2550), conf.Amount)
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Payment intent not found"}`))
		}))
		defer srv.Close()

		_, err := NewHTTPBackend(srv.URL, time.Second).Confirmation(context.Background(), "pi_missing")
		assert.ErrorContains(t, err, "Payment intent not found")
		assert.EqualValues(t, 1, calls.Load())
	})
}

type fakeBackend struct {
	calls int
	err   error
}

func (f *fakeBackend) CreateIntent(ctx context.Context, amount money.Cents, currency string) (*Intent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Intent{ID: "pi_fake", ClientSecret: "pi_fake_secret_1"}, nil
}

func (f *fakeBackend) Confirmation(ctx context.Context, intentID string) (*Confirmation, error) {
	return &Confirmation{Status: "succeeded", Succeeded: true}, nil
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{err: errors.New("connection refused")}
	b := NewBreaker(backend, BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := b.CreateIntent(ctx, 100, "usd")
		assert.Error(t, err)
	}
	assert.Equal(t, "open", b.State())

	_, err := b.CreateIntent(ctx, 100, "usd")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, backend.calls)

	conf, err := b.Confirmation(ctx, "pi_fake")
	require.NoError(t, err)
	assert.True(t, conf.Succeeded)
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	b := NewBreaker(&fakeBackend{}, BreakerSettings{})
	intent, err := b.CreateIntent(context.Background(), 100, "usd")
	require.NoError(t, err)
	assert.Equal(t, "pi_fake", intent.ID)
	assert.Equal(t, "closed", b.State())
}
