package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/khaista/boutique/internal/money"
	"github.com/sethvargo/go-retry"
)

// HTTPBackend calls a remote payment proxy exposing
// POST /api/create-payment-intent and GET /api/payment-intents/:id.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

func NewHTTPBackend(baseURL string, timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type createIntentRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (b *HTTPBackend) CreateIntent(ctx context.Context, amount money.Cents, currency string) (*Intent, error) {
	body, err := json.Marshal(createIntentRequest{Amount: amount.Dollars(), Currency: currency})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/create-payment-intent", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var intent Intent
	if err := b.do(req, &intent); err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	if intent.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}
	if intent.ID == "" {
		intent.ID = IntentIDFromSecret(intent.ClientSecret)
	}
	return &intent, nil
}

// Confirmation retries network errors and 5xx responses twice.
func (b *HTTPBackend) Confirmation(ctx context.Context, intentID string) (*Confirmation, error) {
	endpoint := b.baseURL + "/api/payment-intents/" + url.PathEscape(intentID)

	var conf Confirmation
	backoff := retry.WithMaxRetries(2, retry.NewExponential(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		err = b.do(req, &conf)
		var status *statusError
		if errors.As(err, &status) && status.code < http.StatusInternalServerError {
			return err
		}
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent %s: %w", intentID, err)
	}
	return &conf, nil
}

type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("payment backend returned %d", e.code)
	}
	return fmt.Sprintf("payment backend returned %d: %s", e.code, e.message)
}

func (b *HTTPBackend) do(req *http.Request, out any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.Unmarshal(data, &e)
		msg := e.Error
		if msg == "" {
			msg = e.Message
		}
		return &statusError{code: resp.StatusCode, message: msg}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}
