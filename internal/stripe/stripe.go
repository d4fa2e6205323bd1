package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/khaista/boutique/internal/money"
	"github.com/khaista/boutique/internal/payments"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
)

// MetadataSource tags every intent created by the storefront.
const MetadataSource = "khaista-boutique"

// StripeService creates and inspects payment intents with the Stripe API.
type StripeService struct {
	api *client.API
}

// NewStripeService returns a service using the live Stripe API.
func NewStripeService(secretKey string) *StripeService {
	return NewStripeServiceWithBackends(secretKey, nil)
}

// NewStripeServiceWithBackends lets tests point the client at a local server.
func NewStripeServiceWithBackends(secretKey string, backends *stripe.Backends) *StripeService {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeService{api: api}
}

func (s *StripeService) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	return s.api.PaymentIntents.New(params)
}

func (s *StripeService) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return s.api.PaymentIntents.Get(id, params)
}

// CreateIntent implements payments.Backend.
func (s *StripeService) CreateIntent(ctx context.Context, amount money.Cents, currency string) (*payments.Intent, error) {
	pi, err := s.CreatePaymentIntent(ctx, int64(amount), currency, map[string]string{"source": MetadataSource})
	if err != nil {
		return nil, fmt.Errorf("stripe: %w", err)
	}
	if pi.ClientSecret == "" {
		return nil, payments.ErrMissingClientSecret
	}
	return &payments.Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// Confirmation implements payments.Backend.
func (s *StripeService) Confirmation(ctx context.Context, intentID string) (*payments.Confirmation, error) {
	pi, err := s.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("stripe: %w", err)
	}
	return ConfirmationFor(pi), nil
}

// ConfirmationFor maps an intent's status to a checkout outcome. Intents that
// are processing or awaiting capture count as paid.
func ConfirmationFor(pi *stripe.PaymentIntent) *payments.Confirmation {
	conf := &payments.Confirmation{Status: string(pi.Status), Amount: money.Cents(pi.Amount)}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded,
		stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresCapture:
		conf.Succeeded = true
	case stripe.PaymentIntentStatusCanceled:
		conf.Message = "Payment was canceled"
	default:
		conf.Message = "Payment was not completed"
	}

	if !conf.Succeeded && pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		conf.Message = pi.LastPaymentError.Msg
	}
	return conf
}

// ErrorMessage extracts the processor's human readable message from err.
func ErrorMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}
