// Package newsletter manages newsletter subscriptions.
package newsletter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/khaista/boutique/storage/db"
)

var ErrInvalidEmail = errors.New("invalid email format")

type Subscriber struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// Welcomer sends the welcome message to a new subscriber.
type Welcomer interface {
	SendNewsletterWelcome(ctx context.Context, to string) error
}

type Service struct {
	queries  *db.Queries
	welcomer Welcomer
	now      func() time.Time
}

// NewService returns a subscription service. welcomer may be nil.
func NewService(queries *db.Queries, welcomer Welcomer) *Service {
	return &Service{queries: queries, welcomer: welcomer, now: time.Now}
}

// NormalizeEmail trims and lowercases address and checks it is a bare
// address with a dotted domain.
func NormalizeEmail(address string) (string, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Address != address {
		return "", ErrInvalidEmail
	}
	at := strings.LastIndex(address, "@")
	domain := address[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", ErrInvalidEmail
	}
	return address, nil
}

// Subscribe adds address to the newsletter. Subscribing an address twice
// returns the existing subscription with created false.
func (s *Service) Subscribe(ctx context.Context, address string) (Subscriber, bool, error) {
	email, err := NormalizeEmail(address)
	if err != nil {
		return Subscriber{}, false, err
	}

	existing, err := s.queries.GetNewsletterSubscriberByEmail(ctx, email)
	if err == nil {
		return toSubscriber(existing), false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Subscriber{}, false, fmt.Errorf("failed to look up subscriber: %w", err)
	}

	row, err := s.queries.CreateNewsletterSubscriber(ctx, db.CreateNewsletterSubscriberParams{
		ID:           uuid.New().String(),
		Email:        email,
		SubscribedAt: s.now().Unix(),
	})
	if err != nil {
		return Subscriber{}, false, fmt.Errorf("failed to create subscriber: %w", err)
	}
	slog.Info("newsletter subscription created", "subscriber_id", row.ID)

	if s.welcomer != nil {
		if err := s.welcomer.SendNewsletterWelcome(ctx, email); err != nil {
			slog.Warn("failed to send newsletter welcome", "subscriber_id", row.ID, "error", err)
		}
	}

	return toSubscriber(row), true, nil
}

func (s *Service) Subscribers(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.queries.ListNewsletterSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	subs := make([]Subscriber, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, toSubscriber(row))
	}
	return subs, nil
}

func toSubscriber(row db.Newsletter) Subscriber {
	return Subscriber{
		ID:           row.ID,
		Email:        row.Email,
		SubscribedAt: time.Unix(row.SubscribedAt, 0).UTC(),
	}
}
