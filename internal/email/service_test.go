package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/khaista/boutique/internal/checkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestService(cfg Config) (*Service, *[]sentMail) {
	var sent []sentMail
	s := NewService(cfg)
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return nil
	}
	return s, &sent
}

func testOrder(demo bool) checkout.OrderSnapshot {
	return checkout.OrderSnapshot{
		ID:       "demo-01HX",
		Subtotal: 14500,
		Items: []checkout.OrderItem{
			{ID: "afghan-firoza-full-set", Name: "Afghan Firoza Full Set", Qty: 1, Price: 10000},
			{ID: "afghan-tote-bag", Name: "Afghan Tote Bag", Qty: 1, Price: 4500},
		},
		PlacedAt: time.Date(2025, 5, 4, 15, 30, 0, 0, time.UTC),
		Demo:     demo,
	}
}

func TestSendNotConfigured(t *testing.T) {
	s, sent := newTestService(Config{})
	err := s.Send(&Email{To: []string{"a@example.com"}, Subject: "hi", Body: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, *sent)
	assert.False(t, s.Configured())
}

func TestSendBuildsMessage(t *testing.T) {
	s, sent := newTestService(Config{Host: "smtp.example.com", From: "shop@example.com"})

	err := s.Send(&Email{To: []string{"a@example.com"}, Subject: "Hello", Body: "<p>hi</p>", IsHTML: true, ReplyTo: "owner@example.com"})
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	mail := (*sent)[0]
	assert.Equal(t, "smtp.example.com:587", mail.addr)
	assert.Equal(t, "shop@example.com", mail.from)
	assert.Contains(t, mail.msg, "Subject: Hello\r\n")
	assert.Contains(t, mail.msg, "Reply-To: owner@example.com\r\n")
	assert.Contains(t, mail.msg, "Content-Type: text/html")
}

func TestSendFailure(t *testing.T) {
	s := NewService(Config{Host: "smtp.example.com", From: "shop@example.com"})
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	err := s.Send(&Email{To: []string{"a@example.com"}})
	assert.ErrorContains(t, err, "connection refused")
}

func TestSendNewsletterWelcome(t *testing.T) {
	s, sent := newTestService(Config{Host: "smtp.example.com", From: "shop@example.com", ShopURL: "https://khaista.example"})

	require.NoError(t, s.SendNewsletterWelcome(context.Background(), "new@example.com"))
	require.Len(t, *sent, 1)
	assert.Equal(t, []string{"new@example.com"}, (*sent)[0].to)
	assert.Contains(t, (*sent)[0].msg, "https://khaista.example")
	assert.Contains(t, (*sent)[0].msg, "new@example.com")
}

func TestOrderNotifier(t *testing.T) {
	t.Run("sends to admin", func(t *testing.T) {
		s, sent := newTestService(Config{Host: "smtp.example.com", From: "shop@example.com", AdminTo: "owner@example.com"})

		require.NoError(t, OrderNotifier(s).OrderPlaced(context.Background(), testOrder(true)))
		require.Len(t, *sent, 1)
		assert.Equal(t, []string{"owner@example.com"}, (*sent)[0].to)
		assert.Contains(t, (*sent)[0].msg, "Subject: [Demo] New Order Received - Order #demo-01HX")
		assert.Contains(t, (*sent)[0].msg, "$145.00")
	})

	t.Run("skips when unconfigured", func(t *testing.T) {
		s, sent := newTestService(Config{AdminTo: "owner@example.com"})
		require.NoError(t, OrderNotifier(s).OrderPlaced(context.Background(), testOrder(false)))
		assert.Empty(t, *sent)
	})

	t.Run("skips without admin address", func(t *testing.T) {
		s, sent := newTestService(Config{Host: "smtp.example.com", From: "shop@example.com"})
		require.NoError(t, OrderNotifier(s).OrderPlaced(context.Background(), testOrder(false)))
		assert.Empty(t, *sent)
	})
}

func TestRenderAdminOrderEmail(t *testing.T) {
	html, err := RenderAdminOrderEmail(testOrder(false))
	require.NoError(t, err)
	assert.Contains(t, html, "Afghan Firoza Full Set")
	assert.Contains(t, html, "$100.00")
	assert.NotContains(t, html, "no payment was collected")
}

func TestSendContextGivesUpOnHungServer(t *testing.T) {
	s := NewService(Config{Host: "smtp.example.com", From: "shop@example.com", AdminTo: "owner@example.com"})
	release := make(chan struct{})
	defer close(release)
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := OrderNotifier(s).OrderPlaced(ctx, testOrder(false))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
