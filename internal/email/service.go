package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/khaista/boutique/internal/checkout"
	"github.com/khaista/boutique/internal/money"
)

// ErrNotConfigured is returned by Send when SMTP settings are missing.
var ErrNotConfigured = errors.New("email service not configured")

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// AdminTo receives new-order notifications.
	AdminTo string
	ShopURL string
}

// Service handles email sending via SMTP
type Service struct {
	cfg      Config
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewService(cfg Config) *Service {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Service{cfg: cfg, sendMail: smtp.SendMail}
}

// Configured reports whether Send can deliver anything.
func (s *Service) Configured() bool {
	return s.cfg.Host != "" && s.cfg.From != ""
}

// Email represents an email message
type Email struct {
	To      []string
	Subject string
	Body    string
	IsHTML  bool
	ReplyTo string
}

// Send sends an email via SMTP
func (s *Service) Send(email *Email) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	var msg bytes.Buffer
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(email.To, ", ")))
	if email.ReplyTo != "" {
		msg.WriteString(fmt.Sprintf("Reply-To: %s\r\n", email.ReplyTo))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))

	if email.IsHTML {
		msg.WriteString("MIME-Version: 1.0\r\n")
		msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	}

	msg.WriteString("\r\n")
	msg.WriteString(email.Body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.sendMail(addr, auth, s.cfg.From, email.To, msg.Bytes()); err != nil {
		slog.Error("failed to send email", "error", err, "to", email.To)
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("email sent successfully", "to", email.To, "subject", email.Subject)
	return nil
}

// SendContext is Send bounded by ctx. net/smtp has no deadline of its own;
// a send abandoned on ctx keeps running in the background until the server
// answers or drops the connection.
func (s *Service) SendContext(ctx context.Context, email *Email) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.Send(email)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		slog.Warn("gave up waiting for email", "to", email.To, "error", ctx.Err())
		return fmt.Errorf("failed to send email: %w", ctx.Err())
	}
}

// SendNewsletterWelcome greets a new newsletter subscriber.
func (s *Service) SendNewsletterWelcome(ctx context.Context, to string) error {
	html, err := RenderNewsletterWelcome(WelcomeData{Email: to, ShopURL: s.cfg.ShopURL})
	if err != nil {
		return err
	}
	return s.SendContext(ctx, &Email{
		To:      []string{to},
		Subject: "Welcome to Khaista Boutique",
		Body:    html,
		IsHTML:  true,
	})
}

// SendOrderNotificationToAdmin tells the shop about a placed order.
func (s *Service) SendOrderNotificationToAdmin(ctx context.Context, order checkout.OrderSnapshot) error {
	if s.cfg.AdminTo == "" {
		return nil
	}
	html, err := RenderAdminOrderEmail(order)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("New Order Received - Order #%s", order.ID)
	if order.Demo {
		subject = "[Demo] " + subject
	}
	return s.SendContext(ctx, &Email{
		To:      []string{s.cfg.AdminTo},
		Subject: subject,
		Body:    html,
		IsHTML:  true,
	})
}

// OrderNotifier adapts the service to a checkout listener. Nothing is sent
// when SMTP is not configured.
func OrderNotifier(s *Service) checkout.OrderListener {
	return checkout.OrderListenerFunc(func(ctx context.Context, order checkout.OrderSnapshot) error {
		if !s.Configured() {
			return nil
		}
		return s.SendOrderNotificationToAdmin(ctx, order)
	})
}

type WelcomeData struct {
	Email   string
	ShopURL string
}

var funcs = template.FuncMap{
	"FormatCents": func(c money.Cents) string { return c.Format() },
}

func RenderNewsletterWelcome(data WelcomeData) (string, error) {
	tmpl := template.Must(template.New("welcome").Funcs(funcs).Parse(welcomeContentTemplate))

	var content bytes.Buffer
	if err := tmpl.Execute(&content, data); err != nil {
		return "", fmt.Errorf("failed to render welcome email content: %w", err)
	}
	return WrapEmailContent(content.String(), "Welcome to Khaista Boutique")
}

func RenderAdminOrderEmail(order checkout.OrderSnapshot) (string, error) {
	tmpl := template.Must(template.New("admin").Funcs(funcs).Parse(adminOrderContentTemplate))

	var content bytes.Buffer
	if err := tmpl.Execute(&content, order); err != nil {
		return "", fmt.Errorf("failed to render admin email content: %w", err)
	}
	return WrapEmailContent(content.String(), fmt.Sprintf("New Order Received - Order #%s", order.ID))
}
