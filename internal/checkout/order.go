package checkout

import (
	"context"
	"time"

	"github.com/khaista/boutique/internal/cart"
	"github.com/khaista/boutique/internal/events"
	"github.com/khaista/boutique/internal/money"
	"github.com/oklog/ulid/v2"
)

// OrderItem is one line of a placed order.
type OrderItem struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Qty   int         `json:"qty"`
	Price money.Cents `json:"price"`
}

// Total is the line's price times its quantity.
func (i OrderItem) Total() money.Cents {
	return i.Price.Mul(i.Qty)
}

// OrderSnapshot is what the confirmation page shows. It is written once,
// just before redirecting, and read at most once.
type OrderSnapshot struct {
	ID              string      `json:"id"`
	Subtotal        money.Cents `json:"subtotal"`
	Items           []OrderItem `json:"items"`
	PlacedAt        time.Time   `json:"placedAt"`
	Demo            bool        `json:"demo"`
	PaymentIntentID string      `json:"paymentIntentId,omitempty"`
}

// PendingIntent is the payment intent Begin created for the current attempt.
type PendingIntent struct {
	ID     string      `json:"id"`
	Amount money.Cents `json:"amount"`
}

// Tab holds a browser tab's checkout state: the intent of the attempt in
// progress and the snapshot of the order just placed.
type Tab interface {
	WriteOrder(ctx context.Context, order OrderSnapshot) error
	SavePendingIntent(ctx context.Context, intent PendingIntent) error
	PendingIntent(ctx context.Context) (PendingIntent, bool)
	ClearPendingIntent(ctx context.Context) error
}

// OrderListener is told about every placed order, demo or paid.
type OrderListener interface {
	OrderPlaced(ctx context.Context, order OrderSnapshot) error
}

type OrderListenerFunc func(ctx context.Context, order OrderSnapshot) error

func (f OrderListenerFunc) OrderPlaced(ctx context.Context, order OrderSnapshot) error {
	return f(ctx, order)
}

// PublishOrders returns a listener that publishes placed orders to
// events.TopicOrderPlaced, keyed by order id.
func PublishOrders(pub events.Publisher) OrderListener {
	return OrderListenerFunc(func(ctx context.Context, order OrderSnapshot) error {
		return pub.PublishEvent(ctx, events.TopicOrderPlaced, order.ID, order)
	})
}

// snapshotOf copies the cart's lines once; the subtotal is summed from that
// copy so it always agrees with Items.
func snapshotOf(c *cart.Store, now time.Time, demo bool) OrderSnapshot {
	lines := c.Lines()
	items := make([]OrderItem, 0, len(lines))
	var subtotal money.Cents
	for _, l := range lines {
		item := OrderItem{
			ID:    l.Product.ID,
			Name:  l.Product.Name,
			Qty:   l.Quantity,
			Price: l.Product.Price,
		}
		subtotal += item.Total()
		items = append(items, item)
	}

	prefix := "order-"
	if demo {
		prefix = "demo-"
	}
	return OrderSnapshot{
		ID:       prefix + ulid.Make().String(),
		Subtotal: subtotal,
		Items:    items,
		PlacedAt: now.UTC(),
		Demo:     demo,
	}
}
