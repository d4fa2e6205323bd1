// Package cart holds a visitor's shopping cart: an ordered list of lines,
// one per product, persisted after every mutation.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/khaista/boutique/internal/catalog"
	"github.com/khaista/boutique/internal/money"
	"github.com/khaista/boutique/internal/state"
)

// Namespace is the state namespace cart blobs are stored under.
const Namespace = "khaista-cart-storage"

const stateVersion = 1

// Line is one product in the cart. Quantity is always at least 1.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Subtotal is the line's unit price times its quantity.
func (l Line) Subtotal() money.Cents {
	return l.Product.Price.Mul(l.Quantity)
}

type persisted struct {
	Version int    `json:"version"`
	Lines   []Line `json:"lines"`
}

// Store is one visitor's cart. It is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	key   string
	lines []Line
	state state.Store
}

// New returns an empty cart persisted to st under key. A nil st keeps the
// cart in memory only.
func New(st state.Store, key string) *Store {
	return &Store{key: key, state: st}
}

// Load rehydrates the cart stored under key. Missing or unreadable state
// yields an empty cart; only a failing store is reported.
func Load(ctx context.Context, st state.Store, key string) (*Store, error) {
	s := New(st, key)
	if st == nil {
		return s, nil
	}

	data, err := st.Load(ctx, Namespace, key)
	if errors.Is(err, state.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("discarding unreadable cart state", "key", key, "error", err)
		return s, nil
	}
	if p.Version != stateVersion {
		slog.Warn("discarding cart state with unknown version", "key", key, "version", p.Version)
		return s, nil
	}

	for _, l := range p.Lines {
		if l.Quantity <= 0 || l.Product.ID == "" {
			continue
		}
		if i := s.index(l.Product.ID); i >= 0 {
			s.lines[i].Quantity += l.Quantity
			continue
		}
		s.lines = append(s.lines, l)
	}
	return s, nil
}

// Key returns the visitor key the cart is persisted under.
func (s *Store) Key() string {
	return s.key
}

// AddItem adds quantity units of p, merging into an existing line for the
// same product. A non-positive quantity counts as 1. Stock is not checked.
func (s *Store) AddItem(ctx context.Context, p catalog.Product, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(p.ID); i >= 0 {
		s.lines[i].Quantity += quantity
	} else {
		s.lines = append(s.lines, Line{Product: p, Quantity: quantity})
	}
	s.persist(ctx)
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes the line. Unknown products are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(productID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	} else {
		s.lines[i].Quantity = quantity
	}
	s.persist(ctx)
}

func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(productID)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.persist(ctx)
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.persist(ctx)
}

// Lines returns a copy of the cart's lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	return lines
}

// Line returns the line for productID, if present.
func (s *Store) Line(productID string) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(productID); i >= 0 {
		return s.lines[i], true
	}
	return Line{}, false
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// TotalItems is the sum of all line quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice is the sum of all line subtotals.
func (s *Store) TotalPrice() money.Cents {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total money.Cents
	for _, l := range s.lines {
		total += l.Subtotal()
	}
	return total
}

func (s *Store) index(productID string) int {
	for i, l := range s.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

// persist writes the full cart. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) {
	if s.state == nil {
		return
	}

	lines := s.lines
	if lines == nil {
		lines = []Line{}
	}
	data, err := json.Marshal(persisted{Version: stateVersion, Lines: lines})
	if err != nil {
		slog.Error("failed to encode cart state", "key", s.key, "error", err)
		return
	}
	if err := s.state.Save(ctx, Namespace, s.key, data); err != nil {
		slog.Error("failed to persist cart", "key", s.key, "error", err)
	}
}
