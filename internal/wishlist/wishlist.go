// Package wishlist holds the products a visitor has saved for later.
package wishlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/khaista/boutique/internal/catalog"
	"github.com/khaista/boutique/internal/state"
)

const Namespace = "khaista-wishlist-storage"

const stateVersion = 1

type persisted struct {
	Version int               `json:"version"`
	Items   []catalog.Product `json:"items"`
}

// Store is one visitor's wishlist, unique by product id. Entries are
// snapshots taken when the product was saved.
type Store struct {
	mu    sync.Mutex
	key   string
	items []catalog.Product
	state state.Store
}

func New(st state.Store, key string) *Store {
	return &Store{key: key, state: st}
}

// Load rehydrates the wishlist stored under key.
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
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil || p.Version != stateVersion {
		slog.Warn("discarding unreadable wishlist state", "key", key, "version", p.Version, "error", err)
		return s, nil
	}
	for _, item := range p.Items {
		if item.ID != "" && s.index(item.ID) < 0 {
			s.items = append(s.items, item)
		}
	}
	return s, nil
}

// Add saves p unless it is already on the wishlist.
func (s *Store) Add(ctx context.Context, p catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(p.ID) >= 0 {
		return
	}
	s.items = append(s.items, p)
	s.persist(ctx)
}

func (s *Store) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(productID)
	if i < 0 {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.persist(ctx)
}

// Toggle adds p if absent and removes it otherwise, returning whether p is
// on the wishlist afterwards.
func (s *Store) Toggle(ctx context.Context, p catalog.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(p.ID); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		s.persist(ctx)
		return false
	}
	s.items = append(s.items, p)
	s.persist(ctx)
	return true
}

func (s *Store) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index(productID) >= 0
}

func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persist(ctx)
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Items returns a copy of the saved products in the order they were added.
func (s *Store) Items() []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]catalog.Product, len(s.items))
	copy(items, s.items)
	return items
}

func (s *Store) index(productID string) int {
	for i, p := range s.items {
		if p.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) persist(ctx context.Context) {
	if s.state == nil {
		return
	}

	items := s.items
	if items == nil {
		items = []catalog.Product{}
	}
	data, err := json.Marshal(persisted{Version: stateVersion, Items: items})
	if err != nil {
		slog.Error("failed to encode wishlist state", "key", s.key, "error", err)
		return
	}
	if err := s.state.Save(ctx, Namespace, s.key, data); err != nil {
		slog.Error("failed to persist wishlist", "key", s.key, "error", err)
	}
}
