package cart

import (
	"context"
	"encoding/json"
	"fmt"

	pkgerrors "github.com/museeloquente/storefront/pkg/errors"
	"github.com/museeloquente/storefront/pkg/logger"
)

// StorageKey is the fixed namespace the cart persists under. The value is a
// JSON array of items, overwritten whole on every mutation.
const StorageKey = "ebook-store-cart"

type storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Item is one cart line. The JSON field names are part of the persisted
// format and must not change.
type Item struct {
	ProductID      int64  `json:"id"`
	Title          string `json:"title"`
	UnitPriceCents int64  `json:"priceCents"`
}

// Store holds the shopper's selections and writes them through to durable
// local storage on every mutation, so a fresh process reconstructs the same
// cart. Not safe for concurrent use; the app drives it from a single
// goroutine.
type Store struct {
	storage storage
	logg    *logger.Logger
	items   []Item
}

// NewStore loads the persisted cart. Absent or malformed data degrades to an
// empty cart, never an error.
func NewStore(ctx context.Context, store storage, logg *logger.Logger) (*Store, error) {
	if store == nil {
		return nil, fmt.Errorf("cart storage is required")
	}

	s := &Store{storage: store, logg: logg}

	raw, ok, err := store.Get(ctx, StorageKey)
	if err != nil {
		if logg != nil {
			logg.Warn(ctx, "reading persisted cart failed, starting empty", err)
		}
		return s, nil
	}
	if !ok || raw == "" {
		return s, nil
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		if logg != nil {
			logg.Warn(ctx, "persisted cart is malformed, starting empty", err)
		}
		return s, nil
	}
	s.items = items
	return s, nil
}

// AddItem appends the item unless a line with the same product id already
// exists, in which case the call is a no-op (price and title are not
// updated).
func (s *Store) AddItem(ctx context.Context, item Item) error {
	if item.ProductID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	if item.UnitPriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	for _, existing := range s.items {
		if existing.ProductID == item.ProductID {
			return nil
		}
	}
	s.items = append(s.items, item)
	s.persist(ctx)
	return nil
}

// RemoveItem drops the matching line; absent ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID int64) {
	kept := s.items[:0]
	removed := false
	for _, item := range s.items {
		if item.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return
	}
	s.items = kept
	s.persist(ctx)
}

// Clear empties the cart. Called exactly once when an order reaches paid.
func (s *Store) Clear(ctx context.Context) {
	if len(s.items) == 0 {
		return
	}
	s.items = nil
	s.persist(ctx)
}

// Contains reports whether the product is already in the cart.
func (s *Store) Contains(productID int64) bool {
	for _, item := range s.items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Items returns the lines in insertion order.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// TotalCents sums the unit prices over all lines.
func (s *Store) TotalCents() int64 {
	var total int64
	for _, item := range s.items {
		total += item.UnitPriceCents
	}
	return total
}

// Count returns the number of lines.
func (s *Store) Count() int {
	return len(s.items)
}

// persist writes the whole collection. A failed write keeps the in-memory
// cart intact; the next mutation retries the full overwrite.
func (s *Store) persist(ctx context.Context) {
	items := s.items
	if items == nil {
		items = []Item{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "encoding cart for persistence failed", err)
		}
		return
	}
	if err := s.storage.Set(ctx, StorageKey, string(payload)); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "persisting cart failed", err)
	}
}
