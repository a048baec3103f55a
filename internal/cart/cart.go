// Package cart holds the storefront shopping cart. The cart outlives a
// checkout session: it is shared with menu browsing and only cleared after a
// confirmed order submission.
package cart

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddOn is an extra attached to a line item.
type AddOn struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"nome"`
	UnitPrice decimal.Decimal `json:"preco_unitario"`
	Quantity  int32           `json:"quantidade"`
}

// Item is one cart line: a product, an optional variation, and its add-ons.
type Item struct {
	ProductID   uuid.UUID       `json:"produto_id"`
	VariationID *uuid.UUID      `json:"variacao_id,omitempty"`
	Name        string          `json:"nome"`
	UnitPrice   decimal.Decimal `json:"preco_unitario"`
	Quantity    int32           `json:"quantidade"`
	AddOns      []AddOn         `json:"adicionais,omitempty"`
}

// Subtotal is unit price × quantity plus all add-ons.
func (i Item) Subtotal() decimal.Decimal {
	total := i.UnitPrice.Mul(decimal.NewFromInt32(i.Quantity))
	for _, a := range i.AddOns {
		total = total.Add(a.UnitPrice.Mul(decimal.NewFromInt32(a.Quantity)))
	}
	return total
}

// Total sums the subtotals of all items.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, i := range items {
		total = total.Add(i.Subtotal())
	}
	return total
}

// Key identifies one visitor's cart within one establishment.
type Key struct {
	EstablishmentSlug string
	SessionID         uuid.UUID
}

// Store keeps carts in memory, one per (establishment, session) pair.
type Store struct {
	mu    sync.RWMutex
	carts map[Key][]Item
}

func NewStore() *Store {
	return &Store{carts: make(map[Key][]Item)}
}

// Items returns a copy of the cart's line items.
func (s *Store) Items(key Key) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.carts[key]
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Add appends a line item to the cart.
func (s *Store) Add(key Key, item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[key] = append(s.carts[key], item)
}

// Remove drops the line item at the given index. Out-of-range indices are a no-op.
func (s *Store) Remove(key Key, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.carts[key]
	if index < 0 || index >= len(items) {
		return
	}
	s.carts[key] = append(items[:index], items[index+1:]...)
	if len(s.carts[key]) == 0 {
		delete(s.carts, key)
	}
}

// Clear empties the cart entirely.
func (s *Store) Clear(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, key)
}

// IsEmpty reports whether the cart has no items.
func (s *Store) IsEmpty(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts[key]) == 0
}
