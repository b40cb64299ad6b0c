package broker

import (
	"fmt"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// bucket keys the secondary index: every order sits in exactly one
// (action, status) bucket at any time.
type bucket struct {
	action domain.Action
	status domain.Status
}

// Book is the broker-owned order store. Orders live once in an arena keyed by
// ID; the per-bucket ID slices preserve submission order so open orders can be
// scanned FIFO without duplicating order storage.
type Book struct {
	orders map[string]*domain.Order
	index  map[bucket][]string
}

// NewBook returns an empty order book.
func NewBook() *Book {
	return &Book{
		orders: make(map[string]*domain.Order),
		index:  make(map[bucket][]string),
	}
}

// Insert adds an order to the arena and appends its ID to the bucket matching
// its current action and status.
func (b *Book) Insert(o domain.Order) {
	stored := o
	b.orders[o.ID] = &stored
	k := bucket{action: o.Action, status: o.Status}
	b.index[k] = append(b.index[k], o.ID)
}

// Get returns a copy of the order with the given ID.
func (b *Book) Get(id string) (domain.Order, bool) {
	o, ok := b.orders[id]
	if !ok {
		return domain.Order{}, false
	}
	return *o, true
}

// OpenIDs returns the IDs of all OPEN orders for the given action in
// submission (FIFO) order. The returned slice is a copy; callers may mutate
// the book while iterating it.
func (b *Book) OpenIDs(action domain.Action) []string {
	ids := b.index[bucket{action: action, status: domain.StatusOpen}]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Orders returns copies of the orders in the (action, status) bucket, in the
// order they entered it.
func (b *Book) Orders(action domain.Action, status domain.Status) []domain.Order {
	ids := b.index[bucket{action: action, status: status}]
	out := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		out = append(out, *b.orders[id])
	}
	return out
}

// Completed returns copies of all COMPLETE orders, buys before sells.
func (b *Book) Completed() []domain.Order {
	out := b.Orders(domain.ActionBuy, domain.StatusComplete)
	return append(out, b.Orders(domain.ActionSell, domain.StatusComplete)...)
}

// Count returns the number of orders in the (action, status) bucket.
func (b *Book) Count(action domain.Action, status domain.Status) int {
	return len(b.index[bucket{action: action, status: status}])
}

// mutate returns the stored order for in-place update by the broker.
func (b *Book) mutate(id string) (*domain.Order, bool) {
	o, ok := b.orders[id]
	return o, ok
}

// transition moves an order from OPEN to a terminal status, keeping the
// bucket index consistent. It is the only way an order changes buckets.
func (b *Book) transition(id string, to domain.Status) error {
	o, ok := b.orders[id]
	if !ok {
		return fmt.Errorf("book: order %s: %w", id, domain.ErrNotFound)
	}
	if o.Status != domain.StatusOpen {
		return fmt.Errorf("book: order %s is %s: %w", id, o.Status, domain.ErrOrderNotOpen)
	}
	if to != domain.StatusComplete && to != domain.StatusCancelled {
		return fmt.Errorf("book: illegal transition %s -> %s", o.Status, to)
	}

	from := bucket{action: o.Action, status: o.Status}
	ids := b.index[from]
	for i, cur := range ids {
		if cur == id {
			b.index[from] = append(ids[:i], ids[i+1:]...)
			break
		}
	}

	o.Status = to
	dst := bucket{action: o.Action, status: to}
	b.index[dst] = append(b.index[dst], id)
	return nil
}
