// Package checkout turns a user's cart into an immutable order.
//
// The workflow is a linear pipeline: load cart, batch-resolve book prices,
// snapshot line items, persist the order, clear the cart. The order write and
// the cart clear are separate store operations with no shared transaction, so
// two concurrent checkouts for the same user can both observe the same cart
// and produce duplicate orders. That matches the original storefront behavior
// and is accepted as a known limitation.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/booknest/booknest-backend/internal/cart"
	"github.com/booknest/booknest-backend/internal/catalog"
	"github.com/booknest/booknest-backend/internal/identity"
	"github.com/booknest/booknest-backend/internal/order"
)

// DefaultPaymentMethod is applied when a checkout request names none.
const DefaultPaymentMethod = "COD"

// ErrEmptyCart reports a checkout against a missing or empty cart. It is the
// only client-fault condition the workflow produces; everything else is an
// infrastructure failure.
var ErrEmptyCart = errors.New("cart is empty")

// BookFinder is the slice of the catalog the workflow needs: one batch
// lookup-by-id-set call.
type BookFinder interface {
	GetByIDs(ctx context.Context, bookIDs []string) (map[string]catalog.Book, error)
}

// EventPublisher announces completed checkouts. Publishing is best effort;
// the order is already committed when it runs.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, o *order.Order) error
}

type Service struct {
	carts     cart.Repository
	books     BookFinder
	orders    order.Repository
	publisher EventPublisher
	logger    *log.Logger
}

// NewService wires the checkout workflow. publisher may be nil when no broker
// is configured.
func NewService(carts cart.Repository, books BookFinder, orders order.Repository, publisher EventPublisher, logger *log.Logger) *Service {
	return &Service{
		carts:     carts,
		books:     books,
		orders:    orders,
		publisher: publisher,
		logger:    logger,
	}
}

// ListOrders returns the user's orders, most recent first.
func (s *Service) ListOrders(ctx context.Context, userID identity.UserID) ([]order.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// PlaceOrder converts the user's cart into an order.
//
// Prices and titles are snapshotted from the catalog at this moment. A cart
// item whose book no longer exists degrades to an empty title and zero price
// instead of failing the whole order; stale carts should still check out.
func (s *Service) PlaceOrder(ctx context.Context, userID identity.UserID, paymentMethod string) (*order.Order, error) {
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	c, err := s.carts.GetCart(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c == nil || len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	books, err := s.books.GetByIDs(ctx, distinctBookIDs(c.Items))
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}

	lines := make([]order.LineItem, 0, len(c.Items))
	total := 0.0
	for _, it := range c.Items {
		line := order.LineItem{
			BookID:   it.BookID,
			Quantity: it.Quantity,
		}
		if b, ok := books[it.BookID]; ok {
			line.Title = b.Title
			line.Price = b.Price
		}
		total += line.Price * float64(it.Quantity)
		lines = append(lines, line)
	}

	o := &order.Order{
		UserID:        userID.String(),
		Lines:         lines,
		Total:         total,
		PaymentMethod: paymentMethod,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// Not atomic with the order insert; see the package comment.
	if err := s.carts.ClearCart(ctx, userID.String()); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, o); err != nil {
			s.logger.Printf("publish OrderPlaced for order %s: %v", o.ID, err)
		}
	}

	s.logger.Printf("placed order %s for user %s (total %.2f)", o.ID, o.UserID, o.Total)
	return o, nil
}

func distinctBookIDs(items []cart.Item) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.BookID]; ok {
			continue
		}
		seen[it.BookID] = struct{}{}
		ids = append(ids, it.BookID)
	}
	return ids
}
