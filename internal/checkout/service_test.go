package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booknest/booknest-backend/internal/cart"
	"github.com/booknest/booknest-backend/internal/catalog"
	"github.com/booknest/booknest-backend/internal/identity"
	"github.com/booknest/booknest-backend/internal/order"
)

// In-memory fakes so the workflow can be exercised end to end without a store.

type fakeCartRepo struct {
	carts    map[string]*cart.Cart
	getErr   error
	clearErr error
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[string]*cart.Cart)}
}

func (f *fakeCartRepo) GetCart(ctx context.Context, userID string) (*cart.Cart, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.carts[userID]
	if !ok {
		return nil, nil
	}
	// hand out a copy so the service cannot share state with the store
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	return &cp, nil
}

func (f *fakeCartRepo) UpsertCart(ctx context.Context, c *cart.Cart) error {
	f.carts[c.UserID] = c
	return nil
}

func (f *fakeCartRepo) ClearCart(ctx context.Context, userID string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	if c, ok := f.carts[userID]; ok {
		c.Items = nil
	}
	return nil
}

type fakeCatalog struct {
	books map[string]catalog.Book
	err   error
}

func (f *fakeCatalog) GetByIDs(ctx context.Context, bookIDs []string) (map[string]catalog.Book, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]catalog.Book)
	for _, id := range bookIDs {
		if b, ok := f.books[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

type fakeOrderRepo struct {
	orders    []order.Order
	createErr error
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *order.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	f.orders = append(f.orders, *o)
	return nil
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakePublisher struct {
	published []order.Order
	err       error
}

func (f *fakePublisher) PublishOrderPlaced(ctx context.Context, o *order.Order) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, *o)
	return nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func seedCart(repo *fakeCartRepo, userID string, items ...cart.Item) {
	repo.carts[userID] = &cart.Cart{
		ID:     uuid.NewString(),
		UserID: userID,
		Items:  items,
	}
}

func TestPlaceOrder_EmptyCartNoCart(t *testing.T) {
	carts := newFakeCartRepo()
	orders := &fakeOrderRepo{}
	svc := NewService(carts, &fakeCatalog{}, orders, nil, discardLogger())

	_, err := svc.PlaceOrder(context.Background(), "user-1", "")

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, orders.orders, "no order may be written for an empty cart")
}

func TestPlaceOrder_EmptyCartZeroItems(t *testing.T) {
	carts := newFakeCartRepo()
	seedCart(carts, "user-1")
	orders := &fakeOrderRepo{}
	svc := NewService(carts, &fakeCatalog{}, orders, nil, discardLogger())

	_, err := svc.PlaceOrder(context.Background(), "user-1", "")

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, orders.orders)
}

func TestPlaceOrder_TotalAndSnapshots(t *testing.T) {
	carts := newFakeCartRepo()
	seedCart(carts, "user-1",
		cart.Item{BookID: "book-a", Quantity: 2},
		cart.Item{BookID: "book-b", Quantity: 1},
	)
	books := &fakeCatalog{books: map[string]catalog.Book{
		"book-a": {ID: "book-a", Title: "Go in Practice", Price: 10},
		"book-b": {ID: "book-b", Title: "The Go Programming Language", Price: 5},
	}}
	orders := &fakeOrderRepo{}
	svc := NewService(carts, books, orders, nil, discardLogger())

	o, err := svc.PlaceOrder(context.Background(), "user-1", "")
	require.NoError(t, err)

	assert.Equal(t, 25.0, o.Total)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "Go in Practice", o.Lines[0].Title)
	assert.Equal(t, 10.0, o.Lines[0].Price)
	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.Equal(t, "The Go Programming Language", o.Lines[1].Title)
	assert.Equal(t, DefaultPaymentMethod, o.PaymentMethod)
	assert.False(t, o.CreatedAt.IsZero())
}

func TestPlaceOrder_ClearsCart(t *testing.T) {
	carts := newFakeCartRepo()
	seedCart(carts, "user-1", cart.Item{BookID: "book-a", Quantity: 1})
	books := &fakeCatalog{books: map[string]catalog.Book{
		"book-a": {ID: "book-a", Title: "Go in Practice", Price: 10},
	}}
	svc := NewService(carts, books, &fakeOrderRepo{}, nil, discardLogger())

	_, err := svc.PlaceOrder(context.Background(), "user-1", "COD")
	require.NoError(t, err)

	c, err := carts.GetCart(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Empty(t, c.Items)
}

func TestPlaceOrder_SnapshotSurvivesPriceChange(t *testing.T) {
	carts := newFakeCartRepo()
	seedCart(carts, "user-1", cart.Item{BookID: "book-a", Quantity: 3})
	books := &fakeCatalog{books: map[string]catalog.Book{
		"book-a": {ID: "book-a", Title: "Go in Practice", Price: 10},
	}}
	orders := &fakeOrderRepo{}
	svc := NewService(carts, books, orders, nil, discardLogger())

	_, err := svc.PlaceOrder(context.Background(), "user-1", "")
	require.NoError(t, err)

	// catalog price change after checkout must not touch the receipt
	books.books["book-a"] = catalog.Book{ID: "book-a", Title: "Go in Practice", Price: 99}

	stored, err := svc.ListOrders(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 30.0, stored[0].Total)
	assert.Equal(t, 10.0, stored[0].Lines[0].Price)
}

func TestPlaceOrder_MissingBookDegrades(t *testing.T) {
	carts := newFakeCartRepo()
	seedCart(carts, "user-1",
		cart.Item{BookID: "book-a", Quantity: 2},
		cart.Item{BookID: "gone", Quantity: 5},
	)
	books := &fakeCatalog{books: map[string]catalog.Book{
		"book-a": {ID: "book-a", Title: "Go in Practice", Price: 10},
	}}
	orders := &fakeOrderRepo{}
	svc := NewService(carts, books, orders, nil, discardLogger())

	o, err := svc.PlaceOrder(context.Background(), "user-1", "")
	require.NoError(t, err)

	require.Len(t, o.Lines, 2)
	assert.Equal(t, "", o.Lines[1].Title)
	assert.Equal(t, 0.0, o.Lines[1].Price)
	assert.Equal(t, 5, o.Lines[1].Quantity)
	assert.Equal(t, 20.0, o.Total, "missing book contributes nothing to the total")
}

func TestPlaceOrder_PaymentMethodPassedThrough(t *testing.T) {
	carts := newFakeCartRepo()
	seedCart(carts, "user-1", cart.Item{BookID: "book-a", Quantity: 1})
	books := &fakeCatalog{books: map[string]catalog.Book{
		"book-a": {ID: "book-a", Title: "Go in Practice", Price: 10},
	}}
	svc := NewService(carts, books, &fakeOrderRepo{}, nil, discardLogger())

	o, err := svc.PlaceOrder(context.Background(), "user-1", "CARD")
	require.NoError(t, err)
	assert.Equal(t, "CARD", o.PaymentMethod)
}

func TestPlaceOrder_CartStoreError(t *testing.T) {
	carts := newFakeCartRepo()
	carts.getErr = errors.New("db down")
	svc := NewService(carts, &fakeCatalog{}, &fakeOrderRepo{}, nil, discardLogger())

	_, err := svc.PlaceOrder(context.Background(), "user-1", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_CatalogError(t *testing.T) {
	carts := newFakeCartRepo()
	seedCart(carts, "user-1", cart.Item{BookID: "book-a", Quantity: 1})
	svc := NewService(carts, &fakeCatalog{err: errors.New("db down")}, &fakeOrderRepo{}, nil, discardLogger())

	_, err := svc.PlaceOrder(context.Background(), "user-1", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_OrderCreateErrorKeepsCart(t *testing.T) {
	carts := newFakeCartRepo()
	seedCart(carts, "user-1", cart.Item{BookID: "book-a", Quantity: 1})
	books := &fakeCatalog{books: map[string]catalog.Book{
		"book-a": {ID: "book-a", Title: "Go in Practice", Price: 10},
	}}
	orders := &fakeOrderRepo{createErr: errors.New("insert failed")}
	svc := NewService(carts, books, orders, nil, discardLogger())

	_, err := svc.PlaceOrder(context.Background(), "user-1", "")
	require.Error(t, err)

	c, err := carts.GetCart(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 1, "a failed order must not consume the cart")
}

func TestPlaceOrder_ClearCartErrorSurfaces(t *testing.T) {
	carts := newFakeCartRepo()
	seedCart(carts, "user-1", cart.Item{BookID: "book-a", Quantity: 1})
	carts.clearErr = errors.New("clear failed")
	books := &fakeCatalog{books: map[string]catalog.Book{
		"book-a": {ID: "book-a", Title: "Go in Practice", Price: 10},
	}}
	orders := &fakeOrderRepo{}
	svc := NewService(carts, books, orders, nil, discardLogger())

	_, err := svc.PlaceOrder(context.Background(), "user-1", "")
	require.Error(t, err)
	// known consistency gap: the order is already written at this point
	assert.Len(t, orders.orders, 1)
}

func TestPlaceOrder_PublishFailureDoesNotFailOrder(t *testing.T) {
	carts := newFakeCartRepo()
	seedCart(carts, "user-1", cart.Item{BookID: "book-a", Quantity: 1})
	books := &fakeCatalog{books: map[string]catalog.Book{
		"book-a": {ID: "book-a", Title: "Go in Practice", Price: 10},
	}}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewService(carts, books, &fakeOrderRepo{}, pub, discardLogger())

	o, err := svc.PlaceOrder(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
}

func TestPlaceOrder_PublishesEvent(t *testing.T) {
	carts := newFakeCartRepo()
	seedCart(carts, "user-1", cart.Item{BookID: "book-a", Quantity: 2})
	books := &fakeCatalog{books: map[string]catalog.Book{
		"book-a": {ID: "book-a", Title: "Go in Practice", Price: 10},
	}}
	pub := &fakePublisher{}
	svc := NewService(carts, books, &fakeOrderRepo{}, pub, discardLogger())

	o, err := svc.PlaceOrder(context.Background(), "user-1", "")
	require.NoError(t, err)

	require.Len(t, pub.published, 1)
	assert.Equal(t, o.ID, pub.published[0].ID)
	assert.Equal(t, o.Total, pub.published[0].Total)
}

func TestListOrders_NewestFirst(t *testing.T) {
	orders := &fakeOrderRepo{}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		orders.orders = append(orders.orders, order.Order{
			ID:        uuid.NewString(),
			UserID:    "user-1",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	svc := NewService(newFakeCartRepo(), &fakeCatalog{}, orders, nil, discardLogger())

	got, err := svc.ListOrders(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].CreatedAt.After(got[1].CreatedAt))
	assert.True(t, got[1].CreatedAt.After(got[2].CreatedAt))
}

func TestPlaceOrder_AnonymousIdentity(t *testing.T) {
	carts := newFakeCartRepo()
	seedCart(carts, identity.Anonymous.String(), cart.Item{BookID: "book-a", Quantity: 1})
	books := &fakeCatalog{books: map[string]catalog.Book{
		"book-a": {ID: "book-a", Title: "Go in Practice", Price: 10},
	}}
	svc := NewService(carts, books, &fakeOrderRepo{}, nil, discardLogger())

	o, err := svc.PlaceOrder(context.Background(), identity.Resolve("", ""), "")
	require.NoError(t, err)
	assert.Equal(t, identity.Anonymous.String(), o.UserID)
}
