package order

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestRepositoryCreate_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	o := &Order{
		ID:            "order-123",
		UserID:        "user-1",
		Total:         25.5,
		PaymentMethod: "COD",
		CreatedAt:     now,
		Lines: []LineItem{
			{BookID: "b1", Title: "Go in Practice", Quantity: 1, Price: 10.0},
			{BookID: "b2", Title: "The Go Programming Language", Quantity: 2, Price: 7.75},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders (id, user_id, total, payment_method, created_at)
         VALUES ($1, $2, $3, $4, $5)`)).
		WithArgs(o.ID, o.UserID, o.Total, o.PaymentMethod, o.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items (id, order_id, book_id, title, quantity, price)
             VALUES ($1, $2, $3, $4, $5, $6)`)).
		WithArgs(sqlmock.AnyArg(), o.ID, "b1", "Go in Practice", 1, 10.0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items (id, order_id, book_id, title, quantity, price)
             VALUES ($1, $2, $3, $4, $5, $6)`)).
		WithArgs(sqlmock.AnyArg(), o.ID, "b2", "The Go Programming Language", 2, 7.75).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectCommit()

	require.NoError(t, repo.Create(ctx, o))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_AssignsIDAndTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	o := &Order{UserID: "user-1", PaymentMethod: "COD"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WithArgs(sqlmock.AnyArg(), o.UserID, 0.0, "COD", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))
	require.NotEmpty(t, o.ID)
	require.False(t, o.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreate_OrderInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	err = repo.Create(context.Background(), &Order{ID: "o1", UserID: "u1", CreatedAt: time.Now()})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListByUser_NewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, total, payment_method, created_at
         FROM orders WHERE user_id = $1 ORDER BY created_at DESC`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total", "payment_method", "created_at"}).
			AddRow("o2", "user-1", 5.0, "COD", now).
			AddRow("o1", "user-1", 25.0, "CARD", now.Add(-time.Hour)))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT book_id, title, quantity, price FROM order_items WHERE order_id = $1`)).
		WithArgs("o2").
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "title", "quantity", "price"}).
			AddRow("b1", "Go in Practice", 1, 5.0))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT book_id, title, quantity, price FROM order_items WHERE order_id = $1`)).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "title", "quantity", "price"}))

	orders, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, "o2", orders[0].ID)
	require.Len(t, orders[0].Lines, 1)
	require.Equal(t, "Go in Practice", orders[0].Lines[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListByUser_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, total, payment_method, created_at`)).
		WillReturnError(errors.New("db down"))

	_, err = repo.ListByUser(context.Background(), "user-1")
	require.Error(t, err)
}
