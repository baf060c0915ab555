package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository interface {
	GetByID(ctx context.Context, bookID string) (*Book, error)
	GetByIDs(ctx context.Context, bookIDs []string) (map[string]Book, error)
	ListBooks(ctx context.Context, categoryID string) ([]Book, error)
	CreateBook(ctx context.Context, b *Book) error
	ListCategories(ctx context.Context) ([]Category, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

const bookColumns = `id, title, author, description, price, COALESCE(category_id, ''), created_at`

func (r *repo) GetByID(ctx context.Context, bookID string) (*Book, error) {
	var b Book
	err := r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1`,
		bookID,
	).Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Price, &b.CategoryID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select book: %w", err)
	}
	return &b, nil
}

// GetByIDs fetches all books matching the given ids in one query. Ids with no
// matching book are simply absent from the result map; checkout treats those
// as deleted books and degrades the line item instead of failing.
func (r *repo) GetByIDs(ctx context.Context, bookIDs []string) (map[string]Book, error) {
	books := make(map[string]Book, len(bookIDs))
	if len(bookIDs) == 0 {
		return books, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ANY($1)`,
		pq.Array(bookIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("select books: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Price, &b.CategoryID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books[b.ID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return books, nil
}

func (r *repo) ListBooks(ctx context.Context, categoryID string) ([]Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at DESC`
	args := []any{}
	if categoryID != "" {
		query = `SELECT ` + bookColumns + ` FROM books WHERE category_id = $1 ORDER BY created_at DESC`
		args = append(args, categoryID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select books: %w", err)
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Price, &b.CategoryID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return books, nil
}

func (r *repo) CreateBook(ctx context.Context, b *Book) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	var categoryID any
	if b.CategoryID != "" {
		categoryID = b.CategoryID
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO books (id, title, author, description, price, category_id)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING created_at`,
		b.ID, b.Title, b.Author, b.Description, b.Price, categoryID,
	).Scan(&b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return categories, nil
}
