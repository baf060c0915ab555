package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/booknest/booknest-backend/internal/catalog"
)

type BookHandler struct {
	repo catalog.Repository
}

func NewBookHandler(repo catalog.Repository) *BookHandler {
	return &BookHandler{repo: repo}
}

func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	books, err := h.repo.ListBooks(ctx, r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch books", err)
		return
	}
	if books == nil {
		books = []catalog.Book{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"books":   books,
	})
}

func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")
	if bookID == "" {
		writeError(w, http.StatusBadRequest, "missing bookId", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b, err := h.repo.GetByID(ctx, bookID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch book", err)
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "Book not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"book":    b,
	})
}

func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string  `json:"title"`
		Author      string  `json:"author"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		CategoryID  string  `json:"categoryId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.Title == "" || body.Price < 0 {
		writeError(w, http.StatusBadRequest, "title and a non-negative price are required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b := &catalog.Book{
		Title:       body.Title,
		Author:      body.Author,
		Description: body.Description,
		Price:       body.Price,
		CategoryID:  body.CategoryID,
	}
	if err := h.repo.CreateBook(ctx, b); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create book", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"book":    b,
	})
}

func (h *BookHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	categories, err := h.repo.ListCategories(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch categories", err)
		return
	}
	if categories == nil {
		categories = []catalog.Category{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"categories": categories,
	})
}
