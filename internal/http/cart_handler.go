package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/booknest/booknest-backend/internal/cart"
	"github.com/booknest/booknest-backend/internal/identity"
)

type CartHandler struct {
	repo cart.Repository
}

func NewCartHandler(repo cart.Repository) *CartHandler {
	return &CartHandler{repo: repo}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := identity.Resolve(GetUserID(r.Context()), r.URL.Query().Get("userId"))

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.GetCart(ctx, userID.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch cart", err)
		return
	}
	if c == nil {
		// a user without a cart just sees an empty one
		c = &cart.Cart{UserID: userID.String(), Items: []cart.Item{}}
	}
	if c.Items == nil {
		c.Items = []cart.Item{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"cart":    c,
	})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID   string `json:"userId"`
		BookID   string `json:"bookId"`
		Quantity int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.BookID == "" || body.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "bookId and a positive quantity are required", nil)
		return
	}

	userID := identity.Resolve(GetUserID(r.Context()), body.UserID)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.GetCart(ctx, userID.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch cart", err)
		return
	}
	if c == nil {
		// lazily created on first add
		c = &cart.Cart{
			ID:     uuid.NewString(),
			UserID: userID.String(),
		}
	}

	merged := false
	for i := range c.Items {
		if c.Items[i].BookID == body.BookID {
			c.Items[i].Quantity += body.Quantity
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, cart.Item{BookID: body.BookID, Quantity: body.Quantity})
	}

	if err := h.repo.UpsertCart(ctx, c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save cart", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"cart":    c,
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")
	if bookID == "" {
		writeError(w, http.StatusBadRequest, "missing bookId", nil)
		return
	}

	userID := identity.Resolve(GetUserID(r.Context()), r.URL.Query().Get("userId"))

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.GetCart(ctx, userID.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch cart", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Cart not found", nil)
		return
	}

	items := c.Items[:0]
	for _, it := range c.Items {
		if it.BookID != bookID {
			items = append(items, it)
		}
	}
	c.Items = items

	if err := h.repo.UpsertCart(ctx, c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save cart", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"cart":    c,
	})
}
