package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/booknest/booknest-backend/internal/checkout"
	"github.com/booknest/booknest-backend/internal/identity"
	"github.com/booknest/booknest-backend/internal/order"
)

// OrderService is the slice of the checkout workflow the handler needs.
type OrderService interface {
	ListOrders(ctx context.Context, userID identity.UserID) ([]order.Order, error)
	PlaceOrder(ctx context.Context, userID identity.UserID, paymentMethod string) (*order.Order, error)
}

type OrderHandler struct {
	svc OrderService
}

func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// orderSummary is the list-view shape: line items expose title, quantity and
// price only, the book reference stays internal.
type orderSummary struct {
	ID            string            `json:"id"`
	UserID        string            `json:"userId"`
	Total         float64           `json:"total"`
	PaymentMethod string            `json:"paymentMethod"`
	CreatedAt     time.Time         `json:"createdAt"`
	CartItems     []summaryLineItem `json:"cartItems"`
}

type summaryLineItem struct {
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := identity.Resolve(GetUserID(r.Context()), r.URL.Query().Get("userId"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.svc.ListOrders(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch orders", err)
		return
	}

	summaries := make([]orderSummary, 0, len(orders))
	for _, o := range orders {
		s := orderSummary{
			ID:            o.ID,
			UserID:        o.UserID,
			Total:         o.Total,
			PaymentMethod: o.PaymentMethod,
			CreatedAt:     o.CreatedAt,
			CartItems:     make([]summaryLineItem, 0, len(o.Lines)),
		}
		for _, it := range o.Lines {
			s.CartItems = append(s.CartItems, summaryLineItem{
				Title:    it.Title,
				Quantity: it.Quantity,
				Price:    it.Price,
			})
		}
		summaries = append(summaries, s)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"orders":  summaries,
	})
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID        string `json:"userId"`
		PaymentMethod string `json:"paymentMethod"`
	}
	if r.Body != nil {
		// an empty or absent body is fine, every field is optional
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	userID := identity.Resolve(GetUserID(r.Context()), body.UserID)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.svc.PlaceOrder(ctx, userID, body.PaymentMethod)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			writeError(w, http.StatusBadRequest, "Cart is empty", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Order placed successfully",
		"order": map[string]any{
			"id":        o.ID,
			"total":     o.Total,
			"createdAt": o.CreatedAt,
			"cartItems": o.Lines,
		},
	})
}
