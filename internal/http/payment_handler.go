package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// PaymentHandler is a stub. The storefront only supports cash on delivery;
// the endpoint exists so the frontend's payment step gets a well-formed
// reference back.
type PaymentHandler struct{}

func NewPaymentHandler() *PaymentHandler {
	return &PaymentHandler{}
}

func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount        float64 `json:"amount"`
		PaymentMethod string  `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	method := body.PaymentMethod
	if method == "" {
		method = "COD"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"reference":     "pay_" + uuid.NewString(),
		"amount":        body.Amount,
		"paymentMethod": method,
		"createdAt":     time.Now().UTC(),
	})
}
