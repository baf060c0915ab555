package order

import "time"

// LineItem is a snapshot of a book at purchase time. Title and price are
// copied from the catalog when the order is created so later catalog edits
// never alter the receipt.
type LineItem struct {
	BookID   string  `json:"bookId"`
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Order struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Lines         []LineItem `json:"cartItems"`
	Total         float64    `json:"total"`
	PaymentMethod string     `json:"paymentMethod"`
	CreatedAt     time.Time  `json:"createdAt"`
}
