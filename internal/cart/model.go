package cart

import "time"

type Item struct {
	BookID   string `json:"bookId"`
	Quantity int    `json:"quantity"`
}

type Cart struct {
	ID        string    `json:"cartId"`
	UserID    string    `json:"userId"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}
