package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Item is a product snapshot taken when the order is placed. Later catalog
// edits never reach it.
type Item struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductType string          `json:"product_type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(i.Quantity)
}

type Order struct {
	ID          int64           `json:"id"`
	FarmerID    int64           `json:"farmer_id"`
	Items       []Item          `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      Status          `json:"status"`
	OrderDate   time.Time       `json:"order_date"`
	Farmer      *FarmerContact  `json:"farmer,omitempty"`
}

// FarmerContact is the farmer's contact card joined onto an order listing.
type FarmerContact struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Total sums price × quantity over items.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
