package notification

import "time"

// Category is the notification discriminant, set once at creation.
type Category string

const (
	CategoryOrder      Category = "order"
	CategoryPayment    Category = "payment"
	CategoryAcceptance Category = "acceptance"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryOrder, CategoryPayment, CategoryAcceptance:
		return true
	}
	return false
}

// ParseCategory accepts an empty string as "any category".
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if s == "" || c.Valid() {
		return c, nil
	}
	return "", ErrInvalidCategory
}

// Notification rows with a nil FarmerID belong to the supermarket inbox.
type Notification struct {
	ID         int64     `json:"id"`
	FarmerID   *int64    `json:"farmer_id"`
	Category   Category  `json:"category"`
	Message    string    `json:"message"`
	OrderID    *int64    `json:"order_id,omitempty"`
	IsRead     bool      `json:"is_read"`
	IsAccepted bool      `json:"is_accepted"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateParams struct {
	FarmerID *int64
	Category Category
	Message  string
	OrderID  *int64
}

// Acceptance is the result of accepting a payment: the updated payment
// notification and the announcement sent to the supermarket.
type Acceptance struct {
	Payment      Notification `json:"payment"`
	Announcement Notification `json:"announcement"`
}

func sameOwner(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
