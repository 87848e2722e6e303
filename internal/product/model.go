package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeVegetables Type = "Vegetables"
	TypeFruits     Type = "Fruits"
)

func (t Type) Valid() bool {
	return t == TypeVegetables || t == TypeFruits
}

// Product is a farmer's listing. Price is per unit of Quantity.
type Product struct {
	ID        int64           `json:"id"`
	FarmerID  int64           `json:"farmer_id"`
	Name      string          `json:"name"`
	Type      Type            `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Location  string          `json:"location"`
	CreatedAt time.Time       `json:"created_at"`
}

type Input struct {
	Name     string          `json:"name"`
	Type     Type            `json:"type"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Location string          `json:"location"`
}
