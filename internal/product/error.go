package product

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrEmptyName       = errors.New("product name is required")
	ErrInvalidType     = errors.New("product type must be Vegetables or Fruits")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("price must be greater than zero")
	ErrEmptyLocation   = errors.New("product location is required")
)
