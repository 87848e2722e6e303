package order

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySelection      = errors.New("select at least one product")
	ErrProductNotInCatalog = errors.New("product is not in this farmer's catalog")
	ErrMixedFarmers        = errors.New("catalog contains products from another farmer")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidStatus       = errors.New("status must be completed or cancelled")
	ErrInvalidTransition   = errors.New("order is no longer pending")
)

// PartialWriteError reports an order that was stored but whose notification
// was not. The reconcile job repairs it later.
type PartialWriteError struct {
	OrderID int64
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("order %d created but farmer notification failed: %v", e.OrderID, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }
