package payment

import (
	"errors"
	"fmt"
)

var (
	ErrDispatchFailed = errors.New("failed to send payment")
	ErrInvalidAmount  = errors.New("amount must be greater than zero")
	ErrInvalidEmail   = errors.New("invalid farmer email")
)

// NoticeError reports a payment that was dispatched but whose notification
// to the farmer could not be written.
type NoticeError struct {
	FarmerID int64
	Err      error
}

func (e *NoticeError) Error() string {
	return fmt.Sprintf("payment sent to farmer %d but notification failed: %v", e.FarmerID, e.Err)
}

func (e *NoticeError) Unwrap() error { return e.Err }
