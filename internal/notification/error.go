package notification

import (
	"errors"
	"fmt"
)

var (
	ErrNotificationNotFound   = errors.New("notification not found")
	ErrAlreadyExists          = errors.New("notification already exists")
	ErrInvalidCategory        = errors.New("invalid notification category")
	ErrNotPaymentNotification = errors.New("notification is not a payment")
	ErrAlreadyAccepted        = errors.New("payment already accepted")
	ErrEmptyMessage           = errors.New("notification message is empty")
	ErrNoOwner                = errors.New("operation requires a farmer")
)

// PartialWriteError reports that a payment was marked accepted but the
// announcement could not be written.
type PartialWriteError struct {
	NotificationID int64
	Err            error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("payment %d accepted but announcement failed: %v", e.NotificationID, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }
