package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"farm-to-keells/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NameLookup resolves a farmer's display name from the canonical record.
type NameLookup interface {
	DisplayName(ctx context.Context, farmerID int64) (string, error)
}

type Service interface {
	List(ctx context.Context, owner *int64, category Category) ([]Notification, error)
	MarkRead(ctx context.Context, id int64, owner *int64) error
	MarkAllRead(ctx context.Context, owner *int64, category Category) (int64, error)
	Remove(ctx context.Context, id int64, owner *int64) error
	AcceptPayment(ctx context.Context, id, farmerID int64) (*Acceptance, error)
	NotifyOrderPlaced(ctx context.Context, farmerID, orderID int64, itemCount int, total decimal.Decimal) error
	NotifyPaymentSent(ctx context.Context, farmerID int64, amount decimal.Decimal) (*Notification, error)
}

type service struct {
	repo  Repository
	names NameLookup
}

func NewService(repo Repository, names NameLookup) Service {
	return &service{repo: repo, names: names}
}

func (s *service) List(ctx context.Context, owner *int64, category Category) ([]Notification, error) {
	if category != "" && !category.Valid() {
		return nil, ErrInvalidCategory
	}
	return s.repo.List(ctx, owner, category)
}

func (s *service) MarkRead(ctx context.Context, id int64, owner *int64) error {
	return s.repo.MarkRead(ctx, id, owner)
}

func (s *service) MarkAllRead(ctx context.Context, owner *int64, category Category) (int64, error) {
	if category != "" && !category.Valid() {
		return 0, ErrInvalidCategory
	}
	return s.repo.MarkAllRead(ctx, owner, category)
}

func (s *service) Remove(ctx context.Context, id int64, owner *int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Remove"),
		zap.Int64("notification_id", id),
	)

	if err := s.repo.Delete(ctx, id, owner); err != nil {
		log.Warn("failed to remove notification", zap.Error(err))
		return err
	}

	log.Info("notification removed")
	return nil
}

// AcceptPayment marks the farmer's payment notification accepted and
// announces it to the supermarket inbox. A failing step aborts the rest.
func (s *service) AcceptPayment(ctx context.Context, id, farmerID int64) (*Acceptance, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AcceptPayment"),
		zap.Int64("notification_id", id),
		zap.Int64("farmer_id", farmerID),
	)

	payment, err := s.repo.MarkAccepted(ctx, id, farmerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.explainRejectedAcceptance(ctx, id, farmerID)
		}
		log.Error("failed to mark payment accepted", zap.Error(err))
		return nil, err
	}

	amount := ExtractPaymentAmount(payment.Message)
	if amount == UnknownAmount {
		log.Warn("payment amount not found in message", zap.String("message", payment.Message))
	}

	name, err := s.names.DisplayName(ctx, farmerID)
	if err != nil {
		log.Error("failed to resolve farmer name", zap.Error(err))
		return nil, &PartialWriteError{NotificationID: payment.ID, Err: fmt.Errorf("resolve farmer name: %w", err)}
	}
	if strings.TrimSpace(name) == "" {
		name = UnknownFarmer
	}

	announcement, err := s.repo.Create(ctx, CreateParams{
		Category: CategoryAcceptance,
		Message:  AcceptanceMessage(name, amount),
	})
	if err != nil {
		log.Error("payment accepted but announcement failed", zap.Error(err))
		return nil, &PartialWriteError{NotificationID: payment.ID, Err: err}
	}

	log.Info("payment accepted", zap.String("amount", amount), zap.Int64("announcement_id", announcement.ID))
	return &Acceptance{Payment: *payment, Announcement: *announcement}, nil
}

func (s *service) explainRejectedAcceptance(ctx context.Context, id, farmerID int64) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.FarmerID == nil || *n.FarmerID != farmerID {
		return ErrNotificationNotFound
	}
	if categoryOf(*n) != CategoryPayment {
		return ErrNotPaymentNotification
	}
	return ErrAlreadyAccepted
}

// NotifyOrderPlaced writes the order notification for the farmer. It is
// idempotent per order.
func (s *service) NotifyOrderPlaced(ctx context.Context, farmerID, orderID int64, itemCount int, total decimal.Decimal) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "NotifyOrderPlaced"),
		zap.Int64("order_id", orderID),
	)

	_, err := s.repo.Create(ctx, CreateParams{
		FarmerID: &farmerID,
		Category: CategoryOrder,
		Message:  OrderPlacedMessage(itemCount, total.StringFixed(2)),
		OrderID:  &orderID,
	})
	if errors.Is(err, ErrAlreadyExists) {
		log.Info("order notification already present")
		return nil
	}
	return err
}

func (s *service) NotifyPaymentSent(ctx context.Context, farmerID int64, amount decimal.Decimal) (*Notification, error) {
	return s.repo.Create(ctx, CreateParams{
		FarmerID: &farmerID,
		Category: CategoryPayment,
		Message:  PaymentSentMessage(amount.String()),
	})
}
