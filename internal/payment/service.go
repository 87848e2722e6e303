package payment

import (
	"context"
	"net/mail"
	"strings"

	"farm-to-keells/internal/farmer"
	"farm-to-keells/internal/logger"
	"farm-to-keells/internal/notification"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type FarmerLookup interface {
	GetByEmail(ctx context.Context, email string) (*farmer.Farmer, error)
}

type Notifier interface {
	NotifyPaymentSent(ctx context.Context, farmerID int64, amount decimal.Decimal) (*notification.Notification, error)
}

type Service interface {
	SendPayment(ctx context.Context, email string, amount decimal.Decimal) (*notification.Notification, error)
}

type service struct {
	gateway  Gateway
	farmers  FarmerLookup
	notifier Notifier
}

func NewService(gateway Gateway, farmers FarmerLookup, notifier Notifier) Service {
	return &service{gateway: gateway, farmers: farmers, notifier: notifier}
}

// SendPayment dispatches the payment to a registered farmer and then writes
// the farmer's payment notification. Unknown emails are rejected before any
// money moves.
func (s *service) SendPayment(ctx context.Context, email string, amount decimal.Decimal) (*notification.Notification, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SendPayment"),
	)

	f, err := s.farmers.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.gateway.Send(ctx, email, amount); err != nil {
		return nil, err
	}

	n, err := s.notifier.NotifyPaymentSent(ctx, f.ID, amount)
	if err != nil {
		log.Error("payment sent but notification failed",
			zap.Int64("farmer_id", f.ID),
			zap.String("amount", amount.String()),
			zap.Error(err),
		)
		return nil, &NoticeError{FarmerID: f.ID, Err: err}
	}

	log.Info("payment sent", zap.Int64("farmer_id", f.ID), zap.Int64("notification_id", n.ID))
	return n, nil
}
