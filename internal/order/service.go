package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"farm-to-keells/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const reconcileBatch = 100

// Notifier writes the farmer's order notification. It must be idempotent per order.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, farmerID, orderID int64, itemCount int, total decimal.Decimal) error
}

type Service interface {
	PlaceOrder(ctx context.Context, sel *Selection) (*Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error)
	List(ctx context.Context, farmerID *int64) ([]Order, error)
	Get(ctx context.Context, id int64) (*Order, error)
	Reconcile(ctx context.Context) (int, error)
}

type service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) Service {
	return &service{repo: repo, notifier: notifier}
}

// PlaceOrder snapshots the selection, stores a pending order and notifies the
// farmer. The two writes are not atomic: when the notification fails the order
// stays and a *PartialWriteError carrying its id is returned. The selection is
// cleared only on full success.
func (s *service) PlaceOrder(ctx context.Context, sel *Selection) (*Order, error) {
	if sel == nil || sel.Len() == 0 {
		return nil, ErrEmptySelection
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.Int64("farmer_id", sel.FarmerID()),
	)

	items := sel.Items()
	total := Total(items)

	o, err := s.repo.Create(ctx, sel.FarmerID(), items, total)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.notifier.NotifyOrderPlaced(ctx, o.FarmerID, o.ID, len(o.Items), o.TotalAmount); err != nil {
		log.Error("order created but farmer notification failed",
			zap.Int64("order_id", o.ID),
			zap.Error(err),
		)
		return nil, &PartialWriteError{OrderID: o.ID, Err: err}
	}

	if err := s.repo.MarkNotified(ctx, o.ID); err != nil {
		log.Warn("order notified but not marked", zap.Int64("order_id", o.ID), zap.Error(err))
	}

	sel.Clear()
	log.Info("order placed", zap.Int64("order_id", o.ID), zap.Int("items", len(items)))
	return o, nil
}

// UpdateStatus completes or cancels a pending order. Terminal orders reject
// any further transition.
func (s *service) UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	if !status.Terminal() {
		return nil, ErrInvalidStatus
	}

	o, err := s.repo.UpdateStatus(ctx, id, status)
	if err == nil {
		logger.FromCtx(ctx).Info("order status updated",
			zap.Int64("order_id", id),
			zap.String("status", string(status)),
		)
		return o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Nothing matched: either the order is gone or it already left pending.
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrInvalidTransition
}

func (s *service) List(ctx context.Context, farmerID *int64) ([]Order, error) {
	return s.repo.List(ctx, farmerID)
}

func (s *service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// Reconcile writes the missing notification for pending orders left behind by
// a partial PlaceOrder. Orders are picked by their notified mark, so a
// notification the farmer deleted stays deleted. It returns how many orders
// were repaired.
func (s *service) Reconcile(ctx context.Context) (int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Reconcile"),
	)

	orphans, err := s.repo.ListPendingUnnotified(ctx, reconcileBatch)
	if err != nil {
		return 0, err
	}

	var (
		repaired int
		errs     []error
	)
	for _, o := range orphans {
		if err := s.notifier.NotifyOrderPlaced(ctx, o.FarmerID, o.ID, len(o.Items), o.TotalAmount); err != nil {
			log.Warn("order notification still failing", zap.Int64("order_id", o.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("order %d: %w", o.ID, err))
			continue
		}
		if err := s.repo.MarkNotified(ctx, o.ID); err != nil {
			errs = append(errs, fmt.Errorf("order %d: %w", o.ID, err))
			continue
		}
		repaired++
	}

	if repaired > 0 {
		log.Info("repaired order notifications", zap.Int("count", repaired))
	}
	return repaired, errors.Join(errs...)
}
