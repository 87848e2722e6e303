package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"farm-to-keells/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, farmerID int64, items []Item, total decimal.Decimal) (*Order, error)
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, farmerID *int64) ([]Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error)
	MarkNotified(ctx context.Context, id int64) error
	ListPendingUnnotified(ctx context.Context, limit int) ([]Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `o.id, o.farmer_id, o.items, o.total_amount, o.status, o.order_date`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row scanner, extra ...interface{}) (*Order, error) {
	var (
		o   Order
		raw []byte
	)
	dest := append([]interface{}{&o.ID, &o.FarmerID, &raw, &o.TotalAmount, &o.Status, &o.OrderDate}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order %d items: %w", o.ID, err)
	}
	return &o, nil
}

// Create stores a pending order with its item snapshots embedded as JSON.
func (r *repository) Create(ctx context.Context, farmerID int64, items []Item, total decimal.Decimal) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.Int64("farmer_id", farmerID),
	)

	payload, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO orders AS o (farmer_id, items, total_amount, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING ` + orderColumns

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, farmerID, payload, total))
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return nil, err
	}

	log.Info("order created", zap.Int64("order_id", o.ID), zap.String("total", o.TotalAmount.StringFixed(2)))
	return o, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		logger.FromCtx(ctx).Error("failed to get order", zap.Int64("order_id", id), zap.Error(err))
		return nil, err
	}
	return o, nil
}

// List returns orders newest first with the farmer's contact card. A nil
// farmerID lists every farmer's orders.
func (r *repository) List(ctx context.Context, farmerID *int64) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	query := `
		SELECT ` + orderColumns + `, f.full_name, f.email, f.phone_number, f.avatar_url
		FROM orders o
		LEFT JOIN farmers f ON f.id = o.farmer_id
		WHERE ($1::bigint IS NULL OR o.farmer_id = $1)
		ORDER BY o.order_date DESC, o.id DESC`

	rows, err := r.db.QueryContext(ctx, query, farmerID)
	if err != nil {
		log.Error("failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		var name, email, phone, avatar sql.NullString
		o, err := scanOrder(rows, &name, &email, &phone, &avatar)
		if err != nil {
			log.Error("failed to scan order", zap.Error(err))
			return nil, err
		}
		if name.Valid {
			o.Farmer = &FarmerContact{
				FullName:    name.String,
				Email:       email.String,
				PhoneNumber: phone.String,
				AvatarURL:   avatar.String,
			}
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// UpdateStatus moves a pending order to status. sql.ErrNoRows means the order
// is missing or no longer pending.
func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	query := `
		UPDATE orders AS o SET status = $2
		WHERE o.id = $1 AND o.status = 'pending'
		RETURNING ` + orderColumns

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id, status))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.FromCtx(ctx).Error("failed to update order status",
				zap.Int64("order_id", id),
				zap.String("status", string(status)),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return o, nil
}

// MarkNotified records that the order's notification was written. Later
// deletes of that notification do not clear the mark.
func (r *repository) MarkNotified(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET notified_at = NOW() WHERE id = $1 AND notified_at IS NULL`, id,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to mark order notified", zap.Int64("order_id", id), zap.Error(err))
	}
	return err
}

// ListPendingUnnotified finds pending orders whose notification was never
// written, oldest first.
func (r *repository) ListPendingUnnotified(ctx context.Context, limit int) ([]Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.status = 'pending' AND o.notified_at IS NULL
		ORDER BY o.id
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list orphaned orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
