package notification

import (
	"context"
	"database/sql"
	"errors"

	"farm-to-keells/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, p CreateParams) (*Notification, error)
	GetByID(ctx context.Context, id int64) (*Notification, error)
	List(ctx context.Context, owner *int64, category Category) ([]Notification, error)
	MarkRead(ctx context.Context, id int64, owner *int64) error
	MarkAllRead(ctx context.Context, owner *int64, category Category) (int64, error)
	MarkAccepted(ctx context.Context, id, farmerID int64) (*Notification, error)
	Delete(ctx context.Context, id int64, owner *int64) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const notificationColumns = `id, farmer_id, category, message, order_id, is_read, is_accepted, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row scanner) (*Notification, error) {
	var (
		n        Notification
		farmerID sql.NullInt64
		orderID  sql.NullInt64
	)
	err := row.Scan(&n.ID, &farmerID, &n.Category, &n.Message, &orderID, &n.IsRead, &n.IsAccepted, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	if farmerID.Valid {
		n.FarmerID = &farmerID.Int64
	}
	if orderID.Valid {
		n.OrderID = &orderID.Int64
	}
	return &n, nil
}

// Create inserts a notification. A second notification for the same order is
// rejected with ErrAlreadyExists.
func (r *repository) Create(ctx context.Context, p CreateParams) (*Notification, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("category", string(p.Category)),
	)

	query := `
		INSERT INTO notifications (farmer_id, category, message, order_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) WHERE order_id IS NOT NULL DO NOTHING
		RETURNING ` + notificationColumns

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, p.FarmerID, p.Category, p.Message, p.OrderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("notification already exists for order")
			return nil, ErrAlreadyExists
		}
		log.Error("failed to insert notification", zap.Error(err))
		return nil, err
	}

	log.Info("notification created", zap.Int64("notification_id", n.ID))
	return n, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		logger.FromCtx(ctx).Error("failed to get notification", zap.Int64("notification_id", id), zap.Error(err))
		return nil, err
	}
	return n, nil
}

// List returns the owner's notifications newest first. A nil owner selects
// the supermarket inbox; an empty category selects every category.
func (r *repository) List(ctx context.Context, owner *int64, category Category) ([]Notification, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE farmer_id IS NOT DISTINCT FROM $1
		  AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, owner, string(category))
	if err != nil {
		log.Error("failed to list notifications", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	items := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			log.Error("failed to scan notification", zap.Error(err))
			return nil, err
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) MarkRead(ctx context.Context, id int64, owner *int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND farmer_id IS NOT DISTINCT FROM $2`,
		id, owner,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to mark notification read", zap.Int64("notification_id", id), zap.Error(err))
		return err
	}
	return expectOneRow(res)
}

func (r *repository) MarkAllRead(ctx context.Context, owner *int64, category Category) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE farmer_id IS NOT DISTINCT FROM $1
		  AND ($2 = '' OR category = $2)
		  AND is_read = FALSE`,
		owner, string(category),
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to mark notifications read", zap.Error(err))
		return 0, err
	}
	return res.RowsAffected()
}

// MarkAccepted flags an unaccepted payment notification owned by the farmer.
// sql.ErrNoRows means no such row qualified.
func (r *repository) MarkAccepted(ctx context.Context, id, farmerID int64) (*Notification, error) {
	query := `
		UPDATE notifications
		SET is_accepted = TRUE, is_read = TRUE
		WHERE id = $1 AND farmer_id = $2 AND category = 'payment' AND is_accepted = FALSE
		RETURNING ` + notificationColumns

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id, farmerID))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.FromCtx(ctx).Error("failed to accept payment notification",
				zap.Int64("notification_id", id),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return n, nil
}

func (r *repository) Delete(ctx context.Context, id int64, owner *int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND farmer_id IS NOT DISTINCT FROM $2`,
		id, owner,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to delete notification", zap.Int64("notification_id", id), zap.Error(err))
		return err
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
