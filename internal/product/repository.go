package product

import (
	"context"
	"database/sql"
	"errors"

	"farm-to-keells/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, farmerID int64, in Input) (*Product, error)
	Update(ctx context.Context, id, farmerID int64, in Input) (*Product, error)
	Delete(ctx context.Context, id, farmerID int64) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListByFarmer(ctx context.Context, farmerID int64) ([]Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `id, farmer_id, name, type, quantity, price, location, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row scanner) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.FarmerID, &p.Name, &p.Type, &p.Quantity, &p.Price, &p.Location, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, farmerID int64, in Input) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.Int64("farmer_id", farmerID),
	)

	query := `
		INSERT INTO products (farmer_id, name, type, quantity, price, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	p, err := scanProduct(r.db.QueryRowContext(ctx, query,
		farmerID, in.Name, in.Type, in.Quantity, in.Price, in.Location,
	))
	if err != nil {
		log.Error("failed to insert product", zap.Error(err))
		return nil, err
	}

	log.Info("product created", zap.Int64("product_id", p.ID))
	return p, nil
}

// Update replaces the listing's fields. Only the owning farmer's row matches.
func (r *repository) Update(ctx context.Context, id, farmerID int64, in Input) (*Product, error) {
	query := `
		UPDATE products
		SET name = $3, type = $4, quantity = $5, price = $6, location = $7
		WHERE id = $1 AND farmer_id = $2
		RETURNING ` + productColumns

	p, err := scanProduct(r.db.QueryRowContext(ctx, query,
		id, farmerID, in.Name, in.Type, in.Quantity, in.Price, in.Location,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		logger.FromCtx(ctx).Error("failed to update product", zap.Int64("product_id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *repository) Delete(ctx context.Context, id, farmerID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1 AND farmer_id = $2`, id, farmerID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to delete product", zap.Int64("product_id", id), zap.Error(err))
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) ListByFarmer(ctx context.Context, farmerID int64) ([]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListByFarmer"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE farmer_id = $1
		ORDER BY created_at DESC, id DESC`,
		farmerID,
	)
	if err != nil {
		log.Error("failed to list products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("failed to scan product", zap.Error(err))
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}
