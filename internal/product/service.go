package product

import (
	"context"
	"strings"

	"farm-to-keells/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, farmerID int64, in Input) (*Product, error)
	Update(ctx context.Context, id, farmerID int64, in Input) (*Product, error)
	Delete(ctx context.Context, id, farmerID int64) error
	Get(ctx context.Context, id int64) (*Product, error)
	ListByFarmer(ctx context.Context, farmerID int64) ([]Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (in *Input) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
}

func (in Input) Validate() error {
	if in.Name == "" {
		return ErrEmptyName
	}
	if !in.Type.Valid() {
		return ErrInvalidType
	}
	if !in.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if !in.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if in.Location == "" {
		return ErrEmptyLocation
	}
	return nil
}

func (s *service) Create(ctx context.Context, farmerID int64, in Input) (*Product, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, farmerID, in)
}

func (s *service) Update(ctx context.Context, id, farmerID int64, in Input) (*Product, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, id, farmerID, in)
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("product updated",
		zap.String("layer", "service"),
		zap.Int64("product_id", id),
	)
	return p, nil
}

func (s *service) Delete(ctx context.Context, id, farmerID int64) error {
	return s.repo.Delete(ctx, id, farmerID)
}

func (s *service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByFarmer(ctx context.Context, farmerID int64) ([]Product, error) {
	return s.repo.ListByFarmer(ctx, farmerID)
}
