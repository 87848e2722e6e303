package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productCols = []string{"id", "farmer_id", "name", "type", "quantity", "price", "location", "created_at"}

func carrotInput() Input {
	return Input{
		Name:     "Carrot",
		Type:     TypeVegetables,
		Quantity: decimal.NewFromInt(10),
		Price:    decimal.NewFromInt(100),
		Location: "Nuwara Eliya",
	}
}

func TestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO products`).
			WithArgs(int64(3), "Carrot", TypeVegetables, sqlmock.AnyArg(), sqlmock.AnyArg(), "Nuwara Eliya").
			WillReturnRows(sqlmock.NewRows(productCols).
				AddRow(1, 3, "Carrot", "Vegetables", "10", "100", "Nuwara Eliya", time.Now()))

		p, err := repo.Create(ctx, 3, carrotInput())
		require.NoError(t, err)
		assert.Equal(t, int64(1), p.ID)
		assert.Equal(t, TypeVegetables, p.Type)
		assert.True(t, p.Price.Equal(decimal.NewFromInt(100)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO products`).WillReturnError(errors.New("db down"))

		_, err := repo.Create(ctx, 3, carrotInput())
		assert.Error(t, err)
	})
}

func TestRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE products`).
			WithArgs(int64(1), int64(3), "Carrot", TypeVegetables, sqlmock.AnyArg(), sqlmock.AnyArg(), "Nuwara Eliya").
			WillReturnRows(sqlmock.NewRows(productCols).
				AddRow(1, 3, "Carrot", "Vegetables", "10", "100", "Nuwara Eliya", time.Now()))

		p, err := repo.Update(ctx, 1, 3, carrotInput())
		require.NoError(t, err)
		assert.Equal(t, "Carrot", p.Name)
	})

	t.Run("OtherFarmer", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE products`).
			WillReturnRows(sqlmock.NewRows(productCols))

		_, err := repo.Update(ctx, 1, 4, carrotInput())
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM products WHERE id = \$1 AND farmer_id = \$2`).
			WithArgs(int64(1), int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, 1, 3))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM products`).
			WithArgs(int64(1), int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, 1, 4), ErrProductNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM products`).WillReturnError(errors.New("db down"))

		assert.EqualError(t, repo.Delete(ctx, 1, 3), "db down")
	})
}

func TestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT .* FROM products WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(productCols))

	_, err = repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRepository_ListByFarmer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM products\s+WHERE farmer_id = \$1\s+ORDER BY created_at DESC`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(productCols).
				AddRow(2, 3, "Mango", "Fruits", "5", "250.50", "Jaffna", time.Now()).
				AddRow(1, 3, "Carrot", "Vegetables", "10", "100", "Nuwara Eliya", time.Now()))

		products, err := repo.ListByFarmer(ctx, 3)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "Mango", products[0].Name)
		assert.Equal(t, "250.5", products[0].Price.String())
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM products`).
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows(productCols))

		products, err := repo.ListByFarmer(ctx, 4)
		require.NoError(t, err)
		assert.NotNil(t, products)
		assert.Empty(t, products)
	})
}
