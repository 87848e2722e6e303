package order

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"farm-to-keells/internal/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, farmerID int64, items []Item, total decimal.Decimal) (*Order, error) {
	args := m.Called(ctx, farmerID, items, total)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, id int64) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, farmerID *int64) ([]Order, error) {
	args := m.Called(ctx, farmerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) MarkNotified(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) ListPendingUnnotified(ctx context.Context, limit int) ([]Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyOrderPlaced(ctx context.Context, farmerID, orderID int64, itemCount int, total decimal.Decimal) error {
	args := m.Called(ctx, farmerID, orderID, itemCount, total)
	return args.Error(0)
}

func decimalEq(want int64) interface{} {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(want)) })
}

// fullCarrot is farmer A's single listing: 10 units at 100.
func fullCarrot(t *testing.T) *Selection {
	t.Helper()
	sel, err := NewSelection(1, catalog(1)[:1])
	require.NoError(t, err)
	require.NoError(t, sel.Select(1))
	return sel
}

func TestService_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := new(MockNotifier)
		svc := NewService(repo, notifier)
		sel := fullCarrot(t)

		created := &Order{
			ID:          42,
			FarmerID:    1,
			Items:       sel.Items(),
			TotalAmount: decimal.NewFromInt(1000),
			Status:      StatusPending,
		}
		repo.On("Create", ctx, int64(1), mock.MatchedBy(func(items []Item) bool {
			return len(items) == 1 && items[0].ProductName == "Carrot"
		}), decimalEq(1000)).Return(created, nil).Once()
		notifier.On("NotifyOrderPlaced", ctx, int64(1), int64(42), 1, decimalEq(1000)).Return(nil).Once()
		repo.On("MarkNotified", ctx, int64(42)).Return(nil).Once()

		o, err := svc.PlaceOrder(ctx, sel)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, o.Status)
		assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, 0, sel.Len())

		repo.AssertExpectations(t)
		notifier.AssertNumberOfCalls(t, "NotifyOrderPlaced", 1)
	})

	t.Run("EmptySelection", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := new(MockNotifier)
		svc := NewService(repo, notifier)

		sel, err := NewSelection(1, catalog(1))
		require.NoError(t, err)

		_, err = svc.PlaceOrder(ctx, sel)
		assert.ErrorIs(t, err, ErrEmptySelection)

		_, err = svc.PlaceOrder(ctx, nil)
		assert.ErrorIs(t, err, ErrEmptySelection)

		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CreateFails", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := new(MockNotifier)
		svc := NewService(repo, notifier)
		sel := fullCarrot(t)

		repo.On("Create", ctx, int64(1), mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		_, err := svc.PlaceOrder(ctx, sel)
		assert.ErrorContains(t, err, "create order: db down")
		assert.Equal(t, 1, sel.Len())
		notifier.AssertNotCalled(t, "NotifyOrderPlaced", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MarkFailsOrderStillPlaced", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := new(MockNotifier)
		svc := NewService(repo, notifier)
		sel := fullCarrot(t)

		repo.On("Create", ctx, int64(1), mock.Anything, mock.Anything).
			Return(&Order{ID: 42, FarmerID: 1, Items: sel.Items(), TotalAmount: decimal.NewFromInt(1000), Status: StatusPending}, nil)
		notifier.On("NotifyOrderPlaced", ctx, int64(1), int64(42), 1, mock.Anything).Return(nil)
		repo.On("MarkNotified", ctx, int64(42)).Return(errors.New("db down"))

		o, err := svc.PlaceOrder(ctx, sel)
		require.NoError(t, err)
		assert.Equal(t, int64(42), o.ID)
		assert.Equal(t, 0, sel.Len())
	})

	t.Run("NotificationFails", func(t *testing.T) {
		core, observed := observer.New(zapcore.InfoLevel)
		restore := logger.Replace(zap.New(core))
		defer restore()

		repo := new(MockRepository)
		notifier := new(MockNotifier)
		svc := NewService(repo, notifier)
		sel := fullCarrot(t)

		repo.On("Create", ctx, int64(1), mock.Anything, mock.Anything).
			Return(&Order{ID: 42, FarmerID: 1, Items: sel.Items(), TotalAmount: decimal.NewFromInt(1000), Status: StatusPending}, nil)
		notifier.On("NotifyOrderPlaced", ctx, int64(1), int64(42), 1, mock.Anything).Return(errors.New("insert rejected"))

		o, err := svc.PlaceOrder(ctx, sel)
		assert.Nil(t, o)

		var partial *PartialWriteError
		require.ErrorAs(t, err, &partial)
		assert.Equal(t, int64(42), partial.OrderID)
		assert.EqualError(t, partial.Unwrap(), "insert rejected")
		assert.Equal(t, 1, sel.Len(), "selection kept for retry")
		repo.AssertNotCalled(t, "MarkNotified", mock.Anything, mock.Anything)

		entries := observed.FilterMessage("order created but farmer notification failed").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Equal(t, int64(42), entries[0].ContextMap()["order_id"])
	})
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	for _, status := range []Status{StatusCompleted, StatusCancelled} {
		t.Run(string(status)+" is terminal", func(t *testing.T) {
			repo := new(MockRepository)
			svc := NewService(repo, new(MockNotifier))

			repo.On("UpdateStatus", ctx, int64(42), status).
				Return(&Order{ID: 42, Status: status}, nil).Once()
			o, err := svc.UpdateStatus(ctx, 42, status)
			require.NoError(t, err)
			assert.Equal(t, status, o.Status)

			repo.On("UpdateStatus", ctx, int64(42), mock.Anything).Return(nil, sql.ErrNoRows)
			repo.On("Get", ctx, int64(42)).Return(&Order{ID: 42, Status: status}, nil)

			_, err = svc.UpdateStatus(ctx, 42, StatusCompleted)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			_, err = svc.UpdateStatus(ctx, 42, StatusCancelled)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}

	t.Run("InvalidTarget", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockNotifier))

		_, err := svc.UpdateStatus(ctx, 42, StatusPending)
		assert.ErrorIs(t, err, ErrInvalidStatus)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockNotifier))

		repo.On("UpdateStatus", ctx, int64(7), StatusCompleted).Return(nil, sql.ErrNoRows)
		repo.On("Get", ctx, int64(7)).Return(nil, ErrOrderNotFound)

		_, err := svc.UpdateStatus(ctx, 7, StatusCompleted)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("DBError", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockNotifier))

		repo.On("UpdateStatus", ctx, int64(7), StatusCompleted).Return(nil, errors.New("db down"))

		_, err := svc.UpdateStatus(ctx, 7, StatusCompleted)
		assert.EqualError(t, err, "db down")
		repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestService_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("RepairsOrphans", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := new(MockNotifier)
		svc := NewService(repo, notifier)

		orphans := []Order{
			{ID: 5, FarmerID: 1, Items: make([]Item, 2), TotalAmount: decimal.NewFromInt(300)},
			{ID: 6, FarmerID: 2, Items: make([]Item, 1), TotalAmount: decimal.NewFromInt(50)},
		}
		repo.On("ListPendingUnnotified", ctx, reconcileBatch).Return(orphans, nil)
		notifier.On("NotifyOrderPlaced", ctx, int64(1), int64(5), 2, decimalEq(300)).Return(nil)
		notifier.On("NotifyOrderPlaced", ctx, int64(2), int64(6), 1, decimalEq(50)).Return(errors.New("still down"))
		repo.On("MarkNotified", ctx, int64(5)).Return(nil).Once()

		n, err := svc.Reconcile(ctx)
		assert.Equal(t, 1, n)
		assert.ErrorContains(t, err, "order 6: still down")
		notifier.AssertExpectations(t)
		repo.AssertNotCalled(t, "MarkNotified", ctx, int64(6))
	})

	t.Run("MarkFails", func(t *testing.T) {
		repo := new(MockRepository)
		notifier := new(MockNotifier)
		svc := NewService(repo, notifier)

		repo.On("ListPendingUnnotified", ctx, reconcileBatch).
			Return([]Order{{ID: 5, FarmerID: 1, TotalAmount: decimal.NewFromInt(10)}}, nil)
		notifier.On("NotifyOrderPlaced", ctx, int64(1), int64(5), 0, mock.Anything).Return(nil)
		repo.On("MarkNotified", ctx, int64(5)).Return(errors.New("db down"))

		n, err := svc.Reconcile(ctx)
		assert.Zero(t, n)
		assert.ErrorContains(t, err, "order 5: db down")
	})

	t.Run("NothingToDo", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockNotifier))

		repo.On("ListPendingUnnotified", ctx, reconcileBatch).Return([]Order{}, nil)

		n, err := svc.Reconcile(ctx)
		assert.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("ListFails", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockNotifier))

		repo.On("ListPendingUnnotified", ctx, reconcileBatch).Return(nil, errors.New("db down"))

		_, err := svc.Reconcile(ctx)
		assert.Error(t, err)
	})
}

func TestService_List(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockNotifier))
	ctx := context.Background()
	farmerID := int64(1)

	repo.On("List", ctx, &farmerID).Return([]Order{{ID: 1}}, nil)

	orders, err := svc.List(ctx, &farmerID)
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
}
