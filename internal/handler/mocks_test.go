package handler

import (
	"context"
	"io"

	"farm-to-keells/internal/analytics"
	"farm-to-keells/internal/farmer"
	"farm-to-keells/internal/mailer"
	"farm-to-keells/internal/notification"
	"farm-to-keells/internal/order"
	"farm-to-keells/internal/product"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockFarmerService struct {
	mock.Mock
}

func (m *MockFarmerService) Register(ctx context.Context, in farmer.RegisterInput) (string, *farmer.Farmer, error) {
	args := m.Called(ctx, in)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*farmer.Farmer), args.Error(2)
}

func (m *MockFarmerService) Login(ctx context.Context, username, password string) (string, *farmer.Farmer, error) {
	args := m.Called(ctx, username, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*farmer.Farmer), args.Error(2)
}

func (m *MockFarmerService) GetByID(ctx context.Context, id int64) (*farmer.Farmer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*farmer.Farmer), args.Error(1)
}

func (m *MockFarmerService) GetByEmail(ctx context.Context, email string) (*farmer.Farmer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*farmer.Farmer), args.Error(1)
}

func (m *MockFarmerService) DisplayName(ctx context.Context, id int64) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockFarmerService) UpdateProfile(ctx context.Context, id int64, u farmer.ProfileUpdate) (*farmer.Farmer, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*farmer.Farmer), args.Error(1)
}

func (m *MockFarmerService) UploadAvatar(ctx context.Context, id int64, meta farmer.Avatar, body io.Reader) (*farmer.Farmer, error) {
	args := m.Called(ctx, id, meta, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*farmer.Farmer), args.Error(1)
}

func (m *MockFarmerService) Browse(ctx context.Context, district farmer.District, search string) ([]farmer.Summary, error) {
	args := m.Called(ctx, district, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]farmer.Summary), args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, farmerID int64, in product.Input) (*product.Product, error) {
	args := m.Called(ctx, farmerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id, farmerID int64, in product.Input) (*product.Product, error) {
	args := m.Called(ctx, id, farmerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id, farmerID int64) error {
	args := m.Called(ctx, id, farmerID)
	return args.Error(0)
}

func (m *MockProductService) Get(ctx context.Context, id int64) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) ListByFarmer(ctx context.Context, farmerID int64) ([]product.Product, error) {
	args := m.Called(ctx, farmerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, sel *order.Selection) (*order.Order, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id int64, status order.Status) (*order.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, farmerID *int64) ([]order.Order, error) {
	args := m.Called(ctx, farmerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, id int64) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Reconcile(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, owner *int64, category notification.Category) ([]notification.Notification, error) {
	args := m.Called(ctx, owner, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, id int64, owner *int64) error {
	args := m.Called(ctx, id, owner)
	return args.Error(0)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, owner *int64, category notification.Category) (int64, error) {
	args := m.Called(ctx, owner, category)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) Remove(ctx context.Context, id int64, owner *int64) error {
	args := m.Called(ctx, id, owner)
	return args.Error(0)
}

func (m *MockNotificationService) AcceptPayment(ctx context.Context, id, farmerID int64) (*notification.Acceptance, error) {
	args := m.Called(ctx, id, farmerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Acceptance), args.Error(1)
}

func (m *MockNotificationService) NotifyOrderPlaced(ctx context.Context, farmerID, orderID int64, itemCount int, total decimal.Decimal) error {
	args := m.Called(ctx, farmerID, orderID, itemCount, total)
	return args.Error(0)
}

func (m *MockNotificationService) NotifyPaymentSent(ctx context.Context, farmerID int64, amount decimal.Decimal) (*notification.Notification, error) {
	args := m.Called(ctx, farmerID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) SendPayment(ctx context.Context, email string, amount decimal.Decimal) (*notification.Notification, error) {
	args := m.Called(ctx, email, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, params map[string]string) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockMailer) SendInquiry(ctx context.Context, in mailer.Inquiry) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

type MockAnalytics struct {
	mock.Mock
}

func (m *MockAnalytics) Predictions(ctx context.Context, f analytics.Filter) (*analytics.Report, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.Report), args.Error(1)
}
