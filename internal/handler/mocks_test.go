package handler

import (
	"context"

	"meta-checkout/internal/model"
	"meta-checkout/internal/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCheckoutService is a mock implementation of service.CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Submit(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResponse), args.Error(1)
}

func (m *MockCheckoutService) Resume(ctx context.Context, token string) (*model.ResumeConfirmation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ResumeConfirmation), args.Error(1)
}

func (m *MockCheckoutService) Cancel(ctx context.Context, id uuid.UUID) (*model.GuestOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GuestOrder), args.Error(1)
}

func (m *MockCheckoutService) Status(ctx context.Context, id uuid.UUID) (*model.GuestOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GuestOrder), args.Error(1)
}

// MockResumeService is a mock implementation of service.ResumeService.
type MockResumeService struct {
	mock.Mock
}

func (m *MockResumeService) Issue(ctx context.Context, orderID uuid.UUID) (*model.ResumeToken, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ResumeToken), args.Error(1)
}

func (m *MockResumeService) Validate(ctx context.Context, token string) (*model.OrderPrefill, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderPrefill), args.Error(1)
}

func (m *MockResumeService) Consume(ctx context.Context, token string) (*model.OrderPrefill, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderPrefill), args.Error(1)
}

// MockProvisionService is a mock implementation of service.ProvisionService.
type MockProvisionService struct {
	mock.Mock
}

func (m *MockProvisionService) Provision(ctx context.Context, token string) (*model.ProvisionResult, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProvisionResult), args.Error(1)
}

// MockLifecycleService is a mock implementation of service.LifecycleService.
type MockLifecycleService struct {
	mock.Mock
}

func (m *MockLifecycleService) Apply(ctx context.Context, event *payment.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
