package service

import (
	"context"
	"sync"
	"time"

	"meta-checkout/internal/email"
	"meta-checkout/internal/model"
	"meta-checkout/internal/payment"
	"meta-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.GuestOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.GuestOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GuestOrder), args.Error(1)
}

func (m *MockOrderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, update repository.StatusUpdate) (bool, error) {
	args := m.Called(ctx, id, from, to, update)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkAccountCreated(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) ListAbandoned(ctx context.Context, before time.Time, limit int) ([]*model.GuestOrder, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.GuestOrder), args.Error(1)
}

func (m *MockOrderRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

// MockTokenRepository is a mock implementation of TokenRepository.
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) InsertResumeToken(ctx context.Context, token *model.ResumeToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) GetResumeToken(ctx context.Context, token string) (*model.ResumeToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ResumeToken), args.Error(1)
}

func (m *MockTokenRepository) ConsumeResumeToken(ctx context.Context, token string, now time.Time) (uuid.UUID, bool, error) {
	args := m.Called(ctx, token, now)
	return args.Get(0).(uuid.UUID), args.Bool(1), args.Error(2)
}

func (m *MockTokenRepository) InsertMagicGrant(ctx context.Context, grant *model.MagicLinkGrant) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *MockTokenRepository) GetMagicGrant(ctx context.Context, token string) (*model.MagicLinkGrant, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MagicLinkGrant), args.Error(1)
}

func (m *MockTokenRepository) GetMagicGrantForOrder(ctx context.Context, orderID uuid.UUID) (*model.MagicLinkGrant, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MagicLinkGrant), args.Error(1)
}

func (m *MockTokenRepository) MarkMagicGrantUsed(ctx context.Context, token string, now time.Time) (bool, error) {
	args := m.Called(ctx, token, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepository) ReleaseMagicGrant(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockPlanRepository is a mock implementation of PlanRepository.
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) ListPlans(ctx context.Context, codes []string) ([]model.SubscriptionPlan, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SubscriptionPlan), args.Error(1)
}

func (m *MockPlanRepository) HasSubscription(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlanRepository) InsertUserSubscription(ctx context.Context, sub *model.UserSubscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) MirrorPayment(ctx context.Context, params repository.MirrorParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// MockGateway is a mock implementation of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, params payment.CreateIntentParams) (*payment.Intent, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) RetrieveIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) CancelIntent(ctx context.Context, intentID string) error {
	args := m.Called(ctx, intentID)
	return args.Error(0)
}

// MockProvider is a mock implementation of identity.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignUp(ctx context.Context, email, password string, metadata map[string]string) (string, error) {
	args := m.Called(ctx, email, password, metadata)
	return args.String(0), args.Error(1)
}

// recordingSender captures sent emails instead of delivering them.
type recordingSender struct {
	mu       sync.Mutex
	messages []email.Message
	fail     bool
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errSendFailed
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSender) sent() []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]email.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

var errSendFailed = &model.DomainError{Code: "SEND_FAILED", Message: "send failed"}

func testRenderer() *email.Renderer {
	return email.NewRenderer(email.NewEmbeddedLoader(), zerolog.Nop())
}
