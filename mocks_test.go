package subscribe_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	subscribe "github.com/goliatone/go-subscribe"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockRepositoryManager implements subscribe.RepositoryManager. RunInTx
// executes the given function against a zero transaction and propagates its
// error, so handler internals run for real against the mocked repositories.
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	var tx bun.Tx
	return f(ctx, tx)
}

func (m *MockRepositoryManager) Subscribers() subscribe.Subscribers {
	args := m.Called()
	return args.Get(0).(subscribe.Subscribers)
}

// MockSubscribers implements subscribe.Subscribers
type MockSubscribers struct {
	mock.Mock
}

func subscriberReturn(args mock.Arguments) (*subscribe.Subscriber, error) {
	if sub, ok := args.Get(0).(*subscribe.Subscriber); ok {
		return sub, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubscribers) GetByEmail(ctx context.Context, email string) (*subscribe.Subscriber, error) {
	return subscriberReturn(m.Called(ctx, email))
}

func (m *MockSubscribers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*subscribe.Subscriber, error) {
	return subscriberReturn(m.Called(ctx, tx, email))
}

func (m *MockSubscribers) GetByConfirmationToken(ctx context.Context, token string) (*subscribe.Subscriber, error) {
	return subscriberReturn(m.Called(ctx, token))
}

func (m *MockSubscribers) GetByConfirmationTokenTx(ctx context.Context, tx bun.IDB, token string) (*subscribe.Subscriber, error) {
	return subscriberReturn(m.Called(ctx, tx, token))
}

func (m *MockSubscribers) GetByMagicLinkToken(ctx context.Context, token string) (*subscribe.Subscriber, error) {
	return subscriberReturn(m.Called(ctx, token))
}

func (m *MockSubscribers) GetByMagicLinkTokenTx(ctx context.Context, tx bun.IDB, token string) (*subscribe.Subscriber, error) {
	return subscriberReturn(m.Called(ctx, tx, token))
}

func (m *MockSubscribers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscribers) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	args := m.Called(ctx, tx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscribers) ListAll(ctx context.Context) ([]*subscribe.Subscriber, error) {
	args := m.Called(ctx)
	if records, ok := args.Get(0).([]*subscribe.Subscriber); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubscribers) ListAllTx(ctx context.Context, tx bun.IDB) ([]*subscribe.Subscriber, error) {
	args := m.Called(ctx, tx)
	if records, ok := args.Get(0).([]*subscribe.Subscriber); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubscribers) Create(ctx context.Context, record *subscribe.Subscriber, criteria ...repository.InsertCriteria) (*subscribe.Subscriber, error) {
	return subscriberReturn(m.Called(ctx, record))
}

func (m *MockSubscribers) CreateTx(ctx context.Context, tx bun.IDB, record *subscribe.Subscriber, criteria ...repository.InsertCriteria) (*subscribe.Subscriber, error) {
	return subscriberReturn(m.Called(ctx, tx, record))
}

func (m *MockSubscribers) UpdateConfirmationToken(ctx context.Context, email, token string, action subscribe.PendingAction, expiresAt time.Time) error {
	args := m.Called(ctx, email, token, action, expiresAt)
	return args.Error(0)
}

func (m *MockSubscribers) UpdateConfirmationTokenTx(ctx context.Context, tx bun.IDB, email, token string, action subscribe.PendingAction, expiresAt time.Time) error {
	args := m.Called(ctx, tx, email, token, action, expiresAt)
	return args.Error(0)
}

func (m *MockSubscribers) ClearConfirmation(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSubscribers) ClearConfirmationTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockSubscribers) Activate(ctx context.Context, id uuid.UUID, activatedAt time.Time) error {
	args := m.Called(ctx, id, activatedAt)
	return args.Error(0)
}

func (m *MockSubscribers) ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID, activatedAt time.Time) error {
	args := m.Called(ctx, tx, id, activatedAt)
	return args.Error(0)
}

func (m *MockSubscribers) UpdateMagicLink(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, id, token, expiresAt)
	return args.Error(0)
}

func (m *MockSubscribers) UpdateMagicLinkTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, tx, id, token, expiresAt)
	return args.Error(0)
}

func (m *MockSubscribers) ClearMagicLinkByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSubscribers) ClearMagicLinkByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockSubscribers) ClearMagicLinkByToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockSubscribers) ClearMagicLinkByTokenTx(ctx context.Context, tx bun.IDB, token string) error {
	args := m.Called(ctx, tx, token)
	return args.Error(0)
}

func (m *MockSubscribers) UpdateNickname(ctx context.Context, email, nickname string) (bool, error) {
	args := m.Called(ctx, email, nickname)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscribers) UpdateNicknameTx(ctx context.Context, tx bun.IDB, email, nickname string) (bool, error) {
	args := m.Called(ctx, tx, email, nickname)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscribers) SetPendingEmail(ctx context.Context, id uuid.UUID, pendingEmail, token string, expiresAt time.Time) error {
	args := m.Called(ctx, id, pendingEmail, token, expiresAt)
	return args.Error(0)
}

func (m *MockSubscribers) SetPendingEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, pendingEmail, token string, expiresAt time.Time) error {
	args := m.Called(ctx, tx, id, pendingEmail, token, expiresAt)
	return args.Error(0)
}

func (m *MockSubscribers) CommitEmailChange(ctx context.Context, id uuid.UUID, newEmail string) error {
	args := m.Called(ctx, id, newEmail)
	return args.Error(0)
}

func (m *MockSubscribers) CommitEmailChangeTx(ctx context.Context, tx bun.IDB, id uuid.UUID, newEmail string) error {
	args := m.Called(ctx, tx, id, newEmail)
	return args.Error(0)
}

func (m *MockSubscribers) DeleteByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscribers) DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	args := m.Called(ctx, tx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscribers) DeleteByUnsubscribeToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockSubscribers) DeleteByUnsubscribeTokenTx(ctx context.Context, tx bun.IDB, token string) error {
	args := m.Called(ctx, tx, token)
	return args.Error(0)
}

// MockActivitySink implements subscribe.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event subscribe.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockMagicLinkValidator implements subscribe.MagicLinkValidator
type MockMagicLinkValidator struct {
	mock.Mock
}

func (m *MockMagicLinkValidator) Execute(ctx context.Context, event subscribe.ValidateMagicLinkMessage) (*subscribe.Subscriber, error) {
	return subscriberReturn(m.Called(ctx, event))
}

func (m *MockMagicLinkValidator) Consume(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
