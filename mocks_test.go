package gqlauth_test

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	gqlauth "github.com/goliatone/go-gqlauth"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

func notFoundErr() error {
	return goerrors.New("record not found", goerrors.CategoryNotFound)
}

func newTestConfig() gqlauth.SimpleConfig {
	return gqlauth.SimpleConfig{
		SigningKey: "test-signing-key",
		Issuer:     "gqlauth-test",
	}
}

// MockUserStore implements gqlauth.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) GetUser(ctx context.Context, userRef uuid.UUID) (*gqlauth.User, error) {
	args := m.Called(ctx, userRef)
	var user *gqlauth.User
	if v := args.Get(0); v != nil {
		user = v.(*gqlauth.User)
	}
	return user, args.Error(1)
}

func (m *MockUserStore) GetAccountStatus(ctx context.Context, userRef uuid.UUID) (gqlauth.AccountStatus, error) {
	args := m.Called(ctx, userRef)
	return args.String(0), args.Error(1)
}

func (m *MockUserStore) SaveAccountStatus(ctx context.Context, userRef uuid.UUID, status gqlauth.AccountStatus) error {
	args := m.Called(ctx, userRef, status)
	return args.Error(0)
}

func (m *MockUserStore) GetPermissions(ctx context.Context, userRef uuid.UUID) (gqlauth.PermissionSet, error) {
	args := m.Called(ctx, userRef)
	var set gqlauth.PermissionSet
	if v := args.Get(0); v != nil {
		set = v.(gqlauth.PermissionSet)
	}
	return set, args.Error(1)
}

// MockUsers implements gqlauth.Users for the methods the tests exercise.
// The embedded interface satisfies the rest; calling an unmocked method
// panics, which is the behavior we want in tests.
type MockUsers struct {
	gqlauth.Users
	mock.Mock
}

func (m *MockUsers) GetUser(ctx context.Context, userRef uuid.UUID) (*gqlauth.User, error) {
	args := m.Called(ctx, userRef)
	var user *gqlauth.User
	if v := args.Get(0); v != nil {
		user = v.(*gqlauth.User)
	}
	return user, args.Error(1)
}

func (m *MockUsers) GetPermissions(ctx context.Context, userRef uuid.UUID) (gqlauth.PermissionSet, error) {
	args := m.Called(ctx, userRef)
	var set gqlauth.PermissionSet
	if v := args.Get(0); v != nil {
		set = v.(gqlauth.PermissionSet)
	}
	return set, args.Error(1)
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*gqlauth.User, error) {
	args := m.Called(ctx, identifier)
	var user *gqlauth.User
	if v := args.Get(0); v != nil {
		user = v.(*gqlauth.User)
	}
	return user, args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, record *gqlauth.User, criteria ...repository.UpdateCriteria) (*gqlauth.User, error) {
	args := m.Called(ctx, record)
	var user *gqlauth.User
	if v := args.Get(0); v != nil {
		user = v.(*gqlauth.User)
	}
	return user, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *gqlauth.User, criteria ...repository.InsertCriteria) (*gqlauth.User, error) {
	args := m.Called(ctx, tx, record)
	var user *gqlauth.User
	if v := args.Get(0); v != nil {
		user = v.(*gqlauth.User)
	}
	return user, args.Error(1)
}

func (m *MockUsers) UpdateStatus(ctx context.Context, id uuid.UUID, status gqlauth.AccountStatus, opts ...gqlauth.StatusUpdateOption) (*gqlauth.User, error) {
	args := m.Called(ctx, id, status, opts)
	var user *gqlauth.User
	if v := args.Get(0); v != nil {
		user = v.(*gqlauth.User)
	}
	return user, args.Error(1)
}

func (m *MockUsers) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) Verify(ctx context.Context, actor gqlauth.ActorRef, user *gqlauth.User, opts ...gqlauth.TransitionOption) (*gqlauth.User, error) {
	args := m.Called(ctx, actor, user)
	var updated *gqlauth.User
	if v := args.Get(0); v != nil {
		updated = v.(*gqlauth.User)
	}
	return updated, args.Error(1)
}

func (m *MockUsers) Archive(ctx context.Context, actor gqlauth.ActorRef, user *gqlauth.User, opts ...gqlauth.TransitionOption) (*gqlauth.User, error) {
	args := m.Called(ctx, actor, user)
	var updated *gqlauth.User
	if v := args.Get(0); v != nil {
		updated = v.(*gqlauth.User)
	}
	return updated, args.Error(1)
}

func (m *MockUsers) DeleteTx(ctx context.Context, tx bun.IDB, record *gqlauth.User) error {
	args := m.Called(ctx, tx, record)
	return args.Error(0)
}

// MockPasswordResets implements repository.Repository[*gqlauth.PasswordReset]
// for the methods the tests exercise.
type MockPasswordResets struct {
	repository.Repository[*gqlauth.PasswordReset]
	mock.Mock
}

func (m *MockPasswordResets) CreateTx(ctx context.Context, tx bun.IDB, record *gqlauth.PasswordReset, criteria ...repository.InsertCriteria) (*gqlauth.PasswordReset, error) {
	args := m.Called(ctx, tx, record)
	var reset *gqlauth.PasswordReset
	if v := args.Get(0); v != nil {
		reset = v.(*gqlauth.PasswordReset)
	}
	return reset, args.Error(1)
}

func (m *MockPasswordResets) UpdateTx(ctx context.Context, tx bun.IDB, record *gqlauth.PasswordReset, criteria ...repository.UpdateCriteria) (*gqlauth.PasswordReset, error) {
	args := m.Called(ctx, tx, record)
	var reset *gqlauth.PasswordReset
	if v := args.Get(0); v != nil {
		reset = v.(*gqlauth.PasswordReset)
	}
	return reset, args.Error(1)
}

// MockRepositoryManager implements gqlauth.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error { return nil }

func (m *MockRepositoryManager) MustValidate() {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

func (m *MockRepositoryManager) Users() gqlauth.Users {
	args := m.Called()
	return args.Get(0).(gqlauth.Users)
}

func (m *MockRepositoryManager) PasswordResets() repository.Repository[*gqlauth.PasswordReset] {
	args := m.Called()
	return args.Get(0).(repository.Repository[*gqlauth.PasswordReset])
}

// MockDispatcher implements gqlauth.Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, notification gqlauth.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

// MockRevocationStore implements gqlauth.RevocationStore
type MockRevocationStore struct {
	mock.Mock
}

func (m *MockRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}
