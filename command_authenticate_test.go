package gqlauth_test

import (
	"context"
	"testing"

	gqlauth "github.com/goliatone/go-gqlauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateHandlerMintsTokenPair(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	store := &MockUserStore{}
	tokens := gqlauth.NewTokenService(newTestConfig(), store, nil)

	userID := uuid.New()
	hash, err := gqlauth.HashPassword("password12345")
	require.NoError(t, err)

	account := &gqlauth.User{
		ID:           userID,
		Username:     "apple",
		Email:        "apple@example.com",
		PasswordHash: hash,
		Status:       gqlauth.AccountVerified,
	}

	repo.On("Users").Return(users)
	users.On("GetByIdentifier", mock.Anything, "apple@example.com").Return(account, nil).Once()
	store.On("GetUser", mock.Anything, userID).Return(account, nil).Once()
	store.On("GetPermissions", mock.Anything, userID).Return(gqlauth.NewPermissionSet(), nil).Once()

	handler := gqlauth.NewAuthenticateHandler(repo, tokens).WithLogger(testLogger{})

	var resp *gqlauth.AuthenticateResponse
	err = handler.Execute(ctx, gqlauth.AuthenticateMessage{
		Identifier: "apple@example.com",
		Password:   "password12345",
		OnResponse: func(r *gqlauth.AuthenticateResponse) {
			resp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	assert.NotEqual(t, resp.AccessToken, resp.RefreshToken)

	// the minted access token authenticates
	identity, err := tokens.Verify(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserRef)
	assert.Equal(t, "apple", identity.Username)

	// the refresh token is not an access credential
	_, err = tokens.Verify(ctx, resp.RefreshToken)
	require.Error(t, err)
}

func TestAuthenticateHandlerRejectsWrongPassword(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	tokens := gqlauth.NewTokenService(newTestConfig(), &MockUserStore{}, nil)

	hash, err := gqlauth.HashPassword("password12345")
	require.NoError(t, err)

	repo.On("Users").Return(users)
	users.On("GetByIdentifier", mock.Anything, "apple@example.com").
		Return(&gqlauth.User{ID: uuid.New(), PasswordHash: hash, Status: gqlauth.AccountVerified}, nil).Once()

	handler := gqlauth.NewAuthenticateHandler(repo, tokens).WithLogger(testLogger{})

	called := false
	err = handler.Execute(ctx, gqlauth.AuthenticateMessage{
		Identifier: "apple@example.com",
		Password:   "wrongpassword",
		OnResponse: func(*gqlauth.AuthenticateResponse) { called = true },
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, gqlauth.NewAuthError(gqlauth.CodeUnauthenticated))
	assert.False(t, called)

	denied, ok := gqlauth.AsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, "Please, enter valid credentials", denied.Message)
}

func TestAuthenticateHandlerUnknownIdentifier(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	tokens := gqlauth.NewTokenService(newTestConfig(), &MockUserStore{}, nil)

	repo.On("Users").Return(users)
	users.On("GetByIdentifier", mock.Anything, "ghost@example.com").
		Return(nil, notFoundErr()).Once()

	handler := gqlauth.NewAuthenticateHandler(repo, tokens).WithLogger(testLogger{})

	err := handler.Execute(ctx, gqlauth.AuthenticateMessage{
		Identifier: "ghost@example.com",
		Password:   "password12345",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, gqlauth.NewAuthError(gqlauth.CodeUnauthenticated))
}

func TestAuthenticateHandlerArchivedAccount(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	tokens := gqlauth.NewTokenService(newTestConfig(), &MockUserStore{}, nil)

	hash, err := gqlauth.HashPassword("password12345")
	require.NoError(t, err)

	repo.On("Users").Return(users)
	users.On("GetByIdentifier", mock.Anything, "gone@example.com").
		Return(&gqlauth.User{ID: uuid.New(), PasswordHash: hash, Status: gqlauth.AccountArchived}, nil).Once()

	handler := gqlauth.NewAuthenticateHandler(repo, tokens).WithLogger(testLogger{})

	err = handler.Execute(ctx, gqlauth.AuthenticateMessage{
		Identifier: "gone@example.com",
		Password:   "password12345",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, gqlauth.NewAuthError(gqlauth.CodeUnauthenticated))
}

func TestAuthenticateHandlerInvalidPayload(t *testing.T) {
	repo := &MockRepositoryManager{}
	tokens := gqlauth.NewTokenService(newTestConfig(), &MockUserStore{}, nil)

	handler := gqlauth.NewAuthenticateHandler(repo, tokens)

	err := handler.Execute(context.Background(), gqlauth.AuthenticateMessage{Identifier: "apple@example.com"})
	require.Error(t, err)
	repo.AssertNotCalled(t, "Users")
}
