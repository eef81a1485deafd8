package gqlauth_test

import (
	"context"
	"database/sql"
	"testing"

	gqlauth "github.com/goliatone/go-gqlauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestArchiveAccountHandlerArchivesCaller(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}

	userID := uuid.New()
	hash, err := gqlauth.HashPassword("password12345")
	require.NoError(t, err)

	user := &gqlauth.User{ID: userID, PasswordHash: hash, Status: gqlauth.AccountVerified}
	archived := &gqlauth.User{ID: userID, PasswordHash: hash, Status: gqlauth.AccountArchived}

	repo.On("Users").Return(users)
	users.On("GetUser", mock.Anything, userID).Return(user, nil).Once()
	users.On("Archive", mock.Anything, gqlauth.ActorRef{ID: userID.String(), Type: "user"}, user).
		Return(archived, nil).Once()
	users.On("DeleteTx", mock.Anything, mock.Anything, archived).Return(nil).Once()

	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(context.Context, bun.Tx) error)
			var tx bun.Tx
			require.NoError(t, fn(args.Get(0).(context.Context), tx))
		}).Once()

	handler := gqlauth.NewArchiveAccountHandler(repo)

	var resp *gqlauth.ArchiveAccountResponse
	err = handler.Execute(ctx, gqlauth.ArchiveAccountMessage{
		Identity: authenticatedIdentity(userID),
		Password: "password12345",
		OnResponse: func(r *gqlauth.ArchiveAccountResponse) {
			resp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)

	repo.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestArchiveAccountHandlerWrongPassword(t *testing.T) {
	repo := &MockRepositoryManager{}
	users := &MockUsers{}

	userID := uuid.New()
	hash, err := gqlauth.HashPassword("password12345")
	require.NoError(t, err)

	repo.On("Users").Return(users)
	users.On("GetUser", mock.Anything, userID).
		Return(&gqlauth.User{ID: userID, PasswordHash: hash}, nil).Once()

	handler := gqlauth.NewArchiveAccountHandler(repo)

	err = handler.Execute(context.Background(), gqlauth.ArchiveAccountMessage{
		Identity: authenticatedIdentity(userID),
		Password: "wrongpassword",
	})
	require.Error(t, err)
	users.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything, mock.Anything)
}

func TestArchiveAccountHandlerRequiresAuthentication(t *testing.T) {
	repo := &MockRepositoryManager{}
	handler := gqlauth.NewArchiveAccountHandler(repo)

	err := handler.Execute(context.Background(), gqlauth.ArchiveAccountMessage{
		Identity: gqlauth.AnonymousIdentity(),
		Password: "password12345",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, gqlauth.NewAuthError(gqlauth.CodeUnauthenticated))
	repo.AssertNotCalled(t, "Users")
}
