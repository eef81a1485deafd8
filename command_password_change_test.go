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

func authenticatedIdentity(userID uuid.UUID) gqlauth.Identity {
	return gqlauth.Identity{
		Authenticated: true,
		UserRef:       userID,
		Username:      "apple",
		Email:         "apple@example.com",
	}
}

func TestPasswordChangeHandlerRotatesPassword(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	dispatcher := &MockDispatcher{}

	userID := uuid.New()
	oldHash, err := gqlauth.HashPassword("oldpassword1")
	require.NoError(t, err)

	repo.On("Users").Return(users)
	users.On("GetUser", mock.Anything, userID).
		Return(&gqlauth.User{ID: userID, Email: "apple@example.com", PasswordHash: oldHash}, nil).Once()
	users.On("SetPassword", mock.Anything, userID, mock.MatchedBy(func(hash string) bool {
		return hash != "" && hash != oldHash
	})).Return(nil).Once()

	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(n gqlauth.Notification) bool {
		return n.Type == gqlauth.NotificationPasswordChanged && n.UserRef == userID
	})).Return(nil).Once()

	handler := gqlauth.NewPasswordChangeHandler(repo, dispatcher)

	var resp *gqlauth.PasswordChangeResponse
	err = handler.Execute(ctx, gqlauth.PasswordChangeMessage{
		Identity:    authenticatedIdentity(userID),
		OldPassword: "oldpassword1",
		NewPassword: "newpassword1",
		OnResponse: func(r *gqlauth.PasswordChangeResponse) {
			resp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)

	users.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestPasswordChangeHandlerWrongOldPassword(t *testing.T) {
	repo := &MockRepositoryManager{}
	users := &MockUsers{}

	userID := uuid.New()
	oldHash, err := gqlauth.HashPassword("oldpassword1")
	require.NoError(t, err)

	repo.On("Users").Return(users)
	users.On("GetUser", mock.Anything, userID).
		Return(&gqlauth.User{ID: userID, PasswordHash: oldHash}, nil).Once()

	handler := gqlauth.NewPasswordChangeHandler(repo, nil)

	err = handler.Execute(context.Background(), gqlauth.PasswordChangeMessage{
		Identity:    authenticatedIdentity(userID),
		OldPassword: "wrongpassword",
		NewPassword: "newpassword1",
	})
	require.Error(t, err)
	users.AssertNotCalled(t, "SetPassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestPasswordChangeHandlerRequiresAuthentication(t *testing.T) {
	repo := &MockRepositoryManager{}
	handler := gqlauth.NewPasswordChangeHandler(repo, nil)

	err := handler.Execute(context.Background(), gqlauth.PasswordChangeMessage{
		Identity:    gqlauth.AnonymousIdentity(),
		OldPassword: "oldpassword1",
		NewPassword: "newpassword1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, gqlauth.NewAuthError(gqlauth.CodeUnauthenticated))
	repo.AssertNotCalled(t, "Users")
}
