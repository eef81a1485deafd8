package gqlauth_test

import (
	"context"
	"testing"
	"time"

	gqlauth "github.com/goliatone/go-gqlauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountStateMachineVerifySetsTimestamp(t *testing.T) {
	repo := &MockUsers{}
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	user := &gqlauth.User{
		ID:     uuid.New(),
		Status: gqlauth.AccountUnverified,
	}

	expected := &gqlauth.User{
		ID:         user.ID,
		Status:     gqlauth.AccountVerified,
		VerifiedAt: &now,
	}

	repo.On("UpdateStatus", mock.Anything, user.ID, gqlauth.AccountVerified, mock.Anything).
		Return(expected, nil).Once()

	sm := gqlauth.NewAccountStateMachine(repo, gqlauth.WithStateMachineClock(func() time.Time { return now }))

	result, err := sm.Transition(context.Background(), gqlauth.ActorRef{ID: "user"}, user, gqlauth.AccountVerified)
	require.NoError(t, err)
	assert.True(t, result.IsVerified())
	require.NotNil(t, result.VerifiedAt)
	assert.Equal(t, now, result.VerifiedAt.UTC())
	repo.AssertExpectations(t)
}

func TestAccountStateMachineArchiveFromVerified(t *testing.T) {
	repo := &MockUsers{}
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	user := &gqlauth.User{
		ID:     uuid.New(),
		Status: gqlauth.AccountVerified,
	}

	repo.On("UpdateStatus", mock.Anything, user.ID, gqlauth.AccountArchived, mock.Anything).
		Return(&gqlauth.User{ID: user.ID, Status: gqlauth.AccountArchived, ArchivedAt: &now}, nil).Once()

	sm := gqlauth.NewAccountStateMachine(repo, gqlauth.WithStateMachineClock(func() time.Time { return now }))

	result, err := sm.Transition(context.Background(), gqlauth.ActorRef{ID: "user"}, user, gqlauth.AccountArchived)
	require.NoError(t, err)
	assert.True(t, result.IsArchived())
	require.NotNil(t, result.ArchivedAt)
	repo.AssertExpectations(t)
}

func TestAccountStateMachineRejectsVerifiedToUnverified(t *testing.T) {
	repo := &MockUsers{}
	user := &gqlauth.User{
		ID:     uuid.New(),
		Status: gqlauth.AccountVerified,
	}

	sm := gqlauth.NewAccountStateMachine(repo)

	_, err := sm.Transition(context.Background(), gqlauth.ActorRef{}, user, gqlauth.AccountUnverified)
	require.Error(t, err)
	assert.ErrorIs(t, err, gqlauth.ErrInvalidTransition)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountStateMachineArchivedIsTerminal(t *testing.T) {
	repo := &MockUsers{}
	user := &gqlauth.User{
		ID:     uuid.New(),
		Status: gqlauth.AccountArchived,
	}

	sm := gqlauth.NewAccountStateMachine(repo)

	_, err := sm.Transition(context.Background(), gqlauth.ActorRef{}, user, gqlauth.AccountVerified)
	require.Error(t, err)
	assert.ErrorIs(t, err, gqlauth.ErrTerminalState)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountStateMachineForceTransitionBypassesValidation(t *testing.T) {
	repo := &MockUsers{}
	user := &gqlauth.User{
		ID:     uuid.New(),
		Status: gqlauth.AccountArchived,
	}

	repo.On("UpdateStatus", mock.Anything, user.ID, gqlauth.AccountVerified, mock.Anything).
		Return(&gqlauth.User{ID: user.ID, Status: gqlauth.AccountVerified}, nil).Once()

	sm := gqlauth.NewAccountStateMachine(repo)

	result, err := sm.Transition(
		context.Background(),
		gqlauth.ActorRef{ID: "admin"},
		user,
		gqlauth.AccountVerified,
		gqlauth.WithForceTransition(),
	)
	require.NoError(t, err)
	assert.True(t, result.IsVerified())
	repo.AssertExpectations(t)
}

func TestAccountStateMachineSameStatusIsNoop(t *testing.T) {
	repo := &MockUsers{}
	user := &gqlauth.User{
		ID:     uuid.New(),
		Status: gqlauth.AccountVerified,
	}

	sm := gqlauth.NewAccountStateMachine(repo)

	result, err := sm.Transition(context.Background(), gqlauth.ActorRef{}, user, gqlauth.AccountVerified)
	require.NoError(t, err)
	assert.Equal(t, gqlauth.AccountVerified, result.Status)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountStateMachineRunsHooksWithMetadata(t *testing.T) {
	repo := &MockUsers{}
	user := &gqlauth.User{
		ID:     uuid.New(),
		Status: gqlauth.AccountUnverified,
	}

	ts := time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC)

	repo.On("UpdateStatus", mock.Anything, user.ID, gqlauth.AccountVerified, mock.Anything).
		Return(&gqlauth.User{ID: user.ID, Status: gqlauth.AccountVerified, VerifiedAt: &ts}, nil).Once()

	var beforeCalled, afterCalled bool
	var reasonSeen string
	var metadataSeen map[string]any

	before := func(ctx context.Context, tc gqlauth.TransitionContext) error {
		beforeCalled = true
		reasonSeen = tc.Meta.Reason
		metadataSeen = tc.Meta.Metadata
		return nil
	}
	after := func(ctx context.Context, tc gqlauth.TransitionContext) error {
		afterCalled = true
		return nil
	}

	sm := gqlauth.NewAccountStateMachine(repo, gqlauth.WithStateMachineClock(func() time.Time { return ts }))

	metadata := map[string]any{"token_id": "abc"}

	_, err := sm.Transition(
		context.Background(),
		gqlauth.ActorRef{ID: "user"},
		user,
		gqlauth.AccountVerified,
		gqlauth.WithTransitionReason("activation token redeemed"),
		gqlauth.WithTransitionMetadata(metadata),
		gqlauth.WithBeforeTransitionHook(before),
		gqlauth.WithAfterTransitionHook(after),
	)
	require.NoError(t, err)
	assert.True(t, beforeCalled)
	assert.True(t, afterCalled)
	assert.Equal(t, "activation token redeemed", reasonSeen)
	require.NotNil(t, metadataSeen)
	assert.Equal(t, "abc", metadataSeen["token_id"])
	repo.AssertExpectations(t)
}

func TestAccountStateMachineNotifiesDispatcher(t *testing.T) {
	repo := &MockUsers{}
	dispatcher := &MockDispatcher{}
	now := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	user := &gqlauth.User{
		ID:     uuid.New(),
		Email:  "apple@example.com",
		Status: gqlauth.AccountUnverified,
	}

	repo.On("UpdateStatus", mock.Anything, user.ID, gqlauth.AccountVerified, mock.Anything).
		Return(&gqlauth.User{ID: user.ID, Status: gqlauth.AccountVerified}, nil).Once()

	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(n gqlauth.Notification) bool {
		return n.Type == gqlauth.NotificationVerified &&
			n.UserRef == user.ID &&
			n.Email == user.Email
	})).Return(nil).Once()

	sm := gqlauth.NewAccountStateMachine(
		repo,
		gqlauth.WithStateMachineClock(func() time.Time { return now }),
		gqlauth.WithStateMachineDispatcher(dispatcher),
	)

	_, err := sm.Transition(context.Background(), gqlauth.ActorRef{ID: "user"}, user, gqlauth.AccountVerified)
	require.NoError(t, err)

	repo.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}
