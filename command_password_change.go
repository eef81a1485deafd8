package gqlauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type PasswordChangeMessage struct {
	Identity    Identity `json:"-"`
	OldPassword string   `json:"old_password"`
	NewPassword string   `json:"new_password"`
	OnResponse  func(resp *PasswordChangeResponse)
}

func (e PasswordChangeMessage) Type() string { return "account.password_change" }

func (e PasswordChangeMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.OldPassword, validation.Required),
		validation.Field(&e.NewPassword, validation.Required, validation.Length(8, 128)),
	)
}

type PasswordChangeResponse struct {
	Success bool
}

// PasswordChangeHandler rotates the caller's password after confirming the
// old one. Verification state is untouched; an unverified account may still
// change its password.
type PasswordChangeHandler struct {
	repo       RepositoryManager
	dispatcher Dispatcher
	logger     Logger
}

func NewPasswordChangeHandler(repo RepositoryManager, dispatcher Dispatcher) *PasswordChangeHandler {
	return &PasswordChangeHandler{
		repo:       repo,
		dispatcher: normalizeDispatcher(dispatcher),
		logger:     defLogger{},
	}
}

func (h *PasswordChangeHandler) WithLogger(logger Logger) *PasswordChangeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *PasswordChangeHandler) Execute(ctx context.Context, event PasswordChangeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password change")
	default:
		return h.execute(ctx, event)
	}
}

func (h *PasswordChangeHandler) execute(ctx context.Context, event PasswordChangeMessage) error {
	if event.Identity.IsAnonymous() {
		return NewAuthError(CodeUnauthenticated)
	}

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password change payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetUser(ctx, event.Identity.UserRef)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return NewAuthError(CodeUserNotFound)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for password change")
	}

	if err := ComparePasswordAndHash(event.OldPassword, user.PasswordHash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryAuth, "old password does not match")
	}

	hash, err := HashPassword(event.NewPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
	}

	if err := h.repo.Users().SetPassword(ctx, user.ID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist new password")
	}

	if err := h.dispatcher.Dispatch(ctx, Notification{
		Type:    NotificationPasswordChanged,
		UserRef: user.ID,
		Email:   user.Email,
	}); err != nil {
		h.logger.Warn("password change notification dispatch error: %v", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&PasswordChangeResponse{Success: true})
	}

	return nil
}
