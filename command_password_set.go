package gqlauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type PasswordSetMessage struct {
	Identity    Identity `json:"-"`
	NewPassword string   `json:"new_password"`
	OnResponse  func(resp *PasswordSetResponse)
}

func (e PasswordSetMessage) Type() string { return "account.password_set" }

func (e PasswordSetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.NewPassword, validation.Required, validation.Length(8, 128)),
	)
}

type PasswordSetResponse struct {
	Success bool
}

// PasswordSetHandler sets the first password on an account that has none,
// typically one provisioned through an external identity. Accounts with a
// usable password must go through password change or reset instead.
type PasswordSetHandler struct {
	repo       RepositoryManager
	dispatcher Dispatcher
	logger     Logger
}

func NewPasswordSetHandler(repo RepositoryManager, dispatcher Dispatcher) *PasswordSetHandler {
	return &PasswordSetHandler{
		repo:       repo,
		dispatcher: normalizeDispatcher(dispatcher),
		logger:     defLogger{},
	}
}

func (h *PasswordSetHandler) WithLogger(logger Logger) *PasswordSetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *PasswordSetHandler) Execute(ctx context.Context, event PasswordSetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password set")
	default:
		return h.execute(ctx, event)
	}
}

func (h *PasswordSetHandler) execute(ctx context.Context, event PasswordSetMessage) error {
	if event.Identity.IsAnonymous() {
		return NewAuthError(CodeUnauthenticated)
	}

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password set payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetUser(ctx, event.Identity.UserRef)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return NewAuthError(CodeUserNotFound)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for password set")
	}

	if user.HasUsablePassword() {
		return goerrors.New("account already has a password", goerrors.CategoryConflict).
			WithTextCode("PASSWORD_ALREADY_SET")
	}

	hash, err := HashPassword(event.NewPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := h.repo.Users().SetPassword(ctx, user.ID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist password")
	}

	if err := h.dispatcher.Dispatch(ctx, Notification{
		Type:    NotificationPasswordChanged,
		UserRef: user.ID,
		Email:   user.Email,
	}); err != nil {
		h.logger.Warn("password set notification dispatch error: %v", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&PasswordSetResponse{Success: true})
	}

	return nil
}
