package gqlauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type ResendActivationMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *ResendActivationResponse)
}

func (e ResendActivationMessage) Type() string { return "account.resend_activation" }

func (e ResendActivationMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

type ResendActivationResponse struct {
	ActivationToken string
	Success         bool
}

// ResendActivationHandler issues a fresh activation token for an account
// still pending verification. Verified accounts get ALREADY_VERIFIED.
type ResendActivationHandler struct {
	repo       RepositoryManager
	tokens     OneTimeTokens
	dispatcher Dispatcher
	logger     Logger
}

func NewResendActivationHandler(repo RepositoryManager, tokens OneTimeTokens, dispatcher Dispatcher) *ResendActivationHandler {
	return &ResendActivationHandler{
		repo:       repo,
		tokens:     tokens,
		dispatcher: normalizeDispatcher(dispatcher),
		logger:     defLogger{},
	}
}

func (h *ResendActivationHandler) WithLogger(logger Logger) *ResendActivationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendActivationHandler) Execute(ctx context.Context, event ResendActivationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during activation resend")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendActivationHandler) execute(ctx context.Context, event ResendActivationMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid activation resend payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return NewAuthError(CodeUserNotFound)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for activation resend")
	}

	if user.IsVerified() {
		return NewAuthError(CodeAlreadyVerified)
	}

	if user.IsArchived() {
		return NewAuthError(CodeUnauthenticated)
	}

	token, err := h.tokens.IssueOneTime(ctx, user.ID, TokenTypeActivation)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue activation token")
	}

	if err := h.dispatcher.Dispatch(ctx, Notification{
		Type:    NotificationActivationResent,
		UserRef: user.ID,
		Email:   user.Email,
		Context: map[string]any{"activation_token": token},
	}); err != nil {
		h.logger.Warn("activation resend notification dispatch error: %v", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&ResendActivationResponse{ActivationToken: token, Success: true})
	}

	return nil
}
