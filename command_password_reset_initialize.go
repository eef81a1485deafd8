package gqlauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Customer email."`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "account.password_reset" }

type InitializePasswordResetResponse struct {
	Reset      *PasswordReset
	ResetToken string
	Success    bool
}

// InitializePasswordResetHandler opens a reset flow: it records a reset
// request and emits a notification carrying a single-use reset token. An
// unknown email reports success without a reset record so callers cannot
// probe which addresses exist.
type InitializePasswordResetHandler struct {
	repo       RepositoryManager
	tokens     OneTimeTokens
	dispatcher Dispatcher
	logger     Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, tokens OneTimeTokens, dispatcher Dispatcher) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:       repo,
		tokens:     tokens,
		dispatcher: normalizeDispatcher(dispatcher),
		logger:     defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	user := &User{}
	reset := &PasswordReset{}
	resp := &InitializePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var err error

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err = h.repo.Users().GetByIdentifier(ctx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				user = nil
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		token, err := h.tokens.IssueOneTime(ctx, user.ID, TokenTypeReset)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue reset token")
		}

		reset.UserID = &user.ID
		reset.Email = event.Email
		reset.Status = ResetRequestedStatus
		reset.TokenID = tokenIDOf(token)

		createdReset, err := h.repo.PasswordResets().CreateTx(ctx, tx, reset)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password reset record")
		}

		resp.Reset = createdReset
		resp.ResetToken = token
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	if user != nil {
		if err := h.dispatcher.Dispatch(ctx, Notification{
			Type:    NotificationPasswordResetStart,
			UserRef: user.ID,
			Email:   user.Email,
			Context: map[string]any{"reset_token": resp.ResetToken},
		}); err != nil {
			h.logger.Warn("password reset notification dispatch error: %v", err)
		}
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
