package gqlauth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
	OnResponse  func(resp *FinalizePasswordResetResponse)
}

func (p FinalizePasswordResetMessage) Type() string { return "account.password_reset_finalize" }

func (p FinalizePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Token, validation.Required),
		validation.Field(&p.NewPassword, validation.Required, validation.Length(8, 128)),
	)
}

type FinalizePasswordResetResponse struct {
	Success bool
}

// FinalizePasswordResetHandler redeems a single-use reset token and stores
// the new password hash. Redeeming consumes the token, so a replayed link
// fails with INVALID_TOKEN.
type FinalizePasswordResetHandler struct {
	repo       RepositoryManager
	tokens     OneTimeTokens
	dispatcher Dispatcher
	logger     Logger
}

func NewFinalizePasswordResetHandler(repo RepositoryManager, tokens OneTimeTokens, dispatcher Dispatcher) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:       repo,
		tokens:     tokens,
		dispatcher: normalizeDispatcher(dispatcher),
		logger:     defLogger{},
	}
}

func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	userRef, err := h.tokens.RedeemOneTime(ctx, event.Token, TokenTypeReset)
	if err != nil {
		return err
	}

	user, err := h.repo.Users().GetUser(ctx, userRef)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return NewAuthError(CodeInvalidToken)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for password reset")
	}

	hash, err := HashPassword(event.NewPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Users().SetPasswordTx(ctx, tx, user.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist new password")
		}

		return h.markResetChanged(ctx, tx, event.Token)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	if err := h.dispatcher.Dispatch(ctx, Notification{
		Type:    NotificationPasswordChanged,
		UserRef: user.ID,
		Email:   user.Email,
	}); err != nil {
		h.logger.Warn("password reset notification dispatch error: %v", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&FinalizePasswordResetResponse{Success: true})
	}

	return nil
}

func (h *FinalizePasswordResetHandler) markResetChanged(ctx context.Context, tx bun.Tx, token string) error {
	tokenID := tokenIDOf(token)
	if tokenID == "" {
		return nil
	}

	reset := &PasswordReset{}
	err := tx.NewSelect().Model(reset).
		Where("?TableAlias.token_id = ?", tokenID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		// the reset record is bookkeeping, its absence does not block the reset
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil
		}
		return err
	}

	updated := MarkPasswordAsReseted(reset.ID)
	_, err = h.repo.PasswordResets().UpdateTx(ctx, tx, updated, repository.UpdateByID(reset.ID.String()))
	return err
}
