package gqlauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type VerifyAccountMessage struct {
	Token      string `json:"token"`
	OnResponse func(resp *VerifyAccountResponse)
}

func (e VerifyAccountMessage) Type() string { return "account.verify" }

type VerifyAccountResponse struct {
	User    *User
	Success bool
}

// VerifyAccountHandler redeems a single-use activation token and moves the
// account to verified. Replayed or malformed tokens fail with INVALID_TOKEN
// and an already verified account fails with ALREADY_VERIFIED; both are
// expected denials, returned as AuthError values. The token is only
// consumed once the redemption is going to succeed, so a denial leaves it
// usable.
type VerifyAccountHandler struct {
	repo   RepositoryManager
	tokens OneTimeTokens
}

func NewVerifyAccountHandler(repo RepositoryManager, tokens OneTimeTokens) *VerifyAccountHandler {
	return &VerifyAccountHandler{
		repo:   repo,
		tokens: tokens,
	}
}

func (h *VerifyAccountHandler) Execute(ctx context.Context, event VerifyAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyAccountHandler) execute(ctx context.Context, event VerifyAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	userRef, err := h.tokens.InspectOneTime(ctx, event.Token, TokenTypeActivation)
	if err != nil {
		return err
	}

	user, err := h.repo.Users().GetUser(ctx, userRef)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return NewAuthError(CodeInvalidToken)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for verification")
	}

	if user.IsVerified() {
		return NewAuthError(CodeAlreadyVerified)
	}

	if _, err := h.tokens.RedeemOneTime(ctx, event.Token, TokenTypeActivation); err != nil {
		return err
	}

	actor := ActorRef{ID: userRef.String(), Type: "user"}
	if user, err = h.repo.Users().Verify(ctx, actor, user); err != nil {
		return err
	}

	if event.OnResponse != nil {
		event.OnResponse(&VerifyAccountResponse{User: user, Success: true})
	}

	return nil
}
