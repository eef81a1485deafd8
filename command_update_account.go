package gqlauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type UpdateAccountMessage struct {
	Identity       Identity `json:"-"`
	Username       string   `json:"username"`
	SecondaryEmail string   `json:"secondary_email"`
	Phone          string   `json:"phone"`
	OnResponse     func(resp *UpdateAccountResponse)
}

func (e UpdateAccountMessage) Type() string { return "account.update" }

func (e UpdateAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Username, validation.Length(3, 64)),
		validation.Field(&e.SecondaryEmail, is.Email),
	)
}

type UpdateAccountResponse struct {
	User    *User
	Success bool
}

// UpdateAccountHandler updates the caller's mutable profile fields. Only
// verified accounts may change their profile; empty fields are left
// untouched.
type UpdateAccountHandler struct {
	repo RepositoryManager
}

func NewUpdateAccountHandler(repo RepositoryManager) *UpdateAccountHandler {
	return &UpdateAccountHandler{repo: repo}
}

func (h *UpdateAccountHandler) Execute(ctx context.Context, event UpdateAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account update")
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateAccountHandler) execute(ctx context.Context, event UpdateAccountMessage) error {
	if event.Identity.IsAnonymous() {
		return NewAuthError(CodeUnauthenticated)
	}

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid account update payload")
	}

	phone, err := normalizePhone(event.Phone)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetUser(ctx, event.Identity.UserRef)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return NewAuthError(CodeUserNotFound)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for account update")
	}

	if !user.IsVerified() {
		return NewAuthError(CodeNotVerified)
	}

	if event.Username != "" {
		user.Username = event.Username
	}
	if event.SecondaryEmail != "" {
		user.SecondaryEmail = event.SecondaryEmail
	}
	if phone != "" {
		user.Phone = phone
	}

	user, err = h.repo.Users().Update(ctx, user, repository.UpdateByID(user.ID.String()))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account")
	}

	if event.OnResponse != nil {
		event.OnResponse(&UpdateAccountResponse{User: user, Success: true})
	}

	return nil
}
