package gqlauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type AuthenticateMessage struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	OnResponse func(resp *AuthenticateResponse)
}

func (e AuthenticateMessage) Type() string { return "account.authenticate" }

func (e AuthenticateMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Identifier, validation.Required),
		validation.Field(&e.Password, validation.Required),
	)
}

type AuthenticateResponse struct {
	User         *User
	AccessToken  string
	RefreshToken string
	Success      bool
}

// AuthenticateHandler verifies a password and mints the access/refresh
// token pair. Unknown identifiers, archived accounts, and wrong passwords
// all fail with the same UNAUTHENTICATED denial so the endpoint cannot be
// used to probe which accounts exist; branches without a stored hash still
// pay for one bcrypt comparison against a throwaway hash.
type AuthenticateHandler struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

func NewAuthenticateHandler(repo RepositoryManager, tokens TokenService) *AuthenticateHandler {
	return &AuthenticateHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (h *AuthenticateHandler) WithLogger(logger Logger) *AuthenticateHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *AuthenticateHandler) Execute(ctx context.Context, event AuthenticateMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during authentication")
	default:
		return h.execute(ctx, event)
	}
}

func (h *AuthenticateHandler) execute(ctx context.Context, event AuthenticateMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid login payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Identifier)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return h.rejectLogin(event.Identifier, RandomPasswordHash(), event.Password)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user during authentication")
	}

	if user.IsArchived() {
		return h.rejectLogin(event.Identifier, RandomPasswordHash(), event.Password)
	}

	hash := user.PasswordHash
	if !user.HasUsablePassword() {
		hash = RandomPasswordHash()
	}

	if err := ComparePasswordAndHash(event.Password, hash); err != nil || !user.HasUsablePassword() {
		h.logger.Debug("login rejected for %s", event.Identifier)
		return NewAuthErrorf(CodeUnauthenticated, "Please, enter valid credentials")
	}

	access, err := h.tokens.Issue(ctx, user.ID, TokenTypeAccess)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue access token")
	}

	refresh, err := h.tokens.Issue(ctx, user.ID, TokenTypeRefresh)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue refresh token")
	}

	if event.OnResponse != nil {
		event.OnResponse(&AuthenticateResponse{
			User:         user,
			AccessToken:  access,
			RefreshToken: refresh,
			Success:      true,
		})
	}

	return nil
}

func (h *AuthenticateHandler) rejectLogin(identifier, hash, password string) error {
	_ = ComparePasswordAndHash(password, hash)
	h.logger.Debug("login rejected for %s", identifier)
	return NewAuthErrorf(CodeUnauthenticated, "Please, enter valid credentials")
}
