package gqlauth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	SecondaryEmail string `json:"secondary_email"`
	Phone          string `json:"phone"`
	Password       string `json:"password"`
	UseHashid      bool
	OnResponse     func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "account.register" }

func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.SecondaryEmail, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 128)),
	)
}

type RegisterUserResponse struct {
	User            *User
	ActivationToken string
	Success         bool
}

type RegisterUserHandler struct {
	repo       RepositoryManager
	tokens     OneTimeTokens
	dispatcher Dispatcher
	logger     Logger
}

func NewRegisterUserHandler(repo RepositoryManager, tokens OneTimeTokens, dispatcher Dispatcher) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:       repo,
		tokens:     tokens,
		dispatcher: normalizeDispatcher(dispatcher),
		logger:     defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	phone, err := normalizePhone(event.Phone)
	if err != nil {
		return err
	}

	user := &User{}
	resp := &RegisterUserResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.SecondaryEmail = event.SecondaryEmail
		user.Phone = phone
		user.Username = getUsername(event.Username, event.Email)
		user.Status = AccountUnverified
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	token, err := h.tokens.IssueOneTime(ctx, user.ID, TokenTypeActivation)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue activation token")
	}

	if err := h.dispatcher.Dispatch(ctx, Notification{
		Type:    NotificationRegistered,
		UserRef: user.ID,
		Email:   user.Email,
		Context: map[string]any{"activation_token": token},
	}); err != nil {
		h.logger.Warn("registration notification dispatch error: %v", err)
	}

	resp.User = user
	resp.ActivationToken = token
	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}

func normalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	parsed, err := phonenumbers.Parse(raw, "US")
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number")
	}

	if !phonenumbers.IsValidNumber(parsed) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"phone": raw})
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
