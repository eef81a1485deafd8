package gqlauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ArchiveAccountMessage struct {
	Identity   Identity `json:"-"`
	Password   string   `json:"password"`
	OnResponse func(resp *ArchiveAccountResponse)
}

func (e ArchiveAccountMessage) Type() string { return "account.archive" }

type ArchiveAccountResponse struct {
	Success bool
}

// ArchiveAccountHandler soft-deletes the caller's own account. The
// authenticated identity names the target; the password confirms intent.
// Archived accounts fail authentication regardless of credential validity,
// so no explicit token sweep happens here.
type ArchiveAccountHandler struct {
	repo RepositoryManager
}

func NewArchiveAccountHandler(repo RepositoryManager) *ArchiveAccountHandler {
	return &ArchiveAccountHandler{repo: repo}
}

func (h *ArchiveAccountHandler) Execute(ctx context.Context, event ArchiveAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account archival")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ArchiveAccountHandler) execute(ctx context.Context, event ArchiveAccountMessage) error {
	if event.Identity.IsAnonymous() {
		return NewAuthError(CodeUnauthenticated)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetUser(ctx, event.Identity.UserRef)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return NewAuthError(CodeUserNotFound)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for archival")
	}

	if err := ComparePasswordAndHash(event.Password, user.PasswordHash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryAuth, "password confirmation failed")
	}

	actor := ActorRef{ID: event.Identity.UserRef.String(), Type: "user"}
	if user, err = h.repo.Users().Archive(ctx, actor, user); err != nil {
		return err
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Users().DeleteTx(ctx, tx, user)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to soft delete archived user")
	}

	if event.OnResponse != nil {
		event.OnResponse(&ArchiveAccountResponse{Success: true})
	}

	return nil
}
