package authpage

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates a user with a hashed password. The created
// record is stored in the command.Result[*User] carried by ctx, if any.
type RegisterUserHandler struct {
	repo Users
}

var _ command.Commander[RegisterUserMessage] = (*RegisterUserHandler)(nil)

// NewRegisterUserHandler returns a handler bound to repo
func NewRegisterUserHandler(repo Users) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return errors.Wrap(
			ctx.Err(),
			errors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	var user *User
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			return errors.Wrap(err, errors.CategoryValidation, "invalid password provided")
		}

		record := &User{
			PasswordHash: hash,
			Email:        strings.TrimSpace(event.Email),
		}
		record.Username = getUsername(event.Username, record.Email)

		if event.UseHashid {
			if id, err := hashid.NewUUID(record.Email); err == nil {
				record.ID = id
			}
		}

		if user, err = h.repo.CreateTx(ctx, tx, record); err != nil {
			return errors.Wrap(err, errors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return err
		}
		return errors.Wrap(err, errors.CategoryInternal, "user registration transaction failed")
	}

	if result := command.ResultFromContext[*User](ctx); result != nil {
		result.Store(user)
	}

	return nil
}

func getUsername(username, email string) string {
	if username = strings.TrimSpace(username); username != "" {
		return username
	}

	if local, _, ok := strings.Cut(email, "@"); ok {
		return local
	}

	return ""
}
