package authpage

import (
	"context"
	"database/sql"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user store behind the authenticate action
type Users interface {
	repository.Repository[*User]

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// NewUsersRepository returns a bun backed Users. Lookups by identifier try
// the id, email and username columns the identifier shape allows.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string { return "username" },
		GetIdentifierValue: func(u *User) string {
			if u == nil {
				return ""
			}
			return u.Username
		},
		ResolveIdentifier: resolveUserIdentifier,
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return a.db.RunInTx(ctx, opts, fn)
}

func (a *users) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id, criteria...)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*User, error) {
	record, err := a.Repository.GetByIDTx(ctx, tx, id, criteria...)
	if err != nil {
		return nil, notFound(err, id)
	}
	return record, nil
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	record, err := a.Repository.GetByIdentifierTx(ctx, tx, identifier, criteria...)
	if err != nil {
		return nil, notFound(err, identifier)
	}
	return record, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

// CreateTx rejects records whose username or email is already taken
func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	now := time.Now()
	record.CreatedAt = &now
	record.UpdatedAt = &now

	exists, err := tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", record.Username).
		WhereOr("?TableAlias.email = ?", record.Email).
		Exists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check existing user")
	}
	if exists {
		return nil, userExists(nil, record)
	}

	created, err := a.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		if repository.IsDuplicatedKey(err) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, userExists(err, record)
		}
		return nil, err
	}

	return created, nil
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, user)
}

func (a *users) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	now := time.Now()
	record := &User{
		ID:             user.ID,
		LoginAttempts:  user.LoginAttempts + 1,
		LoginAttemptAt: &now,
	}

	_, err := a.Repository.UpdateTx(ctx, tx, record,
		repository.UpdateByID(user.ID.String()),
		repository.UpdateColumns("login_attempts", "login_attempt_at"),
	)
	return err
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	now := time.Now()
	record := &User{
		ID:         user.ID,
		LoggedInAt: &now,
	}

	_, err := a.Repository.UpdateTx(ctx, tx, record,
		repository.UpdateByID(user.ID.String()),
		repository.UpdateColumns("loggedin_at", "login_attempt_at", "login_attempts"),
	)
	return err
}

func resolveUserIdentifier(identifier string) []repository.IdentifierOption {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil
	}

	if _, err := uuid.Parse(identifier); err == nil {
		return []repository.IdentifierOption{{Column: "id", Value: identifier}}
	}

	if addr, err := mail.ParseAddress(identifier); err == nil && addr.Address == identifier {
		return []repository.IdentifierOption{
			{Column: "email", Value: identifier},
			{Column: "username", Value: identifier},
		}
	}

	return []repository.IdentifierOption{{Column: "username", Value: identifier}}
}

func notFound(err error, identifier string) error {
	if repository.IsRecordNotFound(err) {
		return withSource(ErrIdentityNotFound, err).
			WithMetadata(map[string]any{"identifier": identifier})
	}
	return err
}

func userExists(err error, record *User) error {
	return withSource(ErrUserExists, err).
		WithMetadata(map[string]any{
			"username": record.Username,
			"email":    record.Email,
		})
}
