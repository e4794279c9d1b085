package authpage

import (
	"context"
	"embed"
	"io/fs"

	"github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

//go:embed data/sql/migrations/*.sql
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package, rooted at
// the migrations directory
func GetMigrationsFS() fs.FS {
	sub, err := fs.Sub(migrationsFS, "data/sql/migrations")
	if err != nil {
		panic(errors.Wrap(err, errors.CategoryInternal, "authpage: migrations fs"))
	}
	return sub
}

// NewMigrations returns the migration set for the users table, ready to be
// combined with the host application's own migrations
func NewMigrations() *persistence.Migrations {
	return persistence.NewMigrations().RegisterSQLMigrations(GetMigrationsFS())
}

// Migrate applies every pending migration to db
func Migrate(ctx context.Context, db *bun.DB) error {
	return NewMigrations().Migrate(ctx, db)
}
