package dbmigrate

import (
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fdg312/mealcart/migrations"
)

// Run applies a goose command (up, down, status) against dbURL.
// A nil fsys uses the migrations embedded in the binary.
func Run(command string, dbURL string, fsys fs.FS) error {
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}
	if fsys == nil {
		fsys = migrations.FS
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Run(command, db, "."); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}

// ValidateCommand reports whether command is one cmd/migrate accepts.
func ValidateCommand(command string) error {
	switch command {
	case "up", "status", "down":
		return nil
	default:
		return fmt.Errorf("unsupported command %q (allowed: up, status, down)", command)
	}
}
