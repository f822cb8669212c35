package dbmigrate

import (
	"fmt"

	"github.com/fdg312/mealcart/internal/config"
)

// Selection is the database URL chosen for DDL and where it came from.
type Selection struct {
	URL     string
	Source  string // env var name
	Warning string
}

// SelectDatabaseURL picks the URL used for migrations.
// Priority: DATABASE_URL_DIRECT > DATABASE_URL > DATABASE_URL_POOLED (with warning).
// With requireDirect only DATABASE_URL_DIRECT is accepted.
func SelectDatabaseURL(cfg *config.Config, requireDirect bool) (Selection, error) {
	if cfg.DatabaseURLDirect != "" {
		return Selection{URL: cfg.DatabaseURLDirect, Source: "DATABASE_URL_DIRECT"}, nil
	}
	if requireDirect {
		return Selection{}, fmt.Errorf("DATABASE_URL_DIRECT is required for DDL/migrations")
	}
	if cfg.DatabaseURLRaw != "" {
		return Selection{URL: cfg.DatabaseURLRaw, Source: "DATABASE_URL"}, nil
	}
	if cfg.DatabaseURLPooled != "" {
		return Selection{
			URL:     cfg.DatabaseURLPooled,
			Source:  "DATABASE_URL_POOLED",
			Warning: "using pooled connection for DDL is not recommended; set DATABASE_URL_DIRECT",
		}, nil
	}

	return Selection{}, fmt.Errorf("no database URL configured (set DATABASE_URL_DIRECT or DATABASE_URL)")
}
