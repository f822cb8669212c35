package dbmigrate

import (
	"testing"

	"github.com/fdg312/mealcart/internal/config"
)

func TestSelectDatabaseURL(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.Config
		direct      bool
		wantURL     string
		wantSource  string
		wantWarning bool
		wantErr     bool
	}{
		{
			name:       "direct wins",
			cfg:        config.Config{DatabaseURLDirect: "postgres://direct", DatabaseURLRaw: "postgres://url", DatabaseURLPooled: "postgres://pooled"},
			wantURL:    "postgres://direct",
			wantSource: "DATABASE_URL_DIRECT",
		},
		{
			name:       "falls back to DATABASE_URL",
			cfg:        config.Config{DatabaseURLRaw: "postgres://url", DatabaseURLPooled: "postgres://pooled"},
			wantURL:    "postgres://url",
			wantSource: "DATABASE_URL",
		},
		{
			name:        "pooled with warning",
			cfg:         config.Config{DatabaseURLPooled: "postgres://pooled"},
			wantURL:     "postgres://pooled",
			wantSource:  "DATABASE_URL_POOLED",
			wantWarning: true,
		},
		{
			name:    "direct required but missing",
			cfg:     config.Config{DatabaseURLRaw: "postgres://url"},
			direct:  true,
			wantErr: true,
		},
		{
			name:    "nothing configured",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			sel, err := SelectDatabaseURL(&cfg, tt.direct)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sel.URL != tt.wantURL || sel.Source != tt.wantSource {
				t.Fatalf("got url=%q source=%q, want %q/%q", sel.URL, sel.Source, tt.wantURL, tt.wantSource)
			}
			if (sel.Warning != "") != tt.wantWarning {
				t.Fatalf("unexpected warning state: %q", sel.Warning)
			}
		})
	}
}

func TestValidateCommand(t *testing.T) {
	for _, c := range []string{"up", "down", "status"} {
		if err := ValidateCommand(c); err != nil {
			t.Fatalf("expected %q to be accepted: %v", c, err)
		}
	}
	if err := ValidateCommand("redo"); err == nil {
		t.Fatal("expected redo to be rejected")
	}
}
