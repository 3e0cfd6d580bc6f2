package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Info("hello", "key", "value")

	out := buf.String()
	if out == "" {
		t.Fatal("expected log output")
	}
	if !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Errorf("expected message in output: %q", out)
	}

	t.Run("child logger carries its fields", func(t *testing.T) {
		buf.Reset()
		child := WithLogger(logger, "component", "matcher")
		child.Info("paced")
		if !bytes.Contains(buf.Bytes(), []byte("matcher")) {
			t.Errorf("expected component field in output: %q", buf.String())
		}
	})

	t.Run("level filtering", func(t *testing.T) {
		buf.Reset()
		SetLogLevel(logger, log.ErrorLevel)
		logger.Info("hidden")
		if buf.Len() != 0 {
			t.Errorf("expected info suppressed at error level, got %q", buf.String())
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid format, got %q", a)
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"n": 1}

	compact, err := MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	pretty, err := MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !json.Valid(compact) || !json.Valid(pretty) {
		t.Fatal("expected valid JSON")
	}
	if len(pretty) <= len(compact) {
		t.Error("expected indented output to be longer")
	}
}

func TestConfig(t *testing.T) {
	t.Run("load parses provider credentials and knobs", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials.spotify]
client_id = "sp-id"
client_secret = "sp-secret"
redirect_uri = "http://localhost:8080/auth/spotify/callback"

[database]
path = "test.db"

[migration]
search_interval_ms = 500
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if config.Credentials.Spotify.ClientID != "sp-id" {
			t.Errorf("expected sp-id, got %q", config.Credentials.Spotify.ClientID)
		}
		if config.Database.Path != "test.db" {
			t.Errorf("expected test.db, got %q", config.Database.Path)
		}
		if config.Migration.SearchIntervalMS != 500 {
			t.Errorf("expected explicit interval kept, got %d", config.Migration.SearchIntervalMS)
		}

		// Unset knobs fall back to defaults.
		if config.Migration.RefreshBufferSeconds != 60 {
			t.Errorf("expected default refresh buffer, got %d", config.Migration.RefreshBufferSeconds)
		}
		if config.Migration.PageSize != 50 {
			t.Errorf("expected default page size, got %d", config.Migration.PageSize)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Fatalf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte("[credentials\nbroken"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("defaults come from the embedded template", func(t *testing.T) {
		config := DefaultConfig()
		if config.Migration.SearchIntervalMS != 1100 {
			t.Errorf("expected 1100ms interval, got %d", config.Migration.SearchIntervalMS)
		}
		if config.Migration.RefreshBuffer().Seconds() != 60 {
			t.Errorf("expected 60s buffer, got %v", config.Migration.RefreshBuffer())
		}
	})

	t.Run("create refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := CreateConfigFile(path); err == nil {
			t.Fatal("expected an error for existing file")
		}
	})
}

func TestMigrations(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Run("tables exist after migrating", func(t *testing.T) {
		for _, table := range []string{"credentials", "migrations", "migrations_sequence"} {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
			if err != nil {
				t.Errorf("expected table %s to exist: %v", table, err)
			}
		}
	})

	t.Run("running again is a no-op", func(t *testing.T) {
		if err := RunMigrations(db); err != nil {
			t.Fatalf("expected idempotent migrations, got %v", err)
		}
	})

	t.Run("rollback drops the schema", func(t *testing.T) {
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback: %v", err)
		}

		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='credentials'").Scan(&name)
		if err == nil {
			t.Error("expected credentials table dropped")
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected an error with nothing left to rollback")
		}
	})
}
