package config_test

import (
	"testing"

	"authkit/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, name := range []string{
		"SERVICE_NAME", "STORAGE_DRIVER", "POSTGRES_DSN", "SQLITE_PATH",
		"USER_TABLE", "USER_ID_COLUMN", "SUBJECT_COLUMN", "DENORM_INSERT_CHUNK",
	} {
		t.Setenv(name, "")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ServiceName != "authkit" {
		t.Fatalf("unexpected service name %q", cfg.ServiceName)
	}
	if cfg.StorageDriver != "postgres" {
		t.Fatalf("unexpected driver %q", cfg.StorageDriver)
	}
	if cfg.UserTable != "users" || cfg.UserIDColumn != "id" || cfg.SubjectColumn != "email" {
		t.Fatalf("unexpected user table config %+v", cfg)
	}
	if cfg.DenormInsertChunk != 1000 {
		t.Fatalf("unexpected chunk size %d", cfg.DenormInsertChunk)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", " SQLite ")
	t.Setenv("SQLITE_PATH", "/tmp/authz.db")
	t.Setenv("SUBJECT_COLUMN", "username")
	t.Setenv("DENORM_INSERT_CHUNK", "250")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.StorageDriver != "sqlite" {
		t.Fatalf("driver not normalized, got %q", cfg.StorageDriver)
	}
	if cfg.SQLitePath != "/tmp/authz.db" {
		t.Fatalf("unexpected sqlite path %q", cfg.SQLitePath)
	}
	if cfg.SubjectColumn != "username" {
		t.Fatalf("unexpected subject column %q", cfg.SubjectColumn)
	}
	if cfg.DenormInsertChunk != 250 {
		t.Fatalf("unexpected chunk size %d", cfg.DenormInsertChunk)
	}
}

func TestLoadRejectsBadChunk(t *testing.T) {
	t.Setenv("DENORM_INSERT_CHUNK", "-5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DenormInsertChunk != 1000 {
		t.Fatalf("invalid chunk must fall back to default, got %d", cfg.DenormInsertChunk)
	}
}
