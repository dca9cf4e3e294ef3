package config

import (
	"os"
	"strconv"
	"strings"
)

// Config carries the storage settings the relational module constructors
// consume. Load fills it from the environment; hosts can also build the
// struct directly.
type Config struct {
	ServiceName   string
	StorageDriver string
	PostgresDSN   string
	SQLitePath    string

	UserTable     string
	UserIDColumn  string
	SubjectColumn string

	DenormInsertChunk int
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "authkit"
	}

	driver := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_DRIVER")))
	if driver == "" {
		driver = "postgres"
	}

	table := os.Getenv("USER_TABLE")
	if table == "" {
		table = "users"
	}
	idColumn := os.Getenv("USER_ID_COLUMN")
	if idColumn == "" {
		idColumn = "id"
	}
	subjectColumn := os.Getenv("SUBJECT_COLUMN")
	if subjectColumn == "" {
		subjectColumn = "email"
	}

	return Config{
		ServiceName:   service,
		StorageDriver: driver,
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		SQLitePath:    os.Getenv("SQLITE_PATH"),

		UserTable:     table,
		UserIDColumn:  idColumn,
		SubjectColumn: subjectColumn,

		DenormInsertChunk: envInt("DENORM_INSERT_CHUNK", 1000),
	}, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
