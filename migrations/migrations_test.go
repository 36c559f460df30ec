package migrations

import (
	"context"
	"io/fs"
	"reflect"
	"sort"
	"testing"

	"zombiezen.com/go/sqlite/sqlitex"
)

// TestSchemaAccess verifies that all expected .sql files are embedded correctly.
func TestSchemaAccess(t *testing.T) {
	expectedFiles := []string{
		"postgres/auth.sql",
		"sqlite/auth.sql",
	}

	var foundFiles []string
	schemaFS := Schema()

	err := fs.WalkDir(schemaFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			foundFiles = append(foundFiles, path)
		}
		return nil
	})

	if err != nil {
		t.Fatalf("failed to walk embedded schema files: %v", err)
	}

	sort.Strings(expectedFiles)
	sort.Strings(foundFiles)

	if !reflect.DeepEqual(expectedFiles, foundFiles) {
		t.Errorf("mismatch in embedded schema files.\nGot:  %v\nWant: %v", foundFiles, expectedFiles)
	}
}

// TestApplySqliteSchema creates an in-memory SQLite database and applies the
// SQLite schema twice, to ensure it is syntactically valid and that
// re-running it is harmless. The PostgreSQL dialect can only be validated
// against a live server.
func TestApplySqliteSchema(t *testing.T) {
	pool, err := sqlitex.NewPool("file::memory:", sqlitex.PoolOptions{
		PoolSize: 1,
	})
	if err != nil {
		t.Fatalf("failed to create db pool: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("failed to close db pool: %v", err)
		}
	})

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("failed to get db connection: %v", err)
	}
	defer pool.Put(conn)

	sqlBytes, err := fs.ReadFile(Schema(), "sqlite/auth.sql")
	if err != nil {
		t.Fatalf("failed to read embedded schema file: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := sqlitex.ExecuteScript(conn, string(sqlBytes), nil); err != nil {
			t.Fatalf("failed to execute schema (pass %d): %v", i+1, err)
		}
	}
}
