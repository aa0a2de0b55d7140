package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/store"
)

// NewTestStore creates a SQLiteStore backed by a file in a per-test temp
// directory with all migrations applied. A file is used rather than
// ":memory:" because every pooled connection to ":memory:" opens its own
// empty database. The store is closed when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, _ := NewTestStoreAt(t)
	return s
}

// NewTestStoreAt is NewTestStore that also returns the database path, for
// tests that need to reach the file with ExecSQL.
func NewTestStoreAt(t *testing.T) (*store.SQLiteStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s, path
}

// ExecSQL runs a raw statement against the database at path over a
// separate connection. Tests use it to write rows the store API rejects.
func ExecSQL(t *testing.T, path, query string, args ...any) {
	t.Helper()

	db, err := sqlx.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// SeedProject inserts a project and returns its id.
func SeedProject(t *testing.T, s store.Store, name string) string {
	t.Helper()

	id, err := s.CreateProject(context.Background(), model.Project{Name: name})
	if err != nil {
		t.Fatalf("seeding project %q: %v", name, err)
	}
	return id
}

// SeedTask inserts task, filling in a project and creation time when
// missing, and returns the stored copy.
func SeedTask(t *testing.T, s store.Store, task model.Task) model.Task {
	t.Helper()

	ctx := context.Background()
	if task.ProjectID == "" {
		task.ProjectID = SeedProject(t, s, "project-"+task.Name)
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().Add(-time.Hour)
	}
	id, err := s.CreateTask(ctx, task)
	if err != nil {
		t.Fatalf("seeding task %q: %v", task.Name, err)
	}
	got, err := s.GetTaskByID(ctx, id)
	if err != nil {
		t.Fatalf("reloading task %q: %v", task.Name, err)
	}
	return *got
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// TimePtr returns a pointer to v.
func TimePtr(v time.Time) *time.Time { return &v }
