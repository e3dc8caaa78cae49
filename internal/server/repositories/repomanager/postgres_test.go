package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/astroprofile/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNew_EmptyDSNIsInMemory(t *testing.T) {
	m, err := New(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(*InMemoryRepositoryManager); !ok {
		t.Fatalf("want *InMemoryRepositoryManager, got %T", m)
	}
	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if m.Users() == nil {
		t.Fatal("Users() nil")
	}
	if m.Users() != m.Users() {
		t.Fatal("in-memory manager must reuse one store")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenPostgres_PingsAndWraps(t *testing.T) {
	db, mock := newDB(t)

	orig := sqlOpen
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" || dsn != "postgres://x" {
			return nil, errors.New("unexpected args")
		}
		return db, nil
	}
	defer func() { sqlOpen = orig }()

	mock.ExpectPing()
	mock.ExpectClose()

	m, err := New(context.Background(), "postgres://x")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	pm, ok := m.(*PostgresRepositoryManager)
	if !ok {
		t.Fatalf("want *PostgresRepositoryManager, got %T", m)
	}
	var _ users.Repository = pm.Users()

	if err := pm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpenPostgres_PingError(t *testing.T) {
	db, mock := newDB(t)

	orig := sqlOpen
	sqlOpen = func(string, string) (*sql.DB, error) { return db, nil }
	defer func() { sqlOpen = orig }()

	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()

	if _, err := OpenPostgres(context.Background(), "postgres://x"); err == nil {
		t.Fatal("expected ping error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpenPostgres_OpenError(t *testing.T) {
	orig := sqlOpen
	sqlOpen = func(string, string) (*sql.DB, error) { return nil, errors.New("bad dsn") }
	defer func() { sqlOpen = orig }()

	if _, err := OpenPostgres(context.Background(), "::"); err == nil {
		t.Fatal("expected open error")
	}
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}
