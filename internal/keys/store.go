// Package keys implements the persistent publisher-key database and the
// trust-on-first-use verification policy of spec.md §4.D.
package keys

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wapmhq/wapm/internal/errs"
)

// ErrNotInitialized is returned by queries run against a database that has
// not had CreateSchema called on it yet.
var ErrNotInitialized = errors.New("key database not initialized")

// Store provides SQLite-backed operations over wapm_users, wapm_public_keys,
// and wapm_personal_keys (spec.md §3, §6). Each write method runs a single
// statement, which SQLite commits on its own; an operation made of several
// writes (Verify's user insert followed by a key insert) is not grouped into
// one transaction. The DB connection pool is capped at one connection since
// SQLite allows only one writer at a time, matching the teacher's store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, fmt.Errorf("failed to open key database: %w", err))
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.FilesystemIO, fmt.Errorf("failed to enable foreign keys: %w", err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.FilesystemIO, fmt.Errorf("failed to enable WAL mode: %w", err))
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateSchema creates all tables and indexes if they do not already exist.
func (s *Store) CreateSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return errs.Wrap(errs.FilesystemIO, fmt.Errorf("failed to create key database schema: %w", err))
	}
	return nil
}

// User is a registry publisher, keyed by their username.
type User struct {
	ID   int64
	Name string
}

// PublicKey is a trusted (or revoked) key belonging to a User.
type PublicKey struct {
	ID        int64
	UserID    int64
	KeyID     string
	Value     string
	KeyType   string
	DateAdded time.Time
	RevokedAt *time.Time
}

// Revoked reports whether the key has been soft-revoked.
func (k PublicKey) Revoked() bool {
	return k.RevokedAt != nil
}

// PersonalKey is a keypair the local user holds for publishing.
type PersonalKey struct {
	ID             int64
	PublicKeyID    string
	PublicKeyValue string
	PrivateKeyPath string
	Encrypted      bool
	DateAdded      time.Time
	Active         bool
}
