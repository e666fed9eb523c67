package keys

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/wapmhq/wapm/internal/errs"
)

func wrapNotInitialized(err error) error {
	if err == nil {
		return nil
	}
	// modernc.org/sqlite surfaces "no such table" for an uninitialized DB;
	// normalize that into ErrNotInitialized so callers can errors.Is it.
	if containsFold(err.Error(), "no such table") {
		return ErrNotInitialized
	}
	return err
}

func containsFold(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if equalFold(s[i:i+len(sub)], sub) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// GetOrCreateUser looks up a user by name, inserting a new row if absent.
// The (user, public_key_id) immutability invariant (spec.md §3) only
// applies to key rows; user rows are freely reused across packages by the
// same publisher.
func (s *Store) GetOrCreateUser(name string) (*User, error) {
	row := s.db.QueryRow(`SELECT id, name FROM wapm_users WHERE name = ?`, name)
	var u User
	err := row.Scan(&u.ID, &u.Name)
	if err == nil {
		return &u, nil
	}
	if err != sql.ErrNoRows {
		return nil, errs.Wrap(errs.FilesystemIO, wrapNotInitialized(fmt.Errorf("failed to query user %s: %w", name, err)))
	}

	res, err := s.db.Exec(`INSERT INTO wapm_users (name) VALUES (?)`, name)
	if err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, fmt.Errorf("failed to insert user %s: %w", name, err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, err)
	}
	return &User{ID: id, Name: name}, nil
}

// TrustedKeysForUser returns every public key ever observed for user,
// including revoked ones (callers filter as needed).
func (s *Store) TrustedKeysForUser(userID int64) ([]PublicKey, error) {
	rows, err := s.db.Query(`
		SELECT id, user_key, public_key_id, public_key_value, key_type_identifier, date_added, revoked_at
		FROM wapm_public_keys WHERE user_key = ? ORDER BY date_added ASC`, userID)
	if err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, wrapNotInitialized(fmt.Errorf("failed to query keys for user %d: %w", userID, err)))
	}
	defer rows.Close()

	var out []PublicKey
	for rows.Next() {
		var k PublicKey
		var dateAdded string
		var revokedAt sql.NullString
		if err := rows.Scan(&k.ID, &k.UserID, &k.KeyID, &k.Value, &k.KeyType, &dateAdded, &revokedAt); err != nil {
			return nil, errs.Wrap(errs.FilesystemIO, err)
		}
		k.DateAdded, _ = time.Parse(time.RFC3339, dateAdded)
		if revokedAt.Valid {
			t, _ := time.Parse(time.RFC3339, revokedAt.String)
			k.RevokedAt = &t
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// InsertPublicKey records a newly-trusted key for a user. The
// (user, public_key_id) pair is immutable once inserted (spec.md §3): a
// UNIQUE constraint on public_key_id enforces this at the database level.
func (s *Store) InsertPublicKey(userID int64, keyID, value, keyType string) (*PublicKey, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO wapm_public_keys (user_key, public_key_id, public_key_value, key_type_identifier, date_added)
		VALUES (?, ?, ?, ?, ?)`,
		userID, keyID, value, keyType, now.Format(time.RFC3339))
	if err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, fmt.Errorf("failed to insert public key %s: %w", keyID, err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, err)
	}
	return &PublicKey{ID: id, UserID: userID, KeyID: keyID, Value: value, KeyType: keyType, DateAdded: now}, nil
}

// RevokeKey soft-revokes a key: it sets revoked_at, it never deletes the
// row (spec.md §3).
func (s *Store) RevokeKey(keyID string) error {
	_, err := s.db.Exec(`UPDATE wapm_public_keys SET revoked_at = ? WHERE public_key_id = ? AND revoked_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339), keyID)
	if err != nil {
		return errs.Wrap(errs.FilesystemIO, fmt.Errorf("failed to revoke key %s: %w", keyID, err))
	}
	return nil
}

// ListAllPublicKeys returns every public key row, joined with its owner's
// name, for `wapm keys list -a`.
func (s *Store) ListAllPublicKeys() ([]PublicKey, map[int64]string, error) {
	rows, err := s.db.Query(`
		SELECT pk.id, pk.user_key, pk.public_key_id, pk.public_key_value, pk.key_type_identifier, pk.date_added, pk.revoked_at, u.name
		FROM wapm_public_keys pk JOIN wapm_users u ON u.id = pk.user_key
		ORDER BY pk.date_added ASC`)
	if err != nil {
		return nil, nil, errs.Wrap(errs.FilesystemIO, wrapNotInitialized(err))
	}
	defer rows.Close()

	var keysOut []PublicKey
	names := map[int64]string{}
	for rows.Next() {
		var k PublicKey
		var dateAdded string
		var revokedAt sql.NullString
		var name string
		if err := rows.Scan(&k.ID, &k.UserID, &k.KeyID, &k.Value, &k.KeyType, &dateAdded, &revokedAt, &name); err != nil {
			return nil, nil, errs.Wrap(errs.FilesystemIO, err)
		}
		k.DateAdded, _ = time.Parse(time.RFC3339, dateAdded)
		if revokedAt.Valid {
			t, _ := time.Parse(time.RFC3339, revokedAt.String)
			k.RevokedAt = &t
		}
		keysOut = append(keysOut, k)
		names[k.UserID] = name
	}
	return keysOut, names, rows.Err()
}

// InsertPersonalKey records a keypair the local user holds for publishing.
func (s *Store) InsertPersonalKey(pk *PersonalKey) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO wapm_personal_keys (public_key_id, public_key_value, private_key_path, encrypted, date_added, active)
		VALUES (?, ?, ?, ?, ?, 1)`,
		pk.PublicKeyID, pk.PublicKeyValue, pk.PrivateKeyPath, pk.Encrypted, now.Format(time.RFC3339))
	if err != nil {
		return errs.Wrap(errs.FilesystemIO, fmt.Errorf("failed to insert personal key %s: %w", pk.PublicKeyID, err))
	}
	pk.DateAdded = now
	pk.Active = true
	return nil
}

// ListPersonalKeys returns every personal key on file.
func (s *Store) ListPersonalKeys() ([]PersonalKey, error) {
	rows, err := s.db.Query(`
		SELECT id, public_key_id, public_key_value, private_key_path, encrypted, date_added, active
		FROM wapm_personal_keys ORDER BY date_added ASC`)
	if err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, wrapNotInitialized(err))
	}
	defer rows.Close()

	var out []PersonalKey
	for rows.Next() {
		var pk PersonalKey
		var dateAdded string
		if err := rows.Scan(&pk.ID, &pk.PublicKeyID, &pk.PublicKeyValue, &pk.PrivateKeyPath, &pk.Encrypted, &dateAdded, &pk.Active); err != nil {
			return nil, errs.Wrap(errs.FilesystemIO, err)
		}
		pk.DateAdded, _ = time.Parse(time.RFC3339, dateAdded)
		out = append(out, pk)
	}
	return out, rows.Err()
}

// DeletePersonalKey removes a personal key by its public key id. Unlike
// public_keys' soft revocation, a personal key the user generated locally
// can be hard-deleted: it is the user's own key material, not a
// third-party trust record.
func (s *Store) DeletePersonalKey(keyID string) error {
	_, err := s.db.Exec(`DELETE FROM wapm_personal_keys WHERE public_key_id = ?`, keyID)
	if err != nil {
		return errs.Wrap(errs.FilesystemIO, fmt.Errorf("failed to delete personal key %s: %w", keyID, err))
	}
	return nil
}

// ActivePersonalKey returns the personal key flagged active, used as the
// default signing key by `wapm publish`.
func (s *Store) ActivePersonalKey() (*PersonalKey, error) {
	row := s.db.QueryRow(`
		SELECT id, public_key_id, public_key_value, private_key_path, encrypted, date_added, active
		FROM wapm_personal_keys WHERE active = 1 ORDER BY date_added DESC LIMIT 1`)
	var pk PersonalKey
	var dateAdded string
	err := row.Scan(&pk.ID, &pk.PublicKeyID, &pk.PublicKeyValue, &pk.PrivateKeyPath, &pk.Encrypted, &dateAdded, &pk.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, wrapNotInitialized(err))
	}
	pk.DateAdded, _ = time.Parse(time.RFC3339, dateAdded)
	return &pk, nil
}
