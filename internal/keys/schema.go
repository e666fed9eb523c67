package keys

const schema = `
CREATE TABLE IF NOT EXISTS wapm_users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS wapm_public_keys (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_key INTEGER NOT NULL,
    public_key_id TEXT NOT NULL UNIQUE,
    public_key_value TEXT NOT NULL UNIQUE,
    key_type_identifier TEXT NOT NULL,
    date_added TIMESTAMP NOT NULL,
    revoked_at TIMESTAMP,
    FOREIGN KEY (user_key) REFERENCES wapm_users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS wapm_personal_keys (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    public_key_id TEXT NOT NULL UNIQUE,
    public_key_value TEXT NOT NULL,
    private_key_path TEXT NOT NULL,
    encrypted BOOLEAN NOT NULL DEFAULT 0,
    date_added TIMESTAMP NOT NULL,
    active BOOLEAN NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_public_keys_user ON wapm_public_keys(user_key);
CREATE INDEX IF NOT EXISTS idx_public_keys_revoked ON wapm_public_keys(revoked_at);
`
