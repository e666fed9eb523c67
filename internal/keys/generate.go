package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"

	"github.com/wapmhq/wapm/internal/errs"
)

const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	argonKeyLen  = 32
	saltSize     = 16
)

// GeneratedKey is a freshly minted ed25519 keypair, base64-encoded ready
// for the wapm_personal_keys/wapm_public_keys tables and registry publish.
type GeneratedKey struct {
	KeyID      string // fingerprint used as the human-facing key id
	PublicB64  string
	PrivateRaw ed25519.PrivateKey
}

// Generate creates a new ed25519 keypair and derives a short key id from
// the public key: the hex encoding of its first 8 bytes (not a digest).
func Generate() (*GeneratedKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errs.Wrap(errs.Unknown, fmt.Errorf("failed to generate keypair: %w", err))
	}
	if err := mustEd25519(pub, priv); err != nil {
		return nil, err
	}
	return &GeneratedKey{
		KeyID:      fingerprint(pub),
		PublicB64:  base64.StdEncoding.EncodeToString(pub),
		PrivateRaw: priv,
	}, nil
}

func fingerprint(pub ed25519.PublicKey) string {
	// short, stable, and distinct enough for a personal keyring; full
	// collision-resistance isn't the goal since key ids also carry
	// (user, key) uniqueness enforced by the database.
	const hexdigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 0; i < 8 && i < len(pub); i++ {
		buf[i*2] = hexdigits[pub[i]>>4]
		buf[i*2+1] = hexdigits[pub[i]&0x0f]
	}
	return string(buf)
}

// WritePrivateKey persists priv to path, either plaintext or passphrase
// encrypted with Argon2id-derived AES-256-GCM, mirroring SPEC_FULL.md's
// §4.D2 personal-key storage design.
func WritePrivateKey(path string, priv ed25519.PrivateKey, passphrase string) (encrypted bool, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, errs.Wrap(errs.FilesystemIO, err)
	}

	var payload []byte
	if passphrase == "" {
		payload = []byte(base64.StdEncoding.EncodeToString(priv))
	} else {
		blob, err := encryptPrivateKey(priv, passphrase)
		if err != nil {
			return false, err
		}
		payload = blob
		encrypted = true
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return false, errs.Wrap(errs.FilesystemIO, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, errs.Wrap(errs.FilesystemIO, err)
	}
	return encrypted, nil
}

// ReadPrivateKey loads a private key written by WritePrivateKey, decrypting
// it with passphrase if encrypted is true.
func ReadPrivateKey(path string, encrypted bool, passphrase string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, err)
	}
	if !encrypted {
		raw, err := base64.StdEncoding.DecodeString(string(data))
		if err != nil {
			return nil, errs.Wrap(errs.FilesystemIO, fmt.Errorf("malformed private key at %s: %w", path, err))
		}
		return ed25519.PrivateKey(raw), nil
	}
	return decryptPrivateKey(data, passphrase)
}

// encryptPrivateKey wraps priv in salt || nonce || ciphertext, where the
// AES-256-GCM key is derived from passphrase via Argon2id.
func encryptPrivateKey(priv ed25519.PrivateKey, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errs.Wrap(errs.Unknown, err)
	}
	key := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.Unknown, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.Wrap(errs.Unknown, err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, errs.Wrap(errs.Unknown, err)
	}

	ciphertext := gcm.Seal(nil, nonce, priv, nil)

	out := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

func decryptPrivateKey(blob []byte, passphrase string) (ed25519.PrivateKey, error) {
	if len(blob) < saltSize {
		return nil, errs.New(errs.FilesystemIO, "encrypted private key is truncated")
	}
	salt, rest := blob[:saltSize], blob[saltSize:]
	key := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.Unknown, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.Wrap(errs.Unknown, err)
	}
	if len(rest) < gcm.NonceSize() {
		return nil, errs.New(errs.FilesystemIO, "encrypted private key is truncated")
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errs.New(errs.Auth, "incorrect passphrase for private key")
	}
	return ed25519.PrivateKey(plain), nil
}
