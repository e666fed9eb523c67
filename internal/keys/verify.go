package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/wapmhq/wapm/internal/errs"
)

// prehashThreshold is the archive size above which the signed payload is a
// blake2b-256 digest of the archive rather than the archive bytes
// themselves, mirroring minisign's "prehashed" signature algorithm so that
// verifying a large tarball does not require holding two copies of it in
// memory at once.
const prehashThreshold = 1 << 20 // 1 MiB

// DecodePublicKey parses a base64-encoded ed25519 public key as stored in
// wapm_public_keys.public_key_value.
func DecodePublicKey(value string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, errs.Wrap(errs.SignatureMismatch, fmt.Errorf("malformed public key: %w", err))
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, errs.Newf(errs.SignatureMismatch, "public key has wrong length %d, want %d", len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// DecodeSignature parses a base64-encoded ed25519 signature.
func DecodeSignature(value string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, errs.Wrap(errs.SignatureMismatch, fmt.Errorf("malformed signature: %w", err))
	}
	if len(raw) != ed25519.SignatureSize {
		return nil, errs.Newf(errs.SignatureMismatch, "signature has wrong length %d, want %d", len(raw), ed25519.SignatureSize)
	}
	return raw, nil
}

// signedPayload returns the bytes the signature was computed over: the
// archive itself for small archives, or its blake2b-256 digest above
// prehashThreshold.
func signedPayload(archive []byte) []byte {
	if len(archive) <= prehashThreshold {
		return archive
	}
	sum := blake2b.Sum256(archive)
	return sum[:]
}

// VerifyArchive checks that signature is a valid ed25519 signature by
// pubKey over archive (or its digest, for large archives). It returns
// errs.SignatureMismatch on any failure; callers distinguish "signature
// absent" (errs.SignatureMissing) themselves before calling this.
func VerifyArchive(pubKey ed25519.PublicKey, archive, signature []byte) error {
	if !ed25519.Verify(pubKey, signedPayload(archive), signature) {
		return errs.New(errs.SignatureMismatch, "package signature does not match the publisher's trusted key")
	}
	return nil
}

// SignArchive produces a base64 ed25519 signature over archive (or its
// digest, for large archives) using priv, the mirror operation of
// VerifyArchive used by `wapm publish`.
func SignArchive(priv ed25519.PrivateKey, archive []byte) string {
	sig := ed25519.Sign(priv, signedPayload(archive))
	return base64.StdEncoding.EncodeToString(sig)
}
