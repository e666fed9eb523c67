package keys

import (
	"crypto/ed25519"

	"github.com/wapmhq/wapm/internal/errs"
)

// Presented is the signature material attached to a package version as
// received from the registry: a key id/value/type plus the ed25519
// signature over the downloaded archive.
type Presented struct {
	KeyID     string
	KeyValue  string
	KeyType   string
	Signature string
}

// Verify implements the trust-on-first-use policy of spec.md §4.D against
// a single package download. namespace/name identify the publisher for
// confirmer prompts; archive is the downloaded bytes the signature covers.
//
// The cases, in order:
//  1. no signature at all: if the publisher already has a trusted key on
//     file (from some other package of theirs), that's a downgrade attempt
//     or a broken publish — warn and block unless forceYes. If this is
//     truly the first contact with this publisher, allow: there is nothing
//     to compare against.
//  2. a key is on file and matches the presented key: verified silently,
//     provided the key has not been revoked.
//  3. a key is on file but differs from the presented key: prompt before
//     trusting the rotation.
//  4. no key on file yet for this publisher: TOFU prompt via confirmer.
//
// A revoked key is never re-trusted, regardless of forceYes.
func Verify(store *Store, confirmer Confirmer, namespace, name string, archive []byte, presented *Presented, forceYes bool) error {
	user, err := store.GetOrCreateUser(namespace)
	if err != nil {
		return err
	}
	existing, err := store.TrustedKeysForUser(user.ID)
	if err != nil {
		return err
	}

	if presented == nil || presented.Signature == "" {
		if len(existing) == 0 {
			return nil
		}
		if forceYes {
			return nil
		}
		return errs.Newf(errs.SignatureMissing, "package %s/%s has no publisher signature, but %s has a trusted key on file", namespace, name, namespace)
	}

	pubKey, err := DecodePublicKey(presented.KeyValue)
	if err != nil {
		return err
	}
	sig, err := DecodeSignature(presented.Signature)
	if err != nil {
		return err
	}

	match, found := findKey(existing, presented.KeyID)

	switch {
	case found && match.Revoked():
		return errs.Newf(errs.KeyRevoked, "key %s for %s/%s has been revoked and cannot be trusted again", presented.KeyID, namespace, name)

	case found && match.Value == presented.KeyValue:
		return VerifyArchive(pubKey, archive, sig)

	case found:
		// public_key_id is globally unique in the schema, so a matching id
		// with different key material means the registry sent inconsistent
		// data rather than a legitimate rotation. Reject outright.
		return errs.Newf(errs.SignatureMismatch, "key %s for %s/%s does not match the previously trusted key material", presented.KeyID, namespace, name)

	case len(existing) == 0:
		ok, err := confirmer.AskTrustNewKey(namespace, name, presented.KeyID)
		if err != nil {
			return errs.Wrap(errs.Cancelled, err)
		}
		if !ok {
			return errs.Newf(errs.KeyRevoked, "refused to trust new key %s for %s/%s", presented.KeyID, namespace, name)
		}
		if err := VerifyArchive(pubKey, archive, sig); err != nil {
			return err
		}
		_, err = store.InsertPublicKey(user.ID, presented.KeyID, presented.KeyValue, presented.KeyType)
		return err

	default:
		// this publisher has a trusted key on file, but it isn't the one
		// presented here: could be a legitimate key rotation, could be
		// tampering. Prompt rather than deciding either way silently.
		prior := activeKey(existing)
		ok, err := confirmer.AskReplaceKey(namespace, name, prior, presented.KeyID)
		if err != nil {
			return errs.Wrap(errs.Cancelled, err)
		}
		if !ok {
			return errs.Newf(errs.KeyRevoked, "refused to trust rotated key %s for %s/%s", presented.KeyID, namespace, name)
		}
		if err := VerifyArchive(pubKey, archive, sig); err != nil {
			return err
		}
		_, err = store.InsertPublicKey(user.ID, presented.KeyID, presented.KeyValue, presented.KeyType)
		return err
	}
}

// activeKey returns the most recently trusted, non-revoked key id for a
// publisher, or "" if every key on file has been revoked.
func activeKey(keys []PublicKey) string {
	for i := len(keys) - 1; i >= 0; i-- {
		if !keys[i].Revoked() {
			return keys[i].KeyID
		}
	}
	return ""
}

func findKey(keys []PublicKey, keyID string) (PublicKey, bool) {
	for _, k := range keys {
		if k.KeyID == keyID {
			return k, true
		}
	}
	return PublicKey{}, false
}

// mustEd25519 is a tiny guard used by generate.go to fail fast on a
// malformed keypair rather than let ed25519.Sign panic deep in a publish
// flow.
func mustEd25519(pub ed25519.PublicKey, priv ed25519.PrivateKey) error {
	if len(pub) != ed25519.PublicKeySize || len(priv) != ed25519.PrivateKeySize {
		return errs.New(errs.SignatureMismatch, "generated keypair has unexpected size")
	}
	return nil
}
