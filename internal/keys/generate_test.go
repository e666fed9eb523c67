package keys

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestGenerate_ProducesValidKeypair(t *testing.T) {
	gk, err := Generate()
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if gk.KeyID == "" {
		t.Error("Generate() should assign a non-empty key id")
	}
	pub, err := DecodePublicKey(gk.PublicB64)
	if err != nil {
		t.Fatalf("DecodePublicKey() failed on generated key: %v", err)
	}
	archive := []byte("test archive")
	sigB64 := SignArchive(gk.PrivateRaw, archive)
	sig, err := DecodeSignature(sigB64)
	if err != nil {
		t.Fatalf("DecodeSignature() failed: %v", err)
	}
	if err := VerifyArchive(pub, archive, sig); err != nil {
		t.Errorf("a freshly generated keypair should sign and verify successfully: %v", err)
	}
}

func TestWriteAndReadPrivateKey_Plaintext(t *testing.T) {
	gk, err := Generate()
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "keys", gk.KeyID)
	encrypted, err := WritePrivateKey(path, gk.PrivateRaw, "")
	if err != nil {
		t.Fatalf("WritePrivateKey() failed: %v", err)
	}
	if encrypted {
		t.Error("WritePrivateKey() with an empty passphrase should not report encrypted")
	}

	got, err := ReadPrivateKey(path, false, "")
	if err != nil {
		t.Fatalf("ReadPrivateKey() failed: %v", err)
	}
	if !bytes.Equal(got, gk.PrivateRaw) {
		t.Error("ReadPrivateKey() did not round-trip the plaintext private key")
	}
}

func TestWriteAndReadPrivateKey_Encrypted(t *testing.T) {
	gk, err := Generate()
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "keys", gk.KeyID)
	encrypted, err := WritePrivateKey(path, gk.PrivateRaw, "correct horse battery staple")
	if err != nil {
		t.Fatalf("WritePrivateKey() failed: %v", err)
	}
	if !encrypted {
		t.Error("WritePrivateKey() with a passphrase should report encrypted")
	}

	got, err := ReadPrivateKey(path, true, "correct horse battery staple")
	if err != nil {
		t.Fatalf("ReadPrivateKey() failed with the correct passphrase: %v", err)
	}
	if !bytes.Equal(got, gk.PrivateRaw) {
		t.Error("ReadPrivateKey() did not round-trip the encrypted private key")
	}

	if _, err := ReadPrivateKey(path, true, "wrong passphrase"); err == nil {
		t.Error("ReadPrivateKey() should fail with an incorrect passphrase")
	}
}
