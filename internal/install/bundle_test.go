package install

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBundleHeader_RoundTrips(t *testing.T) {
	header := BundleHeader(ArchiveTar, CompressionGzip)
	archiveType, compression, err := ParseBundleHeader(header[:])
	if err != nil {
		t.Fatalf("ParseBundleHeader() failed: %v", err)
	}
	if archiveType != ArchiveTar {
		t.Errorf("archiveType = %v, want ArchiveTar", archiveType)
	}
	if compression != CompressionGzip {
		t.Errorf("compression = %v, want CompressionGzip", compression)
	}
}

func TestParseBundleHeader_RejectsTruncated(t *testing.T) {
	if _, _, err := ParseBundleHeader([]byte{0, 1}); err == nil {
		t.Error("ParseBundleHeader() should reject a header shorter than 4 bytes")
	}
}

func TestParseBundleHeader_RejectsNonZeroReserved(t *testing.T) {
	if _, _, err := ParseBundleHeader([]byte{0, 1, 1, 0}); err == nil {
		t.Error("ParseBundleHeader() should reject a non-zero reserved byte")
	}
}

func TestBuildBundle_PrependsHeaderToArchive(t *testing.T) {
	anchor := t.TempDir()
	assetsDir := filepath.Join(anchor, "assets")
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		t.Fatalf("setup MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(assetsDir, "data.txt"), []byte("mounted content"), 0o644); err != nil {
		t.Fatalf("setup WriteFile failed: %v", err)
	}

	mounts := map[string]string{"/data": "assets"}
	bundle, err := BuildBundle(mounts, anchor)
	if err != nil {
		t.Fatalf("BuildBundle() failed: %v", err)
	}
	if len(bundle) < 4 {
		t.Fatalf("bundle too short to contain a header: %d bytes", len(bundle))
	}

	archiveType, compression, err := ParseBundleHeader(bundle[:4])
	if err != nil {
		t.Fatalf("ParseBundleHeader() failed on built bundle: %v", err)
	}
	if archiveType != ArchiveTar || compression != CompressionGzip {
		t.Errorf("bundle header = (%v, %v), want (ArchiveTar, CompressionGzip)", archiveType, compression)
	}

	dest := t.TempDir()
	if err := ExtractArchive(bundle[4:], dest); err != nil {
		t.Fatalf("ExtractArchive() on bundle payload failed: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dest, "data", "data.txt"))
	if err != nil {
		t.Fatalf("expected mounted file under virtual path /data: %v", err)
	}
	if string(got) != "mounted content" {
		t.Errorf("data/data.txt content = %q, want %q", got, "mounted content")
	}
}
