// Package install implements the resolve/download/verify/extract/commit
// pipeline that installs and uninstalls packages into a scope's on-disk
// tree, and the mirror-image packaging pipeline used by publish.
package install

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/wapmhq/wapm/internal/errs"
)

// gzipMagic is the two-byte gzip header; downloaded archives may or may not
// be gzip-compressed depending on the registry's Content-Encoding, so
// extraction sniffs rather than trusting a header that could be stripped by
// an intermediate proxy.
var gzipMagic = []byte{0x1f, 0x8b}

// ExtractArchive unpacks a (optionally gzip-compressed) tar archive into
// destDir, which must already exist and be empty (it is expected to be a
// staging directory). Every entry's cleaned path is checked against
// destDir; any entry that would land outside it — via a `../` component or
// a symlink whose target escapes — is rejected with errs.FilesystemIO and
// nothing further is written.
func ExtractArchive(archive []byte, destDir string) error {
	reader := io.Reader(bytes.NewReader(archive))

	if len(archive) >= 2 && bytes.Equal(archive[:2], gzipMagic) {
		gz, err := gzip.NewReader(bytes.NewReader(archive))
		if err != nil {
			return errs.Wrap(errs.FilesystemIO, err)
		}
		defer gz.Close()
		reader = gz
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errs.Wrap(errs.FilesystemIO, err)
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errs.Wrap(errs.FilesystemIO, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errs.Wrap(errs.FilesystemIO, err)
			}
			if err := writeRegularFile(target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}

		case tar.TypeSymlink:
			linkTarget, err := safeJoin(filepath.Dir(target), hdr.Linkname)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errs.Wrap(errs.FilesystemIO, err)
			}
			if err := os.Symlink(linkTarget, target); err != nil {
				return errs.Wrap(errs.FilesystemIO, err)
			}

		default:
			// skip device files, fifos, etc. — not meaningful for a wasm package.
		}
	}
}

// safeJoin resolves name against root and rejects the result if it escapes
// root once cleaned, guarding against `../../etc/passwd`-style entries and
// symlink targets that point outside the staging tree.
func safeJoin(root, name string) (string, error) {
	joined := filepath.Join(root, name)
	cleanRoot := filepath.Clean(root)
	if joined != cleanRoot && !strings.HasPrefix(joined, cleanRoot+string(filepath.Separator)) {
		return "", errs.Newf(errs.FilesystemIO, "archive entry %q escapes the extraction root", name)
	}
	return joined, nil
}

func writeRegularFile(path string, r io.Reader, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errs.Wrap(errs.FilesystemIO, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return errs.Wrap(errs.FilesystemIO, err)
	}
	return nil
}

// BuildArchive packages srcDir's contents into a gzip-compressed tar
// archive, the inverse of ExtractArchive, used by publish (§4.F step 2).
func BuildArchive(srcDir string) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	err := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := io.Copy(tw, f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, err)
	}

	if err := tw.Close(); err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, err)
	}
	if err := gz.Close(); err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, err)
	}
	return buf.Bytes(), nil
}
