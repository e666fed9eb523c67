package install

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/wapmhq/wapm/internal/errs"
)

// ArchiveType identifies the archive container format in a bundle header.
type ArchiveType byte

const (
	ArchiveTar ArchiveType = 0
)

// CompressionType identifies the compression applied to the archive bytes
// that follow a bundle header.
type CompressionType byte

const (
	CompressionNone CompressionType = 0
	CompressionGzip CompressionType = 1
)

// BundleHeader is the 4-byte custom-section header prepended to a package's
// bundled `fs` payload (spec.md §6): 1 byte archive type, 1 byte
// compression type, 2 reserved zero bytes.
func BundleHeader(archiveType ArchiveType, compression CompressionType) [4]byte {
	return [4]byte{byte(archiveType), byte(compression), 0, 0}
}

// ParseBundleHeader reads a BundleHeader back out of its 4-byte encoding.
func ParseBundleHeader(data []byte) (ArchiveType, CompressionType, error) {
	if len(data) < 4 {
		return 0, 0, errs.New(errs.Manifest, "bundle header is truncated")
	}
	if data[2] != 0 || data[3] != 0 {
		return 0, 0, errs.New(errs.Manifest, "bundle header reserved bytes must be zero")
	}
	return ArchiveType(data[0]), CompressionType(data[1]), nil
}

// BuildBundle packages the manifest's `fs` mounts into a single archive
// prefixed with a bundle header, following the original's bundle/builder.rs
// split of "build the header" from "build the archive" into two testable
// steps. mounts maps a virtual mount path to a host-relative directory, as
// declared in the manifest's `[fs]` table.
func BuildBundle(mounts map[string]string, anchorDir string) ([]byte, error) {
	archive, err := buildFsArchive(mounts, anchorDir)
	if err != nil {
		return nil, err
	}
	header := BundleHeader(ArchiveTar, CompressionGzip)
	out := make([]byte, 0, len(header)+len(archive))
	out = append(out, header[:]...)
	out = append(out, archive...)
	return out, nil
}

// buildFsArchive tars each mounted host directory under its virtual mount
// path, so the runtime can unpack the bundle directly onto the module's
// virtual filesystem.
func buildFsArchive(mounts map[string]string, anchorDir string) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for mountPath, hostRel := range mounts {
		hostDir := filepath.Join(anchorDir, hostRel)
		err := filepath.Walk(hostDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(hostDir, path)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(filepath.Join(mountPath, rel))
			if rel == "." {
				name = mountPath
			}

			hdr, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			hdr.Name = name

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
	}

	if err := tw.Close(); err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, err)
	}
	if err := gz.Close(); err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, err)
	}
	return buf.Bytes(), nil
}
