package install

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"

	"github.com/wapmhq/wapm/internal/errs"
	"github.com/wapmhq/wapm/internal/manifest"
	"github.com/wapmhq/wapm/internal/registry"
)

// Publisher packages, optionally signs, and uploads a package version to
// the registry.
type Publisher struct {
	Client *registry.Client
}

// NewPublisher builds a Publisher bound to client.
func NewPublisher(client *registry.Client) *Publisher {
	return &Publisher{Client: client}
}

// Signer produces a base64 signature over an archive, satisfied by a
// loaded ed25519.PrivateKey via keys.SignArchive.
type Signer func(archive []byte) string

// Publish validates the manifest at dir, builds the source archive (and a
// bundled fs payload if the manifest declares one), optionally signs it,
// and uploads it via the single-shot or chunked path depending on size
// (spec.md §4.F steps 1-6). A dry run stops before any network mutation.
func (p *Publisher) Publish(ctx context.Context, dir string, sign Signer, dryRun bool) (*registry.PublishResult, error) {
	manifestPath := filepath.Join(dir, "wapm.toml")
	m, err := manifest.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	for _, mod := range m.Modules {
		srcPath := filepath.Join(dir, mod.Source)
		if _, statErr := os.Stat(srcPath); statErr != nil {
			return nil, errs.Newf(errs.Manifest, "module %q source %q does not exist", mod.Name, mod.Source)
		}
	}

	archive, err := BuildArchive(dir)
	if err != nil {
		return nil, err
	}

	if len(m.FS) > 0 {
		bundle, err := BuildBundle(m.FS, dir)
		if err != nil {
			return nil, err
		}
		archive = append(archive, bundle...)
	}

	if dryRun {
		return &registry.PublishResult{Success: true}, nil
	}

	manifestBytes, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, err)
	}

	input := registry.PublishInput{
		Name:         m.Package.Name,
		Version:      m.Package.Version,
		Description:  m.Package.Description,
		ManifestTOML: string(manifestBytes),
	}

	if sign != nil {
		input.SignatureID = sign(archive)
	}

	useChunked := len(archive) > registry.ChunkThreshold || os.Getenv("FORCE_WAPM_USE_CHUNKED_UPLOAD") != ""
	if useChunked {
		receipts, err := p.Client.UploadChunked(ctx, m.Package.Name, m.Package.Version, archive)
		if err != nil {
			return nil, err
		}
		input.PartReceipts = receipts
	} else {
		input.ArchiveBase64 = base64.StdEncoding.EncodeToString(archive)
	}

	result, err := p.Client.PublishPackage(ctx, input)
	if err != nil {
		return nil, err
	}
	if result == nil || !result.Success {
		return nil, errs.New(errs.Registry, "registry rejected the publish")
	}
	return result, nil
}
