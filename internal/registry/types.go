package registry

// PackageVersion is the response shape of get_package_version /
// get_package_versions (spec.md §4.C). ManifestTOML is the raw wapm.toml
// text for that version, parsed by internal/manifest.
type PackageVersion struct {
	Namespace    string        `json:"namespace"`
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	ManifestTOML string        `json:"manifest"`
	Distribution *Distribution `json:"distribution"`
	Signature    *Signature    `json:"signature,omitempty"`
	// PublisherName is the uploading user's registry username, consumed by
	// the signature/key store (spec.md §4.D step 1); the install engine
	// uses Namespace instead when it is empty.
	PublisherName string `json:"publisherName"`
}

// Distribution describes where and how large a package's archive is.
type Distribution struct {
	DownloadURL string `json:"downloadUrl"`
	Size        int64  `json:"size"`
}

// Signature is the detached signature attached to a package version, if
// the publisher signed it.
type Signature struct {
	PublicKey PublicKeyRef `json:"publicKey"`
	Data      string       `json:"data"`
}

// PublicKeyRef identifies the key a signature claims to be made with.
type PublicKeyRef struct {
	KeyID string `json:"keyId"`
	Key   string `json:"key"`
}

// SearchResult is one page of `search`.
type SearchResult struct {
	TotalCount int             `json:"totalCount"`
	Packages   []SearchPackage `json:"packages"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

// SearchPackage is one hit within a SearchResult.
type SearchPackage struct {
	Namespace      string `json:"namespace"`
	Name           string `json:"name"`
	LatestVersion  string `json:"latestVersion"`
	Description    string `json:"description"`
}

// PublishInput is the payload for publish_package.
type PublishInput struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Description  string `json:"description,omitempty"`
	ManifestTOML string `json:"manifest"`
	// For a single-shot upload, ArchiveBase64 carries the tarball inline.
	ArchiveBase64 string `json:"archiveBase64,omitempty"`
	// For a chunked upload, PartReceipts carries the confirmed upload parts.
	PartReceipts []PartReceipt `json:"partReceipts,omitempty"`
	SignatureID  string        `json:"signatureId,omitempty"`
}

// PublishResult is the response to publish_package.
type PublishResult struct {
	Success        bool   `json:"success"`
	PackageVersion string `json:"packageVersionId"`
}

// SignedUploadURL is one pre-signed PUT URL for a chunk of a chunked
// upload.
type SignedUploadURL struct {
	PartNumber int    `json:"partNumber"`
	URL        string `json:"url"`
}

// PartReceipt confirms a chunk was uploaded, echoing back what the server
// needs to assemble the final object (spec.md §4.C chunked upload).
type PartReceipt struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"etag"`
}

// AuthResult is the response to tokenAuth/refreshToken.
type AuthResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Interface describes a published ABI interface (supplemental feature,
// recovered from original_source/src/graphql.rs's get_interfaces).
// `wapm validate` does not use it; module.interfaces ranges are not
// checked against the registry.
type Interface struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
