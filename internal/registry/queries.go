package registry

import (
	"context"
	"fmt"
)

const getPackageVersionQuery = `
query GetPackageVersion($name: String!, $version: String) {
  packageVersion(name: $name, version: $version) {
    namespace name version manifest publisherName
    distribution { downloadUrl size }
    signature { publicKey { keyId key } data }
  }
}`

// GetPackageVersion fetches a single package version. version may be empty
// to request "latest" (spec.md §4.F step 1).
func (c *Client) GetPackageVersion(ctx context.Context, name, version string) (*PackageVersion, error) {
	var resp struct {
		PackageVersion *PackageVersion `json:"packageVersion"`
	}
	vars := map[string]any{"name": name}
	if version != "" {
		vars["version"] = version
	}
	if err := c.do(ctx, getPackageVersionQuery, vars, &resp, true); err != nil {
		return nil, err
	}
	if resp.PackageVersion == nil {
		return nil, fmt.Errorf("package %s not found", name)
	}
	return resp.PackageVersion, nil
}

const getPackageVersionsQuery = `
query GetPackageVersions($names: [String!]!) {
  packageVersions(names: $names) {
    namespace name version manifest publisherName
    distribution { downloadUrl size }
    signature { publicKey { keyId key } data }
  }
}`

// GetPackageVersions performs the batch resolution used for lockfile
// generation (spec.md §4.C, §4.E step 2): the registry returns a flat
// resolved set for the given root dependency specs.
func (c *Client) GetPackageVersions(ctx context.Context, specs []string) ([]PackageVersion, error) {
	var resp struct {
		PackageVersions []PackageVersion `json:"packageVersions"`
	}
	if err := c.do(ctx, getPackageVersionsQuery, map[string]any{"names": specs}, &resp, true); err != nil {
		return nil, err
	}
	return resp.PackageVersions, nil
}

const searchQuery = `
query Search($query: String!, $cursor: String) {
  search(query: $query, cursor: $cursor) {
    totalCount nextCursor
    packages { namespace name latestVersion description }
  }
}`

// Search runs a paginated registry search.
func (c *Client) Search(ctx context.Context, query, cursor string) (*SearchResult, error) {
	var resp struct {
		Search *SearchResult `json:"search"`
	}
	vars := map[string]any{"query": query}
	if cursor != "" {
		vars["cursor"] = cursor
	}
	if err := c.do(ctx, searchQuery, vars, &resp, true); err != nil {
		return nil, err
	}
	if resp.Search == nil {
		return &SearchResult{}, nil
	}
	return resp.Search, nil
}

const getInterfacesQuery = `
query GetInterfaces { interfaces { name version } }`

// GetInterfaces lists published ABI interfaces (supplemental feature).
func (c *Client) GetInterfaces(ctx context.Context) ([]Interface, error) {
	var resp struct {
		Interfaces []Interface `json:"interfaces"`
	}
	if err := c.do(ctx, getInterfacesQuery, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Interfaces, nil
}

const verifyTokenQuery = `
query VerifyToken($token: String!) { verifyToken(token: $token) { username } }`

// VerifyToken checks whether token is still valid, returning the
// associated username.
func (c *Client) VerifyToken(ctx context.Context, token string) (string, error) {
	var resp struct {
		VerifyToken *struct {
			Username string `json:"username"`
		} `json:"verifyToken"`
	}
	if err := c.do(ctx, verifyTokenQuery, map[string]any{"token": token}, &resp, true); err != nil {
		return "", err
	}
	if resp.VerifyToken == nil {
		return "", fmt.Errorf("token is not valid")
	}
	return resp.VerifyToken.Username, nil
}
