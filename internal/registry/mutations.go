package registry

import (
	"context"
)

const tokenAuthMutation = `
mutation TokenAuth($username: String!, $password: String!) {
  tokenAuth(username: $username, password: $password) { token username }
}`

// TokenAuth exchanges a username/password for a bearer token.
func (c *Client) TokenAuth(ctx context.Context, username, password string) (*AuthResult, error) {
	var resp struct {
		TokenAuth *AuthResult `json:"tokenAuth"`
	}
	vars := map[string]any{"username": username, "password": password}
	if err := c.do(ctx, tokenAuthMutation, vars, &resp, false); err != nil {
		return nil, err
	}
	return resp.TokenAuth, nil
}

const refreshTokenMutation = `
mutation RefreshToken($token: String!) { refreshToken(token: $token) { token username } }`

// RefreshToken exchanges a still-valid token for a new one.
func (c *Client) RefreshToken(ctx context.Context, token string) (*AuthResult, error) {
	var resp struct {
		RefreshToken *AuthResult `json:"refreshToken"`
	}
	if err := c.do(ctx, refreshTokenMutation, map[string]any{"token": token}, &resp, false); err != nil {
		return nil, err
	}
	return resp.RefreshToken, nil
}

const publishPackageMutation = `
mutation PublishPackage($input: PublishPackageInput!) {
  publishPackage(input: $input) { success packageVersionId }
}`

// PublishPackage submits the publish mutation, either single-shot (with
// ArchiveBase64 set) or as the final step of a chunked upload (with
// PartReceipts set).
func (c *Client) PublishPackage(ctx context.Context, input PublishInput) (*PublishResult, error) {
	var resp struct {
		PublishPackage *PublishResult `json:"publishPackage"`
	}
	if err := c.do(ctx, publishPackageMutation, map[string]any{"input": input}, &resp, false); err != nil {
		return nil, err
	}
	return resp.PublishPackage, nil
}

const publishPublicKeyMutation = `
mutation PublishPublicKey($keyId: String!, $key: String!, $verifyingSignatureId: String) {
  publishPublicKey(keyId: $keyId, key: $key, verifyingSignatureId: $verifyingSignatureId) { success }
}`

// PublishPublicKey registers a personal public key with the registry so
// other users can trust it (spec.md §4.D).
func (c *Client) PublishPublicKey(ctx context.Context, keyID, key, verifyingSignatureID string) error {
	var resp struct {
		PublishPublicKey struct {
			Success bool `json:"success"`
		} `json:"publishPublicKey"`
	}
	vars := map[string]any{"keyId": keyID, "key": key}
	if verifyingSignatureID != "" {
		vars["verifyingSignatureId"] = verifyingSignatureID
	}
	return c.do(ctx, publishPublicKeyMutation, vars, &resp, false)
}

const requestUploadURLsMutation = `
mutation RequestUploadUrls($name: String!, $version: String!, $partCount: Int!) {
  requestUploadUrls(name: $name, version: $version, partCount: $partCount) { partNumber url }
}`

// RequestUploadURLs asks the registry for partCount pre-signed PUT URLs,
// the first step of the chunked publish path (spec.md §4.C, §4.F step 4).
func (c *Client) RequestUploadURLs(ctx context.Context, name, version string, partCount int) ([]SignedUploadURL, error) {
	var resp struct {
		RequestUploadUrls []SignedUploadURL `json:"requestUploadUrls"`
	}
	vars := map[string]any{"name": name, "version": version, "partCount": partCount}
	if err := c.do(ctx, requestUploadURLsMutation, vars, &resp, false); err != nil {
		return nil, err
	}
	return resp.RequestUploadUrls, nil
}
