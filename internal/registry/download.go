package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/wapmhq/wapm/internal/errs"
)

// Download fetches url with the client's retrying transport (a download is
// an idempotent read, spec.md §4.C) and returns the raw response body.
// Callers are responsible for gzip-decoding if the body turns out to be
// compressed; Content-Encoding is not guaranteed to be set by every mirror.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Network, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.Network, fmt.Errorf("failed to download %s: %w", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, errs.Newf(errs.Network, "download of %s failed with status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.Network, fmt.Errorf("failed to read download body for %s: %w", url, err))
	}
	return data, nil
}
