package registry

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/wapmhq/wapm/internal/errs"
)

// ChunkSize is the fixed part size used by the chunked upload path
// (spec.md §4.C), chosen to keep individual PUTs well under typical
// load-balancer body-size limits.
const ChunkSize = 5 * 1024 * 1024 // 5 MiB

// ChunkThreshold is the archive size above which publish automatically
// switches to the chunked path even without FORCE_WAPM_USE_CHUNKED_UPLOAD
// set (spec.md §4.F step 4).
const ChunkThreshold = 50 * 1024 * 1024 // 50 MiB

// UploadChunked splits data into ChunkSize parts, requests signed URLs,
// PUTs each part with the client's non-retrying standard HTTP client (the
// failure policy excludes writes from retry, spec.md §4.C), and returns
// the receipts to submit with PublishPackage.
func (c *Client) UploadChunked(ctx context.Context, name, version string, data []byte) ([]PartReceipt, error) {
	partCount := (len(data) + ChunkSize - 1) / ChunkSize
	if partCount == 0 {
		partCount = 1
	}

	urls, err := c.RequestUploadURLs(ctx, name, version, partCount)
	if err != nil {
		return nil, err
	}
	if len(urls) != partCount {
		return nil, errs.Newf(errs.Registry, "registry returned %d upload URLs, expected %d", len(urls), partCount)
	}

	httpClient := c.StandardHTTPClient()
	receipts := make([]PartReceipt, 0, partCount)

	for _, u := range urls {
		start := (u.PartNumber - 1) * ChunkSize
		end := start + ChunkSize
		if end > len(data) {
			end = len(data)
		}
		part := data[start:end]

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.URL, bytes.NewReader(part))
		if err != nil {
			return nil, errs.Wrap(errs.Network, err)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, errs.Wrap(errs.Network, fmt.Errorf("failed to upload part %d: %w", u.PartNumber, err))
		}
		etag := resp.Header.Get("ETag")
		resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, errs.Newf(errs.Network, "upload of part %d failed with status %d", u.PartNumber, resp.StatusCode)
		}

		receipts = append(receipts, PartReceipt{PartNumber: u.PartNumber, ETag: etag})
	}

	return receipts, nil
}
