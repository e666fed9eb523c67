// Package registry implements the typed GraphQL client the core consumes
// (spec.md §4.C). It owns transport, retry, and the small set of typed
// operations; the wire schema beyond that is treated as an external
// collaborator, per spec.md §1.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/wapmhq/wapm/internal/errs"
)

// requestTimeout is the per-request timeout, independent of any global
// command deadline (spec.md §5).
const requestTimeout = 30 * time.Second

// Client is a GraphQL client over HTTPS with bounded-retry semantics for
// idempotent reads (spec.md §4.C failure policy).
type Client struct {
	endpoint string
	token    string
	http     *retryablehttp.Client

	// onAuthFailure is invoked when the server reports an auth error, so
	// the caller (internal/app, via internal/config) can clear the persisted
	// token. It
	// receives no arguments; the client itself only clears its in-memory
	// copy.
	onAuthFailure func()
}

// Options configures a new Client.
type Options struct {
	Endpoint string
	Token    string
	ProxyURL string
	// OnAuthFailure is called once when a request fails with an auth
	// error, letting the caller persist the token clear.
	OnAuthFailure func()
}

// New builds a Client. Proxy resolution order: explicit ProxyURL, then the
// standard HTTPS_PROXY/ALL_PROXY/http_proxy environment variables (via
// http.ProxyFromEnvironment), matching spec.md §6.
func New(opts Options) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil // the CLI has its own logging (internal/logging); silence library retries

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	rc.HTTPClient = &http.Client{
		Timeout:   requestTimeout,
		Transport: transport,
	}

	return &Client{
		endpoint:      opts.Endpoint,
		token:         opts.Token,
		http:          rc,
		onAuthFailure: opts.OnAuthFailure,
	}
}

// SetToken updates the in-memory bearer token (used after login/refresh).
func (c *Client) SetToken(token string) {
	c.token = token
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors,omitempty"`
}

// do executes a GraphQL operation and decodes its "data" field into out.
// idempotent controls whether the underlying transport is allowed to
// retry: reads are idempotent, mutations are not (spec.md §4.C).
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any, idempotent bool) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return errs.Wrap(errs.Network, fmt.Errorf("failed to encode graphql request: %w", err))
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(errs.Network, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	client := c.http
	if !idempotent {
		// Mutations are not retried: a bounded-backoff retry policy is only
		// specified for idempotent reads (spec.md §4.C).
		client = &retryablehttp.Client{
			HTTPClient:      c.http.HTTPClient,
			Logger:          c.http.Logger,
			RetryWaitMin:    c.http.RetryWaitMin,
			RetryWaitMax:    c.http.RetryWaitMax,
			RetryMax:        0,
			RequestLogHook:  c.http.RequestLogHook,
			ResponseLogHook: c.http.ResponseLogHook,
			CheckRetry:      c.http.CheckRetry,
			Backoff:         c.http.Backoff,
			ErrorHandler:    c.http.ErrorHandler,
			PrepareRetry:    c.http.PrepareRetry,
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return errs.Wrap(errs.Network, fmt.Errorf("registry request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.Network, fmt.Errorf("failed to read registry response: %w", err))
	}

	if resp.StatusCode == http.StatusUnauthorized || isInvalidTokenBody(respBody) {
		c.token = ""
		if c.onAuthFailure != nil {
			c.onAuthFailure()
		}
		return errs.New(errs.Auth, "registry rejected credentials; run `wapm login`")
	}

	if resp.StatusCode >= 500 {
		return errs.Newf(errs.Network, "registry returned status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return errs.Newf(errs.Registry, "registry returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var gr graphqlResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return errs.Wrap(errs.Registry, fmt.Errorf("failed to decode registry response: %w", err))
	}

	if len(gr.Errors) > 0 {
		// Surface the first message verbatim, per spec.md §4.C.
		return errs.New(errs.Registry, gr.Errors[0].Message)
	}

	if out != nil && len(gr.Data) > 0 {
		if err := json.Unmarshal(gr.Data, out); err != nil {
			return errs.Wrap(errs.Registry, fmt.Errorf("failed to decode registry data: %w", err))
		}
	}

	return nil
}

func isInvalidTokenBody(body []byte) bool {
	var probe struct {
		Errors []graphqlError `json:"errors"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	for _, e := range probe.Errors {
		if containsFold(e.Message, "invalid token") || containsFold(e.Message, "expired token") {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	sl, subl := []rune(s), []rune(substr)
	if len(subl) == 0 {
		return true
	}
	toLower := func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}
	for i := 0; i+len(subl) <= len(sl); i++ {
		match := true
		for j := range subl {
			if toLower(sl[i+j]) != toLower(subl[j]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// StandardHTTPClient exposes a plain (non-retrying) *http.Client sharing
// this client's transport/proxy configuration, used for the single-shot
// and chunked upload PUTs, which the failure policy explicitly excludes
// from retry (spec.md §4.C).
func (c *Client) StandardHTTPClient() *http.Client {
	return c.http.HTTPClient
}

// ProxyFromEnv resolves HTTPS_PROXY/ALL_PROXY/http_proxy; the CLI uses it
// as the proxy when no proxy.url is configured.
func ProxyFromEnv() string {
	for _, key := range []string{"HTTPS_PROXY", "https_proxy", "ALL_PROXY", "all_proxy", "http_proxy"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
