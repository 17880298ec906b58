package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

//nolint:gochecknoglobals // BuildVersion is injected via -ldflags -X; defaultTimeout is overwritten by WithHTTPClient.
var (
	BuildVersion   = "dev"
	defaultTimeout = 30 * time.Second
)

// RemoteClient is the remote job/file API consumed by the background ports.
type RemoteClient interface {
	ListJobs(ctx context.Context) ([]Job, error)
	ListSystems(ctx context.Context) ([]System, error)
	GetJob(ctx context.Context, id string) (Job, error)
	CancelJob(ctx context.Context, id string) error
	ListPath(ctx context.Context, path string) ([]PathEntry, error)
	// Download returns the file content directly, or a transfer job that must be
	// polled with TransferStatus before FetchTransfer can stream the result.
	Download(ctx context.Context, path string) (DownloadResult, error)
	TransferStatus(ctx context.Context, transferID string) (TransferState, error)
	// FetchTransfer streams the result of a finished transfer. The caller closes the reader.
	FetchTransfer(ctx context.Context, transferID string) (io.ReadCloser, int64, error)
	// JobOutput returns job output written after offset and the offset to resume from.
	JobOutput(ctx context.Context, id string, offset int64) (string, int64, error)
}

// Client is the HTTP implementation of RemoteClient.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	userAgent   string
	tokenSource oauth2.TokenSource
}

// ClientOption mutates Client configuration.
type ClientOption func(*Client)

// WithBaseURL configures the API base URL for production or tests.
func WithBaseURL(base string) ClientOption { //nolint:ireturn
	return func(c *Client) {
		if base == "" {
			return
		}
		if u, err := url.Parse(base); err == nil {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption { //nolint:ireturn
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenSource attaches bearer tokens to every request.
func WithTokenSource(ts oauth2.TokenSource) ClientOption { //nolint:ireturn
	return func(c *Client) {
		c.tokenSource = ts
	}
}

// NewClient constructs a new Client with defaults.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == nil {
		return nil, fmt.Errorf("%w: base URL is required", ErrValidation)
	}
	return c, nil
}

// --- Helpers ---

func defaultUserAgent() string {
	return fmt.Sprintf("jobdeck/%s (%s; %s)", BuildVersion, runtime.GOOS, runtime.GOARCH)
}

// joinURLPath joins two URL paths with exactly one slash boundary.
func joinURLPath(basePath, addPath string) string {
	switch {
	case basePath == "" || basePath == "/":
		return addPath
	case addPath == "":
		return basePath
	case hasTrailingSlash(basePath) && hasLeadingSlash(addPath):
		return basePath + addPath[1:]
	case !hasTrailingSlash(basePath) && !hasLeadingSlash(addPath):
		return basePath + "/" + addPath
	default:
		return basePath + addPath
	}
}

func hasTrailingSlash(p string) bool { return len(p) > 0 && p[len(p)-1] == '/' }
func hasLeadingSlash(p string) bool  { return len(p) > 0 && p[0] == '/' }

func (c *Client) buildURL(path string, q url.Values) string {
	u := *c.baseURL
	u.Path = joinURLPath(u.Path, path)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, fullURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	id, ok := RequestIDFromContext(ctx)
	if !ok {
		id = uuid.NewString()
	}
	req.Header.Set("X-Request-Id", id)
	if c.tokenSource != nil {
		tok, err := c.tokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		tok.SetAuthHeader(req)
	}
	return req, nil
}

// do sends req and decodes a 200 JSON body into out.
func do[T any](c *Client, req *http.Request, out *T) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return handleHTTPError(resp)
	}
	return decodeJSON(resp.Body, out)
}

func decodeJSON[T any](r io.Reader, out *T) error {
	dec := json.NewDecoder(r)
	return dec.Decode(out)
}
