package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/fleet-importer/internal/domain/software"
	"github.com/oshokin/fleet-importer/internal/version"
)

const (
	// DefaultProbeTimeout bounds the version probe and the title search.
	DefaultProbeTimeout = 30 * time.Second
	// DefaultUploadTimeout bounds the package upload.
	DefaultUploadTimeout = 900 * time.Second

	versionPath = "/api/v1/fleet/version"
	titlesPath  = "/api/v1/fleet/software/titles"
	packagePath = "/api/v1/fleet/software/package"

	// maxErrorBodySize caps how much of an error response is kept for messages.
	maxErrorBodySize = 64 << 10
)

var (
	// ErrUnexpectedStatus is returned when a GET answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected http status")
	// ErrUploadFailed is returned when the upload answers neither 200 nor 409.
	ErrUploadFailed = errors.New("fleet upload failed")

	errBaseURLRequired = errors.New("fleet base url must be provided")
	errTokenRequired   = errors.New("fleet api token must be provided")
	errMissingVersion  = errors.New("version missing from response")
)

// Client talks to a single Fleet server.
type Client struct {
	// baseURL is the server root without a trailing slash.
	baseURL string
	// token is sent as a bearer token on every request.
	token string
	// httpClient performs the requests; deadlines come from contexts.
	httpClient *http.Client

	probeTimeout  time.Duration
	uploadTimeout time.Duration

	// progress receives an upload progress bar when set.
	progress io.Writer
}

// Option configures client behaviour.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithProbeTimeout sets the timeout for the version probe and title search.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.probeTimeout = timeout
		}
	}
}

// WithUploadTimeout sets the timeout for the package upload.
func WithUploadTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.uploadTimeout = timeout
		}
	}
}

// WithProgress renders an upload progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(c *Client) {
		c.progress = w
	}
}

// New creates a client for the server at baseURL.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	if token == "" {
		return nil, errTokenRequired
	}

	client := &Client{
		baseURL:       baseURL,
		token:         token,
		httpClient:    new(http.Client),
		probeTimeout:  DefaultProbeTimeout,
		uploadTimeout: DefaultUploadTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// ServerVersion returns the version string the server reports, suffix included.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	var response versionResponse
	if err := c.getJSON(ctx, versionPath, &response); err != nil {
		return "", fmt.Errorf("get server version: %w", err)
	}

	if response.Version == "" {
		return "", errMissingVersion
	}

	return response.Version, nil
}

// SearchTitles lists titles available for install on the team whose names match query.
func (c *Client) SearchTitles(ctx context.Context, teamID int, query string) ([]software.TitleRecord, error) {
	params := url.Values{
		"available_for_install": {"true"},
		"team_id":               {strconv.Itoa(teamID)},
		"query":                 {query},
	}

	var response titlesResponse
	if err := c.getJSON(ctx, titlesPath+"?"+params.Encode(), &response); err != nil {
		return nil, fmt.Errorf("search software titles: %w", err)
	}

	return response.toDomain(), nil
}

// getJSON performs a GET within the probe timeout and decodes a 200 response into out.
func (c *Client) getJSON(ctx context.Context, pathWithQuery string, out any) error {
	callCtx, cancel := callContext(ctx, c.probeTimeout)
	defer cancel()

	req, err := c.newRequest(callCtx, http.MethodGet, pathWithQuery, http.NoBody)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize)) //nolint:errcheck // Best-effort diagnostics.
		return fmt.Errorf("%s, %s: %w", resp.Status, strings.TrimSpace(string(body)), ErrUnexpectedStatus)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// newRequest builds an authenticated request against the base URL.
func (c *Client) newRequest(ctx context.Context, method, pathWithQuery string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathWithQuery, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", version.UserAgent())

	return req, nil
}

// callContext returns a child context bounded by timeout, or only cancellable
// when timeout is not positive.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}
