package characters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Gateway is the remote data contract consumed by the sync engine.
// It is implemented by *Client and can be faked in tests.
type Gateway interface {
	ListCharacters(ctx context.Context, filter string) ([]Record, error)
	UpdateCharacter(ctx context.Context, id string, fields Fields) error
}

// Ensure Client implements Gateway at compile time.
var _ Gateway = (*Client)(nil)

// Client talks to the character archive API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	// DefaultAPIBase points at the local proxy.
	DefaultAPIBase   = "http://127.0.0.1:8787/api/characters"
	defaultUserAgent = "dungeon/0.1"
	requestTimeout   = 10 * time.Second
	maxBodyBytes     = 8 << 20
)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client for the given API base URL. The base may omit the
// scheme, in which case http is assumed.
func NewClient(apiBase string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the resolved API base.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// ListCharacters retrieves the ordered list of records. A non-empty filter is
// sent as the search query parameter.
func (c *Client) ListCharacters(ctx context.Context, filter string) ([]Record, error) {
	const op = "list characters"
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	reqURL := *c.baseURL
	if term := strings.TrimSpace(filter); term != "" {
		values := url.Values{}
		values.Set("search", term)
		reqURL.RawQuery = values.Encode()
	}

	body, err := c.do(ctx, op, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &InvalidPayloadError{Op: op, Err: errors.New("response is not an array")}
	}
	var records []Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, &InvalidPayloadError{Op: op, Err: err}
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// UpdateCharacter sends a PATCH with the edited fields of record id.
func (c *Client) UpdateCharacter(ctx context.Context, id string, fields Fields) error {
	const op = "update character"
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s: id required", op)
	}
	payload, err := json.Marshal(updateBody{
		Name:        fields.Name,
		Description: fields.Description,
		Image:       fields.Image,
		ID:          id,
	})
	if err != nil {
		return fmt.Errorf("%s: encode body: %w", op, err)
	}
	_, err = c.do(ctx, op, http.MethodPatch, c.baseURL.String(), payload)
	return err
}

func (c *Client) do(ctx context.Context, op, method, target string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = DefaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base %q: %w", apiBase, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api base %q: missing host", apiBase)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
