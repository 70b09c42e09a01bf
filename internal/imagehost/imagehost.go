// Package imagehost uploads remote images to the trusted image CDN.
//
// The upload gateway accepts a multipart form with a `file` field (the raw
// image URL or content) and an `upload_preset` field, and answers with JSON
// carrying `secure_url`. A non-2xx answer or a missing `secure_url` is a
// failure.
package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TrustedHost is the CDN host whose URLs are used as-is.
const TrustedHost = "res.cloudinary.com"

const uploadTimeout = 30 * time.Second

// Uploader pushes images to the upload gateway. The zero value is disabled.
type Uploader struct {
	endpoint string
	preset   string
	http     *http.Client
}

// New returns an Uploader. Empty endpoint or preset disables uploading.
func New(endpoint, preset string, hc *http.Client) *Uploader {
	if hc == nil {
		hc = &http.Client{Timeout: uploadTimeout}
	}
	return &Uploader{
		endpoint: strings.TrimSpace(endpoint),
		preset:   strings.TrimSpace(preset),
		http:     hc,
	}
}

// Enabled reports whether both endpoint and preset are configured.
func (u *Uploader) Enabled() bool {
	return u != nil && u.endpoint != "" && u.preset != ""
}

// IsTrusted reports whether raw already points at the trusted CDN.
func IsTrusted(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err == nil && parsed.Host != "" {
		host := strings.ToLower(parsed.Hostname())
		return host == TrustedHost || strings.HasSuffix(host, "."+TrustedHost)
	}
	return strings.Contains(raw, TrustedHost)
}

// Upload sends source to the gateway and returns the hosted secure URL.
func (u *Uploader) Upload(ctx context.Context, source string) (string, error) {
	if !u.Enabled() {
		return "", fmt.Errorf("image upload is not configured")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("file", source); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := form.WriteField("upload_preset", u.preset); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(raw))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("upload returned status %d: %s", resp.StatusCode, text)
	}

	var payload struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if strings.TrimSpace(payload.SecureURL) == "" {
		return "", fmt.Errorf("upload response did not include secure_url")
	}
	return payload.SecureURL, nil
}
