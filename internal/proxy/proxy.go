// Package proxy serves the characters endpoint for the client, forwarding
// each request to a fixed upstream archive and adding CORS headers.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// DefaultUpstream is the hosted archive the proxy forwards to.
	DefaultUpstream = "https://basic-api-wiki-hvdo.vercel.app/api/characters"
	// Path is where the characters endpoint is mounted.
	Path = "/api/characters"

	allowedMethods  = "GET, PATCH, OPTIONS"
	allowedHeaders  = "Content-Type, Accept"
	requestIDHeader = "X-Request-ID"
	upstreamTimeout = 15 * time.Second
	maxBodyBytes    = 8 << 20
)

// Handler forwards GET and PATCH to the upstream and mirrors its response.
type Handler struct {
	upstream *url.URL
	http     *http.Client
	logger   *slog.Logger
	metrics  *Metrics
}

// Option customizes a Handler.
type Option func(*Handler)

// WithHTTPClient overrides the client used for upstream calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(h *Handler) {
		if hc != nil {
			h.http = hc
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics records request counts and latencies in m.
func WithMetrics(m *Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// New returns a Handler forwarding to upstream (DefaultUpstream when empty).
func New(upstream string, opts ...Option) (*Handler, error) {
	target, err := parseUpstream(upstream)
	if err != nil {
		return nil, err
	}
	h := &Handler{
		upstream: target,
		http:     &http.Client{Timeout: upstreamTimeout},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Upstream returns the resolved upstream URL.
func (h *Handler) Upstream() string {
	return h.upstream.String()
}

func parseUpstream(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = DefaultUpstream
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse upstream %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream %q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("upstream %q missing host", raw)
	}
	u.Fragment = ""
	return u, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := r.Header.Get(requestIDHeader)
	if reqID == "" {
		reqID = uuid.NewString()
	}

	header := w.Header()
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", allowedMethods)
	header.Set("Access-Control-Allow-Headers", allowedHeaders)
	header.Set(requestIDHeader, reqID)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		elapsed := time.Since(start)
		h.metrics.observe(r.Method, rec.status, elapsed)
		h.logger.Info("proxy request",
			"request_id", reqID,
			"method", r.Method,
			"status", rec.status,
			"duration", elapsed,
		)
	}()

	switch r.Method {
	case http.MethodOptions:
		rec.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet, http.MethodPatch:
		h.forward(rec, r, reqID)
	default:
		header.Set("Allow", allowedMethods)
		writeError(rec, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request, reqID string) {
	var body io.Reader
	if r.Method == http.MethodPatch {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read request body")
			return
		}
		body = bytes.NewReader(data)
	}

	target := *h.upstream
	if r.URL.RawQuery != "" {
		target.RawQuery = r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not build upstream request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, reqID)

	resp, err := h.http.Do(req)
	if err != nil {
		h.metrics.upstreamFailed()
		h.logger.Warn("upstream unreachable", "request_id", reqID, "error", err)
		writeError(w, http.StatusBadGateway, "upstream unreachable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		h.metrics.upstreamFailed()
		h.logger.Warn("upstream body read failed", "request_id", reqID, "error", err)
		writeError(w, http.StatusBadGateway, "upstream response incomplete")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// NewMux mounts h at Path alongside /metrics (served from gatherer) and
// /healthz.
func NewMux(h *Handler, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(Path, h)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	return mux
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return serveListener(ctx, ln, handler, logger)
}

func serveListener(ctx context.Context, ln net.Listener, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("proxy listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("proxy stopped")
	return nil
}
