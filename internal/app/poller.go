package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"
)

const (
	defaultProbeInterval = 5 * time.Second
	probeTimeout         = 3 * time.Second
	maxBackoff           = 30 * time.Second
)

// connectivitySink receives online/offline transitions.
type connectivitySink interface {
	SetOnline(online bool)
}

// probeFunc reports whether the API host is reachable.
type probeFunc func(ctx context.Context) error

// StartWatcher launches a background goroutine that probes connectivity and
// reports transitions to sink. Failed probes back off exponentially. It
// returns immediately.
func StartWatcher(ctx context.Context, sink connectivitySink, probe probeFunc, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		failures := 0
		for {
			wait := interval
			if err := probe(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				if failures == 0 {
					logger.Warn("api unreachable", "error", err)
				}
				failures++
				sink.SetOnline(false)
				wait = calculateBackoff(failures, interval)
			} else {
				if failures > 0 {
					logger.Info("api reachable again", "failures", failures)
				}
				failures = 0
				sink.SetOnline(true)
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// calculateBackoff doubles base for every failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// dialProbe returns a probe that opens a TCP connection to the host of rawURL.
func dialProbe(rawURL string) (probeFunc, error) {
	addr, err := hostPort(rawURL)
	if err != nil {
		return nil, err
	}
	dialer := &net.Dialer{Timeout: probeTimeout}
	return func(ctx context.Context) error {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}, nil
}

func hostPort(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("api url %q has no host", rawURL)
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
