// Package probe implements the reachability check the preflight validator
// runs against scenario targets before a run. It deliberately stays far
// cheaper than the diff engine's per-viewport browser launch: one bounded
// HTTP request, body discarded.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sophialabs/visreg/internal/infrastructure/ports"
)

var _ ports.Prober = (*HTTPProber)(nil)

// StatusError reports a target that answered with a 4xx/5xx status. The
// connection worked, so this classifies as a navigation failure rather than
// a network one.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("target %s answered with status %d", e.URL, e.StatusCode)
}

// HTTPProber probes targets with HEAD, falling back to GET for servers that
// reject HEAD outright.
type HTTPProber struct {
	client  *http.Client
	timeout time.Duration
	logger  ports.Logger
}

// New creates a prober with the given per-probe timeout.
func New(timeout time.Duration, logger ports.Logger) *HTTPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

// Probe checks that rawURL is reachable. A nil return means the target
// answered with a non-error status; otherwise the transport or status error
// is returned for the caller to classify.
func (p *HTTPProber) Probe(ctx context.Context, rawURL string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	status, err := p.request(ctx, http.MethodHead, rawURL)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = p.request(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return &StatusError{URL: rawURL, StatusCode: status}
	}
	return nil
}

func (p *HTTPProber) request(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	return resp.StatusCode, nil
}
