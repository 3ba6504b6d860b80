package qrcode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxImageBytes caps how much of a renderer response is read. A QR PNG at
// the sizes we serve is tens of kilobytes.
const maxImageBytes = 1 << 20

const defaultHTTPRenderTimeout = 3 * time.Second

// HTTPRenderer calls an external QR image API (api.qrserver.com
// compatible: size and data query parameters, PNG body). It is fallible
// by nature and belongs behind the local renderer in the chain.
type HTTPRenderer struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

type HTTPRendererOption func(*HTTPRenderer)

func WithHTTPClient(client *http.Client) HTTPRendererOption {
	return func(r *HTTPRenderer) {
		r.client = client
	}
}

func WithRenderTimeout(timeout time.Duration) HTTPRendererOption {
	return func(r *HTTPRenderer) {
		r.timeout = timeout
	}
}

func NewHTTPRenderer(endpoint string, opts ...HTTPRendererOption) *HTTPRenderer {
	r := &HTTPRenderer{
		endpoint: endpoint,
		client:   http.DefaultClient,
		timeout:  defaultHTTPRenderTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *HTTPRenderer) Name() string {
	return "http"
}

func (r *HTTPRenderer) Render(ctx context.Context, payload string, size int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("size", fmt.Sprintf("%dx%d", size, size))
	query.Set("data", payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call render api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render api returned status %d", resp.StatusCode)
	}

	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read render response: %w", err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("render api returned empty body")
	}
	return img, nil
}
