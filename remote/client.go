// Package remote issues request/response calls against the workspace HTTP
// API. It owns no state: callers feed responses into the store themselves.
package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 30 * time.Second

// Client wraps http.Client with bearer auth and JSON helpers for the
// workspace API.
type Client struct {
	origin string
	bearer string
	http   *http.Client
	logger *log.Logger
}

// New creates a Client for the given API origin. The same origin is used to
// derive the push-channel endpoint elsewhere; this client only speaks
// request/response HTTP.
func New(origin, bearer string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Client{
		origin: strings.TrimRight(origin, "/"),
		bearer: bearer,
		http:   &http.Client{Timeout: defaultTimeout},
		logger: logger,
	}
}

// Origin returns the configured API origin.
func (c *Client) Origin() string { return c.origin }

// getJSON issues a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, out)
}

// postJSON issues a POST with a JSON body and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	buf, err := encodeJSON(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, "application/json", buf, out)
}

// patchJSON issues a PATCH with a JSON body and decodes the response into out.
func (c *Client) patchJSON(ctx context.Context, path string, body, out any) error {
	buf, err := encodeJSON(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, path, "application/json", buf, out)
}

// delete issues a DELETE and discards any response body.
func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, "", nil, nil)
}

// patchMultipart issues a PATCH with an already-encoded multipart body.
func (c *Client) patchMultipart(ctx context.Context, path string, form *Form, out any) error {
	body, contentType, err := form.Encode()
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, path, contentType, body, out)
}

// postMultipart issues a POST with an already-encoded multipart body.
func (c *Client) postMultipart(ctx context.Context, path string, form *Form, out any) error {
	body, contentType, err := form.Encode()
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, contentType, body, out)
}

func encodeJSON(body any) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	data, err := sonic.Marshal(body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) (err error) {
	metrics, ctx := newRequestMetrics(ctx, c.logger, method, path)
	status := 0
	defer func() {
		metrics.Log(status, err)
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.origin+path, body)
	if err != nil {
		metrics.SetErrorStage("build_request")
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveRoundTrip(time.Since(start))
	if err != nil {
		metrics.SetErrorStage("transport")
		return err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.SetErrorStage("status")
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{Status: resp.StatusCode, Path: path, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}

	decodeStart := time.Now()
	dec := sonic.ConfigStd.NewDecoder(resp.Body)
	if err = dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = nil
			return nil
		}
		metrics.SetErrorStage("decode_response")
		return err
	}
	metrics.ObserveDecode(time.Since(decodeStart))
	return nil
}
