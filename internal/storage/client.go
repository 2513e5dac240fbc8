// Package storage talks to an object-storage bucket over its REST API
// (Supabase-storage style: GET/POST /object/{bucket}/{path} with a bearer
// key). The core never depends on it directly; a failed download or upload
// surfaces as a recoverable error and local state is left untouched.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	APIKey  string
	Bucket  string

	HTTP *http.Client
}

// RequestError is a failed storage call after retry.
type RequestError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s: http %d: %s", e.Op, e.Status, e.Body)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ErrNotFound is returned by Download when the object does not exist yet,
// which is the normal state before the first backup.
var ErrNotFound = errors.New("storage: object not found")

func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	url, err := c.objectURL(path)
	if err != nil {
		return nil, err
	}
	var body []byte
	err = c.do(ctx, "download", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.APIKey))
		return req, nil
	}, func(resp *http.Response) error {
		b, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	url, err := c.objectURL(path)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.do(ctx, "upload", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.APIKey))
		req.Header.Set("Content-Type", contentType)
		// Replace the previous ledger object instead of erroring on conflict.
		req.Header.Set("x-upsert", "true")
		return req, nil
	}, nil)
}

// do runs one request and retries at most once on a transport failure or a
// 5xx, then surfaces the error to the caller.
func (c *Client) do(ctx context.Context, op string, build func() (*http.Request, error), onOK func(*http.Response) error) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := build()
		if err != nil {
			return &RequestError{Op: op, Err: err}
		}
		resp, err := c.httpClient().Do(req)
		if err != nil {
			lastErr = &RequestError{Op: op, Err: err}
			continue
		}
		func() {
			defer func() { _ = resp.Body.Close() }()
			switch {
			case resp.StatusCode == http.StatusNotFound:
				lastErr = ErrNotFound
			case resp.StatusCode >= 500:
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
				lastErr = &RequestError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
				lastErr = &RequestError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
			default:
				lastErr = nil
				if onOK != nil {
					lastErr = onOK(resp)
				}
			}
		}()
		if lastErr == nil {
			return nil
		}
		// 404 and other client errors are not transient; do not retry.
		var reqErr *RequestError
		if errors.Is(lastErr, ErrNotFound) {
			return lastErr
		}
		if errors.As(lastErr, &reqErr) && reqErr.Status >= 400 && reqErr.Status < 500 {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) objectURL(path string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return "", errors.New("storage: base url is empty")
	}
	bucket := strings.TrimSpace(c.Bucket)
	if bucket == "" {
		return "", errors.New("storage: bucket is empty")
	}
	return base + "/object/" + bucket + "/" + strings.TrimLeft(path, "/"), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}
