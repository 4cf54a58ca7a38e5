package embed

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const userAgent = "inkwell (+https://github.com/Kush-Singh-26/inkwell)"

// maxBody caps provider responses.
const maxBody = 4 << 20

// maxImageBody caps downloaded images.
const maxImageBody = 32 << 20

// NewHTTPClient returns a client whose whole exchange is bounded by timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   4,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// Fetch downloads url and returns the body of a 2xx response.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return doLimit(ctx, client, req, maxImageBody)
}

// do sends req and returns the body of a 2xx response.
func do(ctx context.Context, client *http.Client, req *http.Request) ([]byte, error) {
	return doLimit(ctx, client, req, maxBody)
}

func doLimit(ctx context.Context, client *http.Client, req *http.Request, limit int64) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status: %s", resp.Status)
	}
	return body, nil
}
