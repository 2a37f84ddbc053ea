package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RESTClient wraps methods for the different types of
// API requests the audit pipeline issues.
type RESTClient struct {
	client *http.Client
	host   string
}

// NewRESTClient builds a client to send requests to registry and auxiliary
// REST endpoints. Paths are resolved against the configured host; absolute
// URLs are used as-is, which lets one client reach the registry, GitHub, and
// advisory APIs while scoping the auth token to the registry host.
func NewRESTClient(opts ClientOptions) (*RESTClient, error) {
	if optionsNeedResolution(opts) {
		var err error
		opts, err = resolveOptions(opts)
		if err != nil {
			return nil, err
		}
	}

	client, err := NewHTTPClient(opts)
	if err != nil {
		return nil, err
	}

	return &RESTClient{
		client: client,
		host:   opts.Host,
	}, nil
}

// RequestOption is a function that can modify an http.Request.
type RequestOption func(*http.Request)

// WithHeader returns a RequestOption that adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// DoWithContext issues a request with type specified by method to the
// specified path with the specified body.
// The response is populated into the response argument.
func (c *RESTClient) DoWithContext(ctx context.Context, method string, path string, body io.Reader, response any, opts ...RequestOption) error {
	url := restURL(c.host, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}

	// Set any additional headers from options
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !success {
		defer resp.Body.Close()
		return HandleHTTPError(resp)
	}

	if resp.StatusCode == http.StatusNoContent || response == nil {
		return nil
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if s, ok := response.(*string); ok {
		*s = string(b)
		return nil
	}

	if bs, ok := response.(*[]byte); ok {
		*bs = b
		return nil
	}

	err = json.Unmarshal(b, &response)
	if err != nil {
		return err
	}

	return nil
}

// Get issues a GET request to the specified path.
// The response is populated into the response argument.
func (c *RESTClient) Get(ctx context.Context, path string, resp interface{}, opts ...RequestOption) error {
	return c.DoWithContext(ctx, http.MethodGet, path, nil, resp, opts...)
}

// Post issues a POST request to the specified path with the specified body.
// The response is populated into the response argument.
func (c *RESTClient) Post(ctx context.Context, path string, body io.Reader, resp interface{}, opts ...RequestOption) error {
	return c.DoWithContext(ctx, http.MethodPost, path, body, resp, opts...)
}

func restURL(hostname string, pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "https://") || strings.HasPrefix(pathOrURL, "http://") {
		return pathOrURL
	}
	return restPrefix(hostname) + pathOrURL
}

func restPrefix(hostname string) string {
	if strings.HasPrefix(hostname, "https://") || strings.HasPrefix(hostname, "http://") {
		return strings.TrimSuffix(hostname, "/")
	}
	return fmt.Sprintf("https://%s", hostname)
}
