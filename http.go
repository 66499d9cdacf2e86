package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// HTTPClient is the transport layer for the Notion API. It applies rate
// limiting, per-request authentication, retry with backoff, and error
// classification around a pooled http.Client.
type HTTPClient struct {
	config      *Config
	httpClient  *http.Client
	auth        AuthProvider
	limiter     *RateLimiter
	retryPolicy RetryPolicy
	classifier  *ErrorClassifier
	metrics     *MetricsCollector
	baseHeaders map[string]string
	mu          sync.RWMutex
}

// NewHTTPClient creates a new HTTP client with the specified configuration.
//
// Example:
//
//	config := DefaultConfig()
//	config.Token = "secret_..."
//	client, err := NewHTTPClient(config)
//	if err != nil {
//	    log.Fatalf("Failed to create client: %v", err)
//	}
//	defer client.Close()
func NewHTTPClient(config *Config) (*HTTPClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var metrics *MetricsCollector
	if config.EnableMetrics {
		metrics = NewMetricsCollector()
	}

	baseHeaders := map[string]string{
		"Notion-Version": config.Version,
		"Content-Type":   "application/json",
		"User-Agent":     config.UserAgent,
	}
	for key, value := range config.CustomHeaders {
		baseHeaders[key] = value
	}

	return &HTTPClient{
		config:      config,
		httpClient:  config.CreateHTTPClient(),
		auth:        config.Auth,
		limiter:     NewRateLimiter(config.RequestsPerSecond),
		retryPolicy: NewDefaultRetryPolicy(config.GetRetryConfig()),
		classifier:  NewErrorClassifier(),
		metrics:     metrics,
		baseHeaders: baseHeaders,
	}, nil
}

// Request represents an HTTP request to be made to the Notion API.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers map[string]string

	// Idempotent marks the request as safe to replay after a failure the
	// server may already have processed. GETs, DELETEs, PATCHes, and
	// query-style POSTs are idempotent; creation POSTs are not.
	Idempotent bool
}

// Response represents the response from an HTTP request.
type Response[T any] struct {
	Data       T
	StatusCode int
	Headers    http.Header
	RawBody    []byte
}

// Get performs a GET request to the specified path with query parameters.
func (c *HTTPClient) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	req := &Request{
		Method:     http.MethodGet,
		Path:       path,
		Query:      query,
		Idempotent: true,
	}
	return c.executeRequest(ctx, req)
}

// Post performs a POST request with a JSON body. POSTs that create objects
// are not replayed on server errors; use PostQuery for read-only POSTs.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	req := &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	}
	return c.executeRequest(ctx, req)
}

// PostQuery performs a POST request that only reads data (database queries,
// search). These are safe to retry on any retryable failure.
func (c *HTTPClient) PostQuery(ctx context.Context, path string, body any) (*http.Response, error) {
	req := &Request{
		Method:     http.MethodPost,
		Path:       path,
		Body:       body,
		Idempotent: true,
	}
	return c.executeRequest(ctx, req)
}

// Patch performs a PATCH request to the specified path with a JSON body.
func (c *HTTPClient) Patch(ctx context.Context, path string, body any) (*http.Response, error) {
	req := &Request{
		Method:     http.MethodPatch,
		Path:       path,
		Body:       body,
		Idempotent: true,
	}
	return c.executeRequest(ctx, req)
}

// PatchAppend performs a PATCH that creates new objects (block children).
// Like creation POSTs, it is not replayed on server errors.
func (c *HTTPClient) PatchAppend(ctx context.Context, path string, body any) (*http.Response, error) {
	req := &Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   body,
	}
	return c.executeRequest(ctx, req)
}

// Delete performs a DELETE request to the specified path.
func (c *HTTPClient) Delete(ctx context.Context, path string) (*http.Response, error) {
	req := &Request{
		Method:     http.MethodDelete,
		Path:       path,
		Idempotent: true,
	}
	return c.executeRequest(ctx, req)
}

// GetJSON performs a GET request and unmarshals the response into result.
//
// Example:
//
//	var page types.Page
//	err := client.GetJSON(ctx, "/pages/123", nil, &page)
func (c *HTTPClient) GetJSON(ctx context.Context, path string, query url.Values, result any) error {
	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.unmarshalResponse(resp, result)
}

// PostJSON performs a creation POST and unmarshals the response into result.
func (c *HTTPClient) PostJSON(ctx context.Context, path string, body any, result any) error {
	resp, err := c.Post(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.unmarshalResponse(resp, result)
}

// PostQueryJSON performs a read-only POST and unmarshals the response.
func (c *HTTPClient) PostQueryJSON(ctx context.Context, path string, body any, result any) error {
	resp, err := c.PostQuery(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.unmarshalResponse(resp, result)
}

// PatchJSON performs a PATCH request and unmarshals the response into result.
func (c *HTTPClient) PatchJSON(ctx context.Context, path string, body any, result any) error {
	resp, err := c.Patch(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.unmarshalResponse(resp, result)
}

// PatchAppendJSON performs an appending PATCH and unmarshals the response.
func (c *HTTPClient) PatchAppendJSON(ctx context.Context, path string, body any, result any) error {
	resp, err := c.PatchAppend(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.unmarshalResponse(resp, result)
}

// DeleteJSON performs a DELETE request and unmarshals the response into result.
func (c *HTTPClient) DeleteJSON(ctx context.Context, path string, result any) error {
	resp, err := c.Delete(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.unmarshalResponse(resp, result)
}

// executeRequest executes an HTTP request with retry logic and error handling.
func (c *HTTPClient) executeRequest(ctx context.Context, req *Request) (*http.Response, error) {
	startTime := time.Now()

	result, err := ExecuteWithRetry(ctx, func(ctx context.Context, attempt int) (*http.Response, error) {
		return c.doRequest(ctx, req, attempt)
	}, c.retryPolicy, req.Idempotent)

	duration := time.Since(startTime)

	if c.metrics != nil {
		operation := fmt.Sprintf("%s %s", req.Method, req.Path)
		c.metrics.RecordRequest(operation, duration, err)
	}

	return result, err
}

// doRequest performs a single HTTP attempt: rate limiter, fresh auth headers,
// send, classify.
func (c *HTTPClient) doRequest(ctx context.Context, req *Request, attempt int) (*http.Response, error) {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if c.metrics != nil {
		if waited := time.Since(waitStart); waited > time.Millisecond {
			c.metrics.RecordRateLimitWait(waited)
		}
	}

	requestURL := c.config.BaseURL + req.Path
	if len(req.Query) > 0 {
		requestURL += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, c.classifier.WrapSerializationError("marshal", fmt.Sprintf("%T", req.Body), "", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.mu.RLock()
	for key, value := range c.baseHeaders {
		httpReq.Header.Set(key, value)
	}
	c.mu.RUnlock()

	// Auth headers are fetched per attempt so OAuth refresh happens inline
	authHeaders, err := c.auth.Headers(ctx)
	if err != nil {
		return nil, err
	}
	for key, value := range authHeaders {
		httpReq.Header.Set(key, value)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	httpReq.Header.Set("X-Retry-Attempt", strconv.Itoa(attempt))

	if attempt > 1 {
		c.config.Logger.Debug().
			Str("method", req.Method).
			Str("path", req.Path).
			Int("attempt", attempt).
			Msg("retrying request")
		if c.metrics != nil {
			c.metrics.RecordRetry()
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classifier.WrapNetworkError(req.Method, requestURL, err)
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		classified := c.classifier.ClassifyHTTPError(resp, body)
		c.config.Logger.Debug().
			Str("method", req.Method).
			Str("path", req.Path).
			Int("status", resp.StatusCode).
			Err(classified).
			Msg("request failed")
		return nil, classified
	}

	return resp, nil
}

// unmarshalResponse unmarshals an HTTP response body into the specified result.
func (c *HTTPClient) unmarshalResponse(resp *http.Response, result any) error {
	if result == nil {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.classifier.WrapNetworkError("read_response", "", err)
	}

	if len(body) == 0 {
		return nil
	}

	err = json.Unmarshal(body, result)
	if err != nil {
		return c.classifier.WrapSerializationError("unmarshal", fmt.Sprintf("%T", result), "", err)
	}

	return nil
}

// SetHeader sets a header that will be included in all requests.
// Safe for concurrent use.
func (c *HTTPClient) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseHeaders[key] = value
}

// RemoveHeader removes a header from all future requests.
// Safe for concurrent use.
func (c *HTTPClient) RemoveHeader(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.baseHeaders, key)
}

// GetMetrics returns the current metrics if metrics collection is enabled.
func (c *HTTPClient) GetMetrics() *Metrics {
	if c.metrics == nil {
		return nil
	}
	return c.metrics.GetMetrics()
}

// ResetMetrics resets all collected metrics.
func (c *HTTPClient) ResetMetrics() {
	if c.metrics != nil {
		c.metrics.Reset()
	}
}

// Close closes the HTTP client and releases idle connections.
func (c *HTTPClient) Close() error {
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}

	return nil
}
