// Package catalog talks to the backend product API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const defaultTimeout = 10 * time.Second

// Client wraps interactions with the catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validator  *validator.Validate
	logger     *slog.Logger
	observe    func(outcome string)
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout bounds every request issued by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a hook fed with the outcome of every request.
func WithObserver(fn func(outcome string)) Option {
	return func(c *Client) {
		c.observe = fn
	}
}

// NewClient constructs a new client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		validator:  validator.New(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch issues a single GET for the product and decodes the response.
func (c *Client) Fetch(ctx context.Context, id int64) (Product, error) {
	p, err := c.fetch(ctx, id)
	if c.observe != nil {
		c.observe(outcome(err))
	}
	if err != nil {
		c.logger.Warn("fetch product", slog.Int64("product_id", id), slog.Any("error", err))
	}
	return p, err
}

// GetProduct fetches the product in the background and hands the result to
// handler. The handler runs exactly once unless the returned task is released
// before the response arrives.
func (c *Client) GetProduct(id int64, handler Handler) *Task {
	task := NewTask(handler)
	go func() {
		p, err := c.Fetch(context.Background(), id)
		task.Complete(p, err)
	}()
	return task
}

func (c *Client) fetch(ctx context.Context, id int64) (Product, error) {
	url := fmt.Sprintf("%s/products/%s", c.baseURL, strconv.FormatInt(id, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Product{}, &NetworkError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Product{}, &NetworkError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Product{}, &NetworkError{StatusCode: resp.StatusCode}
	}

	var payload productPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Product{}, &DecodeError{Err: err}
	}
	if err := c.validator.Struct(payload); err != nil {
		return Product{}, &DecodeError{Err: err}
	}
	return payload.product(), nil
}
