// Package gateway mirrors local catalog mutations to the backend store API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pranzo-storefront/internal/domain"

	"go.uber.org/zap"
)

// DefaultTimeout bounds one backend request.
const DefaultTimeout = 10 * time.Second

// StatusError is a non-2xx backend response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Unwrap lets 404 responses match domain.ErrNotFound.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrValidation
	case http.StatusConflict:
		return domain.ErrAlreadyExists
	}
	return nil
}

// Client issues exactly one request per call. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

type ClientOption func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) FetchStore(ctx context.Context) (domain.StoreSnapshot, error) {
	var snap domain.StoreSnapshot
	err := c.do(ctx, http.MethodGet, "/api/store", nil, &snap)
	return snap, err
}

func (c *Client) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, http.MethodPost, "/api/products", p, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(p.ID), p, &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, id string) (domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, &out)
	return out, err
}

// SaveStore replaces the whole product collection.
func (c *Client) SaveStore(ctx context.Context, products []domain.Product) error {
	return c.do(ctx, http.MethodPost, "/api/save-store", map[string][]domain.Product{"products": products}, nil)
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := c.do(ctx, http.MethodGet, "/api/orders", nil, &out)
	return out, err
}

func (c *Client) CreateOrder(ctx context.Context, o domain.Order) (domain.Order, error) {
	var out domain.Order
	err := c.do(ctx, http.MethodPost, "/api/orders", o, &out)
	return out, err
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/orders/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ClearOrders(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/orders", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()
	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Code: res.StatusCode, Body: errorMessage(res.Body)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} or falls back to the raw body.
func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4<<10))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}
