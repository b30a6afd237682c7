// Package client is the storefront's API surface: a thin JSON client over the
// OverlaySnow REST contract, a session gate carrying the authentication
// signal, and the cart synchronizer that keeps a local cart snapshot
// consistent with the server-authoritative cart.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"overlaysnow/core"
)

// genericErrorDetail is used when an error response carries no detail body.
const genericErrorDetail = "An error occurred"

// TokenSource yields the current bearer token, or "" for an anonymous call.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource, useful for scripts and tests.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// APIError is the single failure kind surfaced by the client: network
// failures, non-2xx statuses and malformed bodies all collapse into it, with
// a human-readable message taken from the server's detail body when present.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

// Client talks to the OverlaySnow API. All requests share one header builder
// and one response handler.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
}

// New creates a client rooted at baseURL (e.g. "http://localhost:8000/api").
// tokens may be nil for a client that only reaches public endpoints.
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
	}
}

// WithHTTPClient overrides the underlying http.Client.
func (c *Client) WithHTTPClient(httpc *http.Client) *Client {
	c.httpc = httpc
	return c
}

// do performs one round trip. A non-nil out receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Detail: genericErrorDetail}
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &APIError{Detail: genericErrorDetail}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &APIError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: genericErrorDetail}
		var errBody struct {
			Detail string `json:"detail"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil && errBody.Detail != "" {
			apiErr.Detail = errBody.Detail
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Detail: genericErrorDetail}
		}
	}
	return nil
}

// TokenResponse is returned by Login and Register.
type TokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	User        *core.User `json:"user"`
}

// Auth endpoints

func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	var out TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*TokenResponse, error) {
	var out TokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{"name": name, "email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*core.User, error) {
	var out core.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Catalog endpoints

func (c *Client) Products(ctx context.Context, filter core.ProductFilter) (*core.ProductPage, error) {
	q := url.Values{}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Sort != "" {
		q.Set("sort", filter.Sort)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	path := "/products"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out core.ProductPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Product(ctx context.Context, id string) (*core.Product, error) {
	var out core.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProduct(ctx context.Context, product *core.Product) (*core.Product, error) {
	var out core.Product
	if err := c.do(ctx, http.MethodPost, "/products", product, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, product *core.Product) (*core.Product, error) {
	var out core.Product
	if err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(product.ID), product, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Categories(ctx context.Context) ([]*core.Category, error) {
	var out []*core.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Category(ctx context.Context, id string) (*core.Category, error) {
	var out core.Category
	if err := c.do(ctx, http.MethodGet, "/categories/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Order endpoints

// CreateOrderRequest is the checkout hand-off payload.
type CreateOrderRequest struct {
	ShippingAddress map[string]string `json:"shipping_address"`
	PaymentMethod   string            `json:"payment_method"`
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*core.Order, error) {
	var out core.Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Orders(ctx context.Context) ([]*core.Order, error) {
	var out []*core.Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Order(ctx context.Context, id string) (*core.Order, error) {
	var out core.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cart endpoints. These five calls are the remote cart store contract the
// synchronizer depends on: one full-cart read and four mutations whose
// response bodies are ignored.

func (c *Client) GetCart(ctx context.Context) (*core.Cart, error) {
	var out core.Cart
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddCartItem(ctx context.Context, productID string, quantity int) error {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	return c.do(ctx, http.MethodPost, "/cart/items", body, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID string, quantity int) error {
	body := map[string]int{"quantity": quantity}
	return c.do(ctx, http.MethodPut, "/cart/items/"+url.PathEscape(itemID), body, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(itemID), nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart/clear", nil, nil)
}

// Analytics endpoints

func (c *Client) Sales(ctx context.Context, period string) ([]core.SalesPoint, error) {
	if period == "" {
		period = "month"
	}
	var out []core.SalesPoint
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/analytics/sales?period=%s", url.QueryEscape(period)), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BestSellers(ctx context.Context, limit int) ([]core.BestSeller, error) {
	if limit < 1 {
		limit = 5
	}
	var out []core.BestSeller
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/analytics/best-sellers?limit=%d", limit), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
