// Package backend is the console's only connection to the POS API. Every
// data operation is a direct request/response round trip; the backend
// enforces its own authorization on each call regardless of what the console
// chose to render.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tillway/tillway/internal/shared"
)

// AuthService issues session tokens.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// ProductService reads the product catalog.
type ProductService interface {
	ListProducts(ctx context.Context, token string) ([]Product, error)
	ListCategories(ctx context.Context, token string) ([]Category, error)
	DeleteProduct(ctx context.Context, token, id string) error
}

// CustomerService reads and mutates customer records.
type CustomerService interface {
	ListCustomers(ctx context.Context, token string) ([]Customer, error)
	DeleteCustomer(ctx context.Context, token, id string) error
}

// TransactionService reads sales transactions.
type TransactionService interface {
	ListTransactions(ctx context.Context, token string) ([]Transaction, error)
	VoidTransaction(ctx context.Context, token, id string) error
}

// UserService administers user accounts.
type UserService interface {
	ListUsers(ctx context.Context, token string) ([]UserAccount, error)
}

// DashboardService aggregates dashboard figures.
type DashboardService interface {
	Summary(ctx context.Context, token string) (DashboardSummary, error)
}

// Client is the HTTP implementation of every backend service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a backend-issued session token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	payload, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return "", shared.ErrInvalidCredentials
	}
	if resp.StatusCode >= 400 {
		return "", statusError(resp.StatusCode)
	}
	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", shared.ErrInvalidCredentials
	}
	return out.Token, nil
}

// ListProducts fetches the product catalog.
func (c *Client) ListProducts(ctx context.Context, token string) ([]Product, error) {
	var out []Product
	return out, c.get(ctx, token, "/products", &out)
}

// ListCategories fetches product categories.
func (c *Client) ListCategories(ctx context.Context, token string) ([]Category, error) {
	var out []Category
	return out, c.get(ctx, token, "/categories", &out)
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	return c.do(ctx, token, http.MethodDelete, "/products/"+id, nil)
}

// ListCustomers fetches customer records.
func (c *Client) ListCustomers(ctx context.Context, token string) ([]Customer, error) {
	var out []Customer
	return out, c.get(ctx, token, "/customers", &out)
}

// DeleteCustomer removes a customer.
func (c *Client) DeleteCustomer(ctx context.Context, token, id string) error {
	return c.do(ctx, token, http.MethodDelete, "/customers/"+id, nil)
}

// ListTransactions fetches sales transactions.
func (c *Client) ListTransactions(ctx context.Context, token string) ([]Transaction, error) {
	var out []Transaction
	return out, c.get(ctx, token, "/transactions", &out)
}

// VoidTransaction voids a transaction.
func (c *Client) VoidTransaction(ctx context.Context, token, id string) error {
	return c.do(ctx, token, http.MethodPost, "/transactions/"+id+"/void", nil)
}

// ListUsers fetches user accounts.
func (c *Client) ListUsers(ctx context.Context, token string) ([]UserAccount, error) {
	var out []UserAccount
	return out, c.get(ctx, token, "/users", &out)
}

// Summary fetches the dashboard aggregate.
func (c *Client) Summary(ctx context.Context, token string) (DashboardSummary, error) {
	var out DashboardSummary
	return out, c.get(ctx, token, "/dashboard/summary", &out)
}

func (c *Client) get(ctx context.Context, token, path string, out any) error {
	return c.do(ctx, token, http.MethodGet, path, out)
}

func (c *Client) do(ctx context.Context, token, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return shared.ErrUnauthorized
	case http.StatusForbidden:
		return shared.ErrForbidden
	case http.StatusNotFound:
		return shared.ErrNotFound
	default:
		return fmt.Errorf("%w: status %d", shared.ErrBackendUnavailable, code)
	}
}
