package client

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
	"sync"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/client/models"
	"github.com/dmitrijs2005/zkvault/internal/common"
)

type apiError struct {
	Error       string `json:"error"`
	RequireTotp bool   `json:"requireTotp"`
}

type okResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// HTTPClient implements Client against the server's JSON API. The session
// token is sent as a bearer token.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid server url %q", common.ErrValidation, baseURL)
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do sends in as JSON and decodes a 2xx response into out.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.currentToken(); tok != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError maps an error response to the sentinel the caller can match.
func decodeError(resp *http.Response) error {
	var e apiError
	_ = json.NewDecoder(resp.Body).Decode(&e)
	if e.Error == "" {
		e.Error = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		switch {
		case e.RequireTotp:
			return common.ErrTotpRequired
		case e.Error == "Invalid credentials":
			return common.ErrInvalidCredentials
		case e.Error == "Invalid TOTP code":
			return common.ErrInvalidTotp
		case e.Error == "Invalid code":
			return common.ErrInvalidCode
		}
		return ErrUnauthorized
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, e.Error)
	case http.StatusBadRequest:
		switch e.Error {
		case "Email already registered":
			return common.ErrAlreadyExists
		case "2FA not setup":
			return common.ErrTotpNotEnrolled
		}
		return fmt.Errorf("%w: %s", common.ErrValidation, e.Error)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s", common.ErrorInternal, e.Error)
	}
	return errors.New(e.Error)
}

// Ping checks the server's plain health endpoint.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}
	return nil
}

func (c *HTTPClient) Signup(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password, totp string) (*AuthResponse, error) {
	in := map[string]string{"email": email, "password": password}
	if totp != "" {
		in["totp"] = totp
	}

	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Logout tells the server and forgets the token even if the call fails.
func (c *HTTPClient) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *HTTPClient) TwoFactorStatus(ctx context.Context) (bool, error) {
	var out struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/2fa/status", nil, &out); err != nil {
		return false, err
	}
	return out.Enabled, nil
}

func (c *HTTPClient) TwoFactorSetup(ctx context.Context) (*Enrollment, error) {
	var out Enrollment
	if err := c.do(ctx, http.MethodPost, "/api/2fa/setup", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) TwoFactorVerify(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodPost, "/api/2fa/verify", map[string]string{"token": code}, nil)
}

func (c *HTTPClient) TwoFactorDisable(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/2fa/disable", nil, nil)
}

func (c *HTTPClient) ListItems(ctx context.Context) ([]*models.Item, error) {
	var out struct {
		Items []*models.Item `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/vault", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *HTTPClient) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var out struct {
		Item *models.Item `json:"item"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/vault/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

func (c *HTTPClient) CreateItem(ctx context.Context, in ItemInput) (string, error) {
	var out okResponse
	if err := c.do(ctx, http.MethodPost, "/api/vault", in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *HTTPClient) UpdateItem(ctx context.Context, id string, in ItemInput) error {
	return c.do(ctx, http.MethodPut, "/api/vault/"+url.PathEscape(id), in, nil)
}

func (c *HTTPClient) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/vault/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) Export(ctx context.Context) (*models.Export, error) {
	var out models.Export
	if err := c.do(ctx, http.MethodPost, "/api/export", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Backup(ctx context.Context) (*Backup, error) {
	var out Backup
	if err := c.do(ctx, http.MethodPost, "/api/export/backup", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
