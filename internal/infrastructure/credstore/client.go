// Package credstore is the HTTP client for the hosted authentication
// provider: password verification, session issuance and termination, and
// the administrative user API. It is consumed, not reimplemented; every
// failure is classified onto the domain error taxonomy so callers never
// branch on transport details.
package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/medipro/backend/domain"
)

// Config carries the hosted provider's endpoints and keys.
type Config struct {
	// BaseURL is the auth API root, e.g. https://project.auth.example.com.
	BaseURL string
	// StreamURL is the websocket endpoint for auth change notifications.
	StreamURL string
	// APIKey is sent on every request as the provider's project key.
	APIKey string
	// ServiceKey authorizes the administrative user API.
	ServiceKey string
	Timeout    time.Duration
}

// Client talks to the credential store. It keeps the access token of the
// current session, mirroring the provider's client-side SDK behaviour.
type Client struct {
	cfg    Config
	http   *fasthttp.Client
	logger *zap.Logger

	mu    sync.Mutex
	token string
}

// New builds a credential store client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		http: &fasthttp.Client{
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type errorResponse struct {
	Message string `json:"msg"`
	Error   string `json:"error_description"`
}

// SignIn exchanges email/password for a session via the password grant.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Principal, error) {
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})

	status, body, err := c.do(fasthttp.MethodPost, "/token?grant_type=password", payload, "")
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "credential store unreachable", err)
	}
	switch {
	case status == http.StatusOK:
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return nil, domain.ErrInvalidCredentials
	default:
		return nil, domain.WrapError(domain.ErrCodeUnavailable,
			fmt.Sprintf("credential store returned %d", status), errFromBody(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil || tr.User.ID == "" {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "malformed token response", err)
	}

	c.mu.Lock()
	c.token = tr.AccessToken
	c.mu.Unlock()

	return &domain.Principal{ID: tr.User.ID, Email: tr.User.Email, AccessToken: tr.AccessToken}, nil
}

// CurrentSession returns the principal behind the held access token, or
// (nil, nil) when no session is established.
func (c *Client) CurrentSession(ctx context.Context) (*domain.Principal, error) {
	token := c.currentToken()
	if token == "" {
		return nil, nil
	}

	status, body, err := c.do(fasthttp.MethodGet, "/user", nil, token)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "credential store unreachable", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		// Token no longer valid; the session is simply gone.
		c.clearToken()
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, domain.WrapError(domain.ErrCodeUnavailable,
			fmt.Sprintf("credential store returned %d", status), errFromBody(body))
	}

	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &user); err != nil || user.ID == "" {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "malformed user response", err)
	}
	return &domain.Principal{ID: user.ID, Email: user.Email, AccessToken: token}, nil
}

// SignOut revokes the current session remotely and drops the held token.
// The token is dropped even when the remote call fails.
func (c *Client) SignOut(ctx context.Context) error {
	token := c.currentToken()
	c.clearToken()
	if token == "" {
		return nil
	}

	status, body, err := c.do(fasthttp.MethodPost, "/logout", nil, token)
	if err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "credential store unreachable", err)
	}
	if status >= http.StatusInternalServerError {
		return domain.WrapError(domain.ErrCodeUnavailable,
			fmt.Sprintf("sign-out returned %d", status), errFromBody(body))
	}
	return nil
}

// RequestPasswordReset asks the provider to email a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	payload, _ := json.Marshal(map[string]string{"email": email})
	status, body, err := c.do(fasthttp.MethodPost, "/recover", payload, "")
	if err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "credential store unreachable", err)
	}
	if status != http.StatusOK {
		return domain.WrapError(domain.ErrCodeUnavailable,
			fmt.Sprintf("recover returned %d", status), errFromBody(body))
	}
	return nil
}

// UpdatePassword changes the password of the authenticated session.
func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	token := c.currentToken()
	if token == "" {
		return domain.ErrUnauthorized
	}
	payload, _ := json.Marshal(map[string]string{"password": newPassword})
	status, body, err := c.do(fasthttp.MethodPut, "/user", payload, token)
	if err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "credential store unreachable", err)
	}
	if status != http.StatusOK {
		return domain.WrapError(domain.ErrCodeUnavailable,
			fmt.Sprintf("password update returned %d", status), errFromBody(body))
	}
	return nil
}

// CreateUser provisions an account through the administrative API and
// returns its principal. The caller is responsible for writing the
// matching directory record.
func (c *Client) CreateUser(ctx context.Context, email, password string) (*domain.Principal, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"email":         email,
		"password":      password,
		"email_confirm": true,
	})
	status, body, err := c.do(fasthttp.MethodPost, "/admin/users", payload, c.cfg.ServiceKey)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "credential store unreachable", err)
	}
	if status == http.StatusUnprocessableEntity || status == http.StatusConflict {
		return nil, domain.WrapError(domain.ErrCodeConflict, "account already exists", errFromBody(body))
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, domain.WrapError(domain.ErrCodeUnavailable,
			fmt.Sprintf("admin create returned %d", status), errFromBody(body))
	}

	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &user); err != nil || user.ID == "" {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "malformed admin response", err)
	}
	return &domain.Principal{ID: user.ID, Email: user.Email}, nil
}

// DeleteUser removes an account through the administrative API.
func (c *Client) DeleteUser(ctx context.Context, principalID string) error {
	status, body, err := c.do(fasthttp.MethodDelete, "/admin/users/"+principalID, nil, c.cfg.ServiceKey)
	if err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "credential store unreachable", err)
	}
	if status == http.StatusNotFound {
		return domain.ErrUserNotFound
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return domain.WrapError(domain.ErrCodeUnavailable,
			fmt.Sprintf("admin delete returned %d", status), errFromBody(body))
	}
	return nil
}

func (c *Client) do(method, path string, body []byte, bearer string) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.cfg.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("apikey", c.cfg.APIKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if len(body) > 0 {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	if err := c.http.DoTimeout(req, resp, c.cfg.Timeout); err != nil {
		return 0, nil, err
	}

	out := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), out, nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func errFromBody(body []byte) error {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		if er.Message != "" {
			return fmt.Errorf("%s", er.Message)
		}
		if er.Error != "" {
			return fmt.Errorf("%s", er.Error)
		}
	}
	return nil
}
