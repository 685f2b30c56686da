// Package mail is a thin client for the transactional mail API used for
// appointment reminders and account notices.
package mail

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/medipro/backend/domain"
)

// Config carries the mail API endpoint and key.
type Config struct {
	BaseURL string
	APIKey  string
	// From is the sender address stamped on every message.
	From    string
	Timeout time.Duration
}

type Client struct {
	cfg    Config
	http   *fasthttp.Client
	logger *zap.Logger
}

// Message is a single outbound email.
type Message struct {
	To      string          `json:"to"`
	From    string          `json:"from"`
	Subject string          `json:"subject"`
	Kind    string          `json:"template"`
	Data    json.RawMessage `json:"data,omitempty"`
}

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

// Send posts the message to the mail API. Errors are classified as
// UNAVAILABLE so the outbox processor retries them.
func (c *Client) Send(msg Message) error {
	if msg.To == "" {
		return domain.ErrInvalidPayload
	}
	if msg.From == "" {
		msg.From = c.cfg.From
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.cfg.BaseURL + "/v1/send")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	if err := c.http.DoTimeout(req, resp, c.cfg.Timeout); err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "mail service unreachable", err)
	}
	status := resp.StatusCode()
	if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity {
		// The message itself is malformed; retrying will not help.
		return domain.WrapError(domain.ErrCodeInvalid,
			fmt.Sprintf("mail service rejected message (%d)", status), nil)
	}
	if status >= http.StatusMultipleChoices {
		return domain.WrapError(domain.ErrCodeUnavailable,
			fmt.Sprintf("mail service returned %d", status), nil)
	}
	return nil
}
