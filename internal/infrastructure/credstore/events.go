package credstore

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/medipro/backend/domain"
	sessionUC "github.com/medipro/backend/usecase/session"
)

// wireEvent is the provider's auth notification frame.
type wireEvent struct {
	Event     string `json:"event"`
	Principal *struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		AccessToken string `json:"access_token"`
	} `json:"principal,omitempty"`
}

// Events opens the provider's websocket notification stream and surfaces
// it as a channel of session events in receipt order. The channel closes
// when ctx is cancelled or the stream ends; reconnect policy is left to
// the caller's supervisor.
func (c *Client) Events(ctx context.Context) (<-chan sessionUC.Event, error) {
	header := http.Header{}
	header.Set("apikey", c.cfg.APIKey)

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.Timeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.StreamURL, header)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "auth stream dial failed", err)
	}

	out := make(chan sessionUC.Event)

	// Reader goroutine; the conn is closed from the watcher so a blocked
	// ReadMessage unblocks when ctx is cancelled.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer close(out)
		defer conn.Close()
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					c.logger.Warn("auth stream closed", zap.Error(err))
				}
				return
			}

			var we wireEvent
			if err := json.Unmarshal(payload, &we); err != nil {
				c.logger.Warn("dropping malformed auth event", zap.Error(err))
				continue
			}

			ev, ok := mapEvent(we)
			if !ok {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func mapEvent(we wireEvent) (sessionUC.Event, bool) {
	var kind sessionUC.EventKind
	switch we.Event {
	case "SIGNED_IN":
		kind = sessionUC.EventSignedIn
	case "SIGNED_OUT":
		kind = sessionUC.EventSignedOut
	case "TOKEN_REFRESHED":
		kind = sessionUC.EventTokenRefreshed
	default:
		return sessionUC.Event{}, false
	}

	ev := sessionUC.Event{Kind: kind}
	if we.Principal != nil {
		ev.Principal = &domain.Principal{
			ID:          we.Principal.ID,
			Email:       we.Principal.Email,
			AccessToken: we.Principal.AccessToken,
		}
	}
	return ev, true
}

var _ sessionUC.CredentialStore = (*Client)(nil)
