// Package accountsvc provides an HTTP client for the external game account
// service. The account service owns the actual player data; this client only
// forwards credentials and mutation payloads.
//
// Canonical field names for forwarded requests are the server-side ones:
// authToken, sourceAuth, goldAmount. Callers sending the legacy client-side
// names (token, sourceToken, amount) are rejected by the account service.
package accountsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout is the default timeout for account service calls.
const DefaultTimeout = 30 * time.Second

// Client is an HTTP client for the external account service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates an account service client for the given base URL.
func New(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger.With().Str("component", "accountsvc").Logger(),
	}
}

// LoginResult holds the account identity returned by a successful login.
type LoginResult struct {
	UserID    string          `json:"userId"`
	Email     string          `json:"email"`
	AuthToken string          `json:"authToken"`
	Account   json.RawMessage `json:"account,omitempty"`
}

// Login authenticates against the account service and returns the account
// identity plus its auth token for follow-up mutation calls.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	payload := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/api/login", payload, &result); err != nil {
		return nil, fmt.Errorf("account login: %w", err)
	}
	if result.UserID == "" {
		return nil, fmt.Errorf("account login: empty user id in response")
	}
	return &result, nil
}

// Mutate forwards an opaque mutation payload (currency edits, unlock flags)
// to the account service. The payload passes through untouched beyond the
// auth token injection; its shape is the account service's contract.
func (c *Client) Mutate(ctx context.Context, authToken, op string, payload map[string]any) (json.RawMessage, error) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["authToken"] = authToken

	var result json.RawMessage
	if err := c.post(ctx, "/api/"+op, body, &result); err != nil {
		return nil, fmt.Errorf("account mutate %s: %w", op, err)
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, path string, payload, result any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("account service error")
		return fmt.Errorf("account service returned %d: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		return json.Unmarshal(body, result)
	}
	return nil
}
