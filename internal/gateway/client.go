// Package gateway implements the HTTP client for the external payment
// provider. It covers the charge lifecycle (create, status query) and
// the OAuth connect flow (code exchange, token revocation). The raw
// provider payloads are passed back verbatim so the payment layer can
// persist them for audit without depending on the provider's schema.
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
	"time"
)

// ErrUnavailable wraps transport-level failures (connection refused,
// timeout, 5xx). Callers treat it as transient: it must never be
// interpreted as a payment rejection.
var ErrUnavailable = errors.New("gateway unavailable")

// Client talks to the payment provider's REST API. Construct it once at
// startup and inject it where needed; it is safe for concurrent use.
type Client struct {
	baseURL      string
	secretKey    string
	clientID     string
	clientSecret string
	redirectURL  string
	http         *http.Client
}

// New builds a Client. The secret key authenticates charge-level calls;
// the client id/secret pair drives the OAuth connect flow.
func New(baseURL, secretKey, clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		baseURL:      baseURL,
		secretKey:    secretKey,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

// Charge is the provider's acknowledgment of a created charge.
type Charge struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	PixCopyPad string `json:"pix_copy_paste,omitempty"` // PIX payload the customer scans
	PaymentURL string `json:"payment_url,omitempty"`    // hosted checkout for card payments
}

// CreateCharge registers a charge with the provider on behalf of a
// space and returns the provider's transaction record plus the raw
// response body for audit.
func (c *Client) CreateCharge(ctx context.Context, accessToken, referenceID, method string, amountCents uint32) (*Charge, []byte, error) {
	body := map[string]interface{}{
		"reference_id": referenceID,
		"amount":       amountCents,
		"currency":     "BRL",
		"method":       method,
	}
	raw, err := c.do(ctx, http.MethodPost, "/v1/charges", accessToken, body)
	if err != nil {
		return nil, nil, err
	}
	var ch Charge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, raw, fmt.Errorf("decode charge response: %w", err)
	}
	return &ch, raw, nil
}

// QueryPaymentStatus fetches the current provider-side status of a
// transaction. The status string is returned as reported; mapping onto
// the internal vocabulary happens in the payment layer.
func (c *Client) QueryPaymentStatus(ctx context.Context, externalTxID string) (string, []byte, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/charges/"+url.PathEscape(externalTxID), "", nil)
	if err != nil {
		return "", nil, err
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", raw, fmt.Errorf("decode status response: %w", err)
	}
	return resp.Status, raw, nil
}

// TokenPair is the result of an OAuth authorization-code exchange.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

// AuthorizeURL builds the provider's consent page URL for the connect
// flow. The state parameter binds the flow to the initiating space and
// is validated on callback.
func (c *Client) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURL)
	q.Set("state", state)
	return c.baseURL + "/oauth/authorize?" + q.Encode()
}

// ExchangeCode trades an authorization code for a token pair.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	body := map[string]interface{}{
		"grant_type":    "authorization_code",
		"code":          code,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"redirect_uri":  c.redirectURL,
	}
	raw, err := c.do(ctx, http.MethodPost, "/oauth/token", "", body)
	if err != nil {
		return nil, err
	}
	var tp TokenPair
	if err := json.Unmarshal(raw, &tp); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tp.AccessToken == "" {
		return nil, errors.New("gateway returned empty access token")
	}
	return &tp, nil
}

// RevokeToken asks the provider to invalidate an access token. Any
// failure here is reported to the caller but callers treat it as a
// no-op: local credentials are cleared regardless.
func (c *Client) RevokeToken(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, http.MethodPost, "/oauth/revoke", "", map[string]interface{}{
		"token":         accessToken,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	})
	return err
}

// do executes one API call. Charge-level calls authenticate with the
// space's access token when given, falling back to the platform secret
// key. Non-2xx responses surface the provider's body; transport errors
// and 5xx map to ErrUnavailable.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body interface{}) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.SetBasicAuth(c.secretKey, "")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gateway error %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
