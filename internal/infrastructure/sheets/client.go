// Package sheets appends submissions to a spreadsheet through a Google Apps Script webhook.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sngm3741/podcast-question-gateway/internal/submission/domain"
)

// SinkName identifies this sink in fan-out results, logs and metrics.
const SinkName = "sheets"

const (
	displayName   = "Google Sheets"
	tokenTTL      = 5 * time.Minute
	maxBodyLength = 1 << 16
)

// Config defines dependencies required by Client.
type Config struct {
	WebhookURL string
	// Secret, when set, signs a short-lived HS256 token appended as the
	// "token" query parameter. Apps Script cannot read request headers.
	Secret     []byte
	Issuer     string
	HTTPClient *http.Client
	Now        func() time.Time
}

// Client posts submission records to the webhook.
type Client struct {
	webhookURL string
	secret     []byte
	issuer     string
	httpClient *http.Client
	now        func() time.Time
}

// New constructs a sheets Client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		webhookURL: strings.TrimSpace(cfg.WebhookURL),
		secret:     cfg.Secret,
		issuer:     cfg.Issuer,
		httpClient: httpClient,
		now:        now,
	}
}

// Name implements the submission sink interface.
func (c *Client) Name() string { return SinkName }

// Deliver posts the record. Any non-2xx status is returned as an error.
func (c *Client) Deliver(ctx context.Context, record domain.Record) (domain.Outcome, error) {
	if c.webhookURL == "" {
		return domain.Outcome{}, fmt.Errorf("%s %w", displayName, domain.ErrNotConfigured)
	}

	endpoint, err := c.endpoint(record.Email)
	if err != nil {
		return domain.Outcome{}, err
	}

	body, err := json.Marshal(record)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to encode sheet payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to build sheet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("Google Apps Script request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyLength))
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to read Google Apps Script response: %w", err)
	}
	text := strings.TrimSpace(string(raw))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return domain.Outcome{}, fmt.Errorf("Google Apps Script error: %d - %s", res.StatusCode, text)
	}

	return domain.Outcome{Success: true, Data: decodeBody(text)}, nil
}

// decodeBody keeps JSON responses as-is and wraps plain text ones.
func decodeBody(text string) any {
	var data any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return map[string]any{"success": true, "message": text}
	}
	return data
}

func (c *Client) endpoint(subject string) (string, error) {
	if len(c.secret) == 0 {
		return c.webhookURL, nil
	}

	u, err := url.Parse(c.webhookURL)
	if err != nil {
		return "", fmt.Errorf("invalid Google Apps Script webhook URL: %w", err)
	}

	token, err := c.signToken(subject)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) signToken(subject string) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign webhook token: %w", err)
	}
	return signed, nil
}
