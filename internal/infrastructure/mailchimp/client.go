// Package mailchimp subscribes submitters to a Mailchimp audience list.
package mailchimp

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

	"github.com/sngm3741/podcast-question-gateway/internal/submission/domain"
)

// SinkName identifies this sink in fan-out results, logs and metrics.
const SinkName = "mailchimp"

const (
	displayName       = "Mailchimp"
	defaultDataCenter = "us10"
	defaultTag        = "podcast-question-generator"
	memberExistsTitle = "Member Exists"
	maxBodyLength     = 1 << 16
)

// Config defines dependencies required by Client.
type Config struct {
	APIKey string
	ListID string
	Tags   []string
	// BaseURL overrides the data-center host derived from the API key.
	BaseURL    string
	HTTPClient *http.Client
}

// Client adds list members through the Mailchimp marketing API.
type Client struct {
	apiKey     string
	listID     string
	tags       []string
	baseURL    string
	httpClient *http.Client
}

type memberRequest struct {
	EmailAddress string      `json:"email_address"`
	Status       string      `json:"status"`
	MergeFields  mergeFields `json:"merge_fields"`
	Tags         []string    `json:"tags"`
}

type mergeFields struct {
	FirstName string `json:"FNAME"`
	LastName  string `json:"LNAME"`
}

type errorResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// New constructs a mailchimp Client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	tags := make([]string, 0, len(cfg.Tags))
	for _, tag := range cfg.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		tags = []string{defaultTag}
	}
	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		listID:     strings.TrimSpace(cfg.ListID),
		tags:       tags,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: httpClient,
	}
}

// Name implements the submission sink interface.
func (c *Client) Name() string { return SinkName }

// Tags returns the tags attached to every new member.
func (c *Client) Tags() []string {
	return append([]string(nil), c.tags...)
}

// DataCenter extracts the data-center suffix from an API key of the form "xxxx-us10".
func DataCenter(apiKey string) string {
	parts := strings.Split(apiKey, "-")
	if len(parts) > 1 && parts[1] != "" {
		return parts[1]
	}
	return defaultDataCenter
}

func (c *Client) endpoint() string {
	base := c.baseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.api.mailchimp.com", DataCenter(c.apiKey))
	}
	return base + "/3.0/lists/" + url.PathEscape(c.listID) + "/members"
}

// Deliver subscribes the record's email. An existing member counts as success.
func (c *Client) Deliver(ctx context.Context, record domain.Record) (domain.Outcome, error) {
	if c.apiKey == "" || c.listID == "" {
		return domain.Outcome{}, fmt.Errorf("%s %w", displayName, domain.ErrNotConfigured)
	}

	first, last := record.SplitName()
	body, err := json.Marshal(memberRequest{
		EmailAddress: record.Email,
		Status:       "subscribed",
		MergeFields:  mergeFields{FirstName: first, LastName: last},
		Tags:         c.tags,
	})
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to encode Mailchimp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to build Mailchimp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("Mailchimp request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxBodyLength))
		return domain.Outcome{Success: true, Tags: c.Tags()}, nil
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyLength))
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to read Mailchimp response: %w", err)
	}

	var apiErr errorResponse
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Title == memberExistsTitle {
		return domain.Outcome{Success: true, Message: "Already subscribed"}, nil
	}

	return domain.Outcome{}, fmt.Errorf("Mailchimp API error: %d - %s", res.StatusCode, strings.TrimSpace(string(raw)))
}
