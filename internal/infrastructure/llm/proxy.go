// Package llm forwards chat-completion requests to an OpenAI-compatible API
// with a server-held bearer credential.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no API key was supplied at startup.
var ErrNotConfigured = errors.New("LLM proxy not configured")

// maxResponseBody bounds upstream replies; chat completions with max_tokens=4000 are far smaller.
const maxResponseBody = 8 << 20

// Config configures the upstream forwarder.
type Config struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
}

// Proxy forwards opaque JSON bodies to the chat-completions endpoint.
type Proxy struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// Response is the upstream status and JSON body, both passed back unchanged.
type Response struct {
	Status int
	Body   []byte
}

// NewProxy creates a Proxy.
func NewProxy(cfg Config) *Proxy {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Proxy{
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: httpClient,
	}
}

// Forward posts body verbatim and returns the upstream reply. Transport
// failures and non-JSON replies are errors; upstream error statuses are not.
func (p *Proxy) Forward(ctx context.Context, body []byte) (Response, error) {
	if p.apiKey == "" || p.endpoint == "" {
		return Response{}, ErrNotConfigured
	}
	if !json.Valid(body) {
		return Response{}, errors.New("request body is not valid JSON")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	res, err := p.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("upstream request failed: %w", err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return Response{}, fmt.Errorf("failed to read upstream response: %w", err)
	}
	if !json.Valid(payload) {
		return Response{}, fmt.Errorf("upstream returned non-JSON body (status %d)", res.StatusCode)
	}

	return Response{Status: res.StatusCode, Body: payload}, nil
}
