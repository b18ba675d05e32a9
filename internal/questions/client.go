// Package questions drives the interview-question workflow through the gateway:
// it builds the chat prompt, posts it, and validates the model's JSON answer.
package questions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sngm3741/podcast-question-gateway/internal/submission/domain"
)

const submitEmailPath = "/submit-email"

// Client talks to a running gateway.
type Client struct {
	gatewayURL string
	options    ModelOptions
	httpClient *http.Client
}

// ClientConfig configures Client.
type ClientConfig struct {
	GatewayURL string
	Options    ModelOptions
	HTTPClient *http.Client
}

// NewClient creates a gateway client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{
		gatewayURL: strings.TrimRight(strings.TrimSpace(cfg.GatewayURL), "/"),
		options:    cfg.Options,
		httpClient: httpClient,
	}
}

type chatCompletion struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generated is the answer shape for ModeGenerate.
type Generated struct {
	Introduction string `json:"introduction"`
	Questions    []struct {
		Question           string `json:"question"`
		Purpose            string `json:"purpose"`
		FollowUpSuggestion string `json:"followUpSuggestion"`
	} `json:"questions"`
	JournalismPrinciples []string `json:"journalismPrinciples"`
	InterviewTips        []string `json:"interviewTips"`
}

// Analysis is the answer shape for ModeAnalyze.
type Analysis struct {
	OverallAssessment   string   `json:"overallAssessment"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areasForImprovement"`
	QuestionFeedback    []struct {
		Original  string `json:"original"`
		Feedback  string `json:"feedback"`
		Improved  string `json:"improved"`
		Reasoning string `json:"reasoning"`
	} `json:"questionFeedback"`
	JournalismPrinciples []string `json:"journalismPrinciples"`
	AdditionalTips       []string `json:"additionalTips"`
}

// Ask validates the form, sends the prompt and returns the model's JSON answer
// after fence stripping and schema validation.
func (c *Client) Ask(ctx context.Context, form Form) (json.RawMessage, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(BuildChatRequest(form, c.options))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	status, body, err := c.post(ctx, c.gatewayURL+"/", payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, errors.New(apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API request failed: %d", status)
	}

	var completion chatCompletion
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("failed to decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("completion has no choices")
	}

	answer := StripCodeFences(completion.Choices[0].Message.Content)
	if !json.Valid([]byte(answer)) {
		return nil, errors.New("model answer is not valid JSON")
	}
	if err := ValidateAnswer(form.Mode(), answer); err != nil {
		return nil, err
	}
	return json.RawMessage(answer), nil
}

// Subscribe posts a submission to the fan-out route. The result is returned
// for both 200 and 500 replies since each carries per-sink detail.
func (c *Client) Subscribe(ctx context.Context, in domain.Inbound) (domain.FanOutResult, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return domain.FanOutResult{}, fmt.Errorf("failed to marshal submission: %w", err)
	}

	status, body, err := c.post(ctx, c.gatewayURL+submitEmailPath, payload)
	if err != nil {
		return domain.FanOutResult{}, err
	}

	var reply struct {
		domain.FanOutResult
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return domain.FanOutResult{}, fmt.Errorf("gateway returned status %d", status)
	}
	if reply.Error != "" {
		return domain.FanOutResult{}, fmt.Errorf("gateway rejected submission (%d): %s", status, reply.Error)
	}
	return reply.FanOutResult, nil
}

func (c *Client) post(ctx context.Context, url string, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read gateway response: %w", err)
	}
	return res.StatusCode, body, nil
}

var fencePattern = regexp.MustCompile("```(?:json)?\\n?")

// StripCodeFences removes markdown code fences models sometimes wrap JSON in.
func StripCodeFences(s string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(s, ""))
}
