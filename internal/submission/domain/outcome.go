package domain

import "errors"

// ErrNotConfigured marks a sink whose credentials or URL are missing.
// Sinks wrap it with their display name, e.g. "Mailchimp not configured".
var ErrNotConfigured = errors.New("not configured")

// Outcome is the normalized result of delivering one submission to one sink.
type Outcome struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Failed converts an error into a failed outcome.
func Failed(err error) Outcome {
	if err == nil {
		err = errors.New("Unknown error")
	}
	return Outcome{Success: false, Error: err.Error()}
}

// FanOutResult combines both sink outcomes of one submission.
type FanOutResult struct {
	Success   bool    `json:"success"`
	Sheets    Outcome `json:"sheets"`
	Mailchimp Outcome `json:"mailchimp"`
}

// Succeeded is the aggregate rule: either sink succeeded, or neither reported an error.
func Succeeded(outcomes ...Outcome) bool {
	for _, o := range outcomes {
		if o.Success {
			return true
		}
	}
	for _, o := range outcomes {
		if o.Error != "" {
			return false
		}
	}
	return true
}
