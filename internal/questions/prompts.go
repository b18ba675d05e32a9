package questions

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects between generating new questions and critiquing existing ones.
type Mode string

const (
	ModeGenerate Mode = "generate"
	ModeAnalyze  Mode = "analyze"
)

// SystemPrompt is sent as the system message for both modes.
const SystemPrompt = "You are a professional journalist and interviewing expert. Always respond with valid JSON only."

const jsonOnlyInstruction = "IMPORTANT: Respond ONLY with valid JSON. Do not include any text outside the JSON structure. Do not use markdown code blocks or backticks. Your entire response must be a single valid JSON object."

const generateTemplate = `You are a professional journalist and interviewing expert. Your role is to create excellent podcast interview questions based on journalism best practices.

PODCAST AUDIENCE:
%s

GUEST BIO:
%s

Please generate 8-12 thoughtful, engaging interview questions for this podcast. For your response, use the following JSON structure:

{
  "introduction": "A brief 2-3 sentence explanation of your approach to these questions",
  "questions": [
    {
      "question": "the interview question",
      "purpose": "what this question aims to achieve",
      "followUpSuggestion": "a suggestion for a potential follow-up question or direction"
    }
  ],
  "journalismPrinciples": ["principle 1 applied", "principle 2 applied", "principle 3 applied"],
  "interviewTips": ["tip 1 for conducting this interview", "tip 2", "tip 3"]
}

` + jsonOnlyInstruction

const analyzeTemplate = `You are a professional journalist and interviewing expert. Your role is to provide constructive criticism and help improve podcast interview questions based on journalism best practices.

PODCAST AUDIENCE:
%s

GUEST BIO:
%s

INTERVIEW QUESTIONS:
%s

Please analyze these questions and provide detailed feedback. For your response, use the following JSON structure:

{
  "overallAssessment": "A brief 2-3 sentence overall assessment of the questions",
  "strengths": ["strength 1", "strength 2", "strength 3"],
  "areasForImprovement": ["area 1", "area 2", "area 3"],
  "questionFeedback": [
    {
      "original": "the original question text",
      "feedback": "specific feedback about this question",
      "improved": "your improved version of the question",
      "reasoning": "why this improvement works better"
    }
  ],
  "journalismPrinciples": ["principle 1 applied", "principle 2 applied", "principle 3 applied"],
  "additionalTips": ["tip 1", "tip 2", "tip 3"]
}

` + jsonOnlyInstruction

var (
	ErrMissingContext   = errors.New("Please fill in audience and guest bio fields.")
	ErrMissingQuestions = errors.New(`Please enter your questions or check "Come up with questions for me".`)
)

// Form is what the interviewer fills in.
type Form struct {
	Audience  string `json:"audience"`
	GuestBio  string `json:"guestBio"`
	Questions string `json:"questions"`
	Generate  bool   `json:"generateMode"`
}

// Mode reports which prompt the form produces.
func (f Form) Mode() Mode {
	if f.Generate {
		return ModeGenerate
	}
	return ModeAnalyze
}

// Validate mirrors the checks the form runs before calling the model.
func (f Form) Validate() error {
	if strings.TrimSpace(f.Audience) == "" || strings.TrimSpace(f.GuestBio) == "" {
		return ErrMissingContext
	}
	if !f.Generate && strings.TrimSpace(f.Questions) == "" {
		return ErrMissingQuestions
	}
	return nil
}

// BuildPrompt renders the user message for the form's mode.
func BuildPrompt(f Form) string {
	if f.Generate {
		return fmt.Sprintf(generateTemplate, f.Audience, f.GuestBio)
	}
	return fmt.Sprintf(analyzeTemplate, f.Audience, f.GuestBio, f.Questions)
}

// ChatMessage is one OpenAI-style chat message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the model for a JSON object.
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest is the chat-completions body the gateway proxies.
type ChatRequest struct {
	Model          string         `json:"model"`
	Messages       []ChatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat ResponseFormat `json:"response_format"`
}

// ModelOptions tunes the chat request.
type ModelOptions struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// DefaultModelOptions matches what the web form sends.
func DefaultModelOptions() ModelOptions {
	return ModelOptions{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 4000}
}

// BuildChatRequest assembles the system and user messages for f.
func BuildChatRequest(f Form, opts ModelOptions) ChatRequest {
	defaults := DefaultModelOptions()
	if opts.Model == "" {
		opts.Model = defaults.Model
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaults.MaxTokens
	}
	return ChatRequest{
		Model: opts.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: BuildPrompt(f)},
		},
		Temperature:    opts.Temperature,
		MaxTokens:      opts.MaxTokens,
		ResponseFormat: ResponseFormat{Type: "json_object"},
	}
}
