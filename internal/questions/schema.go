package questions

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

func stringArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

func objectArray(required ...string) map[string]any {
	props := make(map[string]any, len(required))
	for _, name := range required {
		props[name] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":       "object",
			"required":   required,
			"properties": props,
		},
	}
}

var schemas = map[Mode]map[string]any{
	ModeGenerate: {
		"type":     "object",
		"required": []string{"introduction", "questions"},
		"properties": map[string]any{
			"introduction":         map[string]any{"type": "string"},
			"questions":            objectArray("question", "purpose", "followUpSuggestion"),
			"journalismPrinciples": stringArray(),
			"interviewTips":        stringArray(),
		},
	},
	ModeAnalyze: {
		"type":     "object",
		"required": []string{"overallAssessment", "questionFeedback"},
		"properties": map[string]any{
			"overallAssessment":    map[string]any{"type": "string"},
			"strengths":            stringArray(),
			"areasForImprovement":  stringArray(),
			"questionFeedback":     objectArray("original", "feedback", "improved", "reasoning"),
			"journalismPrinciples": stringArray(),
			"additionalTips":       stringArray(),
		},
	},
}

// ValidationError lists every schema violation in a model answer.
type ValidationError struct {
	Mode   Mode
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s answer does not match schema: %s", e.Mode, strings.Join(e.Issues, "; "))
}

// ValidateAnswer checks a JSON document against the schema for mode.
func ValidateAnswer(mode Mode, document string) error {
	schema, ok := schemas[mode]
	if !ok {
		return fmt.Errorf("unknown mode %q", mode)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewStringLoader(document))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		issues[i] = desc.String()
	}
	return &ValidationError{Mode: mode, Issues: issues}
}
