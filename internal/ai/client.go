// Package ai holds the two externally-delegated model calls: receipt
// extraction and spending analysis. Only the boundary contract lives here;
// the inference itself happens in the hosted Gemini service.
package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the default Gemini model used for both delegate
// calls.
const DefaultModelName = "gemini-2.5-flash"

// TextModel generates a text response for a multi-part prompt. The
// production implementation is GeminiModel; tests substitute a stub.
type TextModel interface {
	Generate(ctx context.Context, parts []*genai.Part) (string, error)
}

// GeminiModel calls the hosted Gemini service.
type GeminiModel struct {
	model string
}

// NewGeminiModel creates a model client. An empty model name selects
// DefaultModelName.
func NewGeminiModel(model string) *GeminiModel {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiModel{model: model}
}

// Generate implements TextModel.
func (g *GeminiModel) Generate(ctx context.Context, parts []*genai.Part) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp.Text() == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Text(), nil
}

// cleanModelJSON strips markdown fences and surrounding junk the model
// sometimes emits despite instructions, keeping only the outermost JSON
// object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
