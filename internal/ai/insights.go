package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/wealthwise/wealthwise/internal/domain"
)

// SpendingAnalysis is the model's answer to a spending-habits request.
// Recommendations is newline-delimited free text; use SplitRecommendations
// before display.
type SpendingAnalysis struct {
	Summary         string `json:"summary"`
	Recommendations string `json:"recommendations"`
}

func insightsPrompt(history string) string {
	var b strings.Builder
	b.WriteString("You are a personal finance advisor. Analyze the transaction history below and produce spending insights.\n\n")
	b.WriteString("Output STRICT JSON only, a single object with these fields:\n")
	b.WriteString("- \"summary\": string (a short paragraph summarizing spending habits)\n")
	b.WriteString("- \"recommendations\": string (actionable recommendations, one per line, each line starting with \"- \")\n\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n\n")
	b.WriteString("Transaction history:\n")
	b.WriteString(history)
	return b.String()
}

// AnalyzeSpendingHabits asks the model for a summary and recommendations
// over a plain-text transaction history.
func AnalyzeSpendingHabits(ctx context.Context, model TextModel, transactionHistory string) (SpendingAnalysis, error) {
	if strings.TrimSpace(transactionHistory) == "" {
		return SpendingAnalysis{}, fmt.Errorf("analyzeSpendingHabits: empty transaction history")
	}

	raw, err := model.Generate(ctx, []*genai.Part{{Text: insightsPrompt(transactionHistory)}})
	if err != nil {
		return SpendingAnalysis{}, fmt.Errorf("analyzeSpendingHabits: %w", err)
	}

	var out SpendingAnalysis
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &out); err != nil {
		return SpendingAnalysis{}, fmt.Errorf("analyzeSpendingHabits: unmarshal JSON: %w\nraw response: %s", err, raw)
	}
	if out.Summary == "" {
		return SpendingAnalysis{}, fmt.Errorf("analyzeSpendingHabits: model returned no summary")
	}
	return out, nil
}

// SplitRecommendations breaks the newline-delimited recommendation text
// into display lines, stripping the leading list marker and blanks.
func SplitRecommendations(recommendations string) []string {
	var out []string
	for _, line := range strings.Split(recommendations, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// FormatTransactionHistory renders transactions the way the analysis
// prompt expects: one "date: name (category) - amount (type)" line each.
func FormatTransactionHistory(transactions []domain.Transaction) string {
	lines := make([]string, 0, len(transactions))
	for _, t := range transactions {
		lines = append(lines, fmt.Sprintf("%s: %s (%s) - %.2f (%s)", t.Date, t.Name, t.Category, t.Amount, t.Type))
	}
	return strings.Join(lines, "\n")
}
