package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/wealthwise/wealthwise/internal/domain"
)

// ErrExtractionFailed is returned when the model could not produce a
// usable name, amount and date. The caller recovers by asking the user to
// retry with a clearer image.
var ErrExtractionFailed = errors.New("could not extract receipt details")

// ReceiptDetails is the validated output of a receipt scan.
type ReceiptDetails struct {
	Name     string          `json:"name"`
	Amount   float64         `json:"amount"`
	Date     string          `json:"date"` // YYYY-MM-DD
	Category domain.Category `json:"category"`
}

func receiptPrompt() string {
	names := make([]string, 0, len(domain.AllCategories()))
	for _, c := range domain.AllCategories() {
		names = append(names, string(c))
	}

	var b strings.Builder
	b.WriteString("You are an intelligent receipt scanner. Analyze the attached receipt image and extract the transaction details.\n\n")
	b.WriteString("Identify the merchant name, the total amount, and the date of the transaction.\n")
	b.WriteString("Based on the merchant and items, suggest a spending category from the following list: ")
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(".\n\n")
	b.WriteString("Output STRICT JSON only (no comments, no extra text), a single object with these fields:\n")
	b.WriteString("- \"name\": string (merchant name)\n")
	b.WriteString("- \"amount\": number (total amount)\n")
	b.WriteString("- \"date\": string, ISO format \"YYYY-MM-DD\"\n")
	b.WriteString("- \"category\": string (one of the categories above)\n\n")
	b.WriteString("If you cannot determine a field, return an empty string or 0.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")
	return b.String()
}

// ExtractReceiptDetails sends a receipt image to the model and validates
// the response. A category outside the fixed set is coerced to the safe
// default rather than propagated; an empty name, zero amount or empty date
// is an extraction failure.
func ExtractReceiptDetails(ctx context.Context, model TextModel, imageDataURI string) (ReceiptDetails, error) {
	mimeType, data, err := decodeDataURI(imageDataURI)
	if err != nil {
		return ReceiptDetails{}, fmt.Errorf("extractReceiptDetails: %w", err)
	}

	parts := []*genai.Part{
		{Text: receiptPrompt()},
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
	}

	raw, err := model.Generate(ctx, parts)
	if err != nil {
		return ReceiptDetails{}, fmt.Errorf("extractReceiptDetails: %w", err)
	}

	var out struct {
		Name     string  `json:"name"`
		Amount   float64 `json:"amount"`
		Date     string  `json:"date"`
		Category string  `json:"category"`
	}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &out); err != nil {
		return ReceiptDetails{}, fmt.Errorf("extractReceiptDetails: unmarshal JSON: %w\nraw response: %s", err, raw)
	}

	if out.Name == "" || out.Amount == 0 || out.Date == "" {
		return ReceiptDetails{}, ErrExtractionFailed
	}

	return ReceiptDetails{
		Name:     out.Name,
		Amount:   out.Amount,
		Date:     out.Date,
		Category: domain.CoerceCategory(out.Category),
	}, nil
}

// decodeDataURI splits a "data:<mime>;base64,<payload>" URI into its MIME
// type and decoded bytes.
func decodeDataURI(uri string) (mimeType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI")
	}
	mimeType, ok = strings.CutSuffix(meta, ";base64")
	if !ok || mimeType == "" {
		return "", nil, fmt.Errorf("data URI must be base64-encoded with a MIME type")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	return mimeType, data, nil
}
