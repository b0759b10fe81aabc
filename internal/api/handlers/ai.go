package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/wealthwise/wealthwise/internal/ai"
	"github.com/wealthwise/wealthwise/internal/api/middleware"
	"github.com/wealthwise/wealthwise/internal/metrics"
)

// ScanHandler serves receipt extraction.
type ScanHandler struct {
	model ai.TextModel
	log   zerolog.Logger
}

// NewScanHandler creates a scan handler.
func NewScanHandler(model ai.TextModel, log zerolog.Logger) *ScanHandler {
	return &ScanHandler{model: model, log: log}
}

// Scan handles POST /api/scan. Failures are scoped to this one call and
// recoverable by user retry; nothing previously scanned is touched.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	var req struct {
		ImageDataURI string `json:"imageDataUri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ImageDataURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "imageDataUri is required")
		return
	}

	details, err := ai.ExtractReceiptDetails(r.Context(), h.model, req.ImageDataURI)
	if err != nil {
		if errors.Is(err, ai.ErrExtractionFailed) {
			middleware.WriteError(w, http.StatusUnprocessableEntity, "Could not extract all details from the receipt")
			return
		}
		h.log.Error().Err(err).Msg("Receipt scan failed")
		middleware.WriteError(w, http.StatusBadGateway, "Receipt scan failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"name":     details.Name,
		"amount":   details.Amount,
		"date":     details.Date,
		"category": string(details.Category),
	})
}

// InsightsHandler serves spending-habit analysis.
type InsightsHandler struct {
	registry *Registry
	model    ai.TextModel
	log      zerolog.Logger
}

// NewInsightsHandler creates an insights handler.
func NewInsightsHandler(registry *Registry, model ai.TextModel, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{registry: registry, model: model, log: log}
}

// Analyze handles POST /api/insights over the user's live transaction
// snapshot.
func (h *InsightsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	ub := h.registry.For(uid)

	if !metrics.Ready(ub.Transactions) {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Data not yet available")
		return
	}

	transactions, state, err := ub.TransactionList()
	if writeBindingState(w, state, err) {
		return
	}
	if len(transactions) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No transactions to analyze")
		return
	}

	analysis, err := ai.AnalyzeSpendingHabits(r.Context(), h.model, ai.FormatTransactionHistory(transactions))
	if err != nil {
		h.log.Error().Err(err).Msg("Spending analysis failed")
		middleware.WriteError(w, http.StatusBadGateway, "Spending analysis failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"summary":         analysis.Summary,
		"recommendations": ai.SplitRecommendations(analysis.Recommendations),
	})
}
