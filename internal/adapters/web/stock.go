package web

import (
	"net/http"
	"strings"

	"stockroom/internal/app"

	"github.com/go-chi/chi/v5"
)

// apiSetStock handles PUT /api/stock — an absolute upsert, not an increment.
func (h *Handler) apiSetStock(w http.ResponseWriter, r *http.Request) {
	var req app.SetStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.SetStock(r.Context(), req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiRemoveStock handles DELETE /api/stock?product_id=...&container_ref=...
func (h *Handler) apiRemoveStock(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(r.URL.Query().Get("product_id"))
	containerRef := strings.TrimSpace(r.URL.Query().Get("container_ref"))
	if productID == "" || containerRef == "" {
		writeError(w, r, "product_id and container_ref query parameters are required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	if err := h.svc.RemoveStock(r.Context(), productID, containerRef); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiGetStock handles GET /api/stock/{productID}.
func (h *Handler) apiGetStock(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetStock(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetTotalStock handles GET /api/stock/{productID}/total. The total is
// computed on read; a product with no entries totals zero.
func (h *Handler) apiGetTotalStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	total, err := h.svc.GetTotalStock(r.Context(), productID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		ProductID string `json:"product_id"`
		Total     string `json:"total"`
	}
	writeJSON(w, response{ProductID: productID, Total: total.String()})
}

// apiInterpretCommand handles POST /api/assistant/interpret. The proposed
// command is returned for confirmation; nothing is written to the ledger.
func (h *Handler) apiInterpretCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, r, "text must not be empty", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	result, err := h.svc.InterpretStockCommand(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiAskQuestion handles POST /api/assistant/ask.
func (h *Handler) apiAskQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, r, "question must not be empty", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	answer, err := h.svc.AnswerStockQuestion(r.Context(), req.Question)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Answer string `json:"answer"`
	}
	writeJSON(w, response{Answer: answer})
}
