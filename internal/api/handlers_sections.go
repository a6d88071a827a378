package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

type summarizeSectionRequest struct {
	Text string `json:"text" validate:"required"`
}

func (s *Server) handleSummarizeSection(w http.ResponseWriter, r *http.Request) {
	if s.sections == nil {
		jsonError(w, "section summaries unavailable", http.StatusServiceUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxDocumentBytes)

	var req summarizeSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := validate.Struct(req); err != nil {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	summary, err := s.sections.SummarizeSection(r.Context(), req.Text)
	if err != nil {
		s.log.Error("section summary failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": summary,
	})
}
