package handler

import (
	"net/http"

	"github.com/linkvault/companion-core/internal/service"
)

type RecordingHandler struct {
	bar *service.CommandBarService
}

func NewRecordingHandler(bar *service.CommandBarService) *RecordingHandler {
	return &RecordingHandler{bar: bar}
}

// Toggle handles POST /v1/recording/toggle.
func (h *RecordingHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	state, err := h.bar.ToggleRecording(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"state": state})
}

// State handles GET /v1/recording.
func (h *RecordingHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"state":       h.bar.State(),
		"partialText": h.bar.PartialText(),
	})
}
