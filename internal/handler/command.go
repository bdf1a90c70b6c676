package handler

import (
	"encoding/json"
	"net/http"

	"github.com/linkvault/companion-core/internal/command"
	apperrors "github.com/linkvault/companion-core/internal/errors"
	"github.com/linkvault/companion-core/internal/service"
)

type CommandHandler struct {
	bar      *service.CommandBarService
	executor *command.Executor
}

func NewCommandHandler(bar *service.CommandBarService, executor *command.Executor) *CommandHandler {
	return &CommandHandler{bar: bar, executor: executor}
}

type submitRequest struct {
	Text string `json:"text"`
}

// Submit handles POST /v1/commands with typed command text.
func (h *CommandHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "expected JSON"))
		return
	}

	intent, err := h.bar.SubmitText(req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, intent)
}

// SystemStatus handles GET /v1/system/status and reports the simulated
// desktop state.
func (h *CommandHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"actions": h.executor.Status(),
		"volume":  h.executor.Volume(),
		"playing": h.executor.IsPlaying(),
	})
}
