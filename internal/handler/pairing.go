package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/linkvault/companion-core/internal/errors"
	"github.com/linkvault/companion-core/internal/middleware"
	"github.com/linkvault/companion-core/internal/service"
)

type PairingHandler struct {
	approvals *service.ApprovalService
}

func NewPairingHandler(approvals *service.ApprovalService) *PairingHandler {
	return &PairingHandler{approvals: approvals}
}

type scanRequest struct {
	QRData string `json:"qrData"`
}

// Scan handles POST /v1/pair/scan. The body carries the raw text read
// from the QR code.
func (h *PairingHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "expected JSON"))
		return
	}
	if req.QRData == "" {
		writeError(w, apperrors.MissingRequired("qrData"))
		return
	}

	userID := middleware.GetUserID(r.Context())
	result, err := h.approvals.HandleScan(r.Context(), req.QRData, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Get handles GET /v1/pairings/{token}. Desktop peers poll it while
// waiting for the phone to approve.
func (h *PairingHandler) Get(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeError(w, apperrors.MissingRequired("token"))
		return
	}

	pairing, err := h.approvals.GetPairing(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pairing)
}
