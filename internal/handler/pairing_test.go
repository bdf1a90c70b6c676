package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/linkvault/companion-core/internal/middleware"
	"github.com/linkvault/companion-core/internal/model"
	"github.com/linkvault/companion-core/internal/service"
)

type stubPairingRepo struct {
	pairing *model.PairingRequest
	rows    int64
}

func (s *stubPairingRepo) FindByToken(ctx context.Context, token string) (*model.PairingRequest, error) {
	if s.pairing != nil && s.pairing.Token == token {
		return s.pairing, nil
	}
	return nil, nil
}

func (s *stubPairingRepo) Approve(ctx context.Context, token string, approvedAt time.Time) (int64, error) {
	return s.rows, nil
}

func (s *stubPairingRepo) DeleteStalePending(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

func authedRequest(method, target, body, userID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if userID != "" {
		ctx := context.WithValue(req.Context(), middleware.UserContextKey, userID)
		req = req.WithContext(ctx)
	}
	return req
}

func TestPairingHandler_Scan(t *testing.T) {
	repo := &stubPairingRepo{
		pairing: &model.PairingRequest{
			Token:  "tok-1",
			UserID: "user-1",
			Status: model.PairingStatusPending,
		},
		rows: 1,
	}
	h := NewPairingHandler(service.NewApprovalService(repo, nil))

	t.Run("approves valid scan", func(t *testing.T) {
		body := `{"qrData":"{\"type\":\"linkvault_pair\",\"version\":1,\"token\":\"tok-1\"}"}`
		req := authedRequest(http.MethodPost, "/v1/pair/scan", body, "user-1")
		rec := httptest.NewRecorder()

		h.Scan(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"token":"tok-1"`)
	})

	t.Run("anonymous scan is 401", func(t *testing.T) {
		body := `{"qrData":"{\"type\":\"linkvault_pair\",\"version\":1,\"token\":\"tok-1\"}"}`
		req := authedRequest(http.MethodPost, "/v1/pair/scan", body, "")
		rec := httptest.NewRecorder()

		h.Scan(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "NOT_AUTHENTICATED")
	})

	t.Run("malformed qr is 400", func(t *testing.T) {
		req := authedRequest(http.MethodPost, "/v1/pair/scan", `{"qrData":"garbage"}`, "user-1")
		rec := httptest.NewRecorder()

		h.Scan(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "MALFORMED_PAYLOAD")
	})

	t.Run("missing qrData is 400", func(t *testing.T) {
		req := authedRequest(http.MethodPost, "/v1/pair/scan", `{}`, "user-1")
		rec := httptest.NewRecorder()

		h.Scan(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong account is 403", func(t *testing.T) {
		body := `{"qrData":"{\"type\":\"linkvault_pair\",\"version\":1,\"token\":\"tok-1\"}"}`
		req := authedRequest(http.MethodPost, "/v1/pair/scan", body, "user-2")
		rec := httptest.NewRecorder()

		h.Scan(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "OWNERSHIP_MISMATCH")
	})
}

func TestPairingHandler_Get(t *testing.T) {
	repo := &stubPairingRepo{
		pairing: &model.PairingRequest{
			Token:  "tok-1",
			UserID: "user-1",
			Status: model.PairingStatusPending,
		},
	}
	h := NewPairingHandler(service.NewApprovalService(repo, nil))

	router := chi.NewRouter()
	router.Get("/v1/pairings/{token}", h.Get)

	t.Run("returns pairing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/pairings/tok-1", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"pending"`)
	})

	t.Run("unknown token is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/pairings/missing", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
