package service

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/linkvault/companion-core/internal/audit"
	apperrors "github.com/linkvault/companion-core/internal/errors"
	"github.com/linkvault/companion-core/internal/model"
	"github.com/linkvault/companion-core/internal/qr"
	redisclient "github.com/linkvault/companion-core/internal/redis"
	"github.com/linkvault/companion-core/internal/repository"
	"github.com/linkvault/companion-core/internal/sse"
	"github.com/linkvault/companion-core/internal/util"
)

// ScanResult is the outcome of a successful scan and approval.
type ScanResult struct {
	Token      string    `json:"token"`
	UserID     string    `json:"userId"`
	ApprovedAt time.Time `json:"approvedAt"`
}

// ApprovalService turns a scanned QR code into an approved pairing
// request. One scan is processed at a time; a second scan arriving
// while the first is in flight is rejected immediately.
type ApprovalService struct {
	pairingRepo repository.PairingRepository
	broker      *sse.Broker
	inFlight    atomic.Bool
}

func NewApprovalService(pairingRepo repository.PairingRepository, broker *sse.Broker) *ApprovalService {
	return &ApprovalService{
		pairingRepo: pairingRepo,
		broker:      broker,
	}
}

// HandleScan validates the scanned text and approves the matching
// pairing request. Checks run in a fixed order: payload shape, caller
// identity, token existence, pending status, ownership, then the
// guarded status write.
func (s *ApprovalService) HandleScan(ctx context.Context, qrText, userID string) (*ScanResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, apperrors.ScanInFlight()
	}
	defer s.inFlight.Store(false)

	payload, err := qr.Parse(qrText)
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.Event{
		Type:   audit.EventScanAttempt,
		UserID: userID,
		Token:  util.MaskToken(payload.Token),
	})

	if userID == "" {
		return nil, apperrors.NotAuthenticated()
	}

	// A lookup failure and a missing record read the same to the caller.
	pairing, err := s.pairingRepo.FindByToken(ctx, payload.Token)
	if err != nil {
		log.Error().Err(err).Msg("pairing lookup failed")
		return nil, apperrors.PairingNotFound().WithCause(err)
	}
	if pairing == nil {
		return nil, apperrors.PairingNotFound()
	}
	if pairing.Status != model.PairingStatusPending {
		return nil, apperrors.PairingNotPending()
	}
	if pairing.UserID != userID {
		s.logRejected(ctx, userID, payload.Token, "ownership_mismatch")
		return nil, apperrors.OwnershipMismatch()
	}

	approvedAt := time.Now().UTC()
	rows, err := s.pairingRepo.Approve(ctx, payload.Token, approvedAt)
	if err != nil {
		return nil, apperrors.ApprovalWriteFailed(err)
	}
	if rows == 0 {
		// The record changed between read and write.
		return nil, apperrors.ApprovalWriteFailed(nil)
	}

	audit.Log(ctx, audit.Event{
		Type:   audit.EventPairingApproved,
		UserID: userID,
		Token:  util.MaskToken(payload.Token),
	})

	result := &ScanResult{
		Token:      payload.Token,
		UserID:     userID,
		ApprovedAt: approvedAt,
	}
	s.publishApproved(ctx, result)
	return result, nil
}

// GetPairing fetches a pairing request so a desktop peer can poll its
// status while waiting for approval.
func (s *ApprovalService) GetPairing(ctx context.Context, token string) (*model.PairingRequest, error) {
	pairing, err := s.pairingRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if pairing == nil {
		return nil, apperrors.PairingNotFound()
	}
	return pairing, nil
}

func (s *ApprovalService) logRejected(ctx context.Context, userID, token, reason string) {
	audit.Log(ctx, audit.Event{
		Type:    audit.EventPairingRejected,
		UserID:  userID,
		Token:   util.MaskToken(token),
		Details: map[string]interface{}{"reason": reason},
	})
}

func (s *ApprovalService) publishApproved(ctx context.Context, result *ScanResult) {
	if s.broker == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal scan result")
		return
	}

	event := sse.Event{Type: "pairing_approved", Data: data}
	if err := s.broker.Publish(ctx, redisclient.PairingChannel(result.Token), event); err != nil {
		log.Error().Err(err).Msg("failed to publish pairing approval")
	}
}
