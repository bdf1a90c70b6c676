package repository

import (
	"context"
	"time"

	"github.com/linkvault/companion-core/internal/database"
	"github.com/linkvault/companion-core/internal/model"
)

type PairingRepository interface {
	FindByToken(ctx context.Context, token string) (*model.PairingRequest, error)
	Approve(ctx context.Context, token string, approvedAt time.Time) (int64, error)
	DeleteStalePending(ctx context.Context, olderThan time.Time) (int64, error)
}

type pairingRepo struct {
	db database.DBTX
}

func NewPairingRepository(db database.DBTX) PairingRepository {
	return &pairingRepo{db: db}
}

func (r *pairingRepo) FindByToken(ctx context.Context, token string) (*model.PairingRequest, error) {
	var pr model.PairingRequest
	err := r.db.GetContext(ctx, &pr, `
		SELECT * FROM pairing_requests
		WHERE token = $1
	`, token)
	return HandleNotFound(&pr, err)
}

// Approve flips a pairing request from pending to approved. The status
// guard in the WHERE clause makes the transition first-wins: a second
// approval of the same token affects zero rows.
func (r *pairingRepo) Approve(ctx context.Context, token string, approvedAt time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE pairing_requests SET
			status = $2,
			approved_at = $3
		WHERE token = $1 AND status = $4
	`, token, model.PairingStatusApproved, approvedAt, model.PairingStatusPending)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *pairingRepo) DeleteStalePending(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM pairing_requests
		WHERE status = $1 AND created_at < $2
	`, model.PairingStatusPending, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
