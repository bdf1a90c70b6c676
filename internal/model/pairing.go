package model

import "time"

type PairingStatus string

const (
	PairingStatusPending  PairingStatus = "pending"
	PairingStatusApproved PairingStatus = "approved"
)

// PairingRequest is one pending link request created by a desktop peer.
// The mobile core only ever moves it from pending to approved.
type PairingRequest struct {
	Token      string        `db:"token" json:"token"`
	UserID     string        `db:"user_id" json:"userId"`
	Status     PairingStatus `db:"status" json:"status"`
	ApprovedAt *time.Time    `db:"approved_at" json:"approvedAt,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
}
