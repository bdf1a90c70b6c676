package qr

import (
	"encoding/json"

	apperrors "github.com/linkvault/companion-core/internal/errors"
)

const (
	// PayloadType is the discriminator every pairing QR code carries.
	PayloadType = "linkvault_pair"
	// SupportedVersion is the only wire version this build understands.
	SupportedVersion = 1
)

// Payload is the decoded contents of a pairing QR code. Unknown fields
// in the scanned JSON are ignored.
type Payload struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Token   string `json:"token"`
}

// Parse decodes and validates raw QR text. Validation order is fixed:
// JSON shape, then type, then version, then token presence.
func Parse(text string) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, apperrors.MalformedPayload(err)
	}
	if payload.Type != PayloadType {
		return nil, apperrors.UnsupportedType(payload.Type)
	}
	if payload.Version != SupportedVersion {
		return nil, apperrors.UnsupportedVersion(payload.Version)
	}
	if payload.Token == "" {
		return nil, apperrors.MissingPairingToken()
	}
	return &payload, nil
}
