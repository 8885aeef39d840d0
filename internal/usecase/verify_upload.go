package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"custodia/internal/domain"

	"github.com/google/uuid"
)

type VerifyUploadRequest struct {
	FileBytes []byte
	Envelope  domain.UploadEnvelope
}

type VerifyUploadResponse struct {
	MediaID string
	Outcome domain.VerificationOutcome
	Record  domain.VerificationRecord
}

// UploadVerifier classifies an incoming (file bytes, signed envelope) pair.
// Suspicious uploads are persisted, not dropped: a hash mismatch or bad
// signature still produces a media id, a verification record and a ledger
// entry, because evidentiary completeness outranks rejection.
type UploadVerifier struct {
	Devices       DeviceRepository
	Verifications VerificationRepository
	Index         MediaIndex
	Audit         *AuditEmitter
	Crypto        CryptoService
	Clock         Clock
}

func (v *UploadVerifier) Execute(ctx context.Context, req VerifyUploadRequest) (*VerifyUploadResponse, error) {
	env := req.Envelope
	if env.DeviceID == "" {
		return nil, fmt.Errorf("%w: device_id is required", domain.ErrInvalidEnvelope)
	}
	if env.DeclaredHash == "" {
		return nil, fmt.Errorf("%w: declared_hash is required", domain.ErrInvalidEnvelope)
	}

	device, err := v.Devices.GetByID(ctx, env.DeviceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Nothing is stored for wholly unknown devices.
			return nil, domain.ErrUnregisteredDevice
		}
		return nil, err
	}

	computedHash := v.Crypto.HashBytes(req.FileBytes)
	outcome := v.classify(device, env, computedHash)

	now := v.now()
	record := domain.VerificationRecord{
		MediaID:      uuid.NewString(),
		DeviceID:     device.DeviceID,
		ComputedHash: computedHash,
		DeclaredHash: env.DeclaredHash,
		Outcome:      outcome,
		CreatedAt:    now,
	}
	if err := v.Verifications.Create(ctx, record); err != nil {
		return nil, err
	}
	if v.Index != nil {
		if err := v.Index.Add(ctx, record.MediaID); err != nil {
			return nil, err
		}
	}
	if err := v.Devices.TouchLastUpload(ctx, device.DeviceID, now); err != nil {
		return nil, err
	}

	if err := v.Audit.EmitMediaUploaded(ctx, record, env); err != nil {
		return nil, err
	}
	if outcome == domain.OutcomeVerified {
		if err := v.Audit.EmitMediaVerified(ctx, record); err != nil {
			return nil, err
		}
	}

	return &VerifyUploadResponse{
		MediaID: record.MediaID,
		Outcome: outcome,
		Record:  record,
	}, nil
}

func (v *UploadVerifier) classify(device *domain.Device, env domain.UploadEnvelope, computedHash string) domain.VerificationOutcome {
	hashOK := strings.EqualFold(env.DeclaredHash, computedHash)
	if !hashOK {
		return domain.OutcomeHashMismatch
	}

	switch device.Scheme {
	case domain.SchemeStrong:
		// The declared key must match the registered one byte for byte
		// before the signature means anything.
		if env.PublicKey != device.PublicKey {
			return domain.OutcomeSignatureInvalid
		}
		payload, err := v.Crypto.EnvelopePayload(env)
		if err != nil {
			return domain.OutcomeSignatureInvalid
		}
		if err := v.Crypto.VerifySignature(payload, env.Signature, device.PublicKey); err != nil {
			return domain.OutcomeSignatureInvalid
		}
		return domain.OutcomeVerified
	default:
		// Weak scheme: the server holds no shared secret, so no proof is
		// possible regardless of what the signature field contains.
		return domain.OutcomeUnverified
	}
}

func (v *UploadVerifier) now() time.Time {
	if v != nil && v.Clock != nil {
		return v.Clock().UTC()
	}
	return time.Now().UTC()
}
