package usecase

import (
	"context"
	"time"

	"custodia/internal/domain"
)

// DeviceRepository is the durable device-identity store. Create and
// ReplaceKey operate on a single row; no cross-call coordination is needed
// beyond what the storage layer guarantees for one record.
type DeviceRepository interface {
	GetByID(ctx context.Context, deviceID string) (*domain.Device, error)
	Create(ctx context.Context, device domain.Device) error
	ReplaceKey(ctx context.Context, deviceID, publicKey string, scheme domain.CryptoScheme) error
	TouchLastUpload(ctx context.Context, deviceID string, at time.Time) error
}

type VerificationRepository interface {
	Create(ctx context.Context, record domain.VerificationRecord) error
	GetByMediaID(ctx context.Context, mediaID string) (*domain.VerificationRecord, error)
}

// AuditAppend is a request to commit one new chain entry. Seq, PrevHash and
// EntryHash are assigned by the ledger inside the append; callers never
// choose them.
type AuditAppend struct {
	EventType domain.AuditEventType
	DeviceID  string
	MediaID   string
	EventData any
	CreatedAt time.Time // zero means ledger clock
}

// AuditLedger is the append-only hash-linked log. Append must be atomic
// with respect to concurrent appends: no two entries may ever commit with
// the same seq or the same prev hash. List returns committed entries in
// ascending seq order and may run concurrently with Append.
type AuditLedger interface {
	Append(ctx context.Context, req AuditAppend) (domain.AuditEntry, error)
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error)
	Head(ctx context.Context) (seq int64, entryHash string, err error)
}

type CryptoService interface {
	CanonicalizeAny(payload any) ([]byte, error)
	HashBytes(input []byte) string
	EnvelopePayload(env domain.UploadEnvelope) ([]byte, error)
	VerifySignature(payload []byte, signatureB64 string, keyMaterial string) error
}

// MediaIndex is the platform's registry of media the system currently
// knows about. Token validation cross-checks it so a structurally valid
// token for purged media is rejected.
type MediaIndex interface {
	Add(ctx context.Context, mediaID string) error
	Remove(ctx context.Context, mediaID string) error
	IsKnown(ctx context.Context, mediaID string) (bool, error)
}

type Clock func() time.Time
