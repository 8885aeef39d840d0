package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"custodia/internal/domain"
)

// AuditEmitter is the single path through which the rest of the platform
// writes to the custody chain. Every state change routes through Emit; the
// ledger assigns ordering and hashes.
type AuditEmitter struct {
	Ledger AuditLedger
	Clock  Clock
}

func NewAuditEmitter(ledger AuditLedger, clock Clock) *AuditEmitter {
	return &AuditEmitter{Ledger: ledger, Clock: clock}
}

func (e *AuditEmitter) Emit(ctx context.Context, req AuditAppend) (domain.AuditEntry, error) {
	if e == nil || e.Ledger == nil {
		return domain.AuditEntry{}, errors.New("audit ledger required")
	}
	if !req.EventType.Valid() {
		return domain.AuditEntry{}, fmt.Errorf("%w: %q", domain.ErrInvalidEventType, req.EventType)
	}
	if req.DeviceID == "" && req.MediaID == "" {
		return domain.AuditEntry{}, errors.New("audit entry requires a subject device or media id")
	}
	if req.EventData == nil {
		req.EventData = map[string]any{}
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = e.now()
	}
	req.CreatedAt = req.CreatedAt.UTC()
	return e.Ledger.Append(ctx, req)
}

func (e *AuditEmitter) EmitDeviceRegistered(ctx context.Context, device domain.Device) error {
	_, err := e.Emit(ctx, AuditAppend{
		EventType: domain.AuditEventDeviceRegistered,
		DeviceID:  device.DeviceID,
		EventData: map[string]any{
			"device_id": device.DeviceID,
			"scheme":    string(device.Scheme),
		},
	})
	return err
}

func (e *AuditEmitter) EmitDeviceCryptoUpgraded(ctx context.Context, deviceID string, previous, next domain.CryptoScheme) error {
	_, err := e.Emit(ctx, AuditAppend{
		EventType: domain.AuditEventDeviceCryptoUpgrade,
		DeviceID:  deviceID,
		EventData: map[string]any{
			"device_id":       deviceID,
			"previous_scheme": string(previous),
			"new_scheme":      string(next),
		},
	})
	return err
}

func (e *AuditEmitter) EmitMediaUploaded(ctx context.Context, record domain.VerificationRecord, env domain.UploadEnvelope) error {
	data := map[string]any{
		"device_id":     record.DeviceID,
		"media_id":      record.MediaID,
		"computed_hash": record.ComputedHash,
		"declared_hash": record.DeclaredHash,
		"outcome":       string(record.Outcome),
		"timestamp":     env.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if env.Geolocation != nil {
		data["geolocation"] = map[string]any{
			"latitude":  env.Geolocation.Latitude,
			"longitude": env.Geolocation.Longitude,
			"accuracy":  env.Geolocation.Accuracy,
		}
	}
	_, err := e.Emit(ctx, AuditAppend{
		EventType: domain.AuditEventMediaUploaded,
		DeviceID:  record.DeviceID,
		MediaID:   record.MediaID,
		EventData: data,
	})
	return err
}

func (e *AuditEmitter) EmitMediaVerified(ctx context.Context, record domain.VerificationRecord) error {
	_, err := e.Emit(ctx, AuditAppend{
		EventType: domain.AuditEventMediaVerified,
		DeviceID:  record.DeviceID,
		MediaID:   record.MediaID,
		EventData: map[string]any{
			"device_id":     record.DeviceID,
			"media_id":      record.MediaID,
			"computed_hash": record.ComputedHash,
		},
	})
	return err
}

func (e *AuditEmitter) EmitAnnotationUpdated(ctx context.Context, mediaID, actor string, annotation map[string]any) error {
	data := map[string]any{
		"media_id": mediaID,
	}
	if actor != "" {
		data["actor"] = actor
	}
	if annotation != nil {
		data["annotation"] = annotation
	}
	_, err := e.Emit(ctx, AuditAppend{
		EventType: domain.AuditEventAnnotationUpdated,
		MediaID:   mediaID,
		EventData: data,
	})
	return err
}

func (e *AuditEmitter) EmitReviewStatusChanged(ctx context.Context, mediaID, actor, previous, next string) error {
	data := map[string]any{
		"media_id":        mediaID,
		"previous_status": previous,
		"new_status":      next,
	}
	if actor != "" {
		data["actor"] = actor
	}
	_, err := e.Emit(ctx, AuditAppend{
		EventType: domain.AuditEventReviewStatusChanged,
		MediaID:   mediaID,
		EventData: data,
	})
	return err
}

func (e *AuditEmitter) EmitMediaDeleted(ctx context.Context, mediaID, actor, reason string) error {
	data := map[string]any{
		"media_id": mediaID,
	}
	if actor != "" {
		data["actor"] = actor
	}
	if reason != "" {
		data["reason"] = reason
	}
	_, err := e.Emit(ctx, AuditAppend{
		EventType: domain.AuditEventMediaDeleted,
		MediaID:   mediaID,
		EventData: data,
	})
	return err
}

func (e *AuditEmitter) now() time.Time {
	if e != nil && e.Clock != nil {
		return e.Clock()
	}
	return time.Now().UTC()
}
