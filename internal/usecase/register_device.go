package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"custodia/internal/domain"
)

type RegisterDeviceRequest struct {
	DeviceID   string
	PublicKey  string
	Scheme     domain.CryptoScheme
	DeviceInfo map[string]any
}

type RegisterDeviceResponse struct {
	Outcome domain.RegistrationOutcome
	Device  domain.Device
}

// DeviceRegistry enforces the identity invariants: a device id maps to one
// current record, re-registration with the same key is idempotent, scheme
// transitions go weak to strong only, and a changed key under an unchanged
// scheme is a conflict the caller must see.
type DeviceRegistry struct {
	Devices DeviceRepository
	Audit   *AuditEmitter
	Clock   Clock
}

func NewDeviceRegistry(devices DeviceRepository, audit *AuditEmitter, clock Clock) *DeviceRegistry {
	return &DeviceRegistry{Devices: devices, Audit: audit, Clock: clock}
}

func (r *DeviceRegistry) Register(ctx context.Context, req RegisterDeviceRequest) (*RegisterDeviceResponse, error) {
	if req.DeviceID == "" || req.PublicKey == "" {
		return nil, fmt.Errorf("%w: device_id and public_key_material are required", domain.ErrInvalidEnvelope)
	}
	if !req.Scheme.Valid() {
		return nil, fmt.Errorf("%w: unknown crypto scheme %q", domain.ErrInvalidEnvelope, req.Scheme)
	}

	existing, err := r.Devices.GetByID(ctx, req.DeviceID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		device := domain.Device{
			DeviceID:     req.DeviceID,
			PublicKey:    req.PublicKey,
			Scheme:       req.Scheme,
			DeviceInfo:   req.DeviceInfo,
			RegisteredAt: r.now(),
		}
		if err := r.Devices.Create(ctx, device); err != nil {
			return nil, err
		}
		if err := r.Audit.EmitDeviceRegistered(ctx, device); err != nil {
			return nil, err
		}
		return &RegisterDeviceResponse{Outcome: domain.RegistrationCreated, Device: device}, nil
	}

	if existing.PublicKey == req.PublicKey {
		return &RegisterDeviceResponse{Outcome: domain.RegistrationNoop, Device: *existing}, nil
	}

	if existing.Scheme == domain.SchemeWeak && req.Scheme == domain.SchemeStrong {
		if err := r.Devices.ReplaceKey(ctx, req.DeviceID, req.PublicKey, domain.SchemeStrong); err != nil {
			return nil, err
		}
		if err := r.Audit.EmitDeviceCryptoUpgraded(ctx, req.DeviceID, existing.Scheme, req.Scheme); err != nil {
			return nil, err
		}
		upgraded := *existing
		upgraded.PublicKey = req.PublicKey
		upgraded.Scheme = domain.SchemeStrong
		return &RegisterDeviceResponse{Outcome: domain.RegistrationUpgraded, Device: upgraded}, nil
	}

	if existing.Scheme == domain.SchemeStrong && req.Scheme == domain.SchemeWeak {
		// Never silently weaken an established identity.
		return nil, domain.ErrDowngradeRejected
	}

	// Same scheme, different key: possible device-id collision or
	// key-substitution attempt.
	return nil, domain.ErrIdentityConflict
}

func (r *DeviceRegistry) Lookup(ctx context.Context, deviceID string) (*domain.Device, error) {
	if deviceID == "" {
		return nil, domain.ErrNotFound
	}
	return r.Devices.GetByID(ctx, deviceID)
}

func (r *DeviceRegistry) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock().UTC()
	}
	return time.Now().UTC()
}
