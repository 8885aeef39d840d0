// Package devicemem holds the in-memory device and verification stores for
// no-db mode and tests.
package devicemem

import (
	"context"
	"sync"
	"time"

	"custodia/internal/domain"
)

type DeviceStore struct {
	mu      sync.RWMutex
	devices map[string]domain.Device
}

func NewDeviceStore() *DeviceStore {
	return &DeviceStore{devices: make(map[string]domain.Device)}
}

func (s *DeviceStore) GetByID(ctx context.Context, deviceID string) (*domain.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	device, ok := s.devices[deviceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := device
	return &out, nil
}

func (s *DeviceStore) Create(ctx context.Context, device domain.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[device.DeviceID]; ok {
		return domain.ErrIdentityConflict
	}
	s.devices[device.DeviceID] = device
	return nil
}

func (s *DeviceStore) ReplaceKey(ctx context.Context, deviceID, publicKey string, scheme domain.CryptoScheme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	device, ok := s.devices[deviceID]
	if !ok {
		return domain.ErrNotFound
	}
	device.PublicKey = publicKey
	device.Scheme = scheme
	s.devices[deviceID] = device
	return nil
}

func (s *DeviceStore) TouchLastUpload(ctx context.Context, deviceID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	device, ok := s.devices[deviceID]
	if !ok {
		return domain.ErrNotFound
	}
	t := at.UTC()
	device.LastUploadAt = &t
	s.devices[deviceID] = device
	return nil
}

type VerificationStore struct {
	mu      sync.RWMutex
	records map[string]domain.VerificationRecord
}

func NewVerificationStore() *VerificationStore {
	return &VerificationStore{records: make(map[string]domain.VerificationRecord)}
}

func (s *VerificationStore) Create(ctx context.Context, record domain.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.MediaID]; ok {
		return domain.ErrIdentityConflict
	}
	s.records[record.MediaID] = record
	return nil
}

func (s *VerificationStore) GetByMediaID(ctx context.Context, mediaID string) (*domain.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[mediaID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := record
	return &out, nil
}
