package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"custodia/internal/domain"

	"gorm.io/gorm"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) GetByID(ctx context.Context, deviceID string) (*domain.Device, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model DeviceModel
	err := r.db.WithContext(ctx).First(&model, "device_id = ?", deviceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, wrapStorageErr("get device", err)
	}
	device, err := deviceFromModel(model)
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *DeviceRepository) Create(ctx context.Context, device domain.Device) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model, err := deviceModelFromDomain(device)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStorageErr("create device", err)
	}
	return nil
}

func (r *DeviceRepository) ReplaceKey(ctx context.Context, deviceID, publicKey string, scheme domain.CryptoScheme) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&DeviceModel{}).
		Where("device_id = ?", deviceID).
		Updates(map[string]any{
			"public_key_material": publicKey,
			"scheme":              string(scheme),
		})
	if res.Error != nil {
		return wrapStorageErr("replace device key", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DeviceRepository) TouchLastUpload(ctx context.Context, deviceID string, at time.Time) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).Model(&DeviceModel{}).
		Where("device_id = ?", deviceID).
		Update("last_upload_at", at.UTC())
	if res.Error != nil {
		return wrapStorageErr("touch last upload", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func deviceModelFromDomain(device domain.Device) (DeviceModel, error) {
	var infoJSON []byte
	if device.DeviceInfo != nil {
		encoded, err := json.Marshal(device.DeviceInfo)
		if err != nil {
			return DeviceModel{}, err
		}
		infoJSON = encoded
	}
	return DeviceModel{
		DeviceID:       device.DeviceID,
		PublicKey:      device.PublicKey,
		Scheme:         string(device.Scheme),
		DeviceInfoJSON: infoJSON,
		RegisteredAt:   device.RegisteredAt.UTC(),
		LastUploadAt:   device.LastUploadAt,
	}, nil
}

func deviceFromModel(model DeviceModel) (domain.Device, error) {
	var info map[string]any
	if len(model.DeviceInfoJSON) > 0 {
		if err := json.Unmarshal(model.DeviceInfoJSON, &info); err != nil {
			return domain.Device{}, err
		}
	}
	return domain.Device{
		DeviceID:     model.DeviceID,
		PublicKey:    model.PublicKey,
		Scheme:       domain.CryptoScheme(model.Scheme),
		DeviceInfo:   info,
		RegisteredAt: model.RegisteredAt.UTC(),
		LastUploadAt: model.LastUploadAt,
	}, nil
}
