package db

import (
	"context"
	"errors"

	"custodia/internal/domain"

	"gorm.io/gorm"
)

type VerificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) Create(ctx context.Context, record domain.VerificationRecord) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := VerificationRecordModel{
		MediaID:      record.MediaID,
		DeviceID:     record.DeviceID,
		ComputedHash: record.ComputedHash,
		DeclaredHash: record.DeclaredHash,
		Outcome:      string(record.Outcome),
		CreatedAt:    record.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStorageErr("create verification record", err)
	}
	return nil
}

func (r *VerificationRepository) GetByMediaID(ctx context.Context, mediaID string) (*domain.VerificationRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model VerificationRecordModel
	err := r.db.WithContext(ctx).First(&model, "media_id = ?", mediaID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, wrapStorageErr("get verification record", err)
	}
	record := domain.VerificationRecord{
		MediaID:      model.MediaID,
		DeviceID:     model.DeviceID,
		ComputedHash: model.ComputedHash,
		DeclaredHash: model.DeclaredHash,
		Outcome:      domain.VerificationOutcome(model.Outcome),
		CreatedAt:    model.CreatedAt.UTC(),
	}
	return &record, nil
}
