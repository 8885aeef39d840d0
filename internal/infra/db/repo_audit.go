package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"custodia/internal/domain"
	cryptoinfra "custodia/internal/infra/crypto"
	"custodia/internal/usecase"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const chainHeadRow = "custody"

// AuditLedger is the Postgres-backed chain. Append runs the head-read +
// insert inside one transaction holding a FOR UPDATE lock on the chain head
// row, so concurrent appends serialize and the chain can never fork.
type AuditLedger struct {
	db *gorm.DB
}

func NewAuditLedger(db *gorm.DB) *AuditLedger {
	return &AuditLedger{db: db}
}

func (r *AuditLedger) Append(ctx context.Context, req usecase.AuditAppend) (domain.AuditEntry, error) {
	if r.db == nil {
		return domain.AuditEntry{}, errDBUnavailable
	}
	entry := domain.AuditEntry{
		ID:        uuid.NewString(),
		EventType: req.EventType,
		DeviceID:  req.DeviceID,
		MediaID:   req.MediaID,
		CreatedAt: req.CreatedAt,
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC().Truncate(time.Microsecond)

	dataJSON, dataHash, err := usecase.HashEventData(req.EventData)
	if err != nil {
		return domain.AuditEntry{}, err
	}
	entry.EventData = dataJSON
	entry.EventDataHash = dataHash

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, prevHash, err := lockNextSeq(ctx, tx)
		if err != nil {
			return err
		}
		entry.Seq = seq
		entry.PrevHash = prevHash

		entryHash, err := usecase.ComputeEntryHash(entry)
		if err != nil {
			return err
		}
		entry.EntryHash = entryHash

		model := auditEntryModelFromDomain(entry, dataJSON)
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.AuditEntry{}, wrapStorageErr("append audit entry", err)
	}
	return entry, nil
}

func (r *AuditLedger) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	q := r.db.WithContext(ctx).Model(&AuditEntryModel{}).Order("seq ASC")
	if filter.FromSeq > 0 {
		q = q.Where("seq >= ?", filter.FromSeq)
	}
	if filter.ToSeq > 0 {
		q = q.Where("seq <= ?", filter.ToSeq)
	}
	if filter.DeviceID != "" {
		q = q.Where("device_id = ?", filter.DeviceID)
	}
	if filter.MediaID != "" {
		q = q.Where("media_id = ?", filter.MediaID)
	}
	if filter.EventType != "" {
		q = q.Where("event_type = ?", string(filter.EventType))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var models []AuditEntryModel
	if err := q.Find(&models).Error; err != nil {
		return nil, wrapStorageErr("list audit entries", err)
	}
	out := make([]domain.AuditEntry, 0, len(models))
	for _, model := range models {
		canonical, err := cryptoinfra.CanonicalizeJSON(model.EventDataJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, auditEntryFromModel(model, canonical))
	}
	return out, nil
}

func (r *AuditLedger) Head(ctx context.Context) (int64, string, error) {
	if r.db == nil {
		return 0, "", errDBUnavailable
	}
	var head ChainHeadModel
	err := r.db.WithContext(ctx).First(&head, "name = ?", chainHeadRow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.GenesisHash, nil
		}
		return 0, "", wrapStorageErr("read chain head", err)
	}
	if head.Seq == 0 {
		return 0, domain.GenesisHash, nil
	}
	var last AuditEntryModel
	if err := r.db.WithContext(ctx).Where("seq = ?", head.Seq).Take(&last).Error; err != nil {
		return 0, "", wrapStorageErr("read chain head entry", err)
	}
	return head.Seq, last.EntryHash, nil
}

// lockNextSeq claims the next sequence number while holding the head row
// lock for the rest of the transaction.
func lockNextSeq(ctx context.Context, tx *gorm.DB) (int64, string, error) {
	if err := tx.WithContext(ctx).Exec(
		"INSERT INTO custody_chain_head (name, seq) VALUES (?, 0) ON CONFLICT (name) DO NOTHING",
		chainHeadRow,
	).Error; err != nil {
		return 0, "", err
	}

	var currentSeq int64
	if err := tx.WithContext(ctx).Raw(
		"SELECT seq FROM custody_chain_head WHERE name = ? FOR UPDATE",
		chainHeadRow,
	).Scan(&currentSeq).Error; err != nil {
		return 0, "", err
	}
	nextSeq := currentSeq + 1
	if err := tx.WithContext(ctx).Exec(
		"UPDATE custody_chain_head SET seq = ? WHERE name = ?",
		nextSeq,
		chainHeadRow,
	).Error; err != nil {
		return 0, "", err
	}

	prevHash := domain.GenesisHash
	if currentSeq > 0 {
		var prev AuditEntryModel
		if err := tx.WithContext(ctx).
			Where("seq = ?", currentSeq).
			Take(&prev).Error; err != nil {
			return 0, "", err
		}
		prevHash = prev.EntryHash
	}
	if prevHash == "" {
		return 0, "", fmt.Errorf("missing entry hash at seq %d", currentSeq)
	}
	return nextSeq, prevHash, nil
}

func auditEntryModelFromDomain(entry domain.AuditEntry, dataJSON []byte) AuditEntryModel {
	return AuditEntryModel{
		ID:            entry.ID,
		Seq:           entry.Seq,
		EventType:     string(entry.EventType),
		DeviceID:      stringPtrIfNotEmpty(entry.DeviceID),
		MediaID:       stringPtrIfNotEmpty(entry.MediaID),
		EventDataJSON: dataJSON,
		EventDataHash: entry.EventDataHash,
		PrevHash:      entry.PrevHash,
		EntryHash:     entry.EntryHash,
		CreatedAt:     entry.CreatedAt.UTC(),
	}
}

func auditEntryFromModel(model AuditEntryModel, dataJSON []byte) domain.AuditEntry {
	return domain.AuditEntry{
		ID:            model.ID,
		Seq:           model.Seq,
		EventType:     domain.AuditEventType(model.EventType),
		DeviceID:      stringValue(model.DeviceID),
		MediaID:       stringValue(model.MediaID),
		EventData:     dataJSON,
		EventDataHash: model.EventDataHash,
		PrevHash:      model.PrevHash,
		EntryHash:     model.EntryHash,
		CreatedAt:     model.CreatedAt.UTC(),
	}
}
