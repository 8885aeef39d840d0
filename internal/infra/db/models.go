package db

import "time"

type DeviceModel struct {
	DeviceID       string    `gorm:"primaryKey"`
	PublicKey      string    `gorm:"column:public_key_material;not null"`
	Scheme         string    `gorm:"not null"`
	DeviceInfoJSON []byte    `gorm:"type:jsonb"`
	RegisteredAt   time.Time `gorm:"not null"`
	LastUploadAt   *time.Time
}

func (DeviceModel) TableName() string {
	return "devices"
}

type VerificationRecordModel struct {
	MediaID      string    `gorm:"type:uuid;primaryKey"`
	DeviceID     string    `gorm:"index;not null"`
	ComputedHash string    `gorm:"not null"`
	DeclaredHash string    `gorm:"not null"`
	Outcome      string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (VerificationRecordModel) TableName() string {
	return "verification_records"
}

type AuditEntryModel struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	Seq           int64     `gorm:"uniqueIndex;not null"`
	EventType     string    `gorm:"column:event_type;index;not null"`
	DeviceID      *string   `gorm:"index"`
	MediaID       *string   `gorm:"index"`
	EventDataJSON []byte    `gorm:"type:jsonb;not null"`
	EventDataHash string    `gorm:"not null"`
	PrevHash      string    `gorm:"not null"`
	EntryHash     string    `gorm:"not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
}

func (AuditEntryModel) TableName() string {
	return "audit_entries"
}

// ChainHeadModel is the single-row owner of the chain head. Appends lock it
// FOR UPDATE, which serializes the head-read + insert sequence.
type ChainHeadModel struct {
	Name string `gorm:"primaryKey"`
	Seq  int64  `gorm:"not null"`
}

func (ChainHeadModel) TableName() string {
	return "custody_chain_head"
}
