package domain

import "time"

const (
	ChainVersion = "custody_chain_v1"

	// GenesisHash is the prev_hash of the entry with seq 1.
	GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"
)

type AuditEventType string

const (
	AuditEventDeviceRegistered    AuditEventType = "device_registered"
	AuditEventDeviceCryptoUpgrade AuditEventType = "device_crypto_upgraded"
	AuditEventMediaUploaded       AuditEventType = "media_uploaded"
	AuditEventMediaVerified       AuditEventType = "media_verified"
	AuditEventAnnotationUpdated   AuditEventType = "annotation_updated"
	AuditEventReviewStatusChanged AuditEventType = "review_status_changed"
	AuditEventMediaDeleted        AuditEventType = "media_deleted"
)

func (t AuditEventType) Valid() bool {
	switch t {
	case AuditEventDeviceRegistered, AuditEventDeviceCryptoUpgrade,
		AuditEventMediaUploaded, AuditEventMediaVerified,
		AuditEventAnnotationUpdated, AuditEventReviewStatusChanged,
		AuditEventMediaDeleted:
		return true
	}
	return false
}

// AuditEntry is one committed link of the custody chain. Entries are created
// whole inside a single append and never updated or deleted afterwards.
type AuditEntry struct {
	ID            string
	Seq           int64
	EventType     AuditEventType
	DeviceID      string // subject device, may be empty
	MediaID       string // subject media, may be empty
	EventData     any    // event-type-specific fields; canonical JSON on read
	EventDataHash string
	PrevHash      string
	EntryHash     string
	CreatedAt     time.Time
}

// AuditFilter selects entries for a read. Zero values mean "no constraint";
// results are always ordered by seq ascending.
type AuditFilter struct {
	FromSeq   int64
	ToSeq     int64
	DeviceID  string
	MediaID   string
	EventType AuditEventType
	Limit     int
}

// ChainCheck is the result of an integrity scan. It is a report, not an
// error: a broken chain is surfaced to the caller and never auto-repaired.
type ChainCheck struct {
	Intact   bool
	BrokenAt int64 // first failing seq when !Intact
	Checked  int64 // number of entries scanned
	HeadSeq  int64 // snapshot upper bound of the scan
}
