package domain

import "time"

// VerificationOutcome values are stable strings rendered directly by UIs.
type VerificationOutcome string

const (
	OutcomeVerified           VerificationOutcome = "verified"
	OutcomeUnverified         VerificationOutcome = "unverified"
	OutcomeHashMismatch       VerificationOutcome = "hash_mismatch"
	OutcomeSignatureInvalid   VerificationOutcome = "signature_invalid"
	OutcomeUnregisteredDevice VerificationOutcome = "unregistered_device"
)

type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// UploadEnvelope is the signed metadata a device submits alongside the raw
// media bytes. It is consumed during verification and never persisted
// verbatim. The signature covers the canonical form of the envelope core
// (device id, declared hash, timestamp, media type, geolocation, tags), so
// a valid signature cannot be replayed onto different metadata.
type UploadEnvelope struct {
	DeviceID     string       `json:"device_id"`
	DeclaredHash string       `json:"declared_hash"`
	Timestamp    time.Time    `json:"timestamp"`
	Geolocation  *Geolocation `json:"geolocation,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	MediaType    string       `json:"media_type"`
	PublicKey    string       `json:"public_key"`
	Signature    string       `json:"signature"` // base64 ASN.1 DER
}

// VerificationRecord is the immutable per-upload verdict.
type VerificationRecord struct {
	MediaID      string
	DeviceID     string
	ComputedHash string
	DeclaredHash string
	Outcome      VerificationOutcome
	CreatedAt    time.Time
}
