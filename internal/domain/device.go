package domain

import "time"

type CryptoScheme string

const (
	// SchemeStrong devices sign uploads with a hardware-backed ECDSA P-256
	// key; the server holds the public key and can verify every upload.
	SchemeStrong CryptoScheme = "strong"
	// SchemeWeak devices have no server-verifiable key material. Their
	// identity record carries a synthetic identity string and uploads from
	// them can never be cryptographically verified.
	SchemeWeak CryptoScheme = "weak"
)

func (s CryptoScheme) Valid() bool {
	return s == SchemeStrong || s == SchemeWeak
}

type Device struct {
	DeviceID     string
	PublicKey    string // base64 PKIX DER for strong devices, synthetic identity string for weak
	Scheme       CryptoScheme
	DeviceInfo   map[string]any
	RegisteredAt time.Time
	LastUploadAt *time.Time
}

type RegistrationOutcome string

const (
	RegistrationCreated  RegistrationOutcome = "created"
	RegistrationNoop     RegistrationOutcome = "idempotent_noop"
	RegistrationUpgraded RegistrationOutcome = "upgraded"
)
