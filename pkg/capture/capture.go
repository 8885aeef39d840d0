// Package capture is the device-side counterpart of the upload verification
// engine: key generation, envelope construction and signing for capture
// hardware and for tests that need realistic signed uploads.
package capture

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"custodia/internal/domain"
	cryptoinfra "custodia/internal/infra/crypto"
)

// GenerateKey creates a fresh P-256 keypair and the base64 PKIX DER
// encoding of its public half, ready for device registration.
func GenerateKey() (*ecdsa.PrivateKey, string, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, "", err
	}
	material, err := cryptoinfra.EncodePublicKey(&key.PublicKey)
	if err != nil {
		return nil, "", err
	}
	return key, material, nil
}

// EnvelopeInput holds the metadata a device attaches to one upload.
type EnvelopeInput struct {
	DeviceID    string
	Timestamp   time.Time
	Geolocation *domain.Geolocation
	Tags        []string
	MediaType   string
}

// BuildEnvelope hashes the media bytes, assembles the envelope core and
// signs its canonical form with the device key. The result is ready to
// submit alongside the raw bytes.
func BuildEnvelope(fileBytes []byte, in EnvelopeInput, key *ecdsa.PrivateKey) (domain.UploadEnvelope, error) {
	if in.DeviceID == "" {
		return domain.UploadEnvelope{}, errors.New("device id is required")
	}
	if key == nil {
		return domain.UploadEnvelope{}, errors.New("private key is required")
	}
	material, err := cryptoinfra.EncodePublicKey(&key.PublicKey)
	if err != nil {
		return domain.UploadEnvelope{}, err
	}

	env := domain.UploadEnvelope{
		DeviceID:     in.DeviceID,
		DeclaredHash: cryptoinfra.SHA256Hex(fileBytes),
		Timestamp:    in.Timestamp.UTC(),
		Geolocation:  in.Geolocation,
		Tags:         in.Tags,
		MediaType:    in.MediaType,
		PublicKey:    material,
	}
	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now().UTC()
	}

	sig, err := Sign(env, key)
	if err != nil {
		return domain.UploadEnvelope{}, err
	}
	env.Signature = sig
	return env, nil
}

// Sign produces the base64 ASN.1 DER ECDSA signature over the envelope
// core. The envelope's Signature field is ignored as input.
func Sign(env domain.UploadEnvelope, key *ecdsa.PrivateKey) (string, error) {
	payload, err := cryptoinfra.EnvelopePayload(env)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(payload)
	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}
