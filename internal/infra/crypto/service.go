package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
)

// Service implements the signature and hashing operations the verification
// engine needs. Upload signatures are ECDSA P-256 over SHA-256, public keys
// travel as base64-encoded PKIX DER.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) CanonicalizeAny(payload any) ([]byte, error) {
	return CanonicalizeAny(payload)
}

func (s *Service) HashBytes(input []byte) string {
	return SHA256Hex(input)
}

// ParsePublicKey decodes base64 PKIX DER key material into a P-256 key.
func ParsePublicKey(material string) (*ecdsa.PublicKey, error) {
	if material == "" {
		return nil, errors.New("public key material is required")
	}
	der, err := base64.StdEncoding.DecodeString(material)
	if err != nil {
		return nil, fmt.Errorf("invalid public key encoding: %w", err)
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not ECDSA")
	}
	if key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("unsupported curve: %s", key.Curve.Params().Name)
	}
	return key, nil
}

// EncodePublicKey is the inverse of ParsePublicKey.
func EncodePublicKey(key *ecdsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// VerifySignature checks an ASN.1 DER ECDSA signature (base64) over the
// SHA-256 digest of payload, using base64 PKIX key material.
func (s *Service) VerifySignature(payload []byte, signatureB64 string, keyMaterial string) error {
	if signatureB64 == "" {
		return errors.New("signature value is required")
	}
	key, err := ParsePublicKey(keyMaterial)
	if err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	digest := sha256.Sum256(payload)
	if !ecdsa.VerifyASN1(key, digest[:], sig) {
		return errors.New("signature verification failed")
	}
	return nil
}
