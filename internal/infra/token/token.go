// Package token issues and validates the opaque HMAC-signed tokens that
// gate media access. A token carries only a media id and an expiry; storage
// paths never appear in it. Validation reports a bare valid/invalid so
// callers cannot probe which check failed.
package token

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"custodia/internal/domain"
)

const secretSize = 32

// Service signs tokens with a single process-wide secret. When no secret is
// configured one is generated at construction, which invalidates all
// previously issued tokens on restart; that is the intended tradeoff, not
// a defect.
type Service struct {
	secret []byte
	now    func() time.Time
}

func NewService(secret []byte, now func() time.Time) (*Service, error) {
	if len(secret) == 0 {
		secret = make([]byte, secretSize)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
	}
	if now == nil {
		now = time.Now
	}
	return &Service{secret: secret, now: now}, nil
}

func (s *Service) Issue(mediaID string, ttl time.Duration) (string, error) {
	if mediaID == "" {
		return "", errors.New("media id is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}
	expiry := s.now().Add(ttl).Unix()
	mac := s.sign(mediaID, expiry)
	raw := mediaID + "\n" + strconv.FormatInt(expiry, 10) + "\n" + hex.EncodeToString(mac)
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

// Validate returns true only when every check passes: the token decodes,
// has not expired, its MAC matches under constant-time comparison, its
// media id equals expectedMediaID, and isMediaKnown reports the media as
// currently indexed. It never reveals which condition failed.
func (s *Service) Validate(ctx context.Context, encoded, expectedMediaID string, isMediaKnown func(context.Context, string) (bool, error)) bool {
	decoded, err := s.decode(encoded)
	if err != nil {
		return false
	}
	if !s.now().Before(decoded.ExpiresAt) {
		return false
	}
	if decoded.MediaID != expectedMediaID {
		return false
	}
	if isMediaKnown == nil {
		return false
	}
	known, err := isMediaKnown(ctx, decoded.MediaID)
	if err != nil || !known {
		return false
	}
	return true
}

func (s *Service) decode(encoded string) (domain.AccessToken, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return domain.AccessToken{}, err
	}
	parts := strings.Split(string(raw), "\n")
	if len(parts) != 3 {
		return domain.AccessToken{}, errors.New("malformed token")
	}
	mediaID := parts[0]
	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || mediaID == "" {
		return domain.AccessToken{}, errors.New("malformed token")
	}
	mac, err := hex.DecodeString(parts[2])
	if err != nil {
		return domain.AccessToken{}, errors.New("malformed token")
	}
	if !hmac.Equal(mac, s.sign(mediaID, expiry)) {
		return domain.AccessToken{}, errors.New("bad mac")
	}
	return domain.AccessToken{
		MediaID:   mediaID,
		ExpiresAt: time.Unix(expiry, 0),
	}, nil
}

func (s *Service) sign(mediaID string, expiry int64) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(mediaID))
	mac.Write([]byte(strconv.FormatInt(expiry, 10)))
	return mac.Sum(nil)
}
