package crypto

import (
	"strings"
	"time"

	"custodia/internal/domain"
)

const envelopePayloadVersion = "custody_upload_v1"

// EnvelopePayload builds the exact bytes an upload signature covers: the
// canonical JSON of the envelope core fields. Devices and the server must
// produce the same bytes, so the construction lives here and both sides
// call it.
func EnvelopePayload(env domain.UploadEnvelope) ([]byte, error) {
	core := map[string]any{
		"v":             envelopePayloadVersion,
		"device_id":     env.DeviceID,
		"declared_hash": strings.ToLower(env.DeclaredHash),
		"media_type":    env.MediaType,
		"timestamp":     env.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if env.Geolocation != nil {
		core["geolocation"] = map[string]any{
			"latitude":  env.Geolocation.Latitude,
			"longitude": env.Geolocation.Longitude,
			"accuracy":  env.Geolocation.Accuracy,
		}
	}
	if len(env.Tags) > 0 {
		core["tags"] = env.Tags
	}
	return CanonicalizeAny(core)
}

func (s *Service) EnvelopePayload(env domain.UploadEnvelope) ([]byte, error) {
	return EnvelopePayload(env)
}
