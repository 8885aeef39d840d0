package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"custodia/internal/domain"
	"custodia/internal/usecase"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type registerDeviceRequest struct {
	DeviceID   string         `json:"device_id"`
	PublicKey  string         `json:"public_key_material"`
	Scheme     string         `json:"crypto_scheme"`
	DeviceInfo map[string]any `json:"device_info,omitempty"`
}

type registerDeviceResponse struct {
	Outcome string         `json:"outcome"`
	Device  deviceResponse `json:"device"`
}

type deviceResponse struct {
	DeviceID     string `json:"device_id"`
	PublicKey    string `json:"public_key_material"`
	Scheme       string `json:"crypto_scheme"`
	RegisteredAt string `json:"registered_at"`
	LastUploadAt string `json:"last_upload_at,omitempty"`
}

type uploadRequest struct {
	FileBase64 string                `json:"file_base64"`
	Envelope   domain.UploadEnvelope `json:"envelope"`
}

type uploadResponse struct {
	MediaID string                 `json:"media_id"`
	Outcome string                 `json:"outcome"`
	Record  verificationResponse   `json:"verification_record"`
}

type verificationResponse struct {
	MediaID      string `json:"media_id"`
	DeviceID     string `json:"device_id"`
	ComputedHash string `json:"computed_hash"`
	DeclaredHash string `json:"declared_hash"`
	Outcome      string `json:"outcome"`
	CreatedAt    string `json:"created_at"`
}

type annotationRequest struct {
	Actor      string         `json:"actor,omitempty"`
	Annotation map[string]any `json:"annotation"`
}

type reviewRequest struct {
	Actor          string `json:"actor,omitempty"`
	PreviousStatus string `json:"previous_status,omitempty"`
	NewStatus      string `json:"new_status"`
}

type deleteRequest struct {
	Actor  string `json:"actor,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type auditEntryResponse struct {
	Seq           int64           `json:"sequence_number"`
	EventType     string          `json:"event_type"`
	DeviceID      string          `json:"device_id,omitempty"`
	MediaID       string          `json:"media_id,omitempty"`
	EventData     map[string]any  `json:"event_data"`
	EventDataHash string          `json:"event_data_hash"`
	PrevHash      string          `json:"previous_hash"`
	EntryHash     string          `json:"entry_hash"`
	CreatedAt     string          `json:"created_at"`
}

type chainCheckResponse struct {
	Status   string `json:"status"` // "intact" or "broken"
	BrokenAt int64  `json:"broken_at,omitempty"`
	Checked  int64  `json:"entries_checked"`
	HeadSeq  int64  `json:"head_sequence"`
}

type issueTokenRequest struct {
	MediaID    string `json:"media_id"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

type issueTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

type validateTokenRequest struct {
	Token   string `json:"token"`
	MediaID string `json:"media_id"`
}

type validateTokenResponse struct {
	Result string `json:"result"` // "valid" or "invalid"
}

func (s *Server) handleRegisterDevice(c *gin.Context) {
	if !s.enforceRateLimit(c, "devices:register") {
		return
	}
	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	resp, err := s.registry.Register(c.Request.Context(), usecase.RegisterDeviceRequest{
		DeviceID:   req.DeviceID,
		PublicKey:  req.PublicKey,
		Scheme:     domain.CryptoScheme(req.Scheme),
		DeviceInfo: req.DeviceInfo,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if resp.Outcome == domain.RegistrationCreated {
		status = http.StatusCreated
	}
	c.JSON(status, registerDeviceResponse{
		Outcome: string(resp.Outcome),
		Device:  buildDeviceResponse(resp.Device),
	})
}

func (s *Server) handleLookupDevice(c *gin.Context) {
	device, err := s.registry.Lookup(c.Request.Context(), c.Param("device_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildDeviceResponse(*device))
}

func (s *Server) handleUpload(c *gin.Context) {
	if !s.enforceRateLimit(c, "uploads:create") {
		return
	}
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	fileBytes, err := base64.StdEncoding.DecodeString(req.FileBase64)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_FILE_ENCODING", "invalid file encoding")
		return
	}
	resp, err := s.verifier.Execute(c.Request.Context(), usecase.VerifyUploadRequest{
		FileBytes: fileBytes,
		Envelope:  req.Envelope,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, uploadResponse{
		MediaID: resp.MediaID,
		Outcome: string(resp.Outcome),
		Record:  buildVerificationResponse(resp.Record),
	})
}

func (s *Server) handleGetVerification(c *gin.Context) {
	record, err := s.verifier.Verifications.GetByMediaID(c.Request.Context(), c.Param("media_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildVerificationResponse(*record))
}

func (s *Server) handleUpdateAnnotation(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req annotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	err := s.mutations.UpdateAnnotation(c.Request.Context(), c.Param("media_id"), req.Actor, req.Annotation)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

func (s *Server) handleChangeReviewStatus(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	err := s.mutations.ChangeReviewStatus(c.Request.Context(), c.Param("media_id"), req.Actor, req.PreviousStatus, req.NewStatus)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

func (s *Server) handleDeleteMedia(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req deleteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
			return
		}
	}
	err := s.mutations.DeleteMedia(c.Request.Context(), c.Param("media_id"), req.Actor, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

func (s *Server) handleReadAudit(c *gin.Context) {
	filter := domain.AuditFilter{
		DeviceID:  c.Query("device_id"),
		MediaID:   c.Query("media_id"),
		EventType: domain.AuditEventType(c.Query("event_type")),
	}
	var err error
	if filter.FromSeq, err = parseSeqParam(c.Query("from")); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_SEQUENCE", "invalid from sequence")
		return
	}
	if filter.ToSeq, err = parseSeqParam(c.Query("to")); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_SEQUENCE", "invalid to sequence")
		return
	}
	if limit := c.Query("limit"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil || parsed < 0 {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_SEQUENCE", "invalid limit")
			return
		}
		filter.Limit = parsed
	}
	if filter.EventType != "" && !filter.EventType.Valid() {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_EVENT_TYPE", "unknown event type")
		return
	}

	entries, err := s.ledger.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]auditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp, err := buildAuditEntryResponse(entry)
		if err != nil {
			writeError(c, err)
			return
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

func (s *Server) handleVerifyChain(c *gin.Context) {
	from, err := parseSeqParam(c.Query("from"))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_SEQUENCE", "invalid from sequence")
		return
	}
	to, err := parseSeqParam(c.Query("to"))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_SEQUENCE", "invalid to sequence")
		return
	}
	check, err := usecase.VerifyChain(c.Request.Context(), s.ledger, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := chainCheckResponse{
		Status:  "intact",
		Checked: check.Checked,
		HeadSeq: check.HeadSeq,
	}
	if !check.Intact {
		resp.Status = "broken"
		resp.BrokenAt = check.BrokenAt
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleIssueToken(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	ttl := s.cfg.TokenDefaultTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	known, err := s.index.IsKnown(c.Request.Context(), req.MediaID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !known {
		writeError(c, domain.ErrNotFound)
		return
	}
	tok, err := s.tokens.Issue(req.MediaID, ttl)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_TOKEN_REQUEST", "cannot issue token")
		return
	}
	c.JSON(http.StatusOK, issueTokenResponse{
		Token:     tok,
		ExpiresIn: int(ttl / time.Second),
	})
}

func (s *Server) handleValidateToken(c *gin.Context) {
	var req validateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	result := "invalid"
	if s.tokens.Validate(c.Request.Context(), req.Token, req.MediaID, s.index.IsKnown) {
		result = "valid"
	}
	c.JSON(http.StatusOK, validateTokenResponse{Result: result})
}

func buildDeviceResponse(device domain.Device) deviceResponse {
	out := deviceResponse{
		DeviceID:     device.DeviceID,
		PublicKey:    device.PublicKey,
		Scheme:       string(device.Scheme),
		RegisteredAt: device.RegisteredAt.UTC().Format(time.RFC3339),
	}
	if device.LastUploadAt != nil {
		out.LastUploadAt = device.LastUploadAt.UTC().Format(time.RFC3339)
	}
	return out
}

func buildVerificationResponse(record domain.VerificationRecord) verificationResponse {
	return verificationResponse{
		MediaID:      record.MediaID,
		DeviceID:     record.DeviceID,
		ComputedHash: record.ComputedHash,
		DeclaredHash: record.DeclaredHash,
		Outcome:      string(record.Outcome),
		CreatedAt:    record.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func buildAuditEntryResponse(entry domain.AuditEntry) (auditEntryResponse, error) {
	data, err := decodeEventData(entry.EventData)
	if err != nil {
		return auditEntryResponse{}, err
	}
	return auditEntryResponse{
		Seq:           entry.Seq,
		EventType:     string(entry.EventType),
		DeviceID:      entry.DeviceID,
		MediaID:       entry.MediaID,
		EventData:     data,
		EventDataHash: entry.EventDataHash,
		PrevHash:      entry.PrevHash,
		EntryHash:     entry.EntryHash,
		CreatedAt:     entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func decodeEventData(data any) (map[string]any, error) {
	switch v := data.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case []byte:
		out := map[string]any{}
		if err := json.Unmarshal(v, &out); err != nil {
			return nil, err
		}
		return out, nil
	case json.RawMessage:
		out := map[string]any{}
		if err := json.Unmarshal(v, &out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, errors.New("unsupported event data representation")
	}
}

func parseSeqParam(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed < 0 {
		return 0, errors.New("invalid sequence")
	}
	return parsed, nil
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidEnvelope):
		status, code = http.StatusBadRequest, "INVALID_ENVELOPE"
	case errors.Is(err, domain.ErrInvalidEventType):
		status, code = http.StatusBadRequest, "INVALID_EVENT_TYPE"
	case errors.Is(err, domain.ErrUnregisteredDevice):
		status, code = http.StatusNotFound, "UNREGISTERED_DEVICE"
	case errors.Is(err, domain.ErrIdentityConflict):
		status, code = http.StatusConflict, "IDENTITY_CONFLICT"
	case errors.Is(err, domain.ErrDowngradeRejected):
		status, code = http.StatusConflict, "DOWNGRADE_REJECTED"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrStorageUnavailable):
		status, code = http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
