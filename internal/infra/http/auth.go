package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// requireAdmin gates mutation and token-issue endpoints behind the shared
// admin key. When no key is configured the endpoints are open, which is the
// intended posture for local development and tests.
func (s *Server) requireAdmin(c *gin.Context) bool {
	if s.adminAPIKey == "" {
		return true
	}
	key := strings.TrimSpace(c.GetHeader("X-Admin-Key"))
	if key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) == 1 {
		return true
	}
	writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "admin key required")
	return false
}
