package http

import (
	"net/http"
	"time"

	"custodia/internal/config"
	"custodia/internal/domain"
	"custodia/internal/infra/crypto"
	"custodia/internal/infra/db"
	"custodia/internal/infra/devicemem"
	"custodia/internal/infra/ledgermem"
	"custodia/internal/infra/mediaindex"
	"custodia/internal/infra/ratelimit"
	"custodia/internal/infra/token"
	"custodia/internal/logging"
	"custodia/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg config.Config
	r   *gin.Engine

	registry  *usecase.DeviceRegistry
	verifier  *usecase.UploadVerifier
	mutations *usecase.MediaMutations
	ledger    usecase.AuditLedger
	tokens    *token.Service
	index     usecase.MediaIndex

	adminAPIKey string

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

// ServerDeps carries pre-built collaborators; tests use it to run the full
// HTTP surface against in-memory stores.
type ServerDeps struct {
	Registry    *usecase.DeviceRegistry
	Verifier    *usecase.UploadVerifier
	Mutations   *usecase.MediaMutations
	Ledger      usecase.AuditLedger
	Tokens      *token.Service
	Index       usecase.MediaIndex
	AdminAPIKey string
	RateLimiter domain.RateLimiter
}

func NewServer(cfg config.Config, store *db.Store) (*Server, error) {
	deps, err := buildDeps(cfg, store)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, deps), nil
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:         cfg,
		r:           r,
		registry:    deps.Registry,
		verifier:    deps.Verifier,
		mutations:   deps.Mutations,
		ledger:      deps.Ledger,
		tokens:      deps.Tokens,
		index:       deps.Index,
		adminAPIKey: deps.AdminAPIKey,
	}
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func buildDeps(cfg config.Config, store *db.Store) (ServerDeps, error) {
	cryptoSvc := crypto.NewService()

	var (
		devices       usecase.DeviceRepository
		verifications usecase.VerificationRepository
		ledger        usecase.AuditLedger
	)
	if store != nil && store.DB != nil {
		devices = db.NewDeviceRepository(store.DB)
		verifications = db.NewVerificationRepository(store.DB)
		ledger = db.NewAuditLedger(store.DB)
	} else {
		devices = devicemem.NewDeviceStore()
		verifications = devicemem.NewVerificationStore()
		ledger = ledgermem.New()
	}

	var index usecase.MediaIndex
	if cfg.RedisAddr != "" {
		redisIndex, err := mediaindex.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			index = redisIndex
		} else {
			logging.L().Warnw("redis media index unavailable, falling back to memory", "err", err)
		}
	}
	if index == nil {
		index = mediaindex.NewMemory()
	}

	tokens, err := token.NewService(cfg.TokenSecret(), nil)
	if err != nil {
		return ServerDeps{}, err
	}

	emitter := usecase.NewAuditEmitter(ledger, nil)
	return ServerDeps{
		Registry: usecase.NewDeviceRegistry(devices, emitter, nil),
		Verifier: &usecase.UploadVerifier{
			Devices:       devices,
			Verifications: verifications,
			Index:         index,
			Audit:         emitter,
			Crypto:        cryptoSvc,
		},
		Mutations: &usecase.MediaMutations{
			Verifications: verifications,
			Index:         index,
			Audit:         emitter,
		},
		Ledger:      ledger,
		Tokens:      tokens,
		Index:       index,
		AdminAPIKey: cfg.AdminAPIKey,
	}, nil
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	if override != nil {
		s.rateLimiter = override
	}
	if s.rateLimiter == nil && s.cfg.RateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			if limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil); err == nil {
				s.rateLimiter = limiter
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
				MaxKeys: s.cfg.RateLimitMaxKeys,
			})
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.r.Group("/v1")
	{
		v1.POST("/devices", s.handleRegisterDevice)
		v1.GET("/devices/:device_id", s.handleLookupDevice)

		v1.POST("/uploads", s.handleUpload)
		v1.GET("/media/:media_id/verification", s.handleGetVerification)

		v1.POST("/media/:media_id/annotation", s.handleUpdateAnnotation)
		v1.POST("/media/:media_id/review", s.handleChangeReviewStatus)
		v1.DELETE("/media/:media_id", s.handleDeleteMedia)

		v1.GET("/audit", s.handleReadAudit)
		v1.GET("/audit/integrity", s.handleVerifyChain)

		v1.POST("/tokens", s.handleIssueToken)
		v1.POST("/tokens/validate", s.handleValidateToken)
	}

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.r
}
