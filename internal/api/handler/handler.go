package handler

import (
	"net/http"
	"time"

	"boting/backend/internal/chathub"
	"boting/backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// BanChecker reports whether an anonymous id may connect.
type BanChecker interface {
	IsUserBanned(anonID string) (bool, error)
}

// Handler holds the hub and everything the HTTP surface needs.
type Handler struct {
	Hub    *chathub.ManagerService
	Config *config.Config
	Bans   BanChecker

	jwtSecret []byte
	startedAt time.Time
	upgrader  websocket.Upgrader
}

// NewHandler builds the HTTP surface. bans may be nil.
func NewHandler(hub *chathub.ManagerService, cfg *config.Config, bans BanChecker) *Handler {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn().Str("module", "api").Msg("JWT_SECRET not set, issued tokens will not survive a restart")
	}
	h := &Handler{
		Hub:       hub,
		Config:    cfg,
		Bans:      bans,
		jwtSecret: []byte(secret),
		startedAt: time.Now(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Banner)
	r.GET("/health", h.Health)
	r.GET("/stats", h.Stats)
	r.GET("/anonid", h.GetAnonID)
	r.GET("/ws", h.ServeWebSocket)
}

// NewRouter returns a gin engine with recovery, request logging and all routes.
func (h *Handler) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	h.RegisterRoutes(r)
	return r
}

// Banner answers GET /.
func (h *Handler) Banner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   config.ServiceName + " is running",
		"version":   config.ServiceVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Health answers GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "OK",
		"uptime": time.Since(h.startedAt).Seconds(),
	})
}

// Stats answers GET /stats with counters read on the hub goroutine.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.Hub.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
