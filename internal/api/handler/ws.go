package handler

import (
	"net/http"
	"strings"

	"boting/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.Config.AllowAllOrigins() {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.Config.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	log.Warn().Str("module", "api").Str("origin", origin).Msg("websocket origin rejected")
	return false
}

// bearerToken returns the token from ?token= or an Authorization header.
func bearerToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}

// ServeWebSocket upgrades the request and hands the connection to the hub.
// A token is optional; without one the connection gets a fresh anonymous id.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	anonID := uuid.NewString()
	if tokenString := bearerToken(c); tokenString != "" {
		id, err := h.validateAndGetAnonID(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
			return
		}
		anonID = id
	}

	if h.Bans != nil {
		banned, err := h.Bans.IsUserBanned(anonID)
		if err != nil {
			log.Error().Err(err).Str("module", "api").Str("anon_id", anonID).Msg("ban lookup failed")
		}
		if banned {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "banned"})
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debug().Err(err).Str("module", "api").Msg("websocket upgrade failed")
		return
	}

	client := chathub.NewWebSocketClient(conn, h.Hub, anonID, chathub.ClientOptions{
		MaxMessageSize: h.Config.MaxMessageSize,
		SendBuffer:     h.Config.SendBuffer,
		RateLimit:      h.Config.RateLimit,
		RateBurst:      h.Config.RateBurst,
	})

	if err := h.Hub.Register(client); err != nil {
		conn.Close()
		return
	}
	client.Run()
}
