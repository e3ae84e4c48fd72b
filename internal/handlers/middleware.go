package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/atharvakonge/cash-or-crash/internal/logger"
	"github.com/atharvakonge/cash-or-crash/internal/session"
)

const sessionKey = "session"

// LoadSession reads the session cookie once per request.
func (h *Handler) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessionKey, h.sessions.Read(c))
		c.Next()
	}
}

func currentSession(c *gin.Context) session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(session.Session); ok {
			return s
		}
	}
	return session.Session{}
}

// RequireAdmin rejects callers without the admin flag.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentSession(c).IsAdmin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Admin authentication required"})
			return
		}
		c.Next()
	}
}

// RequireTeamAccess lets the admin and the team named by the :param path
// segment through.
func RequireTeamAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		teamID, err := idParam(c, param)
		if err != nil {
			respondError(c, err, "")
			c.Abort()
			return
		}
		if !currentSession(c).CanAccessTeam(teamID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		c.Next()
	}
}

// RequestLogger logs every /api request once it has been served.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if s := currentSession(c); s.HasTeam() {
			fields = append(fields, zap.Int64("team_id", s.TeamID))
		}
		logger.WithRequest(c.Request.Method, c.Request.URL.Path).Info("request", fields...)
	}
}

// CORS allows every origin outside production; in production only the
// listed origins are allowed and an empty list denies cross-origin calls.
// Same-origin requests always pass. market.OriginChecker applies the same
// rules to the WebSocket feed.
func CORS(production bool, allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if production {
		if len(allowedOrigins) == 0 {
			cfg.AllowOriginFunc = func(string) bool { return false }
		} else {
			cfg.AllowOrigins = allowedOrigins
		}
	} else {
		cfg.AllowOriginFunc = func(string) bool { return true }
	}
	cfg.AddAllowHeaders("Authorization")
	cfg.AddExposeHeaders("Content-Length", "Content-Disposition")
	cfg.AllowCredentials = true
	return cors.New(cfg)
}

// RateLimiter is a Redis fixed-window counter keyed by client IP.
type RateLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, prefix string, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Middleware counts the request and rejects it once the window is full.
// Redis failures let the request through.
func (rl *RateLimiter) Middleware(c *gin.Context) {
	ctx := c.Request.Context()
	key := fmt.Sprintf("cashorcrash:ratelimit:%s:%s", rl.prefix, c.ClientIP())

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		logger.L().Warn("rate limiter unavailable", zap.Error(err))
		c.Next()
		return
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, key, rl.window).Err(); err != nil {
			logger.L().Warn("rate limiter expire failed", zap.String("key", key), zap.Error(err))
		}
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"message": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}
	c.Next()
}
