// Package middleware carries the gin middleware for authentication and
// rate limiting.
package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"one-ui-backend/config"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/service"
	"one-ui-backend/internal/telegram"
)

const bootstrapActor = "bootstrap"

// securityAlertCooldown keeps a burst of failed logins from flooding the
// notification channel.
const securityAlertCooldown = 5 * time.Minute

var lastSecurityAlert atomic.Int64

// Auth authenticates every request with a bearer token. The bootstrap key
// from the environment acts as a built-in admin credential so the first API
// key can be created; all other tokens resolve through the key service.
// EventSource clients cannot set headers, so a token query parameter is
// accepted as a fallback.
func Auth(cfg *config.Config, keys service.APIKeyService, recorder service.AuditRecorder, notifier telegram.Notifier, policy *SecurityPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		token := bearerToken(c)
		if token == "" {
			deny(c, recorder, notifier, policy, requestID, "missing credentials")
			return
		}

		if bootstrap := cfg.Security.BootstrapKey; bootstrap != "" &&
			subtle.ConstantTimeCompare([]byte(token), []byte(bootstrap)) == 1 {
			install(c, model.Actor{
				Name:      bootstrapActor,
				IP:        c.ClientIP(),
				Scope:     service.ScopeAdmin,
				RequestID: requestID,
			})
			return
		}

		key, err := keys.Authenticate(c.Request.Context(), token)
		if err != nil {
			reason := "invalid token"
			switch {
			case errors.Is(err, service.ErrKeyRevoked):
				reason = "revoked key"
			case errors.Is(err, service.ErrKeyExpired):
				reason = "expired key"
			case !errors.Is(err, service.ErrInvalidToken):
				log.Error().Err(err).Msg("Key lookup failed during authentication")
				c.AbortWithStatusJSON(http.StatusInternalServerError, model.NewResponse("authentication unavailable", nil))
				return
			}
			deny(c, recorder, notifier, policy, requestID, reason)
			return
		}

		install(c, model.Actor{
			Name:      key.Name,
			IP:        c.ClientIP(),
			Scope:     key.Scope,
			RequestID: requestID,
		})
	}
}

// RequireAdmin rejects readonly keys on mutating routes.
func RequireAdmin(recorder service.AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := model.ActorFromContext(c.Request.Context())
		if actor.Scope != service.ScopeAdmin {
			recorder.Record(model.AuditEvent{
				Category:  model.AuditCategoryAuth,
				Action:    "auth.forbidden",
				Actor:     actor.Name,
				ActorIP:   actor.IP,
				Target:    c.Request.Method + " " + c.FullPath(),
				Status:    model.AuditStatusDenied,
				Detail:    "admin scope required",
				RequestID: actor.RequestID,
			})
			c.AbortWithStatusJSON(http.StatusForbidden, model.NewResponse("admin scope required", nil))
			return
		}
		c.Next()
	}
}

func install(c *gin.Context, actor model.Actor) {
	ctx := model.WithActor(c.Request.Context(), actor)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

func deny(c *gin.Context, recorder service.AuditRecorder, notifier telegram.Notifier, policy *SecurityPolicy, requestID, reason string) {
	clientIP := c.ClientIP()
	recorder.Record(model.AuditEvent{
		Category:  model.AuditCategoryAuth,
		Action:    "auth.denied",
		Actor:     "unknown",
		ActorIP:   clientIP,
		Target:    c.Request.Method + " " + c.FullPath(),
		Status:    model.AuditStatusDenied,
		Detail:    reason,
		RequestID: requestID,
	})
	alertSecurity(c, notifier, policy, clientIP, reason)
	c.AbortWithStatusJSON(http.StatusUnauthorized, model.NewResponse("unauthorized", nil))
}

func alertSecurity(c *gin.Context, notifier telegram.Notifier, policy *SecurityPolicy, clientIP, reason string) {
	if !policy.Current().AlertOnAuthFail {
		return
	}
	now := time.Now().Unix()
	last := lastSecurityAlert.Load()
	if now-last < int64(securityAlertCooldown.Seconds()) || !lastSecurityAlert.CompareAndSwap(last, now) {
		return
	}
	path := c.Request.URL.Path
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		text := "One-UI: rejected request from " + clientIP + " on " + path + " (" + reason + ")"
		if err := notifier.NotifySecurity(ctx, text); err != nil {
			log.Warn().Err(err).Msg("Failed to send security alert")
		}
	}()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(c.Query("token"))
}
