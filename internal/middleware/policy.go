package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"one-ui-backend/internal/dto"
)

// securityPolicyTTL bounds how stale the cached security document may get:
// settings edits reach the middleware within this window without a restart.
const securityPolicyTTL = 15 * time.Second

// SecuritySource returns the current security settings document. Wired to
// the setting service.
type SecuritySource func(ctx context.Context) (*dto.SecuritySettings, error)

// SecurityPolicy serves the stored security settings to the hot request
// path. Reads hit a cache refreshed at most once per TTL; a failing store
// keeps the last good document, or the defaults before the first load.
type SecurityPolicy struct {
	source SecuritySource
	ttl    time.Duration

	mu      sync.Mutex
	cached  dto.SecuritySettings
	fetched time.Time
}

func NewSecurityPolicy(source SecuritySource) *SecurityPolicy {
	return &SecurityPolicy{source: source, ttl: securityPolicyTTL}
}

func (p *SecurityPolicy) Current() dto.SecuritySettings {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.fetched.IsZero() && time.Since(p.fetched) < p.ttl {
		return p.cached
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := p.source(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to refresh security settings, keeping previous policy")
		if p.fetched.IsZero() {
			p.cached = dto.DefaultSecurity()
		}
	} else {
		p.cached = *st
	}
	p.fetched = time.Now()
	return p.cached
}

// AllowOrigin implements the CORS origin check against the stored
// allowed_origins list. A "*" entry admits every origin.
func (p *SecurityPolicy) AllowOrigin(origin string) bool {
	for _, allowed := range p.Current().AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
