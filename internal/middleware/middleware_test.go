package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"one-ui-backend/config"
	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/service"
)

// fixedPolicy builds a policy that re-reads the given document on every
// request, the way a live policy does once its cache expires.
func fixedPolicy(st *dto.SecuritySettings) *SecurityPolicy {
	return &SecurityPolicy{source: func(context.Context) (*dto.SecuritySettings, error) {
		copied := *st
		return &copied, nil
	}}
}

type recorderStub struct{}

func (recorderStub) Record(model.AuditEvent) {}
func (recorderStub) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	<-ctx.Done()
}

type notifierSpy struct {
	mu    sync.Mutex
	texts []string
}

func (n *notifierSpy) NotifyBackup(context.Context, string, string) error { return nil }
func (n *notifierSpy) NotifyXray(context.Context, string) error           { return nil }

func (n *notifierSpy) NotifySecurity(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return nil
}

func (n *notifierSpy) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.texts)
}

type staticKeyService struct{}

func (staticKeyService) Create(context.Context, dto.APIKeyCreateRequest) (*dto.APIKeyCreateResponse, error) {
	return nil, nil
}
func (staticKeyService) List(context.Context) ([]model.APIKey, error) { return nil, nil }
func (staticKeyService) Revoke(context.Context, string) error         { return nil }
func (staticKeyService) Authenticate(context.Context, string) (*model.APIKey, error) {
	return &model.APIKey{Name: "tester", Scope: service.ScopeReadonly}, nil
}

func rateLimitRouter(policy *SecurityPolicy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(policy))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func doGet(r *gin.Engine, token string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitUnauthenticatedBucketIsTighter(t *testing.T) {
	st := dto.DefaultSecurity()
	st.RateLimitPerMin = 600
	st.AuthRateLimit = 1
	r := rateLimitRouter(fixedPolicy(&st))

	assert.Equal(t, http.StatusOK, doGet(r, ""))
	assert.Equal(t, http.StatusTooManyRequests, doGet(r, ""), "anonymous bucket exhausts after its burst")

	// Requests that carry a credential use the wider bucket.
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, doGet(r, "ouk_ab_cd"))
	}
}

func TestRateLimitAppliesStoredLimitChanges(t *testing.T) {
	st := dto.DefaultSecurity()
	st.AuthRateLimit = 1
	r := rateLimitRouter(fixedPolicy(&st))

	assert.Equal(t, http.StatusOK, doGet(r, ""))
	assert.Equal(t, http.StatusTooManyRequests, doGet(r, ""))

	// Raising the stored limit replaces the exhausted bucket.
	st.AuthRateLimit = 6000
	assert.Equal(t, http.StatusOK, doGet(r, ""))
}

func TestRateLimitDisabledWhenNonPositive(t *testing.T) {
	st := dto.DefaultSecurity()
	st.AuthRateLimit = 0
	r := rateLimitRouter(fixedPolicy(&st))

	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusOK, doGet(r, ""))
	}
}

func TestAllowOrigin(t *testing.T) {
	st := dto.DefaultSecurity()
	st.AllowedOrigins = []string{"https://panel.example.com"}
	policy := fixedPolicy(&st)

	assert.True(t, policy.AllowOrigin("https://panel.example.com"))
	assert.True(t, policy.AllowOrigin("HTTPS://PANEL.EXAMPLE.COM"))
	assert.False(t, policy.AllowOrigin("https://evil.example.com"))

	st.AllowedOrigins = []string{"*"}
	assert.True(t, policy.AllowOrigin("https://anything.example.com"))
}

func TestSecurityPolicyKeepsLastGoodDocument(t *testing.T) {
	calls := 0
	policy := &SecurityPolicy{source: func(context.Context) (*dto.SecuritySettings, error) {
		calls++
		if calls == 1 {
			st := dto.DefaultSecurity()
			st.RateLimitPerMin = 42
			return &st, nil
		}
		return nil, assert.AnError
	}}

	assert.Equal(t, 42, policy.Current().RateLimitPerMin)
	assert.Equal(t, 42, policy.Current().RateLimitPerMin, "a failing store keeps the previous policy")
}

func authRouter(notifier *notifierSpy, policy *SecurityPolicy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(&config.Config{}, staticKeyService{}, recorderStub{}, notifier, policy))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestAuthFailureAlertToggle(t *testing.T) {
	st := dto.DefaultSecurity()
	st.AlertOnAuthFail = false
	notifier := &notifierSpy{}
	r := authRouter(notifier, fixedPolicy(&st))

	lastSecurityAlert.Store(0)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, ""))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, notifier.count(), "alerts are off in the security settings")

	st.AlertOnAuthFail = true
	assert.Equal(t, http.StatusUnauthorized, doGet(r, ""))
	require.Eventually(t, func() bool { return notifier.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}
