package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/repository"
)

type fakeKeyRepo struct {
	mu   sync.Mutex
	keys map[string]model.APIKey
}

func newFakeKeyRepo() *fakeKeyRepo {
	return &fakeKeyRepo{keys: make(map[string]model.APIKey)}
}

func (r *fakeKeyRepo) Create(_ context.Context, key *model.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key.ID] = *key
	return nil
}

func (r *fakeKeyRepo) Update(_ context.Context, key *model.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[key.ID]; !ok {
		return repository.ErrNotFound
	}
	r.keys[key.ID] = *key
	return nil
}

func (r *fakeKeyRepo) GetByID(_ context.Context, id string) (*model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.keys[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &key, nil
}

func (r *fakeKeyRepo) GetByPrefix(_ context.Context, prefix string) (*model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range r.keys {
		if key.Prefix == prefix {
			k := key
			return &k, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeKeyRepo) List(_ context.Context) ([]model.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.APIKey, 0, len(r.keys))
	for _, key := range r.keys {
		out = append(out, key)
	}
	return out, nil
}

// recorderSpy captures recorded events without a Kafka round trip.
type recorderSpy struct {
	mu     sync.Mutex
	events []model.AuditEvent
}

func (r *recorderSpy) Record(event model.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorderSpy) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	<-ctx.Done()
}

func (r *recorderSpy) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

func TestAPIKeyCreateReturnsSecretOnce(t *testing.T) {
	repo := newFakeKeyRepo()
	spy := &recorderSpy{}
	svc := NewAPIKeyService(repo, spy)

	resp, err := svc.Create(context.Background(), dto.APIKeyCreateRequest{Name: "ci-bot"})
	require.NoError(t, err)

	parts := strings.SplitN(resp.Secret, "_", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "ouk", parts[0])
	assert.Equal(t, resp.Key.Prefix, parts[1])
	assert.Equal(t, ScopeReadonly, resp.Key.Scope, "scope defaults to readonly")
	assert.NotContains(t, resp.Key.SecretHash, parts[2], "only the hash is stored")
	assert.Contains(t, spy.actions(), "key.created")

	stored, err := repo.GetByID(context.Background(), resp.Key.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ExpiresAt)
}

func TestAPIKeyCreateValidation(t *testing.T) {
	svc := NewAPIKeyService(newFakeKeyRepo(), &recorderSpy{})

	_, err := svc.Create(context.Background(), dto.APIKeyCreateRequest{Name: "   "})
	assert.ErrorContains(t, err, "name is required")

	_, err = svc.Create(context.Background(), dto.APIKeyCreateRequest{Name: "x", Scope: "superuser"})
	assert.ErrorContains(t, err, "unsupported scope")
}

func TestAPIKeyCreateWithTTL(t *testing.T) {
	svc := NewAPIKeyService(newFakeKeyRepo(), &recorderSpy{})

	resp, err := svc.Create(context.Background(), dto.APIKeyCreateRequest{Name: "temp", TTLDays: 7})
	require.NoError(t, err)
	require.NotNil(t, resp.Key.ExpiresAt)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 7), *resp.Key.ExpiresAt, time.Minute)
}

func TestAPIKeyAuthenticateRoundTrip(t *testing.T) {
	repo := newFakeKeyRepo()
	svc := NewAPIKeyService(repo, &recorderSpy{})

	resp, err := svc.Create(context.Background(), dto.APIKeyCreateRequest{Name: "ops", Scope: ScopeAdmin})
	require.NoError(t, err)

	key, err := svc.Authenticate(context.Background(), resp.Secret)
	require.NoError(t, err)
	assert.Equal(t, resp.Key.ID, key.ID)
	assert.Equal(t, ScopeAdmin, key.Scope)

	stored, err := repo.GetByID(context.Background(), key.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastUsedAt, "successful auth touches last_used_at")
}

func TestAPIKeyAuthenticateRejectsBadTokens(t *testing.T) {
	repo := newFakeKeyRepo()
	svc := NewAPIKeyService(repo, &recorderSpy{})

	resp, err := svc.Create(context.Background(), dto.APIKeyCreateRequest{Name: "ops"})
	require.NoError(t, err)

	for _, token := range []string{
		"",
		"ouk",
		"ouk_" + resp.Key.Prefix,
		"oops_" + resp.Key.Prefix + "_deadbeef",
		"ouk_nosuchprefix_deadbeef",
		"ouk_" + resp.Key.Prefix + "_wrongsecret",
	} {
		_, err := svc.Authenticate(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestAPIKeyAuthenticateRevokedAndExpired(t *testing.T) {
	repo := newFakeKeyRepo()
	spy := &recorderSpy{}
	svc := NewAPIKeyService(repo, spy)

	resp, err := svc.Create(context.Background(), dto.APIKeyCreateRequest{Name: "stale"})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), resp.Key.ID))
	_, err = svc.Authenticate(context.Background(), resp.Secret)
	assert.ErrorIs(t, err, ErrKeyRevoked)
	assert.Contains(t, spy.actions(), "key.revoked")

	// Revoking twice is a no-op.
	require.NoError(t, svc.Revoke(context.Background(), resp.Key.ID))

	expired, err := svc.Create(context.Background(), dto.APIKeyCreateRequest{Name: "old"})
	require.NoError(t, err)
	key, err := repo.GetByID(context.Background(), expired.Key.ID)
	require.NoError(t, err)
	past := time.Now().UTC().Add(-time.Hour)
	key.ExpiresAt = &past
	require.NoError(t, repo.Update(context.Background(), key))

	_, err = svc.Authenticate(context.Background(), expired.Secret)
	assert.ErrorIs(t, err, ErrKeyExpired)
}

func TestAPIKeyRevokeUnknownID(t *testing.T) {
	svc := NewAPIKeyService(newFakeKeyRepo(), &recorderSpy{})

	err := svc.Revoke(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
