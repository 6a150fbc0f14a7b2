package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/repository"
)

const (
	ScopeAdmin    = "admin"
	ScopeReadonly = "readonly"

	tokenPrefix = "ouk"
)

var (
	ErrInvalidToken = errors.New("invalid api token")
	ErrKeyRevoked   = errors.New("api key has been revoked")
	ErrKeyExpired   = errors.New("api key has expired")
)

// APIKeyService issues and verifies bearer tokens of the form
// ouk_<prefix>_<secret>. Only the bcrypt hash of the secret is stored; the
// plaintext token is returned exactly once at creation.
type APIKeyService interface {
	Create(ctx context.Context, req dto.APIKeyCreateRequest) (*dto.APIKeyCreateResponse, error)
	List(ctx context.Context) ([]model.APIKey, error)
	Revoke(ctx context.Context, id string) error
	Authenticate(ctx context.Context, token string) (*model.APIKey, error)
}

type apiKeyService struct {
	keys     repository.APIKeyRepository
	recorder AuditRecorder
}

func NewAPIKeyService(keys repository.APIKeyRepository, recorder AuditRecorder) APIKeyService {
	return &apiKeyService{keys: keys, recorder: recorder}
}

func (s *apiKeyService) Create(ctx context.Context, req dto.APIKeyCreateRequest) (*dto.APIKeyCreateResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.New("key name is required")
	}
	scope := strings.ToLower(req.Scope)
	if scope == "" {
		scope = ScopeReadonly
	}
	if scope != ScopeAdmin && scope != ScopeReadonly {
		return nil, fmt.Errorf("unsupported scope: %s", req.Scope)
	}

	prefix, err := randomHex(4)
	if err != nil {
		return nil, err
	}
	secret, err := randomHex(24)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash secret: %w", err)
	}

	key := &model.APIKey{
		ID:         uuid.NewString(),
		Name:       name,
		Prefix:     prefix,
		SecretHash: string(hash),
		Scope:      scope,
	}
	if req.TTLDays > 0 {
		expires := time.Now().UTC().AddDate(0, 0, req.TTLDays)
		key.ExpiresAt = &expires
	}
	if err := s.keys.Create(ctx, key); err != nil {
		return nil, err
	}

	s.audit(ctx, "key.created", name, model.AuditStatusSuccess, "scope "+scope)
	return &dto.APIKeyCreateResponse{
		Key:    *key,
		Secret: fmt.Sprintf("%s_%s_%s", tokenPrefix, prefix, secret),
	}, nil
}

func (s *apiKeyService) List(ctx context.Context) ([]model.APIKey, error) {
	return s.keys.List(ctx)
}

func (s *apiKeyService) Revoke(ctx context.Context, id string) error {
	key, err := s.keys.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if key.Revoked {
		return nil
	}
	key.Revoked = true
	if err := s.keys.Update(ctx, key); err != nil {
		return err
	}
	s.audit(ctx, "key.revoked", key.Name, model.AuditStatusSuccess, "")
	return nil
}

// Authenticate resolves a presented token to its key. Lookup failures and
// hash mismatches both come back as ErrInvalidToken so callers cannot probe
// which prefixes exist.
func (s *apiKeyService) Authenticate(ctx context.Context, token string) (*model.APIKey, error) {
	parts := strings.SplitN(token, "_", 3)
	if len(parts) != 3 || parts[0] != tokenPrefix || parts[1] == "" || parts[2] == "" {
		return nil, ErrInvalidToken
	}

	key, err := s.keys.GetByPrefix(ctx, parts[1])
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if key.Revoked {
		return nil, ErrKeyRevoked
	}
	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		return nil, ErrKeyExpired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(key.SecretHash), []byte(parts[2])); err != nil {
		return nil, ErrInvalidToken
	}

	s.touch(ctx, key)
	return key, nil
}

// touch records key usage at most once a minute to keep the hot path off
// the database.
func (s *apiKeyService) touch(ctx context.Context, key *model.APIKey) {
	now := time.Now().UTC()
	if key.LastUsedAt != nil && now.Sub(*key.LastUsedAt) < time.Minute {
		return
	}
	key.LastUsedAt = &now
	if err := s.keys.Update(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key.Name).Msg("Failed to update key last_used_at")
	}
}

func (s *apiKeyService) audit(ctx context.Context, action, target, status, detail string) {
	actor := model.ActorFromContext(ctx)
	s.recorder.Record(model.AuditEvent{
		Category:  model.AuditCategoryKeys,
		Action:    action,
		Actor:     actor.Name,
		ActorIP:   actor.IP,
		Target:    target,
		Status:    status,
		Detail:    detail,
		RequestID: actor.RequestID,
	})
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
