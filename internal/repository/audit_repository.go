package repository

import (
	"context"

	"one-ui-backend/internal/dto"
)

type AuditRepository interface {
	Search(ctx context.Context, req dto.AuditSearchRequest) (*dto.AuditSearchResponse, error)
}
