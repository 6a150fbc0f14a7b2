package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/repository"
)

type AuditQueryService interface {
	SearchEvents(ctx context.Context, req dto.AuditSearchRequest) (*dto.AuditSearchResponse, error)
}

type auditQueryService struct {
	auditRepo repository.AuditRepository
}

func NewAuditQueryService(auditRepo repository.AuditRepository) AuditQueryService {
	return &auditQueryService{
		auditRepo: auditRepo,
	}
}

func (s *auditQueryService) SearchEvents(ctx context.Context, req dto.AuditSearchRequest) (*dto.AuditSearchResponse, error) {
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, errors.New("startTime and endTime are required")
	}
	if req.EndTime.Before(req.StartTime) {
		return nil, errors.New("endTime cannot be before startTime")
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Size <= 0 || req.Size > 1000 {
		req.Size = 100
	}
	if req.SortBy == "" {
		req.SortBy = "@timestamp"
	}
	req.SortOrder = strings.ToLower(req.SortOrder)
	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		req.SortOrder = "desc"
	}

	for i, category := range req.Categories {
		req.Categories[i] = strings.ToLower(category)
	}
	for i, status := range req.Statuses {
		req.Statuses[i] = strings.ToLower(status)
	}

	log.Info().
		Time("start_time", req.StartTime).
		Time("end_time", req.EndTime).
		Str("query", req.Query).
		Strs("categories", req.Categories).
		Strs("statuses", req.Statuses).
		Int("page", req.Page).
		Int("size", req.Size).
		Msg("Searching audit events")

	return s.auditRepo.Search(ctx, req)
}
