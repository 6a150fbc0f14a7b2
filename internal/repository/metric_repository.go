package repository

import (
	"context"

	"one-ui-backend/internal/dto"
)

type MetricRepository interface {
	GetSummaryMetrics(ctx context.Context, req dto.MetricSummaryRequest) (*dto.MetricSummaryResponse, error)
	GetTimeseriesMetrics(ctx context.Context, req dto.MetricTimeseriesRequest) (*dto.MetricTimeseriesResponse, error)
	GetDistinctUsers(ctx context.Context, req dto.UserListRequest) (*dto.UserListResponse, error)
	GetDistributionMetrics(ctx context.Context, req dto.MetricDistributionRequest) (*dto.MetricDistributionResponse, error)
}
