package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/repository"
)

type MetricQueryService interface {
	GetSummary(ctx context.Context, req dto.MetricSummaryRequest) (*dto.MetricSummaryResponse, error)
	GetTimeseries(ctx context.Context, req dto.MetricTimeseriesRequest) (*dto.MetricTimeseriesResponse, error)
	GetUsers(ctx context.Context, req dto.UserListRequest) (*dto.UserListResponse, error)
	GetDistribution(ctx context.Context, req dto.MetricDistributionRequest) (*dto.MetricDistributionResponse, error)
}

type metricQueryService struct {
	metricRepo repository.MetricRepository
}

func NewMetricQueryService(metricRepo repository.MetricRepository) MetricQueryService {
	return &metricQueryService{
		metricRepo: metricRepo,
	}
}

var allowedMetrics = map[string]bool{"connection_event": true, "error_event": true}

var allowedIntervals = map[string]bool{
	"1 minute": true, "5 minute": true, "10 minute": true,
	"30 minute": true, "1 hour": true, "1 day": true,
}

var allowedGroupBy = map[string]bool{
	"": true, "total": true, "status": true, "level": true, "user": true,
	"inbound": true, "outbound": true, "error_key": true, "stream": true,
}

var allowedDimensions = map[string]bool{
	"status": true, "level": true, "user": true,
	"inbound": true, "outbound": true, "error_key": true, "stream": true,
}

func (s *metricQueryService) GetSummary(ctx context.Context, req dto.MetricSummaryRequest) (*dto.MetricSummaryResponse, error) {
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, errors.New("startTime and endTime are required")
	}
	if req.EndTime.Before(req.StartTime) {
		return nil, errors.New("endTime cannot be before startTime")
	}
	log.Info().Time("start", req.StartTime).Time("end", req.EndTime).Strs("streams", req.Streams).Msg("Getting summary metrics")
	return s.metricRepo.GetSummaryMetrics(ctx, req)
}

func (s *metricQueryService) GetTimeseries(ctx context.Context, req dto.MetricTimeseriesRequest) (*dto.MetricTimeseriesResponse, error) {
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, errors.New("startTime and endTime are required")
	}
	if req.EndTime.Before(req.StartTime) {
		return nil, errors.New("endTime cannot be before startTime")
	}
	if !allowedMetrics[req.MetricName] {
		return nil, fmt.Errorf("invalid metricName: %s", req.MetricName)
	}
	if !allowedIntervals[req.Interval] {
		return nil, fmt.Errorf("invalid interval: %s", req.Interval)
	}
	if req.GroupBy == "" {
		req.GroupBy = "total"
	}
	if !allowedGroupBy[req.GroupBy] {
		return nil, fmt.Errorf("invalid groupBy: %s", req.GroupBy)
	}

	log.Info().
		Time("start", req.StartTime).
		Time("end", req.EndTime).
		Strs("streams", req.Streams).
		Str("metric", req.MetricName).
		Str("interval", req.Interval).
		Str("group_by", req.GroupBy).
		Msg("Getting timeseries metrics")

	return s.metricRepo.GetTimeseriesMetrics(ctx, req)
}

func (s *metricQueryService) GetUsers(ctx context.Context, req dto.UserListRequest) (*dto.UserListResponse, error) {
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, errors.New("startTime and endTime are required")
	}
	if req.EndTime.Before(req.StartTime) {
		return nil, errors.New("endTime cannot be before startTime")
	}
	log.Info().Time("start", req.StartTime).Time("end", req.EndTime).Msg("Getting distinct users")
	return s.metricRepo.GetDistinctUsers(ctx, req)
}

func (s *metricQueryService) GetDistribution(ctx context.Context, req dto.MetricDistributionRequest) (*dto.MetricDistributionResponse, error) {
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, errors.New("startTime and endTime are required")
	}
	if req.EndTime.Before(req.StartTime) {
		return nil, errors.New("endTime cannot be before startTime")
	}
	if !allowedMetrics[req.MetricName] {
		return nil, fmt.Errorf("invalid metricName: %s", req.MetricName)
	}
	if !allowedDimensions[req.Dimension] {
		return nil, fmt.Errorf("invalid dimension: %s", req.Dimension)
	}
	log.Info().
		Time("start", req.StartTime).
		Time("end", req.EndTime).
		Str("metric", req.MetricName).
		Str("dimension", req.Dimension).
		Msg("Getting metric distribution")
	return s.metricRepo.GetDistributionMetrics(ctx, req)
}
