package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/service"
	"one-ui-backend/internal/util"
)

var errInvalidTimeRange = errors.New("invalid startTime or endTime format, use ISO 8601 or epoch milliseconds")

type MetricController struct {
	metricQueryService service.MetricQueryService
}

func NewMetricController(metricQueryService service.MetricQueryService) *MetricController {
	return &MetricController{
		metricQueryService: metricQueryService,
	}
}

func RegisterMetricRoutes(api *gin.RouterGroup, controller *MetricController) {
	metrics := api.Group("/metrics")
	{
		metrics.GET("/summary", controller.GetSummaryMetrics)
		metrics.GET("/timeseries", controller.GetTimeseriesMetrics)
		metrics.GET("/users", controller.GetUsers)
		metrics.GET("/distribution", controller.GetDistribution)
	}
}

// GetSummaryMetrics godoc
// @Summary      Get summary metrics
// @Description  Retrieves total connection and error counts plus distinct users within a time range, optionally filtered by log streams.
// @Tags         metrics
// @Produce      json
// @Param        startTime  query     string  true   "Start time (ISO 8601 or epoch ms)"
// @Param        endTime    query     string  true   "End time (ISO 8601 or epoch ms)"
// @Param        streams    query     string  false  "Comma-separated log streams (access, error)"
// @Success      200        {object}  dto.MetricSummaryResponse "Successfully retrieved summary metrics"
// @Failure      400        {object}  model.Response "Invalid query parameters"
// @Failure      500        {object}  model.Response "Internal server error"
// @Security     Bearer
// @Router       /api/v1/metrics/summary [get]
func (c *MetricController) GetSummaryMetrics(ctx *gin.Context) {
	startTime, endTime, streams, err := parseBaseQueryParams(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}

	req := dto.MetricSummaryRequest{
		StartTime: startTime,
		EndTime:   endTime,
		Streams:   streams,
	}

	result, err := c.metricQueryService.GetSummary(ctx.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("Error getting summary metrics")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to get summary metrics", nil))
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetTimeseriesMetrics godoc
// @Summary      Get timeseries metrics
// @Description  Retrieves timeseries data for a metric, aggregated over an interval and optionally grouped by a tag.
// @Tags         metrics
// @Produce      json
// @Param        startTime  query     string  true   "Start time (ISO 8601 or epoch ms)"
// @Param        endTime    query     string  true   "End time (ISO 8601 or epoch ms)"
// @Param        streams    query     string  false  "Comma-separated log streams (access, error)"
// @Param        metricName query     string  true   "Metric name" Enums(connection_event, error_event)
// @Param        interval   query     string  true   "Time bucket width" Enums(1 minute, 5 minute, 10 minute, 30 minute, 1 hour, 1 day)
// @Param        groupBy    query     string  false  "Tag key to group by" Enums(status, level, user, inbound, outbound, error_key, stream, total)
// @Success      200        {object}  dto.MetricTimeseriesResponse "Successfully retrieved timeseries metrics"
// @Failure      400        {object}  model.Response "Invalid query parameters"
// @Failure      500        {object}  model.Response "Internal server error"
// @Security     Bearer
// @Router       /api/v1/metrics/timeseries [get]
func (c *MetricController) GetTimeseriesMetrics(ctx *gin.Context) {
	startTime, endTime, streams, err := parseBaseQueryParams(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}

	req := dto.MetricTimeseriesRequest{
		StartTime:  startTime,
		EndTime:    endTime,
		Streams:    streams,
		MetricName: ctx.Query("metricName"),
		Interval:   ctx.Query("interval"),
		GroupBy:    ctx.Query("groupBy"),
	}

	result, err := c.metricQueryService.GetTimeseries(ctx.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("Error getting timeseries metrics")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to get timeseries metrics", nil))
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetUsers godoc
// @Summary      List distinct users
// @Description  Returns the distinct user names seen in connection events within the time range.
// @Tags         metrics
// @Produce      json
// @Param        startTime  query     string  true  "Start time (ISO 8601 or epoch ms)"
// @Param        endTime    query     string  true  "End time (ISO 8601 or epoch ms)"
// @Success      200        {object}  dto.UserListResponse "Successfully retrieved users"
// @Failure      400        {object}  model.Response "Invalid query parameters"
// @Failure      500        {object}  model.Response "Internal server error"
// @Security     Bearer
// @Router       /api/v1/metrics/users [get]
func (c *MetricController) GetUsers(ctx *gin.Context) {
	startTime, endTime, _, err := parseBaseQueryParams(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}

	req := dto.UserListRequest{
		StartTime: startTime,
		EndTime:   endTime,
	}

	result, err := c.metricQueryService.GetUsers(ctx.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("Error getting distinct users")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to get users", nil))
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetDistribution godoc
// @Summary      Get metric distribution
// @Description  Retrieves the distribution of a metric across one tag dimension within a time range.
// @Tags         metrics
// @Produce      json
// @Param        startTime  query     string  true   "Start time (ISO 8601 or epoch ms)"
// @Param        endTime    query     string  true   "End time (ISO 8601 or epoch ms)"
// @Param        streams    query     string  false  "Comma-separated log streams (access, error)"
// @Param        metricName query     string  true   "Metric name" Enums(connection_event, error_event)
// @Param        dimension  query     string  true   "Tag dimension" Enums(status, level, user, inbound, outbound, error_key, stream)
// @Success      200        {object}  dto.MetricDistributionResponse "Successfully retrieved distribution"
// @Failure      400        {object}  model.Response "Invalid query parameters"
// @Failure      500        {object}  model.Response "Internal server error"
// @Security     Bearer
// @Router       /api/v1/metrics/distribution [get]
func (c *MetricController) GetDistribution(ctx *gin.Context) {
	startTime, endTime, streams, err := parseBaseQueryParams(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}

	req := dto.MetricDistributionRequest{
		StartTime:  startTime,
		EndTime:    endTime,
		Streams:    streams,
		MetricName: ctx.Query("metricName"),
		Dimension:  ctx.Query("dimension"),
	}

	result, err := c.metricQueryService.GetDistribution(ctx.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("Error getting metric distribution")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to get metric distribution", nil))
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func parseBaseQueryParams(ctx *gin.Context) (startTime, endTime time.Time, streams []string, err error) {
	startTime, errStart := util.ParseTimeFlexible(ctx.Query("startTime"))
	endTime, errEnd := util.ParseTimeFlexible(ctx.Query("endTime"))
	if errStart != nil || errEnd != nil {
		return time.Time{}, time.Time{}, nil, errInvalidTimeRange
	}
	return startTime, endTime, splitCSV(ctx.Query("streams")), nil
}
