package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"one-ui-backend/config"
	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/service"
	"one-ui-backend/internal/util"
)

type AuditController struct {
	cfg             *config.Config
	auditQuery      service.AuditQueryService
	snapshotService service.SnapshotService
}

func NewAuditController(cfg *config.Config, auditQuery service.AuditQueryService, snapshotService service.SnapshotService) *AuditController {
	return &AuditController{
		cfg:             cfg,
		auditQuery:      auditQuery,
		snapshotService: snapshotService,
	}
}

func RegisterAuditRoutes(api *gin.RouterGroup, controller *AuditController) {
	audit := api.Group("/audit")
	{
		audit.GET("", controller.SearchEvents)
		audit.GET("/stream", controller.StreamEvents)
	}
}

// SearchEvents godoc
// @Summary      Search the audit trail
// @Description  Retrieves audit events from the index based on time range, free text query, categories, statuses, actor and actor IP. Supports pagination and sorting.
// @Tags         audit
// @Produce      json
// @Param        startTime  query     string  true   "Start time (ISO 8601 or epoch ms)"
// @Param        endTime    query     string  true   "End time (ISO 8601 or epoch ms)"
// @Param        query      query     string  false  "Free text search query"
// @Param        categories query     string  false  "Comma-separated categories (e.g. auth,groups,xray,connection)"
// @Param        statuses   query     string  false  "Comma-separated statuses (success,denied,failure)"
// @Param        actor      query     string  false  "Exact actor name"
// @Param        ip         query     string  false  "Exact actor IP"
// @Param        sortBy     query     string  false  "Field to sort by (default: @timestamp)" Enums(@timestamp, category, action, actor, status, target)
// @Param        sortOrder  query     string  false  "Sort order (asc or desc, default: desc)" Enums(asc, desc)
// @Param        page       query     int     false  "Page number (default: 1)" minimum(1)
// @Param        size       query     int     false  "Events per page (default: 100, max: 1000)" minimum(1) maximum(1000)
// @Success      200        {object}  dto.AuditSearchResponse "Successfully retrieved audit events"
// @Failure      400        {object}  model.Response "Invalid query parameters"
// @Failure      500        {object}  model.Response "Internal server error"
// @Security     Bearer
// @Router       /api/v1/audit [get]
func (c *AuditController) SearchEvents(ctx *gin.Context) {
	startTime, errStart := util.ParseTimeFlexible(ctx.Query("startTime"))
	endTime, errEnd := util.ParseTimeFlexible(ctx.Query("endTime"))
	if errStart != nil || errEnd != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid startTime or endTime format. Use ISO 8601 or epoch milliseconds.", nil))
		return
	}

	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(ctx.DefaultQuery("size", "100"))
	if err != nil || size <= 0 || size > 1000 {
		size = 100
	}

	req := dto.AuditSearchRequest{
		StartTime:  startTime,
		EndTime:    endTime,
		Query:      ctx.Query("query"),
		Categories: splitCSV(ctx.Query("categories")),
		Statuses:   splitCSV(ctx.Query("statuses")),
		Actor:      ctx.Query("actor"),
		ActorIP:    ctx.Query("ip"),
		SortBy:     ctx.DefaultQuery("sortBy", "@timestamp"),
		SortOrder:  ctx.DefaultQuery("sortOrder", "desc"),
		Page:       page,
		Size:       size,
	}

	result, err := c.auditQuery.SearchEvents(ctx.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("Error searching audit events")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to search audit events", nil))
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// StreamEvents godoc
// @Summary      Live audit trail stream
// @Description  Server-Sent-Events stream of audit snapshot frames. Each "snapshot" event carries the latest lines, parsed events and counters for the audit window, narrowed by the filters.
// @Tags         audit
// @Produce      text/event-stream
// @Param        search   query  string  false  "Substring filter on rendered lines"
// @Param        level    query  string  false  "Event status filter (success, denied, failure)"
// @Param        ip       query  string  false  "Actor IP substring filter"
// @Param        user     query  string  false  "Actor name filter"
// @Param        limit    query  int     false  "Maximum lines per snapshot"
// @Param        interval query  string  false  "Snapshot pacing hint in milliseconds"
// @Success      200  {string}  string  "text/event-stream of snapshot events"
// @Security     Bearer
// @Router       /api/v1/audit/stream [get]
func (c *AuditController) StreamEvents(ctx *gin.Context) {
	serveSnapshotStream(ctx, c.cfg, c.snapshotService, service.StreamAudit)
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
