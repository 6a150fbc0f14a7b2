package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"one-ui-backend/config"
	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/service"
)

type XrayController struct {
	cfg             *config.Config
	xrayService     service.XrayService
	snapshotService service.SnapshotService
}

func NewXrayController(cfg *config.Config, xrayService service.XrayService, snapshotService service.SnapshotService) *XrayController {
	return &XrayController{
		cfg:             cfg,
		xrayService:     xrayService,
		snapshotService: snapshotService,
	}
}

// RegisterXrayRoutes mounts the runtime control routes. Process control and
// config changes require the admin scope.
func RegisterXrayRoutes(api *gin.RouterGroup, admin gin.HandlerFunc, controller *XrayController) {
	xray := api.Group("/xray")
	{
		xray.GET("/status", controller.GetStatus)
		xray.GET("/config", controller.GetConfig)
		xray.GET("/logs/stream", controller.StreamLogs)
		xray.POST("/start", admin, controller.Start)
		xray.POST("/stop", admin, controller.Stop)
		xray.POST("/restart", admin, controller.Restart)
		xray.PUT("/config", admin, controller.UpdateConfig)
	}
}

// GetStatus godoc
// @Summary      Xray process status
// @Description  Reports whether xray-core is running, its PID, uptime, version and the last exit error if any.
// @Tags         xray
// @Produce      json
// @Success      200  {object}  dto.XrayStatusResponse
// @Security     Bearer
// @Router       /api/v1/xray/status [get]
func (c *XrayController) GetStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.xrayService.Status(ctx.Request.Context()))
}

// Start godoc
// @Summary      Start xray-core
// @Tags         xray
// @Produce      json
// @Success      200  {object}  model.Response
// @Failure      409  {object}  model.Response "Process could not be started"
// @Security     Bearer
// @Router       /api/v1/xray/start [post]
func (c *XrayController) Start(ctx *gin.Context) {
	if err := c.xrayService.Start(ctx.Request.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to start xray")
		ctx.JSON(http.StatusConflict, model.NewResponse(err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("xray started", nil))
}

// Stop godoc
// @Summary      Stop xray-core
// @Tags         xray
// @Produce      json
// @Success      200  {object}  model.Response
// @Failure      409  {object}  model.Response "Process could not be stopped"
// @Security     Bearer
// @Router       /api/v1/xray/stop [post]
func (c *XrayController) Stop(ctx *gin.Context) {
	if err := c.xrayService.Stop(ctx.Request.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to stop xray")
		ctx.JSON(http.StatusConflict, model.NewResponse(err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("xray stopped", nil))
}

// Restart godoc
// @Summary      Restart xray-core
// @Tags         xray
// @Produce      json
// @Success      200  {object}  model.Response
// @Failure      409  {object}  model.Response "Process could not be restarted"
// @Security     Bearer
// @Router       /api/v1/xray/restart [post]
func (c *XrayController) Restart(ctx *gin.Context) {
	if err := c.xrayService.Restart(ctx.Request.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to restart xray")
		ctx.JSON(http.StatusConflict, model.NewResponse(err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("xray restarted", nil))
}

// GetConfig godoc
// @Summary      Current xray config
// @Description  Returns the active xray-core configuration file as JSON.
// @Tags         xray
// @Produce      json
// @Success      200  {object}  object
// @Failure      500  {object}  model.Response
// @Security     Bearer
// @Router       /api/v1/xray/config [get]
func (c *XrayController) GetConfig(ctx *gin.Context) {
	cfg, err := c.xrayService.GetConfig(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read xray config")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to read xray config", nil))
		return
	}
	ctx.Data(http.StatusOK, "application/json", cfg)
}

// UpdateConfig godoc
// @Summary      Replace the xray config
// @Description  Validates the submitted config and applies it. A failed apply rolls back to the previous config. With dry_run the config is validated only.
// @Tags         xray
// @Accept       json
// @Produce      json
// @Param        request  body      dto.XrayConfigUpdateRequest  true  "New configuration"
// @Success      200      {object}  model.Response
// @Failure      400      {object}  model.Response "Invalid request body"
// @Failure      422      {object}  model.Response "Config rejected by validation or apply"
// @Security     Bearer
// @Router       /api/v1/xray/config [put]
func (c *XrayController) UpdateConfig(ctx *gin.Context) {
	var req dto.XrayConfigUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	if err := c.xrayService.UpdateConfig(ctx.Request.Context(), req); err != nil {
		log.Warn().Err(err).Bool("dry_run", req.DryRun).Msg("Xray config update rejected")
		ctx.JSON(http.StatusUnprocessableEntity, model.NewResponse(err.Error(), nil))
		return
	}
	if req.DryRun {
		ctx.JSON(http.StatusOK, model.NewResponse("config is valid", nil))
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("config applied", nil))
}

// StreamLogs godoc
// @Summary      Live xray log stream
// @Description  Server-Sent-Events stream of xray log snapshot frames for the access or error log, narrowed by the filters.
// @Tags         xray
// @Produce      text/event-stream
// @Param        type     query  string  false  "Log stream (access or error, default access)" Enums(access, error)
// @Param        search   query  string  false  "Substring filter on raw lines"
// @Param        level    query  string  false  "Level filter for the error log"
// @Param        ip       query  string  false  "Source IP substring filter"
// @Param        user     query  string  false  "User filter"
// @Param        limit    query  int     false  "Maximum lines per snapshot"
// @Param        interval query  string  false  "Snapshot pacing hint in milliseconds"
// @Success      200  {string}  string  "text/event-stream of snapshot events"
// @Failure      400  {object}  model.Response "Unknown log stream"
// @Security     Bearer
// @Router       /api/v1/xray/logs/stream [get]
func (c *XrayController) StreamLogs(ctx *gin.Context) {
	stream := ctx.DefaultQuery("type", service.StreamAccess)
	if stream != service.StreamAccess && stream != service.StreamError {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("unknown log stream: "+stream, nil))
		return
	}
	serveSnapshotStream(ctx, c.cfg, c.snapshotService, stream)
}
