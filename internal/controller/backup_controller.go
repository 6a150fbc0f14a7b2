package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"one-ui-backend/internal/model"
	"one-ui-backend/internal/repository"
	"one-ui-backend/internal/service"
)

type BackupController struct {
	backupService service.BackupService
}

func NewBackupController(backupService service.BackupService) *BackupController {
	return &BackupController{backupService: backupService}
}

func RegisterBackupRoutes(api *gin.RouterGroup, admin gin.HandlerFunc, controller *BackupController) {
	backups := api.Group("/backups")
	{
		backups.GET("", controller.List)
		backups.POST("", admin, controller.Run)
		backups.GET("/:id/download", admin, controller.Download)
		backups.POST("/:id/restore", admin, controller.Restore)
	}
}

// Run godoc
// @Summary      Run a backup now
// @Tags         backups
// @Produce      json
// @Success      201  {object}  model.BackupRecord
// @Failure      409  {object}  model.Response "A backup is already running"
// @Failure      500  {object}  model.Response "Backup failed"
// @Security     Bearer
// @Router       /api/v1/backups [post]
func (c *BackupController) Run(ctx *gin.Context) {
	record, err := c.backupService.RunBackup(ctx.Request.Context(), "manual")
	if err != nil {
		if errors.Is(err, service.ErrBackupRunning) {
			ctx.JSON(http.StatusConflict, model.NewResponse(err.Error(), nil))
			return
		}
		log.Error().Err(err).Msg("Manual backup failed")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("backup failed: "+err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusCreated, record)
}

// List godoc
// @Summary      List backups
// @Description  Returns backup records newest first, including failed runs.
// @Tags         backups
// @Produce      json
// @Success      200  {array}  model.BackupRecord
// @Security     Bearer
// @Router       /api/v1/backups [get]
func (c *BackupController) List(ctx *gin.Context) {
	records, err := c.backupService.List(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list backups")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to list backups", nil))
		return
	}
	ctx.JSON(http.StatusOK, records)
}

// Download godoc
// @Summary      Download a backup archive
// @Tags         backups
// @Produce      application/gzip
// @Param        id   path      string  true  "Backup ID"
// @Success      200  {file}    file
// @Failure      404  {object}  model.Response "Backup not found"
// @Security     Bearer
// @Router       /api/v1/backups/{id}/download [get]
func (c *BackupController) Download(ctx *gin.Context) {
	record, err := c.backupService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, model.NewResponse("backup not found", nil))
			return
		}
		log.Error().Err(err).Msg("Failed to load backup record")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to load backup record", nil))
		return
	}
	ctx.FileAttachment(record.Path, record.FileName)
}

// Restore godoc
// @Summary      Restore from a backup
// @Description  Re-applies the archived settings, groups and xray config. API keys are not restored.
// @Tags         backups
// @Produce      json
// @Param        id   path      string  true  "Backup ID"
// @Success      200  {object}  model.Response
// @Failure      404  {object}  model.Response "Backup not found"
// @Failure      409  {object}  model.Response "A backup is already running"
// @Failure      500  {object}  model.Response "Restore failed"
// @Security     Bearer
// @Router       /api/v1/backups/{id}/restore [post]
func (c *BackupController) Restore(ctx *gin.Context) {
	err := c.backupService.Restore(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			ctx.JSON(http.StatusNotFound, model.NewResponse("backup not found", nil))
		case errors.Is(err, service.ErrBackupRunning):
			ctx.JSON(http.StatusConflict, model.NewResponse(err.Error(), nil))
		default:
			log.Error().Err(err).Msg("Restore failed")
			ctx.JSON(http.StatusInternalServerError, model.NewResponse("restore failed: "+err.Error(), nil))
		}
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("backup restored", nil))
}
