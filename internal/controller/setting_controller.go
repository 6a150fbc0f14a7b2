package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/service"
	"one-ui-backend/internal/telegram"
)

type SettingController struct {
	settingService service.SettingService
	notifier       telegram.Notifier
}

func NewSettingController(settingService service.SettingService, notifier telegram.Notifier) *SettingController {
	return &SettingController{settingService: settingService, notifier: notifier}
}

func RegisterSettingRoutes(api *gin.RouterGroup, admin gin.HandlerFunc, controller *SettingController) {
	settings := api.Group("/settings")
	{
		settings.GET("/branding", controller.GetBranding)
		settings.PUT("/branding", admin, controller.UpdateBranding)
		settings.GET("/security", controller.GetSecurity)
		settings.PUT("/security", admin, controller.UpdateSecurity)
		settings.GET("/telegram", controller.GetTelegram)
		settings.PUT("/telegram", admin, controller.UpdateTelegram)
		settings.POST("/telegram/test", admin, controller.TestTelegram)
		settings.GET("/backup", controller.GetBackup)
		settings.PUT("/backup", admin, controller.UpdateBackup)
	}
}

// GetBranding godoc
// @Summary      Branding settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  dto.BrandingSettings
// @Security     Bearer
// @Router       /api/v1/settings/branding [get]
func (c *SettingController) GetBranding(ctx *gin.Context) {
	st, err := c.settingService.GetBranding(ctx.Request.Context())
	if err != nil {
		settingError(ctx, err, "Failed to load branding settings")
		return
	}
	ctx.JSON(http.StatusOK, st)
}

// UpdateBranding godoc
// @Summary      Update branding settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request  body      dto.BrandingSettings  true  "Branding document"
// @Success      200      {object}  model.Response
// @Failure      400      {object}  model.Response "Invalid document"
// @Security     Bearer
// @Router       /api/v1/settings/branding [put]
func (c *SettingController) UpdateBranding(ctx *gin.Context) {
	var req dto.BrandingSettings
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	if err := c.settingService.UpdateBranding(ctx.Request.Context(), req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("branding settings updated", nil))
}

// GetSecurity godoc
// @Summary      Security settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  dto.SecuritySettings
// @Security     Bearer
// @Router       /api/v1/settings/security [get]
func (c *SettingController) GetSecurity(ctx *gin.Context) {
	st, err := c.settingService.GetSecurity(ctx.Request.Context())
	if err != nil {
		settingError(ctx, err, "Failed to load security settings")
		return
	}
	ctx.JSON(http.StatusOK, st)
}

// UpdateSecurity godoc
// @Summary      Update security settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request  body      dto.SecuritySettings  true  "Security document"
// @Success      200      {object}  model.Response
// @Failure      400      {object}  model.Response "Invalid document"
// @Security     Bearer
// @Router       /api/v1/settings/security [put]
func (c *SettingController) UpdateSecurity(ctx *gin.Context) {
	var req dto.SecuritySettings
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	if err := c.settingService.UpdateSecurity(ctx.Request.Context(), req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("security settings updated", nil))
}

// GetTelegram godoc
// @Summary      Telegram settings
// @Description  The bot token is masked in the response. Sending the masked document back on update keeps the stored token.
// @Tags         settings
// @Produce      json
// @Success      200  {object}  dto.TelegramSettings
// @Security     Bearer
// @Router       /api/v1/settings/telegram [get]
func (c *SettingController) GetTelegram(ctx *gin.Context) {
	st, err := c.settingService.GetTelegram(ctx.Request.Context())
	if err != nil {
		settingError(ctx, err, "Failed to load telegram settings")
		return
	}
	st.BotToken = ""
	ctx.JSON(http.StatusOK, st)
}

// UpdateTelegram godoc
// @Summary      Update telegram settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request  body      dto.TelegramSettings  true  "Telegram document; an empty bot_token keeps the stored one"
// @Success      200      {object}  model.Response
// @Failure      400      {object}  model.Response "Invalid document"
// @Security     Bearer
// @Router       /api/v1/settings/telegram [put]
func (c *SettingController) UpdateTelegram(ctx *gin.Context) {
	var req dto.TelegramSettings
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	if err := c.settingService.UpdateTelegram(ctx.Request.Context(), req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("telegram settings updated", nil))
}

// TestTelegram godoc
// @Summary      Send a test notification
// @Description  Sends a test message through the configured bot so operators can verify the token and chat ID.
// @Tags         settings
// @Produce      json
// @Success      200  {object}  model.Response
// @Failure      502  {object}  model.Response "Delivery failed"
// @Security     Bearer
// @Router       /api/v1/settings/telegram/test [post]
func (c *SettingController) TestTelegram(ctx *gin.Context) {
	if err := c.notifier.NotifySecurity(ctx.Request.Context(), "One-UI: test notification"); err != nil {
		log.Warn().Err(err).Msg("Telegram test notification failed")
		ctx.JSON(http.StatusBadGateway, model.NewResponse("test notification failed: "+err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("test notification sent", nil))
}

// GetBackup godoc
// @Summary      Backup settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  dto.BackupSettings
// @Security     Bearer
// @Router       /api/v1/settings/backup [get]
func (c *SettingController) GetBackup(ctx *gin.Context) {
	st, err := c.settingService.GetBackup(ctx.Request.Context())
	if err != nil {
		settingError(ctx, err, "Failed to load backup settings")
		return
	}
	ctx.JSON(http.StatusOK, st)
}

// UpdateBackup godoc
// @Summary      Update backup settings
// @Description  Schedule changes are picked up by the running scheduler within a minute.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request  body      dto.BackupSettings  true  "Backup document"
// @Success      200      {object}  model.Response
// @Failure      400      {object}  model.Response "Invalid document"
// @Security     Bearer
// @Router       /api/v1/settings/backup [put]
func (c *SettingController) UpdateBackup(ctx *gin.Context) {
	var req dto.BackupSettings
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	if err := c.settingService.UpdateBackup(ctx.Request.Context(), req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("backup settings updated", nil))
}

func settingError(ctx *gin.Context, err error, message string) {
	log.Error().Err(err).Msg(message)
	ctx.JSON(http.StatusInternalServerError, model.NewResponse(message, nil))
}
