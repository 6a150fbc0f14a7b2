package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/repository"
	"one-ui-backend/internal/service"
)

type APIKeyController struct {
	keyService service.APIKeyService
}

func NewAPIKeyController(keyService service.APIKeyService) *APIKeyController {
	return &APIKeyController{keyService: keyService}
}

func RegisterAPIKeyRoutes(api *gin.RouterGroup, admin gin.HandlerFunc, controller *APIKeyController) {
	keys := api.Group("/keys")
	{
		keys.GET("", controller.List)
		keys.POST("", admin, controller.Create)
		keys.DELETE("/:id", admin, controller.Revoke)
	}
}

// Create godoc
// @Summary      Create an API key
// @Description  Issues a new bearer token. The plaintext secret is returned exactly once; only its hash is stored.
// @Tags         keys
// @Accept       json
// @Produce      json
// @Param        request  body      dto.APIKeyCreateRequest  true  "Key name, scope and optional TTL"
// @Success      201      {object}  dto.APIKeyCreateResponse
// @Failure      400      {object}  model.Response "Invalid request"
// @Security     Bearer
// @Router       /api/v1/keys [post]
func (c *APIKeyController) Create(ctx *gin.Context) {
	var req dto.APIKeyCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	resp, err := c.keyService.Create(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List API keys
// @Description  Lists key metadata. Secrets are never included.
// @Tags         keys
// @Produce      json
// @Success      200  {array}  model.APIKey
// @Security     Bearer
// @Router       /api/v1/keys [get]
func (c *APIKeyController) List(ctx *gin.Context) {
	keys, err := c.keyService.List(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list api keys")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to list api keys", nil))
		return
	}
	ctx.JSON(http.StatusOK, keys)
}

// Revoke godoc
// @Summary      Revoke an API key
// @Description  Revocation is permanent; revoking an already revoked key is a no-op.
// @Tags         keys
// @Produce      json
// @Param        id   path      string  true  "Key ID"
// @Success      200  {object}  model.Response
// @Failure      404  {object}  model.Response "Key not found"
// @Security     Bearer
// @Router       /api/v1/keys/{id} [delete]
func (c *APIKeyController) Revoke(ctx *gin.Context) {
	if err := c.keyService.Revoke(ctx.Request.Context(), ctx.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, model.NewResponse("key not found", nil))
			return
		}
		log.Error().Err(err).Msg("Failed to revoke api key")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to revoke api key", nil))
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("key revoked", nil))
}
