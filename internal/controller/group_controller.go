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

type GroupController struct {
	groupService service.GroupService
}

func NewGroupController(groupService service.GroupService) *GroupController {
	return &GroupController{groupService: groupService}
}

func RegisterGroupRoutes(api *gin.RouterGroup, admin gin.HandlerFunc, controller *GroupController) {
	groups := api.Group("/groups")
	{
		groups.GET("", controller.List)
		groups.GET("/:id", controller.Get)
		groups.POST("", admin, controller.Create)
		groups.PUT("/:id", admin, controller.Update)
		groups.DELETE("/:id", admin, controller.Delete)
		groups.POST("/:id/rollout", admin, controller.StageRollout)
		groups.DELETE("/:id/rollout", admin, controller.CancelRollout)
	}
}

// List godoc
// @Summary      List user groups
// @Tags         groups
// @Produce      json
// @Success      200  {array}  model.Group
// @Security     Bearer
// @Router       /api/v1/groups [get]
func (c *GroupController) List(ctx *gin.Context) {
	groups, err := c.groupService.List(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list groups")
		ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to list groups", nil))
		return
	}
	ctx.JSON(http.StatusOK, groups)
}

// Get godoc
// @Summary      Get one group
// @Tags         groups
// @Produce      json
// @Param        id   path      string  true  "Group ID"
// @Success      200  {object}  model.Group
// @Failure      404  {object}  model.Response "Group not found"
// @Security     Bearer
// @Router       /api/v1/groups/{id} [get]
func (c *GroupController) Get(ctx *gin.Context) {
	group, err := c.groupService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		groupError(ctx, err, "Failed to get group")
		return
	}
	ctx.JSON(http.StatusOK, group)
}

// Create godoc
// @Summary      Create a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        request  body      dto.GroupUpsertRequest  true  "Group policy"
// @Success      201      {object}  model.Group
// @Failure      400      {object}  model.Response "Invalid policy"
// @Failure      409      {object}  model.Response "Name already in use"
// @Security     Bearer
// @Router       /api/v1/groups [post]
func (c *GroupController) Create(ctx *gin.Context) {
	var req dto.GroupUpsertRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	group, err := c.groupService.Create(ctx.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrGroupNameTaken) {
			ctx.JSON(http.StatusConflict, model.NewResponse(err.Error(), nil))
			return
		}
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusCreated, group)
}

// Update godoc
// @Summary      Update a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Group ID"
// @Param        request  body      dto.GroupUpsertRequest  true  "Group policy"
// @Success      200      {object}  model.Group
// @Failure      400      {object}  model.Response "Invalid policy"
// @Failure      404      {object}  model.Response "Group not found"
// @Failure      409      {object}  model.Response "Name already in use"
// @Security     Bearer
// @Router       /api/v1/groups/{id} [put]
func (c *GroupController) Update(ctx *gin.Context) {
	var req dto.GroupUpsertRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	group, err := c.groupService.Update(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			ctx.JSON(http.StatusNotFound, model.NewResponse("group not found", nil))
		case errors.Is(err, service.ErrGroupNameTaken):
			ctx.JSON(http.StatusConflict, model.NewResponse(err.Error(), nil))
		default:
			ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		}
		return
	}
	ctx.JSON(http.StatusOK, group)
}

// Delete godoc
// @Summary      Delete a group
// @Tags         groups
// @Produce      json
// @Param        id   path      string  true  "Group ID"
// @Success      200  {object}  model.Response
// @Failure      404  {object}  model.Response "Group not found"
// @Security     Bearer
// @Router       /api/v1/groups/{id} [delete]
func (c *GroupController) Delete(ctx *gin.Context) {
	if err := c.groupService.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		groupError(ctx, err, "Failed to delete group")
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("group deleted", nil))
}

// StageRollout godoc
// @Summary      Stage or apply a policy rollout
// @Description  Stages a new policy document for the group. With a future rollout_at the policy is applied by the scheduler once the time passes; otherwise it applies immediately.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Group ID"
// @Param        request  body      dto.GroupRolloutRequest  true  "Policy and activation time"
// @Success      200      {object}  model.Group
// @Failure      400      {object}  model.Response "Invalid policy"
// @Failure      404      {object}  model.Response "Group not found"
// @Security     Bearer
// @Router       /api/v1/groups/{id}/rollout [post]
func (c *GroupController) StageRollout(ctx *gin.Context) {
	var req dto.GroupRolloutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, model.NewResponse("Invalid request body: "+err.Error(), nil))
		return
	}
	group, err := c.groupService.StageRollout(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, model.NewResponse("group not found", nil))
			return
		}
		ctx.JSON(http.StatusBadRequest, model.NewResponse(err.Error(), nil))
		return
	}
	ctx.JSON(http.StatusOK, group)
}

// CancelRollout godoc
// @Summary      Cancel a staged rollout
// @Tags         groups
// @Produce      json
// @Param        id   path      string  true  "Group ID"
// @Success      200  {object}  model.Group
// @Failure      404  {object}  model.Response "Group not found"
// @Failure      409  {object}  model.Response "No staged rollout"
// @Security     Bearer
// @Router       /api/v1/groups/{id}/rollout [delete]
func (c *GroupController) CancelRollout(ctx *gin.Context) {
	group, err := c.groupService.CancelRollout(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			ctx.JSON(http.StatusNotFound, model.NewResponse("group not found", nil))
		case errors.Is(err, service.ErrNoPendingPlan):
			ctx.JSON(http.StatusConflict, model.NewResponse(err.Error(), nil))
		default:
			log.Error().Err(err).Msg("Failed to cancel rollout")
			ctx.JSON(http.StatusInternalServerError, model.NewResponse("Failed to cancel rollout", nil))
		}
		return
	}
	ctx.JSON(http.StatusOK, group)
}

func groupError(ctx *gin.Context, err error, message string) {
	if errors.Is(err, repository.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, model.NewResponse("group not found", nil))
		return
	}
	log.Error().Err(err).Msg(message)
	ctx.JSON(http.StatusInternalServerError, model.NewResponse(message, nil))
}
