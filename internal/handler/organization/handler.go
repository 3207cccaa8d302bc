package organization

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emersoneims/oracle-api/internal/handler"
	"github.com/emersoneims/oracle-api/internal/middleware"
	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/service/organization"
)

type Handler struct {
	svc *organization.Service
}

func NewHandler(svc *organization.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	group := r.Group("/organizations", auth.Authenticate())
	{
		group.POST("", auth.RequireRole(model.RoleAdmin), h.Create)
		group.GET("/:id", h.Get)
		group.GET("/:id/members", auth.RequireRole(model.RoleManager), h.ListMembers)
		group.PUT("/users/:id/role", auth.RequireRole(model.RoleManager), h.ChangeRole)
		group.POST("/users/:id/deactivate", auth.RequireRole(model.RoleAdmin), h.Deactivate)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	org, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(org))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid organization id"))
		return
	}

	org, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(org))
}

func (h *Handler) ListMembers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid organization id"))
		return
	}

	members, err := h.svc.ListMembers(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(members))
}

func (h *Handler) ChangeRole(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user id"))
		return
	}

	var req model.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	acting := middleware.CurrentUser(c)

	if err := h.svc.ChangeRole(c.Request.Context(), targetID, req.Role, acting.ID); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("role updated"))
}

func (h *Handler) Deactivate(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user id"))
		return
	}

	if err := h.svc.Deactivate(c.Request.Context(), targetID); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("user deactivated, all sessions revoked"))
}
