package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emersoneims/oracle-api/internal/handler"
	"github.com/emersoneims/oracle-api/internal/middleware"
	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/service/account"
)

type Handler struct {
	svc *account.Service
}

func NewHandler(svc *account.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	group := r.Group("/auth")
	{
		group.POST("/register", h.Register)
		group.POST("/login", h.Login)

		protected := group.Group("", auth.Authenticate())
		{
			protected.POST("/logout", h.Logout)
			protected.POST("/logout-all", h.LogoutAll)
			protected.POST("/change-password", h.ChangePassword)
			protected.GET("/me", h.Me)
		}
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	user, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(user))
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	device := model.DeviceContext{
		Fingerprint: req.DeviceFingerprint,
		UserAgent:   req.UserAgent,
	}
	if ip := c.ClientIP(); ip != "" {
		device.IPAddress = &ip
	}
	if device.UserAgent == nil {
		if ua := c.Request.UserAgent(); ua != "" {
			device.UserAgent = &ua
		}
	}

	result, err := h.svc.Login(c.Request.Context(), &req, device)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing session token"))
		return
	}

	if err := h.svc.Logout(c.Request.Context(), token); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("logged out"))
}

func (h *Handler) LogoutAll(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := h.svc.LogoutAll(c.Request.Context(), user.ID); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("logged out of all devices"))
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	user := middleware.CurrentUser(c)

	if err := h.svc.ChangePassword(c.Request.Context(), user.ID, &req); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("password changed, all sessions revoked"))
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(middleware.CurrentUser(c)))
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
