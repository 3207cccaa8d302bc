package subscription

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emersoneims/oracle-api/internal/handler"
	"github.com/emersoneims/oracle-api/internal/middleware"
	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/service/plan"
	"github.com/emersoneims/oracle-api/internal/service/subscription"
	"github.com/emersoneims/oracle-api/internal/service/usage"
	"github.com/emersoneims/oracle-api/pkg/metrics"
)

type Handler struct {
	subs    *subscription.Service
	usage   *usage.Service
	metrics *metrics.Metrics
}

func NewHandler(subs *subscription.Service, usageSvc *usage.Service, m *metrics.Metrics) *Handler {
	return &Handler{subs: subs, usage: usageSvc, metrics: m}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	// The catalog is public reference data.
	r.GET("/plans", h.Plans)

	group := r.Group("/subscriptions", auth.Authenticate())
	{
		group.GET("/current", h.Current)
		group.POST("", h.Subscribe)
		group.POST("/cancel", h.Cancel)
	}

	usageGroup := r.Group("/usage", auth.Authenticate())
	{
		usageGroup.GET("", h.Usage)
		usageGroup.GET("/check/:kind", h.CheckLimit)
		usageGroup.POST("/increment/:kind", h.Increment)
	}
}

func (h *Handler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(plan.Catalog()))
}

func (h *Handler) Current(c *gin.Context) {
	user := middleware.CurrentUser(c)

	current, err := h.subs.GetCurrent(c.Request.Context(), user.ID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(current))
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req model.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	user := middleware.CurrentUser(c)

	sub, err := h.subs.Create(c.Request.Context(), user.ID, req.PlanID, req.PaymentRefs)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	h.metrics.SubscriptionChanges.WithLabelValues("created").Inc()
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(sub))
}

func (h *Handler) Cancel(c *gin.Context) {
	var req struct {
		Immediate bool `json:"immediate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	user := middleware.CurrentUser(c)

	if err := h.subs.Cancel(c.Request.Context(), user.ID, req.Immediate); err != nil {
		handler.RespondError(c, err)
		return
	}

	h.metrics.SubscriptionChanges.WithLabelValues("cancelled").Inc()
	c.JSON(http.StatusOK, handler.NewSuccessResponse("subscription cancelled"))
}

func (h *Handler) Usage(c *gin.Context) {
	user := middleware.CurrentUser(c)

	record, err := h.usage.GetUsage(c.Request.Context(), user.ID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(record))
}

func (h *Handler) CheckLimit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	kind := model.UsageKind(c.Param("kind"))

	check, err := h.usage.CheckLimit(c.Request.Context(), user.ID, kind)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	if !check.Allowed {
		h.metrics.QuotaDenials.WithLabelValues(string(kind)).Inc()
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(check))
}

func (h *Handler) Increment(c *gin.Context) {
	user := middleware.CurrentUser(c)
	kind := model.UsageKind(c.Param("kind"))

	if err := h.usage.Increment(c.Request.Context(), user.ID, kind); err != nil {
		handler.RespondError(c, err)
		return
	}

	h.metrics.UsageIncrements.WithLabelValues(string(kind)).Inc()
	c.JSON(http.StatusOK, handler.NewSuccessResponse("usage recorded"))
}
