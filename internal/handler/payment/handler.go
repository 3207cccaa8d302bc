package payment

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emersoneims/oracle-api/internal/handler"
	"github.com/emersoneims/oracle-api/internal/middleware"
	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/service/payment"
	"github.com/emersoneims/oracle-api/pkg/metrics"
)

type Handler struct {
	svc     *payment.Service
	metrics *metrics.Metrics
}

func NewHandler(svc *payment.Service, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, metrics: m}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	group := r.Group("/payments", auth.Authenticate())
	{
		group.POST("", h.Record)
		group.PUT("/:transaction_id/status", h.UpdateStatus)
		group.GET("/history", h.History)
	}
}

func (h *Handler) Record(c *gin.Context) {
	var req model.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	user := middleware.CurrentUser(c)

	tx, err := h.svc.Record(c.Request.Context(), user.ID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(tx))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req model.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tx, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("transaction_id"), req.Status, req.ReceiptRef)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	h.metrics.PaymentTransitions.WithLabelValues(tx.Status).Inc()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tx))
}

func (h *Handler) History(c *gin.Context) {
	user := middleware.CurrentUser(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	history, err := h.svc.History(c.Request.Context(), user.ID, limit)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(history))
}
