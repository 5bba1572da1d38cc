package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nordkart.com/app/internal/http/middleware"
	"nordkart.com/app/internal/http/validation"
	"nordkart.com/app/internal/modules/payments"
	"nordkart.com/app/internal/shared/apperr"
)

type PaymentsHandler struct {
	Logger *slog.Logger
	Svc    *payments.Service
}

func NewPaymentsHandler(logger *slog.Logger, svc *payments.Service) *PaymentsHandler {
	return &PaymentsHandler{Logger: logger, Svc: svc}
}

func (h *PaymentsHandler) Register(r *gin.Engine) {
	r.POST("/api/orders/:id/payments", h.Initiate)
	r.GET("/api/orders/:id/payments", h.ListByOrder)
}

type initiatePaymentReq struct {
	IdempotencyKey string `json:"idempotency_key" binding:"required,max=64"`
}

func (h *PaymentsHandler) Initiate(c *gin.Context) {
	userID := c.GetHeader(HeaderUserID)
	if userID == "" {
		middleware.Fail(c, apperr.UnauthorizedErr("Missing caller identity."))
		return
	}

	var req initiatePaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidFieldsErr("Invalid request.", validation.FromBindError(err, &req)))
		return
	}

	res, err := h.Svc.InitiatePayment(c.Request.Context(), payments.InitiatePaymentInput{
		OrderID:        c.Param("id"),
		ActorUserID:    userID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, payments.ErrForbidden):
			// ownership mismatch reads the same as absence
			middleware.Fail(c, apperr.NotFoundErr("ORDER_NOT_FOUND", "Order not found."))
		case errors.Is(err, payments.ErrOrderNotPayable):
			middleware.Fail(c, apperr.InvalidErr("ORDER_NOT_PAYABLE", "Order is not payable."))
		default:
			middleware.Fail(c, apperr.Wrap(err))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":   res.OrderID,
		"payment_id": res.PaymentID,
		"status":     res.Status,
		"idempotent": res.Idempotent,
	})
}

type paymentView struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderRef *string   `json:"provider_ref,omitempty"`
	Status      string    `json:"status"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *PaymentsHandler) ListByOrder(c *gin.Context) {
	userID := c.GetHeader(HeaderUserID)
	if userID == "" {
		middleware.Fail(c, apperr.UnauthorizedErr("Missing caller identity."))
		return
	}

	items, err := h.Svc.FindByOrder(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, payments.ErrForbidden) {
			middleware.Fail(c, apperr.NotFoundErr("ORDER_NOT_FOUND", "Order not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	out := make([]paymentView, 0, len(items))
	for _, p := range items {
		out = append(out, paymentView{
			ID: p.ID, Provider: p.Provider, ProviderRef: p.ProviderRef,
			Status: p.Status, Amount: p.Amount, Currency: p.Currency,
			CreatedAt: p.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"payments": out})
}
