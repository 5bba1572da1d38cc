package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nordkart.com/app/internal/http/middleware"
	"nordkart.com/app/internal/http/validation"
	"nordkart.com/app/internal/modules/catalog"
	"nordkart.com/app/internal/modules/money"
	"nordkart.com/app/internal/modules/orders"
	"nordkart.com/app/internal/shared/apperr"
)

// HeaderUserID carries the caller-resolved identity. Authentication happens
// upstream; this core never derives identity from payload fields.
const HeaderUserID = "X-User-ID"

type OrdersHandler struct {
	Logger *slog.Logger
	Svc    *orders.Service
	Repo   *orders.Repo
}

func NewOrdersHandler(logger *slog.Logger, svc *orders.Service, repo *orders.Repo) *OrdersHandler {
	return &OrdersHandler{Logger: logger, Svc: svc, Repo: repo}
}

func (h *OrdersHandler) Register(r *gin.Engine) {
	r.POST("/api/orders", h.Create)
	r.GET("/api/orders", h.List)
	r.GET("/api/orders/:id", h.Get)
}

type createOrderItemReq struct {
	ProductID string `json:"product_id" binding:"required,max=64"`
	Qty       int    `json:"qty" binding:"required,gt=0"`
}

type createOrderReq struct {
	Items            []createOrderItemReq `json:"items" binding:"required,min=1,dive"`
	IdempotencyKey   string               `json:"idempotency_key" binding:"required,max=64"`
	ExpectedTotal    *string              `json:"expected_total" binding:"omitempty,max=32"`
	ProviderIntentID *string              `json:"provider_intent_id" binding:"omitempty,max=128"`
}

type orderItemView struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	UnitPrice string `json:"unit_price"`
}

type orderView struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Status           string          `json:"status"`
	IdempotencyKey   string          `json:"idempotency_key"`
	ProviderIntentID *string         `json:"provider_intent_id,omitempty"`
	TotalAmount      string          `json:"total_amount"`
	Currency         string          `json:"currency"`
	Items            []orderItemView `json:"items"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func orderToView(o orders.Order, items []orders.OrderItem) orderView {
	vs := make([]orderItemView, 0, len(items))
	for _, it := range items {
		vs = append(vs, orderItemView{ProductID: it.ProductID, Qty: it.Qty, UnitPrice: it.UnitPrice})
	}
	return orderView{
		ID:               o.ID,
		UserID:           o.UserID,
		Status:           o.Status,
		IdempotencyKey:   o.IdempotencyKey,
		ProviderIntentID: o.ProviderIntentID,
		TotalAmount:      o.TotalAmount,
		Currency:         o.Currency,
		Items:            vs,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func (h *OrdersHandler) Create(c *gin.Context) {
	userID := c.GetHeader(HeaderUserID)
	if userID == "" {
		middleware.Fail(c, apperr.UnauthorizedErr("Missing caller identity."))
		return
	}

	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidFieldsErr("Invalid request.", validation.FromBindError(err, &req)))
		return
	}

	in := orders.CreateOrderInput{
		UserID:           userID,
		IdempotencyKey:   req.IdempotencyKey,
		ExpectedTotal:    req.ExpectedTotal,
		ProviderIntentID: req.ProviderIntentID,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, orders.ItemInput{ProductID: it.ProductID, Qty: it.Qty})
	}

	res, err := h.Svc.CreatePendingOrder(c.Request.Context(), in)
	if err != nil {
		middleware.Fail(c, mapOrderErr(err))
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"order":    orderToView(res.Order, res.Items),
		"replayed": res.Replayed,
	})
}

func (h *OrdersHandler) List(c *gin.Context) {
	userID := c.GetHeader(HeaderUserID)
	if userID == "" {
		middleware.Fail(c, apperr.UnauthorizedErr("Missing caller identity."))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	res, err := h.Repo.ListByUser(c.Request.Context(), orders.ListByUserParams{
		UserID:   userID,
		Page:     page,
		PageSize: size,
		Status:   c.Query("status"),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	out := make([]orderView, 0, len(res.Items))
	for _, o := range res.Items {
		out = append(out, orderToView(o, nil))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out, "total": res.Total})
}

func (h *OrdersHandler) Get(c *gin.Context) {
	userID := c.GetHeader(HeaderUserID)
	if userID == "" {
		middleware.Fail(c, apperr.UnauthorizedErr("Missing caller identity."))
		return
	}

	o, items, err := h.Repo.GetWithItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("ORDER_NOT_FOUND", "Order not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if o.UserID != userID {
		middleware.Fail(c, apperr.NotFoundErr("ORDER_NOT_FOUND", "Order not found."))
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": orderToView(o, items)})
}

func mapOrderErr(err error) error {
	var pnf *orders.ProductNotFoundError
	if errors.As(err, &pnf) {
		return apperr.NotFoundErr("PRODUCT_NOT_FOUND", "Product not found: "+pnf.ProductID)
	}
	var oos *catalog.OutOfStockError
	if errors.As(err, &oos) {
		return apperr.InvalidErr("INSUFFICIENT_STOCK", "Insufficient stock.")
	}

	switch {
	case errors.Is(err, orders.ErrAmountMismatch):
		return apperr.InvalidErr("AMOUNT_MISMATCH", "Order total does not match the expected amount.")
	case errors.Is(err, orders.ErrCurrencyMismatch):
		return apperr.InvalidErr("CURRENCY_MISMATCH", "All items must share one currency.")
	case errors.Is(err, orders.ErrNoItems),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrMissingIdempotencyKey):
		return apperr.InvalidErr("INVALID_ORDER", err.Error())
	case errors.Is(err, money.ErrMalformedAmount):
		return apperr.InvalidErr("MALFORMED_AMOUNT", "Monetary values must be plain decimal strings.")
	case errors.Is(err, money.ErrNegativeAmount):
		return apperr.InvalidErr("NEGATIVE_AMOUNT", "Monetary values must not be negative.")
	case errors.Is(err, money.ErrAmountOutOfRange):
		return apperr.InvalidErr("AMOUNT_OUT_OF_RANGE", "Amount out of range.")
	case errors.Is(err, money.ErrUnsupportedCurrency):
		return apperr.InvalidErr("UNSUPPORTED_CURRENCY", "Unsupported currency.")
	default:
		return apperr.Wrap(err)
	}
}
