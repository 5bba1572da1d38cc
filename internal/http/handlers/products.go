package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nordkart.com/app/internal/http/middleware"
	"nordkart.com/app/internal/modules/catalog"
	"nordkart.com/app/internal/shared/apperr"
)

type ProductsHandler struct {
	Logger *slog.Logger
	Repo   catalog.Repository
}

func NewProductsHandler(logger *slog.Logger, repo catalog.Repository) *ProductsHandler {
	return &ProductsHandler{Logger: logger, Repo: repo}
}

func (h *ProductsHandler) Register(r *gin.Engine) {
	r.GET("/api/products", h.List)
	r.GET("/api/products/:id", h.Get)
}

type productView struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Stock    int    `json:"stock"`
}

func (h *ProductsHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "24"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Repo.ListActive(c.Request.Context(), limit, offset)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	out := make([]productView, 0, len(items))
	for _, p := range items {
		out = append(out, productView{
			ID: p.ID, Slug: p.Slug, Name: p.Name,
			Price: p.Price, Currency: p.Currency, Stock: p.Stock,
		})
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *ProductsHandler) Get(c *gin.Context) {
	p, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("PRODUCT_NOT_FOUND", "Product not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": productView{
		ID: p.ID, Slug: p.Slug, Name: p.Name,
		Price: p.Price, Currency: p.Currency, Stock: p.Stock,
	}})
}
