package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"pranzo-storefront/internal/catalog"
	"pranzo-storefront/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

type saveStoreRequest struct {
	Products []domain.Product `json:"products"`
}

func (h *handlers) getStore(c *gin.Context) {
	snap, err := h.deps.Products.Snapshot(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if snap.Products == nil {
		snap.Products = []domain.Product{}
	}
	if snap.Branches == nil {
		snap.Branches = []domain.Branch{}
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) saveStore(c *gin.Context) {
	var req saveStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	if req.Products == nil {
		h.writeError(c, fmt.Errorf("%w: products is required", domain.ErrValidation))
		return
	}
	if err := h.deps.Products.ReplaceAll(c.Request.Context(), req.Products); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(req.Products)})
}

// getFacets lists the filter values offered by the customer-facing catalog.
func (h *handlers) getFacets(c *gin.Context) {
	products, err := h.deps.Products.Query(c.Request.Context(), domain.Filter{}, false)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog.BuildFacets(products))
}

func (h *handlers) listProducts(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	admin, _ := strconv.ParseBool(c.Query("admin"))
	products, err := h.deps.Products.Query(c.Request.Context(), f, admin)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) createProduct(c *gin.Context) {
	var p domain.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		h.writeError(c, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	created, err := h.deps.Products.Create(c.Request.Context(), p)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) updateProduct(c *gin.Context) {
	var p domain.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		h.writeError(c, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	updated, err := h.deps.Products.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handlers) deleteProduct(c *gin.Context) {
	deleted, err := h.deps.Products.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.Orders.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *handlers) createOrder(c *gin.Context) {
	var o domain.Order
	if err := c.ShouldBindJSON(&o); err != nil {
		h.writeError(c, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}
	created, err := h.deps.Orders.Submit(c.Request.Context(), o)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) deleteOrder(c *gin.Context) {
	deleted, err := h.deps.Orders.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

func (h *handlers) clearOrders(c *gin.Context) {
	n, err := h.deps.Orders.Clear(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": n})
}

// filterFromQuery maps query parameters onto a catalog filter.
func filterFromQuery(c *gin.Context) (domain.Filter, error) {
	f := domain.Filter{
		Search:      c.Query("search"),
		Category:    c.Query("category"),
		Subcategory: c.Query("subcategory"),
		Brand:       c.Query("brand"),
		Color:       c.Query("color"),
		Size:        c.Query("size"),
		Supplier:    c.Query("supplier"),
	}
	var err error
	if f.MinPrice, err = decimalParam(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = decimalParam(c, "maxPrice"); err != nil {
		return f, err
	}
	if raw := c.Query("sortBy"); raw != "" {
		key, ok := catalog.ParseSortKey(raw)
		if !ok {
			return f, fmt.Errorf("%w: unknown sortBy %q", domain.ErrValidation, raw)
		}
		f.SortBy = key
	}
	if raw := c.Query("archived"); raw != "" {
		archived, perr := strconv.ParseBool(raw)
		if perr != nil {
			return f, fmt.Errorf("%w: archived must be a boolean", domain.ErrValidation)
		}
		f.Archived = &archived
	}
	return f, nil
}

func decimalParam(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", domain.ErrValidation, name)
	}
	return &d, nil
}

func (h *handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	}
	_ = c.Error(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("request_id", c.GetString(requestIDKey)), zap.Error(err))
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
