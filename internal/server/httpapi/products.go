package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/common"
	"storefront/internal/server/repositories/products"
	"storefront/internal/server/services"
)

// ProductHandler exposes the catalog endpoints.
type ProductHandler struct {
	catalog *services.CatalogService
}

func NewProductHandler(catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

func (h *ProductHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)

	list, err := h.catalog.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ProductHandler) Search(c *gin.Context) {
	found, err := h.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Inventory(c *gin.Context) {
	info, err := h.catalog.Inventory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var in services.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, common.ErrValidation)
		return
	}

	p, err := h.catalog.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

type updateProductRequest struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	Price          *float64 `json:"price"`
	Category       *string  `json:"category"`
	InventoryCount *int     `json:"inventory_count"`
}

func (h *ProductHandler) Update(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, common.ErrValidation)
		return
	}

	p, err := h.catalog.Update(c.Request.Context(), c.Param("id"), products.Update{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		Category:       req.Category,
		InventoryCount: req.InventoryCount,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pageParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}
