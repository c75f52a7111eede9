package handlers

import (
	"fmt"
	"net/http"

	"github.com/modaliv/modaliv-backend/internal/models"
	"github.com/modaliv/modaliv-backend/internal/services"
	"github.com/modaliv/modaliv-backend/internal/services/excel"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	productService *services.ProductService
	excelService   *excel.Service
}

func NewProductHandler(productService *services.ProductService, excelService *excel.Service) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		excelService:   excelService,
	}
}

// ListProducts godoc
// @Summary List products
// @Description List catalog products with dynamic filters, sorting and pagination. Filters use field[op]=value or field_op=value syntax (eq, ne, gt, gte, lt, lte, contains, notcontains, startswith, endswith, in, notin, isnull, isnotnull, range), or_/and_ prefixes, logic=or and group1=field,field grouping.
// @Tags products
// @Accept json
// @Produce json
// @Param sort query string false "Sort spec, e.g. price:desc,name"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, pagination, err := h.productService.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":   products,
		"pagination": pagination,
	})
}

// GetProduct godoc
// @Summary Get one product
// @Description Get a product by SKU
// @Tags products
// @Accept json
// @Produce json
// @Param sku path string true "Product SKU"
// @Success 200 {object} models.Product
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/products/{sku} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.Get(c.Request.Context(), c.Param("sku"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct godoc
// @Summary Create a product
// @Description Add a product to the catalog (admin only)
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.Product true "Product"
// @Success 201 {object} models.Product
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/admin/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	if err := h.productService.Create(c.Request.Context(), &product); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// ExportProducts godoc
// @Summary Export products to Excel
// @Description Stream the filtered and sorted product listing as an xlsx workbook. Accepts the same filter syntax as the listing endpoint.
// @Tags products
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param sort query string false "Sort spec, e.g. price:desc,name"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/products/export [get]
func (h *ProductHandler) ExportProducts(c *gin.Context) {
	products, err := h.productService.Filtered(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.excelService.ExportProducts(products)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		result.Content.Bytes())
}
