package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"dentalsupply/internal/service"
)

// CatalogHandler handles brand and product endpoints.
type CatalogHandler struct {
	brandService   service.BrandService
	productService service.ProductService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(brandService service.BrandService, productService service.ProductService) *CatalogHandler {
	return &CatalogHandler{brandService: brandService, productService: productService}
}

// BrandRequest is the body of brand writes.
type BrandRequest struct {
	Name string `json:"name" validate:"required"`
	Logo string `json:"logo"`
}

// ProductRequest is the body of product writes.
type ProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"min=0"`
	Image       string          `json:"image"`
	Category    string          `json:"category" validate:"required"`
	Subcategory string          `json:"subcategory"`
	Brand       string          `json:"brand"`
}

func (r ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		Stock:         r.Stock,
		Image:         r.Image,
		CategoryID:    r.Category,
		SubcategoryID: r.Subcategory,
		BrandID:       r.Brand,
	}
}

// ListBrands godoc
// @Summary List brands
// @Tags brands
// @Produce json
// @Success 200 {array} model.Brand
// @Router /brands [get]
func (h *CatalogHandler) ListBrands(c echo.Context) error {
	brands, err := h.brandService.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, brands)
}

// GetBrand godoc
// @Summary Get a brand
// @Tags brands
// @Produce json
// @Param id path string true "Brand ID"
// @Success 200 {object} model.Brand
// @Failure 404 {object} errors.ErrorResponse
// @Router /brands/{id} [get]
func (h *CatalogHandler) GetBrand(c echo.Context) error {
	brand, err := h.brandService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, brand)
}

// CreateBrand godoc
// @Summary Create a brand
// @Tags brands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BrandRequest true "Brand data"
// @Success 201 {object} model.Brand
// @Failure 400 {object} errors.ErrorResponse
// @Router /brands [post]
func (h *CatalogHandler) CreateBrand(c echo.Context) error {
	var req BrandRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	brand, err := h.brandService.Create(c.Request().Context(), service.BrandInput{Name: req.Name, Logo: req.Logo})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, brand)
}

// UpdateBrand godoc
// @Summary Update a brand
// @Tags brands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Brand ID"
// @Param request body BrandRequest true "Brand data"
// @Success 200 {object} model.Brand
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /brands/{id} [put]
func (h *CatalogHandler) UpdateBrand(c echo.Context) error {
	var req BrandRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	brand, err := h.brandService.Update(c.Request().Context(), c.Param("id"), service.BrandInput{Name: req.Name, Logo: req.Logo})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, brand)
}

// DeleteBrand godoc
// @Summary Delete a brand
// @Tags brands
// @Produce json
// @Security BearerAuth
// @Param id path string true "Brand ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /brands/{id} [delete]
func (h *CatalogHandler) DeleteBrand(c echo.Context) error {
	if err := h.brandService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Brand deleted successfully"})
}

// ListProducts godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param category query string false "Main category ID"
// @Param subcategory query string false "Subcategory ID"
// @Param brand query string false "Brand ID"
// @Success 200 {array} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Router /products [get]
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	products, err := h.productService.List(c.Request().Context(), service.ProductQuery{
		CategoryID:    c.QueryParam("category"),
		SubcategoryID: c.QueryParam("subcategory"),
		BrandID:       c.QueryParam("brand"),
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct godoc
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} model.Product
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [get]
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	product, err := h.productService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Product data"
// @Success 201 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Router /products [post]
func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	product, err := h.productService.Create(c.Request().Context(), req.input())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct godoc
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body ProductRequest true "Product data"
// @Success 200 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	product, err := h.productService.Update(c.Request().Context(), c.Param("id"), req.input())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct godoc
// @Summary Delete a product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	if err := h.productService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Product deleted successfully"})
}
