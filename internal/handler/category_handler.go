package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"dentalsupply/internal/model"
	"dentalsupply/internal/service"
)

// CategoryHandler handles category endpoints.
type CategoryHandler struct {
	categoryService service.CategoryService
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CategoryRequest is the body of add and update. parent_id may be omitted,
// null, or one of the strings "", "null" and "undefined" for a main category.
type CategoryRequest struct {
	Name     string  `json:"name" form:"name" validate:"required"`
	Image    string  `json:"categoryImage" form:"categoryImage"`
	ParentID *string `json:"parent_id" form:"parent_id"`
}

func (r CategoryRequest) input() service.CategoryInput {
	in := service.CategoryInput{Name: r.Name, Image: r.Image}
	if r.ParentID != nil {
		in.ParentID = *r.ParentID
	}
	return in
}

// CategoryResponse wraps a written category.
type CategoryResponse struct {
	Message  string          `json:"message"`
	Category *model.Category `json:"category"`
}

// List godoc
// @Summary List all categories
// @Description Every category, with the parent's name resolved for subcategories.
// @Tags categories
// @Produce json
// @Success 200 {array} model.Category
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories/ [get]
func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.categoryService.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, categories)
}

// ListMain godoc
// @Summary List main categories
// @Tags categories
// @Produce json
// @Success 200 {array} model.Category
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories/categories [get]
func (h *CategoryHandler) ListMain(c echo.Context) error {
	categories, err := h.categoryService.ListMain(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, categories)
}

// ListSub godoc
// @Summary List all subcategories
// @Tags categories
// @Produce json
// @Success 200 {array} model.Category
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories/subcategories [get]
func (h *CategoryHandler) ListSub(c echo.Context) error {
	categories, err := h.categoryService.ListSub(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, categories)
}

// ListByParent godoc
// @Summary List subcategories of a category
// @Description Returns an empty array when the category has no subcategories or does not exist.
// @Tags categories
// @Produce json
// @Param parentId path string true "Parent category ID"
// @Success 200 {array} model.Category
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories/{parentId}/subcategories [get]
func (h *CategoryHandler) ListByParent(c echo.Context) error {
	categories, err := h.categoryService.ListByParent(c.Request().Context(), c.Param("parentId"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, categories)
}

// Tree godoc
// @Summary Category tree
// @Description Main categories with their subcategories nested under children.
// @Tags categories
// @Produce json
// @Success 200 {array} model.Category
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories/tree [get]
func (h *CategoryHandler) Tree(c echo.Context) error {
	tree, err := h.categoryService.Tree(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tree)
}

// Get godoc
// @Summary Get a category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} model.Category
// @Failure 404 {object} errors.ErrorResponse
// @Router /categories/{id} [get]
func (h *CategoryHandler) Get(c echo.Context) error {
	category, err := h.categoryService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, category)
}

// Add godoc
// @Summary Add a category
// @Tags categories
// @Accept json
// @Produce json
// @Param request body CategoryRequest true "Category data"
// @Success 201 {object} CategoryResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories/add [post]
func (h *CategoryHandler) Add(c echo.Context) error {
	var req CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	category, err := h.categoryService.Create(c.Request().Context(), req.input())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, CategoryResponse{
		Message:  "Category added successfully",
		Category: category,
	})
}

// Update godoc
// @Summary Update a category
// @Description Replaces name, image and parent. Omitting parent_id makes it a main category.
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param request body CategoryRequest true "Category data"
// @Success 200 {object} CategoryResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories/update/{id} [put]
func (h *CategoryHandler) Update(c echo.Context) error {
	var req CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	category, err := h.categoryService.Update(c.Request().Context(), c.Param("id"), req.input())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, CategoryResponse{
		Message:  "Category updated successfully",
		Category: category,
	})
}

// Delete godoc
// @Summary Delete a category
// @Description Fails while subcategories or products still reference the category.
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories/delete/{id} [delete]
func (h *CategoryHandler) Delete(c echo.Context) error {
	if err := h.categoryService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Category deleted successfully"})
}
