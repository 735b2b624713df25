package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	"github.com/amirphl/Ijwi-ry-Abaturage/app/middleware"
	businessflow "github.com/amirphl/Ijwi-ry-Abaturage/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CategoryHandlerInterface defines the contract for category handlers
type CategoryHandlerInterface interface {
	ListCategories(c fiber.Ctx) error
	ListSubcategories(c fiber.Ctx) error
	ListCategoryTree(c fiber.Ctx) error
	CreateCategory(c fiber.Ctx) error
	UpdateCategory(c fiber.Ctx) error
	CreateSubcategory(c fiber.Ctx) error
	UpdateSubcategory(c fiber.Ctx) error
}

// CategoryHandler handles category taxonomy HTTP requests
type CategoryHandler struct {
	categoryFlow businessflow.CategoryFlow
	validator    *validator.Validate
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryFlow businessflow.CategoryFlow) *CategoryHandler {
	return &CategoryHandler{
		categoryFlow: categoryFlow,
		validator:    newValidator(),
	}
}

func (h *CategoryHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CategoryHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListCategories returns active categories for the public submission form
func (h *CategoryHandler) ListCategories(c fiber.Ctx) error {
	result, err := h.categoryFlow.ListCategories(h.createRequestContext(c, "/api/categories"))
	if err != nil {
		log.Println("List categories failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list categories", "LIST_CATEGORIES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"categories": result.Categories,
	})
}

// ListSubcategories returns active subcategories of one category
func (h *CategoryHandler) ListSubcategories(c fiber.Ctx) error {
	categoryID, err := strconv.ParseUint(c.Params("categoryId"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid category ID", "INVALID_CATEGORY_ID", nil)
	}

	result, err := h.categoryFlow.ListSubcategories(h.createRequestContext(c, "/api/categories/:categoryId/subcategories"), uint(categoryID))
	if err != nil {
		if businessflow.IsCategoryNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Category not found", "CATEGORY_NOT_FOUND", nil)
		}

		log.Println("List subcategories failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list subcategories", "LIST_SUBCATEGORIES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"subcategories": result.Subcategories,
	})
}

// ListCategoryTree returns the cached category tree with subcategories
func (h *CategoryHandler) ListCategoryTree(c fiber.Ctx) error {
	result, err := h.categoryFlow.ListCategoryTree(h.createRequestContext(c, "/api/categories/tree"))
	if err != nil {
		log.Println("List category tree failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list categories", "LIST_CATEGORIES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"categories": result.Categories,
	})
}

// CreateCategory creates a new category (admin only)
func (h *CategoryHandler) CreateCategory(c fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	adminID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.categoryFlow.CreateCategory(h.createRequestContext(c, "/api/categories"), &req, adminID, metadata)
	if err != nil {
		if businessflow.IsCategoryExists(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Category with this name already exists", "CATEGORY_EXISTS", nil)
		}

		log.Println("Create category failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create category", "CREATE_CATEGORY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, fiber.Map{
		"category": result.Category,
	})
}

// UpdateCategory applies partial updates to a category (admin only)
func (h *CategoryHandler) UpdateCategory(c fiber.Ctx) error {
	categoryID, err := strconv.ParseUint(c.Params("categoryId"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid category ID", "INVALID_CATEGORY_ID", nil)
	}

	var req dto.UpdateCategoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	adminID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.categoryFlow.UpdateCategory(h.createRequestContext(c, "/api/categories/:categoryId"), uint(categoryID), &req, adminID, metadata)
	if err != nil {
		if businessflow.IsCategoryNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Category not found", "CATEGORY_NOT_FOUND", nil)
		}
		if businessflow.IsCategoryExists(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Category with this name already exists", "CATEGORY_EXISTS", nil)
		}

		log.Println("Update category failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update category", "UPDATE_CATEGORY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"category": result.Category,
	})
}

// CreateSubcategory creates a new subcategory (admin only)
func (h *CategoryHandler) CreateSubcategory(c fiber.Ctx) error {
	var req dto.CreateSubcategoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	adminID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.categoryFlow.CreateSubcategory(h.createRequestContext(c, "/api/categories/subcategories"), &req, adminID, metadata)
	if err != nil {
		if businessflow.IsCategoryNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Category not found", "CATEGORY_NOT_FOUND", nil)
		}
		if businessflow.IsSubcategoryExists(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Subcategory with this name already exists in this category", "SUBCATEGORY_EXISTS", nil)
		}

		log.Println("Create subcategory failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create subcategory", "CREATE_SUBCATEGORY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, fiber.Map{
		"subcategory": result.Subcategory,
	})
}

// UpdateSubcategory applies partial updates to a subcategory (admin only)
func (h *CategoryHandler) UpdateSubcategory(c fiber.Ctx) error {
	subcategoryID, err := strconv.ParseUint(c.Params("subcategoryId"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid subcategory ID", "INVALID_SUBCATEGORY_ID", nil)
	}

	var req dto.UpdateSubcategoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	adminID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.categoryFlow.UpdateSubcategory(h.createRequestContext(c, "/api/categories/subcategories/:subcategoryId"), uint(subcategoryID), &req, adminID, metadata)
	if err != nil {
		if businessflow.IsSubcategoryNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Subcategory not found", "SUBCATEGORY_NOT_FOUND", nil)
		}
		if businessflow.IsCategoryNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Category not found", "CATEGORY_NOT_FOUND", nil)
		}
		if businessflow.IsSubcategoryExists(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Subcategory with this name already exists in this category", "SUBCATEGORY_EXISTS", nil)
		}

		log.Println("Update subcategory failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update subcategory", "UPDATE_SUBCATEGORY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"subcategory": result.Subcategory,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *CategoryHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}
