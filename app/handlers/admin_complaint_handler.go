package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	"github.com/amirphl/Ijwi-ry-Abaturage/app/middleware"
	businessflow "github.com/amirphl/Ijwi-ry-Abaturage/business_flow"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AdminComplaintHandlerInterface defines the contract for admin complaint handlers
type AdminComplaintHandlerInterface interface {
	ListComplaints(c fiber.Ctx) error
	UpdateStatus(c fiber.Ctx) error
	AssignComplaint(c fiber.Ctx) error
	UpdatePriority(c fiber.Ctx) error
	GetStatistics(c fiber.Ctx) error
	ExportComplaints(c fiber.Ctx) error
}

// AdminComplaintHandler handles back-office complaint HTTP requests
type AdminComplaintHandler struct {
	adminFlow businessflow.ComplaintAdminFlow
	validator *validator.Validate
}

// NewAdminComplaintHandler creates a new admin complaint handler
func NewAdminComplaintHandler(adminFlow businessflow.ComplaintAdminFlow) *AdminComplaintHandler {
	return &AdminComplaintHandler{
		adminFlow: adminFlow,
		validator: newValidator(),
	}
}

func (h *AdminComplaintHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdminComplaintHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListComplaints returns a filtered, paginated page of all complaints
func (h *AdminComplaintHandler) ListComplaints(c fiber.Ctx) error {
	req, errResp := h.parseListRequest(c)
	if errResp != nil {
		return errResp
	}

	if err := h.validator.Struct(req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.adminFlow.ListComplaints(h.createRequestContext(c, "/api/complaints/admin"), req)
	if err != nil {
		log.Println("List complaints failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list complaints", "LIST_COMPLAINTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"results":    result.Results,
		"total":      result.Total,
		"page":       result.Page,
		"page_size":  result.PageSize,
		"complaints": result.Complaints,
	})
}

// UpdateStatus applies a status transition to a complaint
func (h *AdminComplaintHandler) UpdateStatus(c fiber.Ctx) error {
	complaintID, err := strconv.ParseUint(c.Params("complaintId"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid complaint ID", "INVALID_COMPLAINT_ID", nil)
	}

	var req dto.UpdateComplaintStatusRequest
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

	result, err := h.adminFlow.UpdateStatus(h.createRequestContext(c, "/api/complaints/admin/:complaintId/status"), uint(complaintID), &req, adminID, metadata)
	if err != nil {
		if businessflow.IsComplaintNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Complaint not found", "COMPLAINT_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status", "INVALID_STATUS", nil)
		}
		if businessflow.IsMissingRejectionReason(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Rejection reason is required", "MISSING_REJECTION_REASON", nil)
		}

		log.Println("Status update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update complaint status", "STATUS_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"complaint": result.Complaint,
	})
}

// AssignComplaint sets or clears the complaint assignee
func (h *AdminComplaintHandler) AssignComplaint(c fiber.Ctx) error {
	complaintID, err := strconv.ParseUint(c.Params("complaintId"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid complaint ID", "INVALID_COMPLAINT_ID", nil)
	}

	var req dto.AssignComplaintRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	adminID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.adminFlow.AssignComplaint(h.createRequestContext(c, "/api/complaints/admin/:complaintId/assign"), uint(complaintID), &req, adminID, metadata)
	if err != nil {
		if businessflow.IsComplaintNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Complaint not found", "COMPLAINT_NOT_FOUND", nil)
		}
		if businessflow.IsAssigneeNotAdmin(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Assigned user not found or is not an admin", "ASSIGNEE_NOT_ADMIN", nil)
		}

		log.Println("Assignment failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to assign complaint", "ASSIGNMENT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"complaint": result.Complaint,
	})
}

// UpdatePriority changes the triage priority of a complaint
func (h *AdminComplaintHandler) UpdatePriority(c fiber.Ctx) error {
	complaintID, err := strconv.ParseUint(c.Params("complaintId"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid complaint ID", "INVALID_COMPLAINT_ID", nil)
	}

	var req dto.UpdateComplaintPriorityRequest
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

	result, err := h.adminFlow.UpdatePriority(h.createRequestContext(c, "/api/complaints/admin/:complaintId/priority"), uint(complaintID), &req, adminID, metadata)
	if err != nil {
		if businessflow.IsComplaintNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Complaint not found", "COMPLAINT_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidPriority(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid priority", "INVALID_PRIORITY", nil)
		}

		log.Println("Priority update failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update complaint priority", "PRIORITY_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"complaint": result.Complaint,
	})
}

// GetStatistics returns aggregate complaint counts
func (h *AdminComplaintHandler) GetStatistics(c fiber.Ctx) error {
	result, err := h.adminFlow.GetStatistics(h.createRequestContext(c, "/api/complaints/admin/statistics"))
	if err != nil {
		log.Println("Statistics failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to compute statistics", "STATISTICS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"total":       result.Total,
		"recent":      result.Recent,
		"by_status":   result.ByStatus,
		"by_category": result.ByCategory,
		"by_priority": result.ByPriority,
	})
}

// ExportComplaints downloads the filtered complaints as an XLSX workbook
func (h *AdminComplaintHandler) ExportComplaints(c fiber.Ctx) error {
	var req dto.ExportComplaintsRequest
	if v := c.Query("status"); v != "" {
		req.Status = &v
	}
	if v := c.Query("priority"); v != "" {
		req.Priority = &v
	}
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid category ID", "INVALID_CATEGORY_ID", nil)
		}
		req.CategoryID = utils.ToPtr(uint(id))
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid start date", "INVALID_START_DATE", nil)
		}
		req.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid end date", "INVALID_END_DATE", nil)
		}
		req.EndDate = &t
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	filename, data, err := h.adminFlow.ExportComplaints(h.createRequestContext(c, "/api/complaints/admin/export"), &req)
	if err != nil {
		log.Println("Export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export complaints", "EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// parseListRequest maps the listing query string onto the filter DTO
func (h *AdminComplaintHandler) parseListRequest(c fiber.Ctx) (*dto.AdminListComplaintsRequest, error) {
	req := &dto.AdminListComplaintsRequest{Page: 1, PageSize: 10}

	if v := c.Query("status"); v != "" {
		req.Status = &v
	}
	if v := c.Query("priority"); v != "" {
		req.Priority = &v
	}
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid category ID", "INVALID_CATEGORY_ID", nil)
		}
		req.CategoryID = utils.ToPtr(uint(id))
	}
	if v := c.Query("subcategory_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid subcategory ID", "INVALID_SUBCATEGORY_ID", nil)
		}
		req.SubcategoryID = utils.ToPtr(uint(id))
	}
	if v := c.Query("assigned_to"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid assignee ID", "INVALID_ASSIGNEE_ID", nil)
		}
		req.AssignedTo = utils.ToPtr(uint(id))
	}
	if v := c.Query("unassigned"); v != "" {
		b, _ := strconv.ParseBool(v)
		req.Unassigned = &b
	}
	if v := c.Query("search"); v != "" {
		req.Search = &v
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid start date", "INVALID_START_DATE", nil)
		}
		req.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid end date", "INVALID_END_DATE", nil)
		}
		req.EndDate = &t
	}
	if v := c.Query("page"); v != "" {
		page, err := strconv.ParseUint(v, 10, 32)
		if err != nil || page == 0 {
			return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page", "INVALID_PAGE", nil)
		}
		req.Page = uint(page)
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.ParseUint(v, 10, 32)
		if err != nil || limit == 0 {
			return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid limit", "INVALID_LIMIT", nil)
		}
		req.PageSize = uint(limit)
	}

	return req, nil
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *AdminComplaintHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}
