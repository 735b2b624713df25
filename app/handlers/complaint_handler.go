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

// ComplaintHandlerInterface defines the contract for complaint handlers
type ComplaintHandlerInterface interface {
	SubmitComplaint(c fiber.Ctx) error
	ListUserComplaints(c fiber.Ctx) error
	AddComment(c fiber.Ctx) error
}

// ComplaintHandler handles citizen-facing complaint HTTP requests
type ComplaintHandler struct {
	complaintFlow businessflow.ComplaintFlow
	commentFlow   businessflow.CommentFlow
	validator     *validator.Validate
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(complaintFlow businessflow.ComplaintFlow, commentFlow businessflow.CommentFlow) *ComplaintHandler {
	return &ComplaintHandler{
		complaintFlow: complaintFlow,
		commentFlow:   commentFlow,
		validator:     newValidator(),
	}
}

func (h *ComplaintHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ComplaintHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// SubmitComplaint accepts the multipart submission form with optional files.
// Both authenticated citizens and guests can submit; guests and anonymous
// submissions must pass the captcha challenge.
func (h *ComplaintHandler) SubmitComplaint(c fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid multipart form", "INVALID_REQUEST", err.Error())
	}

	req := dto.SubmitComplaintRequest{
		Description: formValue(form.Value, "description"),
		Location:    formValue(form.Value, "location"),
	}
	if v := formValue(form.Value, "title"); v != "" {
		req.Title = &v
	}
	if v := formValue(form.Value, "category_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid category ID", "INVALID_CATEGORY_ID", nil)
		}
		req.CategoryID = uint(id)
	}
	if v := formValue(form.Value, "subcategory_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid subcategory ID", "INVALID_SUBCATEGORY_ID", nil)
		}
		req.SubcategoryID = uint(id)
	}
	if v := formValue(form.Value, "is_anonymous"); v != "" {
		req.IsAnonymous, _ = strconv.ParseBool(v)
	}
	if v := formValue(form.Value, "full_name"); v != "" {
		req.FullName = &v
	}
	if v := formValue(form.Value, "phone_number"); v != "" {
		req.PhoneNumber = &v
	}
	if v := formValue(form.Value, "email"); v != "" {
		req.Email = &v
	}
	if v := formValue(form.Value, "captcha_id"); v != "" {
		req.CaptchaID = &v
	}
	if v := formValue(form.Value, "captcha_angle"); v != "" {
		angle, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid captcha angle", "INVALID_CAPTCHA_ANGLE", nil)
		}
		req.CaptchaAngle = &angle
	}

	// Authenticated submitters are linked through OptionalAuth
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		req.UserID = &userID
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	files := form.File["attachments"]
	if len(files) > utils.MaxUploadFiles {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Too many files", "TOO_MANY_FILES", nil)
	}
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read uploaded file", "INVALID_FILE", fileHeader.Filename)
		}
		defer file.Close()
		req.Files = append(req.Files, dto.UploadedFile{
			Reader:   file,
			FileName: fileHeader.Filename,
			Size:     fileHeader.Size,
		})
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.complaintFlow.SubmitComplaint(h.createRequestContext(c, "/api/complaints"), &req, metadata)
	if err != nil {
		if businessflow.IsCaptchaNotVerified(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Captcha verification failed", "CAPTCHA_NOT_VERIFIED", nil)
		}
		if businessflow.IsContactDetailsRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Full name and phone number are required for non-anonymous submissions", "CONTACT_DETAILS_REQUIRED", nil)
		}
		if businessflow.IsCategoryNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Category not found", "CATEGORY_NOT_FOUND", nil)
		}
		if businessflow.IsSubcategoryNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Subcategory not found or does not belong to the selected category", "SUBCATEGORY_NOT_FOUND", nil)
		}
		if businessflow.IsTooManyFiles(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Too many files", "TOO_MANY_FILES", nil)
		}
		if businessflow.IsTrackingIDGeneration(err) {
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to submit complaint", "TRACKING_ID_GENERATION_FAILED", nil)
		}

		log.Println("Complaint submission failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to submit complaint", "COMPLAINT_SUBMISSION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, fiber.Map{
		"id":           result.ID,
		"tracking_id":  result.TrackingID,
		"status":       result.Status,
		"created_at":   result.CreatedAt,
		"attachments":  result.Attachments,
		"failed_files": result.FailedFiles,
	})
}

// ListUserComplaints returns the authenticated user's complaints
func (h *ComplaintHandler) ListUserComplaints(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, err := h.complaintFlow.ListUserComplaints(h.createRequestContext(c, "/api/complaints/user"), userID)
	if err != nil {
		log.Println("List user complaints failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve complaints", "COMPLAINT_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"results":    result.Results,
		"complaints": result.Complaints,
	})
}

// AddComment records a comment on a complaint
func (h *ComplaintHandler) AddComment(c fiber.Ctx) error {
	complaintID, err := strconv.ParseUint(c.Params("complaintId"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid complaint ID", "INVALID_COMPLAINT_ID", nil)
	}

	var req dto.AddCommentRequest
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

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.commentFlow.AddComment(h.createRequestContext(c, "/api/complaints/:complaintId/comments"), uint(complaintID), &req, userID, metadata)
	if err != nil {
		if businessflow.IsComplaintNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Complaint not found", "COMPLAINT_NOT_FOUND", nil)
		}
		if businessflow.IsInternalCommentDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "You are not authorized to add internal comments", "INTERNAL_COMMENT_DENIED", nil)
		}
		if businessflow.IsNotAuthorized(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "You are not authorized to comment on this complaint", "NOT_AUTHORIZED", nil)
		}

		log.Println("Add comment failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to add comment", "COMMENT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, fiber.Map{
		"comment": result.Comment,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *ComplaintHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// formValue returns the first value of a multipart form field
func formValue(values map[string][]string, key string) string {
	if vs, ok := values[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}
