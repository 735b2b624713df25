package handlers

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	businessflow "github.com/amirphl/Ijwi-ry-Abaturage/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// TrackingHandlerInterface defines the contract for public tracking handlers
type TrackingHandlerInterface interface {
	GetComplaint(c fiber.Ctx) error
	GetStatusHistory(c fiber.Ctx) error
	ValidateTrackingID(c fiber.Ctx) error
}

// TrackingHandler handles public, unauthenticated complaint lookups
type TrackingHandler struct {
	complaintFlow businessflow.ComplaintFlow
	validator     *validator.Validate
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(complaintFlow businessflow.ComplaintFlow) *TrackingHandler {
	return &TrackingHandler{
		complaintFlow: complaintFlow,
		validator:     newValidator(),
	}
}

func (h *TrackingHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TrackingHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetComplaint returns the public view of a complaint by tracking ID
func (h *TrackingHandler) GetComplaint(c fiber.Ctx) error {
	trackingID := c.Params("trackingId")

	result, err := h.complaintFlow.GetByTrackingID(h.createRequestContext(c, "/api/tracking/:trackingId"), trackingID)
	if err != nil {
		return h.trackingError(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Complaint retrieved successfully", fiber.Map{
		"complaint": result,
	})
}

// GetStatusHistory returns the citizen-facing status history
func (h *TrackingHandler) GetStatusHistory(c fiber.Ctx) error {
	trackingID := c.Params("trackingId")

	result, err := h.complaintFlow.GetStatusHistory(h.createRequestContext(c, "/api/tracking/:trackingId/history"), trackingID)
	if err != nil {
		return h.trackingError(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"tracking_id":    result.TrackingID,
		"current_status": result.CurrentStatus,
		"status_history": result.StatusHistory,
	})
}

// ValidateTrackingID checks format and existence of a tracking ID
func (h *TrackingHandler) ValidateTrackingID(c fiber.Ctx) error {
	var req dto.ValidateTrackingIDRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	result, err := h.complaintFlow.ValidateTrackingID(h.createRequestContext(c, "/api/tracking/validate"), req.TrackingID)
	if err != nil {
		return h.trackingError(c, err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"valid":       result.Valid,
		"tracking_id": result.TrackingID,
	})
}

// trackingError maps lookup errors onto the public-facing messages
func (h *TrackingHandler) trackingError(c fiber.Ctx, err error) error {
	if businessflow.IsTrackingIDRequired(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Please enter a tracking ID", "TRACKING_ID_REQUIRED", nil)
	}
	if businessflow.IsInvalidTrackingIDFormat(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest,
			"Invalid tracking ID format. Please enter a valid tracking ID (e.g. IJW-2025-12345)", "INVALID_TRACKING_ID_FORMAT", nil)
	}
	if businessflow.IsComplaintNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound,
			"No complaint found with this tracking ID. Please check and try again.", "COMPLAINT_NOT_FOUND", nil)
	}

	log.Println("Tracking lookup failed", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to look up complaint", "COMPLAINT_LOOKUP_FAILED", nil)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *TrackingHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}
