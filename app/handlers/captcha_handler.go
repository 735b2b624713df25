package handlers

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	"github.com/amirphl/Ijwi-ry-Abaturage/app/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CaptchaHandlerInterface defines the contract for captcha handlers
type CaptchaHandlerInterface interface {
	Generate(c fiber.Ctx) error
	Verify(c fiber.Ctx) error
}

// CaptchaHandler serves rotate captcha challenges for anonymous submissions
type CaptchaHandler struct {
	captchaSvc services.CaptchaService
	validator  *validator.Validate
}

// NewCaptchaHandler creates a new captcha handler
func NewCaptchaHandler(captchaSvc services.CaptchaService) *CaptchaHandler {
	return &CaptchaHandler{
		captchaSvc: captchaSvc,
		validator:  newValidator(),
	}
}

func (h *CaptchaHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CaptchaHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Generate creates a fresh rotate challenge
func (h *CaptchaHandler) Generate(c fiber.Ctx) error {
	challenge, err := h.captchaSvc.GenerateRotate(h.createRequestContext(c, "/api/captcha/generate"))
	if err != nil {
		log.Println("Captcha generation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate captcha", "CAPTCHA_GENERATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Captcha generated successfully", fiber.Map{
		"challenge_id":        challenge.ID,
		"master_image_base64": challenge.MasterImageBase64,
		"thumb_image_base64":  challenge.ThumbImageBase64,
	})
}

// Verify checks the user's angle for a challenge. The challenge is consumed
// on verification regardless of the outcome.
func (h *CaptchaHandler) Verify(c fiber.Ctx) error {
	var req dto.VerifyCaptchaRequest
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

	valid := h.captchaSvc.VerifyRotate(h.createRequestContext(c, "/api/captcha/verify"), req.ChallengeID, req.Angle)
	if !valid {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Captcha verification failed", "CAPTCHA_NOT_VERIFIED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Captcha verified successfully", fiber.Map{
		"valid": true,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *CaptchaHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}
