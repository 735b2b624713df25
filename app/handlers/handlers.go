// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"fmt"

	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/go-playground/validator/v10"
)

// newValidator builds a validator with the custom tags used across handlers
func newValidator() *validator.Validate {
	v := validator.New()

	// Letters and spaces only, used for person names
	v.RegisterValidation("alpha_space", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, char := range value {
			if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || char == ' ') {
				return false
			}
		}
		return true
	})

	// International phone format: optional leading +, 10 to 15 digits
	v.RegisterValidation("mobile_format", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if len(value) > 0 && value[0] == '+' {
			value = value[1:]
		}
		if len(value) < 10 || len(value) > 15 {
			return false
		}
		for _, char := range value {
			if char < '0' || char > '9' {
				return false
			}
		}
		return true
	})

	v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()

		hasUpper := false
		hasNumber := false

		for _, char := range value {
			if char >= 'A' && char <= 'Z' {
				hasUpper = true
			}
			if char >= '0' && char <= '9' {
				hasNumber = true
			}
		}

		return hasUpper && hasNumber
	})

	v.RegisterValidation("complaint_status", func(fl validator.FieldLevel) bool {
		return models.IsValidComplaintStatus(fl.Field().String())
	})

	v.RegisterValidation("complaint_priority", func(fl validator.FieldLevel) bool {
		return models.IsValidComplaintPriority(fl.Field().String())
	})

	return v
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "eqfield":
		return err.Field() + " must match " + err.Param()
	case "alpha_space":
		return err.Field() + " must contain only letters and spaces"
	case "mobile_format":
		return "Phone number must be in international format, e.g. +250788123456"
	case "password_strength":
		return "Password must contain at least 1 uppercase letter and 1 number"
	case "complaint_status":
		return "Invalid status"
	case "complaint_priority":
		return "Invalid priority"
	case "numeric":
		return err.Field() + " must contain only numbers"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}
