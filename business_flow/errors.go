// Package businessflow contains the core business logic and use cases for complaint workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User and auth errors
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrIncorrectCredentials  = errors.New("invalid email or password")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrVerificationNotFound  = errors.New("invalid or expired verification token")
	ErrResetTokenInvalid     = errors.New("invalid or expired reset token")
	ErrNotAuthorized         = errors.New("not authorized")
	ErrInternalCommentDenied = errors.New("internal comments are admin-only")

	// Category errors
	ErrCategoryNotFound            = errors.New("category not found")
	ErrCategoryExists              = errors.New("category with this name already exists")
	ErrSubcategoryNotFound         = errors.New("subcategory not found")
	ErrSubcategoryExists           = errors.New("subcategory with this name already exists in the category")
	ErrSubcategoryCategoryMismatch = errors.New("subcategory does not belong to the selected category")

	// Complaint errors
	ErrComplaintNotFound       = errors.New("complaint not found")
	ErrInvalidTrackingIDFormat = errors.New("invalid tracking id format")
	ErrTrackingIDRequired      = errors.New("tracking id is required")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrInvalidPriority         = errors.New("invalid priority")
	ErrMissingRejectionReason  = errors.New("rejection reason is required")
	ErrAssigneeNotAdmin        = errors.New("assigned user not found or is not an admin")
	ErrContactDetailsRequired  = errors.New("full name and phone number are required for non-anonymous submissions")
	ErrTrackingIDGeneration    = errors.New("could not generate a unique tracking id")
	ErrCaptchaNotVerified      = errors.New("captcha verification failed")

	// Attachment errors
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrTooManyFiles    = errors.New("too many files")
)

// BusinessError represents a business logic error with a stable code
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsIncorrectCredentials(err error) bool {
	return errors.Is(err, ErrIncorrectCredentials)
}

func IsEmailNotVerified(err error) bool {
	return errors.Is(err, ErrEmailNotVerified)
}

func IsVerificationNotFound(err error) bool {
	return errors.Is(err, ErrVerificationNotFound)
}

func IsResetTokenInvalid(err error) bool {
	return errors.Is(err, ErrResetTokenInvalid)
}

func IsNotAuthorized(err error) bool {
	return errors.Is(err, ErrNotAuthorized)
}

func IsInternalCommentDenied(err error) bool {
	return errors.Is(err, ErrInternalCommentDenied)
}

func IsCategoryNotFound(err error) bool {
	return errors.Is(err, ErrCategoryNotFound)
}

func IsCategoryExists(err error) bool {
	return errors.Is(err, ErrCategoryExists)
}

func IsSubcategoryNotFound(err error) bool {
	return errors.Is(err, ErrSubcategoryNotFound)
}

func IsSubcategoryExists(err error) bool {
	return errors.Is(err, ErrSubcategoryExists)
}

func IsSubcategoryCategoryMismatch(err error) bool {
	return errors.Is(err, ErrSubcategoryCategoryMismatch)
}

func IsComplaintNotFound(err error) bool {
	return errors.Is(err, ErrComplaintNotFound)
}

func IsInvalidTrackingIDFormat(err error) bool {
	return errors.Is(err, ErrInvalidTrackingIDFormat)
}

func IsTrackingIDRequired(err error) bool {
	return errors.Is(err, ErrTrackingIDRequired)
}

func IsInvalidStatus(err error) bool {
	return errors.Is(err, ErrInvalidStatus)
}

func IsInvalidPriority(err error) bool {
	return errors.Is(err, ErrInvalidPriority)
}

func IsMissingRejectionReason(err error) bool {
	return errors.Is(err, ErrMissingRejectionReason)
}

func IsAssigneeNotAdmin(err error) bool {
	return errors.Is(err, ErrAssigneeNotAdmin)
}

func IsContactDetailsRequired(err error) bool {
	return errors.Is(err, ErrContactDetailsRequired)
}

func IsTrackingIDGeneration(err error) bool {
	return errors.Is(err, ErrTrackingIDGeneration)
}

func IsCaptchaNotVerified(err error) bool {
	return errors.Is(err, ErrCaptchaNotVerified)
}

func IsInvalidFileType(err error) bool {
	return errors.Is(err, ErrInvalidFileType)
}

func IsFileTooLarge(err error) bool {
	return errors.Is(err, ErrFileTooLarge)
}

func IsTooManyFiles(err error) bool {
	return errors.Is(err, ErrTooManyFiles)
}
