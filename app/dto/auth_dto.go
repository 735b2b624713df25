// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "time"

// RegisterRequest represents the account registration form data
type RegisterRequest struct {
	FirstName   string  `json:"first_name" validate:"required,max=100,alpha_space"`
	LastName    string  `json:"last_name" validate:"required,max=100,alpha_space"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    string  `json:"password" validate:"required,min=8,password_strength"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,mobile_format"`
}

// RegisterResponse represents the response after successful registration
type RegisterResponse struct {
	Message string  `json:"message"`
	User    UserDTO `json:"user"`
}

// LoginRequest represents the login form data
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the response after successful authentication
type LoginResponse struct {
	Message      string  `json:"message"`
	Token        string  `json:"token"`
	RefreshToken string  `json:"refresh_token"`
	User         UserDTO `json:"user"`
}

// VerifyEmailResponse represents the response after email verification
type VerifyEmailResponse struct {
	Message string `json:"message"`
}

// ForgotPasswordRequest represents the password reset request form data
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// ForgotPasswordResponse represents the response after a reset email is dispatched
type ForgotPasswordResponse struct {
	Message string `json:"message"`
}

// ResetPasswordRequest represents the password reset form data
type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8,password_strength"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// ResetPasswordResponse represents the response after a successful password reset
type ResetPasswordResponse struct {
	Message string `json:"message"`
}

// RefreshTokenRequest carries the refresh token to exchange
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse returns the renewed token pair
type RefreshTokenResponse struct {
	Message      string `json:"message"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// UserDTO represents user data for API responses
type UserDTO struct {
	ID          uint      `json:"id"`
	UUID        string    `json:"uuid"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Role        string    `json:"role"`
	IsVerified  *bool     `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}
