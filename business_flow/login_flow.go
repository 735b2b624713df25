// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	"github.com/amirphl/Ijwi-ry-Abaturage/app/services"
	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/repository"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"gorm.io/gorm"
)

// LoginFlow handles authentication and password recovery
type LoginFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.RefreshTokenResponse, error)
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest, metadata *ClientMetadata) (*dto.ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, token string, req *dto.ResetPasswordRequest, metadata *ClientMetadata) (*dto.ResetPasswordResponse, error)
	CurrentUser(ctx context.Context, userID uint) (*dto.UserDTO, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	userRepo        repository.UserRepository
	auditRepo       repository.AuditLogRepository
	tokenService    services.TokenService
	notificationSvc services.NotificationService
	resetBaseURL    string
	db              *gorm.DB
}

// NewLoginFlow creates a new login flow instance. resetBaseURL is the
// public page the password reset link points at.
func NewLoginFlow(
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	notificationSvc services.NotificationService,
	resetBaseURL string,
	db *gorm.DB,
) LoginFlow {
	return &LoginFlowImpl{
		userRepo:        userRepo,
		auditRepo:       auditRepo,
		tokenService:    tokenService,
		notificationSvc: notificationSvc,
		resetBaseURL:    resetBaseURL,
		db:              db,
	}
}

// Login authenticates by email and password and issues a token pair
func (s *LoginFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	user, err := s.userRepo.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}
	if user == nil {
		return nil, NewBusinessError("INCORRECT_CREDENTIALS", "Invalid email or password", ErrIncorrectCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		errMsg := fmt.Sprintf("Login failed for user %d: incorrect password", user.ID)
		_ = s.createAuditLog(ctx, &user.ID, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("INCORRECT_CREDENTIALS", "Invalid email or password", ErrIncorrectCredentials)
	}

	if !utils.IsTrue(user.IsVerified) {
		errMsg := fmt.Sprintf("Login rejected for user %d: email not verified", user.ID)
		_ = s.createAuditLog(ctx, &user.ID, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("EMAIL_NOT_VERIFIED", "Please verify your email before logging in", ErrEmailNotVerified)
	}

	accessToken, refreshToken, err := s.tokenService.GenerateTokens(user.ID, user.Role)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	_ = s.userRepo.TouchLastLogin(ctx, user.ID)

	msg := fmt.Sprintf("Login successful: %d", user.ID)
	_ = s.createAuditLog(ctx, &user.ID, models.AuditActionLoginSuccessful, msg, true, nil, metadata)

	return &dto.LoginResponse{
		Message:      "Login successful",
		Token:        accessToken,
		RefreshToken: refreshToken,
		User:         ToUserDTO(*user),
	}, nil
}

// RefreshToken exchanges a valid refresh token for a new token pair
func (s *LoginFlowImpl) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.RefreshTokenResponse, error) {
	accessToken, refreshToken, err := s.tokenService.RefreshToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("REFRESH_TOKEN_INVALID", "Invalid refresh token", err)
	}

	return &dto.RefreshTokenResponse{
		Message:      "Token refreshed successfully",
		Token:        accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// ForgotPassword stores a reset token and emails the reset link
func (s *LoginFlowImpl) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest, metadata *ClientMetadata) (*dto.ForgotPasswordResponse, error) {
	user, err := s.userRepo.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, NewBusinessError("PASSWORD_RESET_FAILED", "Password reset request failed", err)
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}

	resetToken, err := utils.RandomToken(32)
	if err != nil {
		return nil, NewBusinessError("PASSWORD_RESET_FAILED", "Password reset request failed", err)
	}

	expires := utils.UTCNow().Add(utils.ResetTokenTTL)
	if err := s.userRepo.SetResetToken(ctx, user.ID, resetToken, expires); err != nil {
		return nil, NewBusinessError("PASSWORD_RESET_FAILED", "Password reset request failed", err)
	}

	msg := fmt.Sprintf("Password reset requested: %d", user.ID)
	_ = s.createAuditLog(ctx, &user.ID, models.AuditActionPasswordResetRequested, msg, true, nil, metadata)

	go func() {
		link := fmt.Sprintf("%s/%s", s.resetBaseURL, resetToken)
		body := fmt.Sprintf(
			"You have requested a password reset for your Ijwi ry'Abaturage account.\n\nOpen the link below to choose a new password:\n%s\n\nThis link is valid for one hour. If you did not request this, please ignore this email.\n\nBest regards,\nThe Ijwi ry'Abaturage Team",
			link,
		)
		if err := s.notificationSvc.SendEmail(user.Email, "Password Reset - Ijwi ry'Abaturage", body); err != nil {
			errMsg := fmt.Sprintf("Failed to send password reset email: %v", err)
			_ = s.createAuditLog(context.Background(), &user.ID, models.AuditActionPasswordResetFailed, errMsg, false, &errMsg, metadata)
		}
	}()

	return &dto.ForgotPasswordResponse{
		Message: "Password reset email sent",
	}, nil
}

// ResetPassword replaces the password for the account matching the token
func (s *LoginFlowImpl) ResetPassword(ctx context.Context, token string, req *dto.ResetPasswordRequest, metadata *ClientMetadata) (*dto.ResetPasswordResponse, error) {
	if token == "" {
		return nil, NewBusinessError("RESET_TOKEN_INVALID", "Invalid or expired reset token", ErrResetTokenInvalid)
	}

	var user *models.User
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		var err error
		user, err = s.userRepo.ByResetPasswordToken(txCtx, token)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrResetTokenInvalid
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return s.userRepo.UpdatePassword(txCtx, user.ID, string(hashedPassword))
	})
	if err != nil {
		if IsResetTokenInvalid(err) {
			return nil, NewBusinessError("RESET_TOKEN_INVALID", "Invalid or expired reset token", err)
		}
		errMsg := fmt.Sprintf("Password reset failed: %s", err.Error())
		_ = s.createAuditLog(ctx, nil, models.AuditActionPasswordResetFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("PASSWORD_RESET_FAILED", "Password reset failed", err)
	}

	msg := fmt.Sprintf("Password reset completed: %d", user.ID)
	_ = s.createAuditLog(ctx, &user.ID, models.AuditActionPasswordResetCompleted, msg, true, nil, metadata)

	return &dto.ResetPasswordResponse{
		Message: "Password reset successful. You can now login with your new password.",
	}, nil
}

// CurrentUser returns the authenticated user's own profile
func (s *LoginFlowImpl) CurrentUser(ctx context.Context, userID uint) (*dto.UserDTO, error) {
	user, err := s.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("PROFILE_LOOKUP_FAILED", "Failed to retrieve profile", err)
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}
	profile := ToUserDTO(*user)
	return &profile, nil
}

func (s *LoginFlowImpl) createAuditLog(ctx context.Context, userID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	return createAuditLog(ctx, s.auditRepo, userID, action, description, success, errorMsg, metadata)
}
