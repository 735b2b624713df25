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
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SignupFlow handles account registration and email verification
type SignupFlow interface {
	Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.RegisterResponse, error)
	VerifyEmail(ctx context.Context, token string, metadata *ClientMetadata) (*dto.VerifyEmailResponse, error)
}

// SignupFlowImpl implements the signup business flow
type SignupFlowImpl struct {
	userRepo        repository.UserRepository
	auditRepo       repository.AuditLogRepository
	notificationSvc services.NotificationService
	verifyBaseURL   string
	db              *gorm.DB
}

// NewSignupFlow creates a new signup flow instance. verifyBaseURL is the
// public endpoint the verification link points at.
func NewSignupFlow(
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	notificationSvc services.NotificationService,
	verifyBaseURL string,
	db *gorm.DB,
) SignupFlow {
	return &SignupFlowImpl{
		userRepo:        userRepo,
		auditRepo:       auditRepo,
		notificationSvc: notificationSvc,
		verifyBaseURL:   verifyBaseURL,
		db:              db,
	}
}

// Register creates an unverified account and emails the verification link
func (s *SignupFlowImpl) Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.RegisterResponse, error) {
	existing, err := s.userRepo.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}
	if existing != nil {
		return nil, NewBusinessError("EMAIL_ALREADY_EXISTS", "User with this email already exists", ErrEmailAlreadyExists)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}

	verificationToken, err := utils.RandomToken(32)
	if err != nil {
		return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}

	user := &models.User{
		UUID:              uuid.New(),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		PhoneNumber:       req.PhoneNumber,
		PasswordHash:      string(hashedPassword),
		Role:              models.UserRoleCitizen,
		IsVerified:        utils.ToPtr(false),
		VerificationToken: &verificationToken,
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.userRepo.Save(txCtx, user)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Registration failed: %s", err.Error())
		_ = s.createAuditLog(ctx, nil, models.AuditActionSignupCompleted, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}

	msg := fmt.Sprintf("User registered: %d", user.ID)
	_ = s.createAuditLog(ctx, &user.ID, models.AuditActionSignupCompleted, msg, true, nil, metadata)

	// Send verification email outside the transaction
	go func() {
		link := fmt.Sprintf("%s/%s", s.verifyBaseURL, verificationToken)
		body := fmt.Sprintf(
			"Welcome to Ijwi ry'Abaturage!\n\nPlease verify your email address by opening the link below:\n%s\n\nIf you did not create an account, please ignore this email.\n\nBest regards,\nThe Ijwi ry'Abaturage Team",
			link,
		)
		if err := s.notificationSvc.SendEmail(user.Email, "Verify Your Email - Ijwi ry'Abaturage", body); err != nil {
			errMsg := fmt.Sprintf("Failed to send verification email: %v", err)
			_ = s.createAuditLog(context.Background(), &user.ID, models.AuditActionSignupCompleted, errMsg, false, &errMsg, metadata)
		}
	}()

	return &dto.RegisterResponse{
		Message: "Registration successful. Please check your email to verify your account.",
		User:    ToUserDTO(*user),
	}, nil
}

// VerifyEmail marks the account matching the token as verified
func (s *SignupFlowImpl) VerifyEmail(ctx context.Context, token string, metadata *ClientMetadata) (*dto.VerifyEmailResponse, error) {
	if token == "" {
		return nil, NewBusinessError("VERIFICATION_TOKEN_INVALID", "Invalid or expired verification token", ErrVerificationNotFound)
	}

	var user *models.User
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		var err error
		user, err = s.userRepo.ByVerificationToken(txCtx, token)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrVerificationNotFound
		}
		return s.userRepo.MarkVerified(txCtx, user.ID)
	})
	if err != nil {
		if IsVerificationNotFound(err) {
			return nil, NewBusinessError("VERIFICATION_TOKEN_INVALID", "Invalid or expired verification token", err)
		}
		return nil, NewBusinessError("VERIFICATION_FAILED", "Email verification failed", err)
	}

	msg := fmt.Sprintf("Email verified: %d", user.ID)
	_ = s.createAuditLog(ctx, &user.ID, models.AuditActionEmailVerified, msg, true, nil, metadata)

	return &dto.VerifyEmailResponse{
		Message: "Email verified successfully. You can now login.",
	}, nil
}

func (s *SignupFlowImpl) createAuditLog(ctx context.Context, userID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	return createAuditLog(ctx, s.auditRepo, userID, action, description, success, errorMsg, metadata)
}
