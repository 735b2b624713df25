package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	"github.com/amirphl/Ijwi-ry-Abaturage/app/services"
	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/repository"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"gorm.io/gorm"
)

// CommentFlow handles comments on complaints
type CommentFlow interface {
	AddComment(ctx context.Context, complaintID uint, req *dto.AddCommentRequest, authorID uint, metadata *ClientMetadata) (*dto.AddCommentResponse, error)
}

// CommentFlowImpl implements the comment business flow
type CommentFlowImpl struct {
	commentRepo         repository.CommentRepository
	complaintRepo       repository.ComplaintRepository
	userRepo            repository.UserRepository
	notificationLogRepo repository.NotificationLogRepository
	auditRepo           repository.AuditLogRepository
	notifier            services.ComplaintNotifier
	db                  *gorm.DB
}

// NewCommentFlow creates a new comment flow instance
func NewCommentFlow(
	commentRepo repository.CommentRepository,
	complaintRepo repository.ComplaintRepository,
	userRepo repository.UserRepository,
	notificationLogRepo repository.NotificationLogRepository,
	auditRepo repository.AuditLogRepository,
	notifier services.ComplaintNotifier,
	db *gorm.DB,
) CommentFlow {
	return &CommentFlowImpl{
		commentRepo:         commentRepo,
		complaintRepo:       complaintRepo,
		userRepo:            userRepo,
		notificationLogRepo: notificationLogRepo,
		auditRepo:           auditRepo,
		notifier:            notifier,
		db:                  db,
	}
}

// AddComment records a comment on a complaint. Internal comments are
// admin-only; regular users may only comment on their own complaints.
// Admin public comments notify the submitter, internal notes never do.
func (f *CommentFlowImpl) AddComment(ctx context.Context, complaintID uint, req *dto.AddCommentRequest, authorID uint, metadata *ClientMetadata) (*dto.AddCommentResponse, error) {
	complaint, err := f.complaintRepo.ByID(ctx, complaintID)
	if err != nil {
		return nil, NewBusinessError("COMMENT_FAILED", "Failed to add comment", err)
	}
	if complaint == nil {
		return nil, NewBusinessError("COMPLAINT_NOT_FOUND", "Complaint not found", ErrComplaintNotFound)
	}

	author, err := f.userRepo.ByID(ctx, authorID)
	if err != nil {
		return nil, NewBusinessError("COMMENT_FAILED", "Failed to add comment", err)
	}
	if author == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}

	if req.IsInternal && !author.IsAdmin() {
		return nil, NewBusinessError("INTERNAL_COMMENT_DENIED",
			"You are not authorized to add internal comments", ErrInternalCommentDenied)
	}
	if !author.IsAdmin() {
		if complaint.UserID == nil || *complaint.UserID != authorID {
			return nil, NewBusinessError("NOT_AUTHORIZED",
				"You are not authorized to comment on this complaint", ErrNotAuthorized)
		}
	}

	comment := &models.Comment{
		ComplaintID: complaint.ID,
		UserID:      authorID,
		Content:     req.Content,
		IsInternal:  utils.ToPtr(req.IsInternal),
	}
	if err := f.commentRepo.Save(ctx, comment); err != nil {
		return nil, NewBusinessError("COMMENT_FAILED", "Failed to add comment", err)
	}
	comment.User = author

	_ = createAuditLog(ctx, f.auditRepo, &authorID, models.AuditActionCommentAdded,
		fmt.Sprintf("Comment added on complaint %s", complaint.TrackingID), true, nil, metadata)

	if author.IsAdmin() && !req.IsInternal {
		f.notifySubmitter(complaint, services.NotificationData{
			TrackingID: complaint.TrackingID,
			Comment:    req.Content,
		})
	}

	return &dto.AddCommentResponse{
		Message: "Comment added successfully",
		Comment: toCommentDTO(comment, author.IsAdmin()),
	}, nil
}

func (f *CommentFlowImpl) notifySubmitter(complaint *models.Complaint, data services.NotificationData) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		email, phone, ok := submitterContact(complaint)
		if !ok {
			return
		}

		result := f.notifier.Send(services.NotificationContact{Email: email, PhoneNumber: phone},
			models.NotificationIntentNewComment, data)

		logEntry := &models.NotificationLog{
			ComplaintID: complaint.ID,
			Intent:      models.NotificationIntentNewComment,
			Channels:    result.Channels(),
			Success:     utils.ToPtr(result.Email || result.SMS),
		}
		if email != "" {
			logEntry.RecipientEmail = &email
		}
		if phone != "" {
			logEntry.RecipientPhone = &phone
		}
		if err := f.notificationLogRepo.Save(ctx, logEntry); err != nil {
			errMsg := err.Error()
			_ = createAuditLog(ctx, f.auditRepo, complaint.UserID, models.AuditActionCommentAdded,
				"Failed to record notification dispatch", false, &errMsg, nil)
		}
	}()
}
