// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserRepository defines operations for platform users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByUUID(ctx context.Context, uuidStr string) (*models.User, error)
	ByVerificationToken(ctx context.Context, token string) (*models.User, error)
	ByResetPasswordToken(ctx context.Context, token string) (*models.User, error)
	MarkVerified(ctx context.Context, userID uint) error
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error
	SetResetToken(ctx context.Context, userID uint, token string, expires time.Time) error
	TouchLastLogin(ctx context.Context, userID uint) error
}

// CategoryRepository defines operations for complaint categories
type CategoryRepository interface {
	Repository[models.Category, models.CategoryFilter]
	ByName(ctx context.Context, name string) (*models.Category, error)
	ListActive(ctx context.Context) ([]*models.Category, error)
	ListActiveWithSubcategories(ctx context.Context) ([]*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
}

// SubcategoryRepository defines operations for complaint subcategories
type SubcategoryRepository interface {
	Repository[models.Subcategory, models.SubcategoryFilter]
	ByIDAndCategory(ctx context.Context, id, categoryID uint) (*models.Subcategory, error)
	ListActiveByCategory(ctx context.Context, categoryID uint) ([]*models.Subcategory, error)
	Update(ctx context.Context, subcategory *models.Subcategory) error
}

// ComplaintRepository defines operations for complaints
type ComplaintRepository interface {
	Repository[models.Complaint, models.ComplaintFilter]
	ByTrackingID(ctx context.Context, trackingID string) (*models.Complaint, error)
	ByUUID(ctx context.Context, uuidStr string) (*models.Complaint, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Complaint, error)
	Update(ctx context.Context, complaint *models.Complaint) error
	UpdatePriority(ctx context.Context, id uint, priority string) error
	CountGroupedBy(ctx context.Context, column string) (map[string]int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

// StatusHistoryRepository defines operations for the transition ledger
type StatusHistoryRepository interface {
	Repository[models.StatusHistory, models.StatusHistoryFilter]
	ListByComplaint(ctx context.Context, complaintID uint, newestFirst bool) ([]*models.StatusHistory, error)
}

// AttachmentRepository defines operations for complaint attachments
type AttachmentRepository interface {
	Repository[models.Attachment, models.AttachmentFilter]
	ListByComplaint(ctx context.Context, complaintID uint) ([]*models.Attachment, error)
}

// CommentRepository defines operations for complaint comments
type CommentRepository interface {
	Repository[models.Comment, models.CommentFilter]
	ListByComplaint(ctx context.Context, complaintID uint, includeInternal bool) ([]*models.Comment, error)
}

// NotificationLogRepository defines operations for notification dispatch records
type NotificationLogRepository interface {
	Repository[models.NotificationLog, models.NotificationLogFilter]
	ListByComplaint(ctx context.Context, complaintID uint) ([]*models.NotificationLog, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
