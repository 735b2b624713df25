package repository

import (
	"context"

	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"gorm.io/gorm"
)

// AttachmentRepositoryImpl implements AttachmentRepository interface
type AttachmentRepositoryImpl struct {
	*BaseRepository[models.Attachment, models.AttachmentFilter]
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &AttachmentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Attachment, models.AttachmentFilter](db),
	}
}

// ListByComplaint lists attachments of a complaint in upload order
func (r *AttachmentRepositoryImpl) ListByComplaint(ctx context.Context, complaintID uint) ([]*models.Attachment, error) {
	return r.ByFilter(ctx, models.AttachmentFilter{ComplaintID: &complaintID}, "id ASC", 0, 0)
}

// applyFilter applies filter criteria to a GORM query
func (r *AttachmentRepositoryImpl) applyFilter(query *gorm.DB, filter models.AttachmentFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.ComplaintID != nil {
		query = query.Where("complaint_id = ?", *filter.ComplaintID)
	}
	if filter.FileType != nil {
		query = query.Where("file_type = ?", *filter.FileType)
	}
	return query
}

// ByFilter retrieves attachments based on filter criteria
func (r *AttachmentRepositoryImpl) ByFilter(ctx context.Context, filter models.AttachmentFilter, orderBy string, limit, offset int) ([]*models.Attachment, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Attachment{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Attachment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of attachments matching filter
func (r *AttachmentRepositoryImpl) Count(ctx context.Context, filter models.AttachmentFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Attachment{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any attachment matches the filter
func (r *AttachmentRepositoryImpl) Exists(ctx context.Context, filter models.AttachmentFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
