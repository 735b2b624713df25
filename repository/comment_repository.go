package repository

import (
	"context"

	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"gorm.io/gorm"
)

// CommentRepositoryImpl implements CommentRepository interface
type CommentRepositoryImpl struct {
	*BaseRepository[models.Comment, models.CommentFilter]
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &CommentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Comment, models.CommentFilter](db),
	}
}

// ListByComplaint lists a complaint's comments oldest first.
// Internal notes are excluded unless includeInternal is set.
func (r *CommentRepositoryImpl) ListByComplaint(ctx context.Context, complaintID uint, includeInternal bool) ([]*models.Comment, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Comment{}).
		Where("complaint_id = ?", complaintID).
		Preload("User")
	if !includeInternal {
		query = query.Where("is_internal = ?", false)
	}
	var rows []*models.Comment
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *CommentRepositoryImpl) applyFilter(query *gorm.DB, filter models.CommentFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.ComplaintID != nil {
		query = query.Where("complaint_id = ?", *filter.ComplaintID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.IsInternal != nil {
		query = query.Where("is_internal = ?", *filter.IsInternal)
	}
	return query
}

// ByFilter retrieves comments based on filter criteria
func (r *CommentRepositoryImpl) ByFilter(ctx context.Context, filter models.CommentFilter, orderBy string, limit, offset int) ([]*models.Comment, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Comment{})

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

	var rows []*models.Comment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of comments matching filter
func (r *CommentRepositoryImpl) Count(ctx context.Context, filter models.CommentFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Comment{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any comment matches the filter
func (r *CommentRepositoryImpl) Exists(ctx context.Context, filter models.CommentFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
