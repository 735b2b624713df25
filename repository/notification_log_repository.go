package repository

import (
	"context"

	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"gorm.io/gorm"
)

// NotificationLogRepositoryImpl implements NotificationLogRepository interface
type NotificationLogRepositoryImpl struct {
	*BaseRepository[models.NotificationLog, models.NotificationLogFilter]
}

// NewNotificationLogRepository creates a new notification log repository
func NewNotificationLogRepository(db *gorm.DB) NotificationLogRepository {
	return &NotificationLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.NotificationLog, models.NotificationLogFilter](db),
	}
}

// ListByComplaint lists dispatch records for a complaint, newest first
func (r *NotificationLogRepositoryImpl) ListByComplaint(ctx context.Context, complaintID uint) ([]*models.NotificationLog, error) {
	return r.ByFilter(ctx, models.NotificationLogFilter{ComplaintID: &complaintID}, "created_at DESC", 0, 0)
}

// applyFilter applies filter criteria to a GORM query
func (r *NotificationLogRepositoryImpl) applyFilter(query *gorm.DB, filter models.NotificationLogFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.ComplaintID != nil {
		query = query.Where("complaint_id = ?", *filter.ComplaintID)
	}
	if filter.Intent != nil {
		query = query.Where("intent = ?", *filter.Intent)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}
	return query
}

// ByFilter retrieves dispatch records based on filter criteria
func (r *NotificationLogRepositoryImpl) ByFilter(ctx context.Context, filter models.NotificationLogFilter, orderBy string, limit, offset int) ([]*models.NotificationLog, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.NotificationLog{})

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

	var rows []*models.NotificationLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of dispatch records matching filter
func (r *NotificationLogRepositoryImpl) Count(ctx context.Context, filter models.NotificationLogFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.NotificationLog{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any dispatch record matches the filter
func (r *NotificationLogRepositoryImpl) Exists(ctx context.Context, filter models.NotificationLogFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
