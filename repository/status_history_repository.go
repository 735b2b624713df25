package repository

import (
	"context"

	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"gorm.io/gorm"
)

// StatusHistoryRepositoryImpl implements StatusHistoryRepository interface
type StatusHistoryRepositoryImpl struct {
	*BaseRepository[models.StatusHistory, models.StatusHistoryFilter]
}

// NewStatusHistoryRepository creates a new status history repository
func NewStatusHistoryRepository(db *gorm.DB) StatusHistoryRepository {
	return &StatusHistoryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.StatusHistory, models.StatusHistoryFilter](db),
	}
}

// ListByComplaint lists the stored ledger rows for a complaint
func (r *StatusHistoryRepositoryImpl) ListByComplaint(ctx context.Context, complaintID uint, newestFirst bool) ([]*models.StatusHistory, error) {
	db := r.getDB(ctx)
	order := "created_at ASC"
	if newestFirst {
		order = "created_at DESC"
	}
	var rows []*models.StatusHistory
	err := db.Model(&models.StatusHistory{}).
		Where("complaint_id = ?", complaintID).
		Preload("ChangedByUser").
		Order(order).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *StatusHistoryRepositoryImpl) applyFilter(query *gorm.DB, filter models.StatusHistoryFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.ComplaintID != nil {
		query = query.Where("complaint_id = ?", *filter.ComplaintID)
	}
	if filter.NewStatus != nil {
		query = query.Where("new_status = ?", *filter.NewStatus)
	}
	if filter.ChangedBy != nil {
		query = query.Where("changed_by = ?", *filter.ChangedBy)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves ledger rows based on filter criteria
func (r *StatusHistoryRepositoryImpl) ByFilter(ctx context.Context, filter models.StatusHistoryFilter, orderBy string, limit, offset int) ([]*models.StatusHistory, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.StatusHistory{})

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

	var rows []*models.StatusHistory
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of ledger rows matching filter
func (r *StatusHistoryRepositoryImpl) Count(ctx context.Context, filter models.StatusHistoryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.StatusHistory{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any ledger row matches the filter
func (r *StatusHistoryRepositoryImpl) Exists(ctx context.Context, filter models.StatusHistoryFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
