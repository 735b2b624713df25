package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"gorm.io/gorm"
)

// ComplaintRepositoryImpl implements ComplaintRepository interface
type ComplaintRepositoryImpl struct {
	*BaseRepository[models.Complaint, models.ComplaintFilter]
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &ComplaintRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Complaint, models.ComplaintFilter](db),
	}
}

// ByTrackingID retrieves a complaint by its public tracking id
func (r *ComplaintRepositoryImpl) ByTrackingID(ctx context.Context, trackingID string) (*models.Complaint, error) {
	db := r.getDB(ctx)
	var row models.Complaint
	err := db.Model(&models.Complaint{}).
		Where("tracking_id = ?", trackingID).
		Preload("Category").
		Preload("Subcategory").
		Preload("Attachments").
		Preload("AssignedUser").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ByUUID retrieves a complaint by UUID
func (r *ComplaintRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Complaint, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}
	rows, err := r.ByFilter(ctx, models.ComplaintFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListByUser lists a user's complaints, newest first
func (r *ComplaintRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*models.Complaint, error) {
	db := r.getDB(ctx)
	var rows []*models.Complaint
	err := db.Model(&models.Complaint{}).
		Where("user_id = ?", userID).
		Preload("Category").
		Preload("Subcategory").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update persists changes to an existing complaint
func (r *ComplaintRepositoryImpl) Update(ctx context.Context, complaint *models.Complaint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	complaint.UpdatedAt = utils.UTCNow()
	err = db.Save(complaint).Error
	if err != nil {
		return err
	}

	return nil
}

// UpdatePriority updates only the priority column. No ledger row, no
// notification; priority is operational metadata.
func (r *ComplaintRepositoryImpl) UpdatePriority(ctx context.Context, id uint, priority string) error {
	db := r.getDB(ctx)
	return db.Model(&models.Complaint{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"priority":   priority,
			"updated_at": utils.UTCNow(),
		}).Error
}

// CountGroupedBy returns complaint counts grouped by the given column
func (r *ComplaintRepositoryImpl) CountGroupedBy(ctx context.Context, column string) (map[string]int64, error) {
	switch column {
	case "status", "priority", "category_id":
	default:
		return nil, fmt.Errorf("unsupported group column: %s", column)
	}

	db := r.getDB(ctx)
	type bucket struct {
		Key   string
		Count int64
	}
	var buckets []bucket
	err := db.Model(&models.Complaint{}).
		Select(fmt.Sprintf("%s::text AS key, COUNT(*) AS count", column)).
		Group(column).
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(buckets))
	for _, b := range buckets {
		out[b.Key] = b.Count
	}
	return out, nil
}

// CountCreatedSince counts complaints submitted after the given time
func (r *ComplaintRepositoryImpl) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.Count(ctx, models.ComplaintFilter{CreatedAfter: &since})
}

// applyFilter applies filter criteria to a GORM query
func (r *ComplaintRepositoryImpl) applyFilter(query *gorm.DB, filter models.ComplaintFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.TrackingID != nil {
		query = query.Where("tracking_id = ?", *filter.TrackingID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SubcategoryID != nil {
		query = query.Where("subcategory_id = ?", *filter.SubcategoryID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.Unassigned != nil && *filter.Unassigned {
		query = query.Where("assigned_to IS NULL")
	}
	if filter.Search != nil && *filter.Search != "" {
		like := "%" + *filter.Search + "%"
		query = query.Where(
			"tracking_id ILIKE ? OR title ILIKE ? OR description ILIKE ? OR location ILIKE ?",
			like, like, like, like,
		)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves complaints based on filter criteria
func (r *ComplaintRepositoryImpl) ByFilter(ctx context.Context, filter models.ComplaintFilter, orderBy string, limit, offset int) ([]*models.Complaint, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Complaint{})

	query = r.applyFilter(query, filter)

	query = query.Preload("Category").Preload("Subcategory")

	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Complaint
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of complaints matching filter
func (r *ComplaintRepositoryImpl) Count(ctx context.Context, filter models.ComplaintFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Complaint{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any complaint matches the filter
func (r *ComplaintRepositoryImpl) Exists(ctx context.Context, filter models.ComplaintFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
