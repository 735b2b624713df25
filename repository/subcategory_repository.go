package repository

import (
	"context"

	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"gorm.io/gorm"
)

// SubcategoryRepositoryImpl implements SubcategoryRepository interface
type SubcategoryRepositoryImpl struct {
	*BaseRepository[models.Subcategory, models.SubcategoryFilter]
}

// NewSubcategoryRepository creates a new subcategory repository
func NewSubcategoryRepository(db *gorm.DB) SubcategoryRepository {
	return &SubcategoryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Subcategory, models.SubcategoryFilter](db),
	}
}

// ByIDAndCategory retrieves a subcategory only if it belongs to the given category
func (r *SubcategoryRepositoryImpl) ByIDAndCategory(ctx context.Context, id, categoryID uint) (*models.Subcategory, error) {
	rows, err := r.ByFilter(ctx, models.SubcategoryFilter{ID: &id, CategoryID: &categoryID}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListActiveByCategory lists active subcategories of a category ordered by name
func (r *SubcategoryRepositoryImpl) ListActiveByCategory(ctx context.Context, categoryID uint) ([]*models.Subcategory, error) {
	return r.ByFilter(ctx, models.SubcategoryFilter{CategoryID: &categoryID, IsActive: utils.ToPtr(true)}, "name ASC", 0, 0)
}

// Update persists changes to an existing subcategory
func (r *SubcategoryRepositoryImpl) Update(ctx context.Context, subcategory *models.Subcategory) error {
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

	subcategory.UpdatedAt = utils.UTCNow()
	err = db.Save(subcategory).Error
	if err != nil {
		return err
	}

	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *SubcategoryRepositoryImpl) applyFilter(query *gorm.DB, filter models.SubcategoryFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves subcategories based on filter criteria
func (r *SubcategoryRepositoryImpl) ByFilter(ctx context.Context, filter models.SubcategoryFilter, orderBy string, limit, offset int) ([]*models.Subcategory, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Subcategory{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "name ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Subcategory
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of subcategories matching filter
func (r *SubcategoryRepositoryImpl) Count(ctx context.Context, filter models.SubcategoryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Subcategory{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any subcategory matches the filter
func (r *SubcategoryRepositoryImpl) Exists(ctx context.Context, filter models.SubcategoryFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
