// Package businessflow contains the core business logic and use cases for complaint workflows
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	"github.com/amirphl/Ijwi-ry-Abaturage/config"
	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/repository"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CategoryFlow handles the complaint taxonomy: public listings for the
// submission form and admin management of categories and subcategories.
type CategoryFlow interface {
	ListCategories(ctx context.Context) (*dto.ListCategoriesResponse, error)
	ListSubcategories(ctx context.Context, categoryID uint) (*dto.ListSubcategoriesResponse, error)
	ListCategoryTree(ctx context.Context) (*dto.ListCategoriesResponse, error)

	CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest, adminID uint, metadata *ClientMetadata) (*dto.CategoryResponse, error)
	UpdateCategory(ctx context.Context, id uint, req *dto.UpdateCategoryRequest, adminID uint, metadata *ClientMetadata) (*dto.CategoryResponse, error)
	CreateSubcategory(ctx context.Context, req *dto.CreateSubcategoryRequest, adminID uint, metadata *ClientMetadata) (*dto.SubcategoryResponse, error)
	UpdateSubcategory(ctx context.Context, id uint, req *dto.UpdateSubcategoryRequest, adminID uint, metadata *ClientMetadata) (*dto.SubcategoryResponse, error)
}

// CategoryFlowImpl implements the category business flow
type CategoryFlowImpl struct {
	categoryRepo    repository.CategoryRepository
	subcategoryRepo repository.SubcategoryRepository
	auditRepo       repository.AuditLogRepository
	rc              *redis.Client
	cacheConfig     *config.CacheConfig
	db              *gorm.DB
}

// NewCategoryFlow creates a new category flow instance
func NewCategoryFlow(
	categoryRepo repository.CategoryRepository,
	subcategoryRepo repository.SubcategoryRepository,
	auditRepo repository.AuditLogRepository,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
	db *gorm.DB,
) CategoryFlow {
	return &CategoryFlowImpl{
		categoryRepo:    categoryRepo,
		subcategoryRepo: subcategoryRepo,
		auditRepo:       auditRepo,
		rc:              rc,
		cacheConfig:     cacheConfig,
		db:              db,
	}
}

// redisKey prefixes a cache key with the configured namespace
func redisKey(cfg config.CacheConfig, key string) string {
	if cfg.RedisPrefix == "" {
		return key
	}
	return cfg.RedisPrefix + ":" + key
}

// ListCategories returns active categories ordered by name
func (s *CategoryFlowImpl) ListCategories(ctx context.Context) (*dto.ListCategoriesResponse, error) {
	categories, err := s.categoryRepo.ListActive(ctx)
	if err != nil {
		return nil, NewBusinessError("LIST_CATEGORIES_FAILED", "Failed to list categories", err)
	}

	items := make([]dto.CategoryDTO, 0, len(categories))
	for _, category := range categories {
		items = append(items, toCategoryDTO(category, false))
	}

	return &dto.ListCategoriesResponse{
		Message:    "Categories retrieved successfully",
		Categories: items,
	}, nil
}

// ListSubcategories returns the active subcategories of one category
func (s *CategoryFlowImpl) ListSubcategories(ctx context.Context, categoryID uint) (*dto.ListSubcategoriesResponse, error) {
	category, err := s.categoryRepo.ByID(ctx, categoryID)
	if err != nil {
		return nil, NewBusinessError("LIST_SUBCATEGORIES_FAILED", "Failed to list subcategories", err)
	}
	if category == nil {
		return nil, NewBusinessError("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
	}

	subcategories, err := s.subcategoryRepo.ListActiveByCategory(ctx, categoryID)
	if err != nil {
		return nil, NewBusinessError("LIST_SUBCATEGORIES_FAILED", "Failed to list subcategories", err)
	}

	items := make([]dto.SubcategoryDTO, 0, len(subcategories))
	for _, subcategory := range subcategories {
		items = append(items, toSubcategoryDTO(subcategory))
	}

	return &dto.ListSubcategoriesResponse{
		Message:       "Subcategories retrieved successfully",
		Subcategories: items,
	}, nil
}

// ListCategoryTree returns active categories with their active
// subcategories, served from cache when possible.
func (s *CategoryFlowImpl) ListCategoryTree(ctx context.Context) (*dto.ListCategoriesResponse, error) {
	useCache := s.rc != nil && s.cacheConfig != nil

	var cacheKey string
	if useCache {
		cacheKey = redisKey(*s.cacheConfig, utils.CategoryTreeCacheKey)
		if bs, err := s.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var cached []dto.CategoryDTO
			if err := json.Unmarshal(bs, &cached); err == nil {
				return &dto.ListCategoriesResponse{
					Message:    "Categories retrieved from cache",
					Categories: cached,
				}, nil
			}
		}
	}

	categories, err := s.categoryRepo.ListActiveWithSubcategories(ctx)
	if err != nil {
		return nil, NewBusinessError("LIST_CATEGORIES_FAILED", "Failed to list categories", err)
	}

	items := make([]dto.CategoryDTO, 0, len(categories))
	for _, category := range categories {
		items = append(items, toCategoryDTO(category, true))
	}

	if useCache {
		if bs, err := json.Marshal(items); err == nil {
			_ = s.rc.Set(ctx, cacheKey, bs, s.cacheConfig.DefaultTTL).Err()
		}
	}

	return &dto.ListCategoriesResponse{
		Message:    "Categories retrieved successfully",
		Categories: items,
	}, nil
}

// CreateCategory creates a new active category with a unique name
func (s *CategoryFlowImpl) CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest, adminID uint, metadata *ClientMetadata) (*dto.CategoryResponse, error) {
	existing, err := s.categoryRepo.ByName(ctx, req.Name)
	if err != nil {
		return nil, NewBusinessError("CREATE_CATEGORY_FAILED", "Failed to create category", err)
	}
	if existing != nil {
		return nil, NewBusinessError("CATEGORY_EXISTS", "Category with this name already exists", ErrCategoryExists)
	}

	category := &models.Category{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    utils.ToPtr(true),
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.categoryRepo.Save(txCtx, category)
	})
	if err != nil {
		return nil, NewBusinessError("CREATE_CATEGORY_FAILED", "Failed to create category", err)
	}

	s.invalidateTreeCache(ctx)

	msg := fmt.Sprintf("Category created: %d (%s)", category.ID, category.Name)
	_ = createAuditLog(ctx, s.auditRepo, &adminID, models.AuditActionCategoryCreated, msg, true, nil, metadata)

	return &dto.CategoryResponse{
		Message:  "Category created successfully",
		Category: toCategoryDTO(category, false),
	}, nil
}

// UpdateCategory applies a partial update to a category
func (s *CategoryFlowImpl) UpdateCategory(ctx context.Context, id uint, req *dto.UpdateCategoryRequest, adminID uint, metadata *ClientMetadata) (*dto.CategoryResponse, error) {
	category, err := s.categoryRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("UPDATE_CATEGORY_FAILED", "Failed to update category", err)
	}
	if category == nil {
		return nil, NewBusinessError("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
	}

	if req.Name != nil && *req.Name != category.Name {
		existing, err := s.categoryRepo.ByName(ctx, *req.Name)
		if err != nil {
			return nil, NewBusinessError("UPDATE_CATEGORY_FAILED", "Failed to update category", err)
		}
		if existing != nil {
			return nil, NewBusinessError("CATEGORY_EXISTS", "Category with this name already exists", ErrCategoryExists)
		}
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	if req.IsActive != nil {
		category.IsActive = req.IsActive
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.categoryRepo.Update(txCtx, category)
	})
	if err != nil {
		return nil, NewBusinessError("UPDATE_CATEGORY_FAILED", "Failed to update category", err)
	}

	s.invalidateTreeCache(ctx)

	msg := fmt.Sprintf("Category updated: %d (%s)", category.ID, category.Name)
	_ = createAuditLog(ctx, s.auditRepo, &adminID, models.AuditActionCategoryUpdated, msg, true, nil, metadata)

	return &dto.CategoryResponse{
		Message:  "Category updated successfully",
		Category: toCategoryDTO(category, false),
	}, nil
}

// CreateSubcategory creates a subcategory under an existing category
func (s *CategoryFlowImpl) CreateSubcategory(ctx context.Context, req *dto.CreateSubcategoryRequest, adminID uint, metadata *ClientMetadata) (*dto.SubcategoryResponse, error) {
	category, err := s.categoryRepo.ByID(ctx, req.CategoryID)
	if err != nil {
		return nil, NewBusinessError("CREATE_SUBCATEGORY_FAILED", "Failed to create subcategory", err)
	}
	if category == nil {
		return nil, NewBusinessError("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
	}

	exists, err := s.subcategoryRepo.Exists(ctx, models.SubcategoryFilter{Name: &req.Name, CategoryID: &req.CategoryID})
	if err != nil {
		return nil, NewBusinessError("CREATE_SUBCATEGORY_FAILED", "Failed to create subcategory", err)
	}
	if exists {
		return nil, NewBusinessError("SUBCATEGORY_EXISTS", "Subcategory with this name already exists in this category", ErrSubcategoryExists)
	}

	subcategory := &models.Subcategory{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		IsActive:    utils.ToPtr(true),
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.subcategoryRepo.Save(txCtx, subcategory)
	})
	if err != nil {
		return nil, NewBusinessError("CREATE_SUBCATEGORY_FAILED", "Failed to create subcategory", err)
	}

	s.invalidateTreeCache(ctx)

	msg := fmt.Sprintf("Subcategory created: %d (%s) under category %d", subcategory.ID, subcategory.Name, subcategory.CategoryID)
	_ = createAuditLog(ctx, s.auditRepo, &adminID, models.AuditActionSubcategoryCreated, msg, true, nil, metadata)

	return &dto.SubcategoryResponse{
		Message:     "Subcategory created successfully",
		Subcategory: toSubcategoryDTO(subcategory),
	}, nil
}

// UpdateSubcategory applies a partial update to a subcategory
func (s *CategoryFlowImpl) UpdateSubcategory(ctx context.Context, id uint, req *dto.UpdateSubcategoryRequest, adminID uint, metadata *ClientMetadata) (*dto.SubcategoryResponse, error) {
	subcategory, err := s.subcategoryRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("UPDATE_SUBCATEGORY_FAILED", "Failed to update subcategory", err)
	}
	if subcategory == nil {
		return nil, NewBusinessError("SUBCATEGORY_NOT_FOUND", "Subcategory not found", ErrSubcategoryNotFound)
	}

	targetCategoryID := subcategory.CategoryID
	if req.CategoryID != nil && *req.CategoryID != subcategory.CategoryID {
		category, err := s.categoryRepo.ByID(ctx, *req.CategoryID)
		if err != nil {
			return nil, NewBusinessError("UPDATE_SUBCATEGORY_FAILED", "Failed to update subcategory", err)
		}
		if category == nil {
			return nil, NewBusinessError("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
		}
		targetCategoryID = *req.CategoryID
	}

	targetName := subcategory.Name
	if req.Name != nil {
		targetName = *req.Name
	}

	if targetName != subcategory.Name || targetCategoryID != subcategory.CategoryID {
		existing, err := s.subcategoryRepo.ByFilter(ctx, models.SubcategoryFilter{Name: &targetName, CategoryID: &targetCategoryID}, "", 0, 0)
		if err != nil {
			return nil, NewBusinessError("UPDATE_SUBCATEGORY_FAILED", "Failed to update subcategory", err)
		}
		for _, other := range existing {
			if other.ID != subcategory.ID {
				return nil, NewBusinessError("SUBCATEGORY_EXISTS", "Subcategory with this name already exists in this category", ErrSubcategoryExists)
			}
		}
	}

	subcategory.Name = targetName
	subcategory.CategoryID = targetCategoryID
	if req.Description != nil {
		subcategory.Description = req.Description
	}
	if req.IsActive != nil {
		subcategory.IsActive = req.IsActive
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.subcategoryRepo.Update(txCtx, subcategory)
	})
	if err != nil {
		return nil, NewBusinessError("UPDATE_SUBCATEGORY_FAILED", "Failed to update subcategory", err)
	}

	s.invalidateTreeCache(ctx)

	msg := fmt.Sprintf("Subcategory updated: %d (%s)", subcategory.ID, subcategory.Name)
	_ = createAuditLog(ctx, s.auditRepo, &adminID, models.AuditActionSubcategoryUpdated, msg, true, nil, metadata)

	return &dto.SubcategoryResponse{
		Message:     "Subcategory updated successfully",
		Subcategory: toSubcategoryDTO(subcategory),
	}, nil
}

func (s *CategoryFlowImpl) invalidateTreeCache(ctx context.Context) {
	if s.rc == nil || s.cacheConfig == nil {
		return
	}
	_ = s.rc.Del(ctx, redisKey(*s.cacheConfig, utils.CategoryTreeCacheKey)).Err()
}

func toCategoryDTO(category *models.Category, withSubcategories bool) dto.CategoryDTO {
	item := dto.CategoryDTO{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		IsActive:    category.IsActive,
	}
	if withSubcategories {
		item.Subcategories = make([]dto.SubcategoryDTO, 0, len(category.Subcategories))
		for i := range category.Subcategories {
			item.Subcategories = append(item.Subcategories, toSubcategoryDTO(&category.Subcategories[i]))
		}
	}
	return item
}

func toSubcategoryDTO(subcategory *models.Subcategory) dto.SubcategoryDTO {
	return dto.SubcategoryDTO{
		ID:          subcategory.ID,
		CategoryID:  subcategory.CategoryID,
		Name:        subcategory.Name,
		Description: subcategory.Description,
		IsActive:    subcategory.IsActive,
	}
}
