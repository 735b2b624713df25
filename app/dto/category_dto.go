package dto

// CategoryDTO represents a category in API responses
type CategoryDTO struct {
	ID            uint             `json:"id"`
	Name          string           `json:"name"`
	Description   *string          `json:"description,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
	Subcategories []SubcategoryDTO `json:"subcategories,omitempty"`
}

// SubcategoryDTO represents a subcategory in API responses
type SubcategoryDTO struct {
	ID          uint    `json:"id"`
	CategoryID  uint    `json:"category_id,omitempty"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// ListCategoriesResponse returns active categories ordered by name
type ListCategoriesResponse struct {
	Message    string        `json:"message"`
	Categories []CategoryDTO `json:"categories"`
}

// ListSubcategoriesResponse returns active subcategories of one category
type ListSubcategoriesResponse struct {
	Message       string           `json:"message"`
	Subcategories []SubcategoryDTO `json:"subcategories"`
}

// CreateCategoryRequest carries data to create a new category
type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// UpdateCategoryRequest carries partial updates for a category
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// CreateSubcategoryRequest carries data to create a new subcategory
type CreateSubcategoryRequest struct {
	CategoryID  uint    `json:"category_id" validate:"required"`
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// UpdateSubcategoryRequest carries partial updates for a subcategory
type UpdateSubcategoryRequest struct {
	CategoryID  *uint   `json:"category_id,omitempty"`
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// CategoryResponse wraps a single category
type CategoryResponse struct {
	Message  string      `json:"message"`
	Category CategoryDTO `json:"category"`
}

// SubcategoryResponse wraps a single subcategory
type SubcategoryResponse struct {
	Message     string         `json:"message"`
	Subcategory SubcategoryDTO `json:"subcategory"`
}
