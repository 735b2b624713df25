package dto

import "io"

// UploadedFile carries one multipart file from the handler into the flow
type UploadedFile struct {
	Reader   io.Reader `json:"-"`
	FileName string    `json:"file_name"`
	Size     int64     `json:"size"`
}

// SubmitComplaintRequest carries data to submit a new complaint
// Guests who are not anonymous must supply full name and phone number;
// authenticated non-anonymous submissions are linked to the user instead.
type SubmitComplaintRequest struct {
	Title         *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description   string  `json:"description" validate:"required,min=10,max=5000"`
	Location      string  `json:"location" validate:"required,max=255"`
	CategoryID    uint    `json:"category_id" validate:"required"`
	SubcategoryID uint    `json:"subcategory_id" validate:"required"`
	IsAnonymous   bool    `json:"is_anonymous"`

	FullName    *string `json:"full_name,omitempty" validate:"omitempty,max=200"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,mobile_format"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email,max=255"`

	// Captcha challenge, required for anonymous submissions
	CaptchaID    *string  `json:"captcha_id,omitempty"`
	CaptchaAngle *float64 `json:"captcha_angle,omitempty"`

	// Internal: populated by the handler from the multipart form and auth context
	UserID *uint          `json:"-"`
	Files  []UploadedFile `json:"-"`
}

// SubmitComplaintResponse returns the created complaint identifiers
type SubmitComplaintResponse struct {
	Message     string          `json:"message"`
	ID          uint            `json:"id"`
	TrackingID  string          `json:"tracking_id"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at"`
	Attachments []AttachmentDTO `json:"attachments"`
	// Files that could not be stored; the complaint itself is still created
	FailedFiles []string `json:"failed_files,omitempty"`
}

// AttachmentDTO represents an attachment in API responses
type AttachmentDTO struct {
	ID           uint    `json:"id"`
	FileName     string  `json:"file_name"`
	FileType     string  `json:"file_type"`
	FileSize     int64   `json:"file_size"`
	FileURL      string  `json:"file_url"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// CommentDTO represents a complaint comment in API responses
type CommentDTO struct {
	ID         uint    `json:"id"`
	Content    string  `json:"content"`
	IsInternal *bool   `json:"is_internal,omitempty"`
	AuthorName *string `json:"author_name,omitempty"`
	AuthorRole *string `json:"author_role,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// ComplaintItem represents a complaint row in listings
type ComplaintItem struct {
	ID          uint    `json:"id"`
	TrackingID  string  `json:"tracking_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	Category    *string `json:"category,omitempty"`
	Subcategory *string `json:"subcategory,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ListUserComplaintsResponse returns the authenticated user's complaints
type ListUserComplaintsResponse struct {
	Message    string          `json:"message"`
	Results    int             `json:"results"`
	Complaints []ComplaintItem `json:"complaints"`
}

// AddCommentRequest carries data to add a comment on a complaint
type AddCommentRequest struct {
	Content    string `json:"content" validate:"required,min=1,max=2000"`
	IsInternal bool   `json:"is_internal"`
}

// AddCommentResponse returns the created comment
type AddCommentResponse struct {
	Message string     `json:"message"`
	Comment CommentDTO `json:"comment"`
}
