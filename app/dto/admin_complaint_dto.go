package dto

import "time"

// AdminListComplaintsRequest filters for the admin complaint listing
type AdminListComplaintsRequest struct {
	Status        *string    `json:"status,omitempty" validate:"omitempty,complaint_status"`
	Priority      *string    `json:"priority,omitempty" validate:"omitempty,complaint_priority"`
	CategoryID    *uint      `json:"category_id,omitempty"`
	SubcategoryID *uint      `json:"subcategory_id,omitempty"`
	AssignedTo    *uint      `json:"assigned_to,omitempty"`
	Unassigned    *bool      `json:"unassigned,omitempty"`
	Search        *string    `json:"search,omitempty" validate:"omitempty,max=100"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Page          uint       `json:"page,omitempty"`
	PageSize      uint       `json:"page_size,omitempty"`
}

// AdminComplaintItem represents a complaint row in the admin listing
type AdminComplaintItem struct {
	ComplaintItem
	IsAnonymous    *bool   `json:"is_anonymous"`
	SubmitterName  *string `json:"submitter_name,omitempty"`
	SubmitterEmail *string `json:"submitter_email,omitempty"`
	SubmitterPhone *string `json:"submitter_phone,omitempty"`
	AssignedToName *string `json:"assigned_to_name,omitempty"`
	AssignedTo     *uint   `json:"assigned_to,omitempty"`
}

// AdminListComplaintsResponse returns a filtered complaint page
type AdminListComplaintsResponse struct {
	Message    string               `json:"message"`
	Results    int                  `json:"results"`
	Total      int64                `json:"total"`
	Page       uint                 `json:"page"`
	PageSize   uint                 `json:"page_size"`
	Complaints []AdminComplaintItem `json:"complaints"`
}

// UpdateComplaintStatusRequest carries a status transition
// RejectionReason is required when status is rejected
type UpdateComplaintStatusRequest struct {
	Status          string  `json:"status" validate:"required,complaint_status"`
	RejectionReason *string `json:"rejection_reason,omitempty" validate:"omitempty,max=1000"`
	Comment         *string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

// AssignComplaintRequest carries an assignment change.
// A nil AssignedTo clears the assignment.
type AssignComplaintRequest struct {
	AssignedTo *uint `json:"assigned_to"`
}

// UpdateComplaintPriorityRequest carries a priority change
type UpdateComplaintPriorityRequest struct {
	Priority string `json:"priority" validate:"required,complaint_priority"`
}

// ComplaintResponse wraps a single complaint for admin mutations
type ComplaintResponse struct {
	Message   string             `json:"message"`
	Complaint AdminComplaintItem `json:"complaint"`
}

// StatisticsBucket is one key/count pair of a grouped statistic
type StatisticsBucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// ComplaintStatisticsResponse returns aggregate complaint counts
type ComplaintStatisticsResponse struct {
	Message    string             `json:"message"`
	Total      int64              `json:"total"`
	Recent     int64              `json:"recent"`
	ByStatus   []StatisticsBucket `json:"by_status"`
	ByCategory []StatisticsBucket `json:"by_category"`
	ByPriority []StatisticsBucket `json:"by_priority"`
}

// ExportComplaintsRequest filters for the XLSX export
type ExportComplaintsRequest struct {
	Status     *string    `json:"status,omitempty" validate:"omitempty,complaint_status"`
	Priority   *string    `json:"priority,omitempty" validate:"omitempty,complaint_priority"`
	CategoryID *uint      `json:"category_id,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}
