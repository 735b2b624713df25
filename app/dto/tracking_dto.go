package dto

// ValidateTrackingIDRequest carries a tracking ID to validate
type ValidateTrackingIDRequest struct {
	TrackingID string `json:"tracking_id" validate:"required"`
}

// ValidateTrackingIDResponse confirms a tracking ID exists
type ValidateTrackingIDResponse struct {
	Message    string `json:"message"`
	Valid      bool   `json:"valid"`
	TrackingID string `json:"tracking_id"`
}

// TimelineCheckpoint is one step of the citizen-facing status timeline
type TimelineCheckpoint struct {
	Status    string  `json:"status"`
	Date      *string `json:"date"`
	Completed bool    `json:"completed"`
	Current   bool    `json:"current"`
}

// TrackedComplaintResponse is the public view of a complaint looked up by
// tracking ID. StatusTimeline is nil when the complaint was rejected.
type TrackedComplaintResponse struct {
	ID              uint                 `json:"id"`
	TrackingID      string               `json:"tracking_id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Location        string               `json:"location"`
	Status          string               `json:"status"`
	Priority        string               `json:"priority"`
	Category        *CategoryDTO         `json:"category,omitempty"`
	Subcategory     *SubcategoryDTO      `json:"subcategory,omitempty"`
	IsAnonymous     *bool                `json:"is_anonymous"`
	SubmittedAt     string               `json:"submitted_at"`
	UpdatedAt       string               `json:"updated_at"`
	ResolvedAt      *string              `json:"resolved_at"`
	ClosedAt        *string              `json:"closed_at"`
	Attachments     []AttachmentDTO      `json:"attachments"`
	Comments        []CommentDTO         `json:"comments"`
	AssignedToName  *string              `json:"assigned_to_name,omitempty"`
	StatusTimeline  []TimelineCheckpoint `json:"status_timeline"`
	IsRejected      bool                 `json:"is_rejected"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
}

// StatusHistoryItem is one entry of the citizen-facing status history.
// The first entry is the submission itself, derived from the complaint
// creation time rather than a stored ledger row.
type StatusHistoryItem struct {
	Status      string  `json:"status"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	ChangedBy   *string `json:"changed_by"`
}

// StatusHistoryResponse returns the full status history of a complaint
type StatusHistoryResponse struct {
	Message       string              `json:"message"`
	TrackingID    string              `json:"tracking_id"`
	CurrentStatus string              `json:"current_status"`
	StatusHistory []StatusHistoryItem `json:"status_history"`
}
