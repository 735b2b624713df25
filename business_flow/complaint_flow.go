// Package businessflow contains the core business logic and use cases for complaint workflows
package businessflow

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	"github.com/amirphl/Ijwi-ry-Abaturage/app/services"
	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/repository"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"gorm.io/gorm"
)

// trackingIDPattern matches IJW-<year>-<5 digits>; checked before any lookup
var trackingIDPattern = regexp.MustCompile(`^IJW-\d{4}-\d{5}$`)

// ComplaintFlow handles citizen-facing complaint submission and tracking
type ComplaintFlow interface {
	SubmitComplaint(ctx context.Context, req *dto.SubmitComplaintRequest, metadata *ClientMetadata) (*dto.SubmitComplaintResponse, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*dto.TrackedComplaintResponse, error)
	ValidateTrackingID(ctx context.Context, trackingID string) (*dto.ValidateTrackingIDResponse, error)
	GetStatusHistory(ctx context.Context, trackingID string) (*dto.StatusHistoryResponse, error)
	ListUserComplaints(ctx context.Context, userID uint) (*dto.ListUserComplaintsResponse, error)
}

// ComplaintFlowImpl implements the complaint business flow
type ComplaintFlowImpl struct {
	complaintRepo       repository.ComplaintRepository
	categoryRepo        repository.CategoryRepository
	subcategoryRepo     repository.SubcategoryRepository
	attachmentRepo      repository.AttachmentRepository
	statusHistoryRepo   repository.StatusHistoryRepository
	commentRepo         repository.CommentRepository
	notificationLogRepo repository.NotificationLogRepository
	auditRepo           repository.AuditLogRepository
	notifier            services.ComplaintNotifier
	captchaSvc          services.CaptchaService
	fileStorage         services.FileStorageService
	db                  *gorm.DB
}

// NewComplaintFlow creates a new complaint flow instance
func NewComplaintFlow(
	complaintRepo repository.ComplaintRepository,
	categoryRepo repository.CategoryRepository,
	subcategoryRepo repository.SubcategoryRepository,
	attachmentRepo repository.AttachmentRepository,
	statusHistoryRepo repository.StatusHistoryRepository,
	commentRepo repository.CommentRepository,
	notificationLogRepo repository.NotificationLogRepository,
	auditRepo repository.AuditLogRepository,
	notifier services.ComplaintNotifier,
	captchaSvc services.CaptchaService,
	fileStorage services.FileStorageService,
	db *gorm.DB,
) ComplaintFlow {
	return &ComplaintFlowImpl{
		complaintRepo:       complaintRepo,
		categoryRepo:        categoryRepo,
		subcategoryRepo:     subcategoryRepo,
		attachmentRepo:      attachmentRepo,
		statusHistoryRepo:   statusHistoryRepo,
		commentRepo:         commentRepo,
		notificationLogRepo: notificationLogRepo,
		auditRepo:           auditRepo,
		notifier:            notifier,
		captchaSvc:          captchaSvc,
		fileStorage:         fileStorage,
		db:                  db,
	}
}

// SubmitComplaint creates a complaint with its initial ledger entry, stores
// attachments best-effort and notifies the submitter after commit.
func (f *ComplaintFlowImpl) SubmitComplaint(ctx context.Context, req *dto.SubmitComplaintRequest, metadata *ClientMetadata) (*dto.SubmitComplaintResponse, error) {
	if req.UserID == nil {
		if req.CaptchaID == nil || req.CaptchaAngle == nil ||
			!f.captchaSvc.VerifyRotate(ctx, *req.CaptchaID, *req.CaptchaAngle) {
			return nil, NewBusinessError("CAPTCHA_NOT_VERIFIED", "Captcha verification failed", ErrCaptchaNotVerified)
		}
		// Guests who choose not to stay anonymous must be reachable
		if !req.IsAnonymous && (isBlank(req.FullName) || isBlank(req.PhoneNumber)) {
			return nil, NewBusinessError("CONTACT_DETAILS_REQUIRED",
				"Full name and phone number are required for non-anonymous submissions", ErrContactDetailsRequired)
		}
	}

	category, err := f.categoryRepo.ByID(ctx, req.CategoryID)
	if err != nil {
		return nil, NewBusinessError("COMPLAINT_SUBMISSION_FAILED", "Failed to submit complaint", err)
	}
	if category == nil {
		return nil, NewBusinessError("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
	}

	subcategory, err := f.subcategoryRepo.ByID(ctx, req.SubcategoryID)
	if err != nil {
		return nil, NewBusinessError("COMPLAINT_SUBMISSION_FAILED", "Failed to submit complaint", err)
	}
	if subcategory == nil || subcategory.CategoryID != req.CategoryID {
		return nil, NewBusinessError("SUBCATEGORY_NOT_FOUND", "Subcategory not found or does not belong to the selected category", ErrSubcategoryNotFound)
	}

	if len(req.Files) > utils.MaxUploadFiles {
		return nil, NewBusinessErrorf("TOO_MANY_FILES", "A maximum of %d files can be uploaded", ErrTooManyFiles, utils.MaxUploadFiles)
	}

	complaint := &models.Complaint{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Status:        models.ComplaintStatusPending,
		Priority:      models.ComplaintPriorityMedium,
		IsAnonymous:   utils.ToPtr(req.IsAnonymous),
	}

	// Either the authenticated user or the contact triple, never both
	if req.UserID != nil && !req.IsAnonymous {
		complaint.UserID = req.UserID
	} else {
		complaint.FullName = req.FullName
		complaint.PhoneNumber = req.PhoneNumber
		complaint.Email = req.Email
	}

	trackingID, err := f.generateUniqueTrackingID(ctx)
	if err != nil {
		return nil, err
	}
	complaint.TrackingID = trackingID

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.complaintRepo.Save(txCtx, complaint); err != nil {
			return fmt.Errorf("failed to save complaint: %w", err)
		}
		entry := &models.StatusHistory{
			ComplaintID: complaint.ID,
			NewStatus:   models.ComplaintStatusPending,
			Comment:     utils.ToPtr("Complaint submitted"),
		}
		if err := f.statusHistoryRepo.Save(txCtx, entry); err != nil {
			return fmt.Errorf("failed to save status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("COMPLAINT_SUBMISSION_FAILED", "Failed to submit complaint", err)
	}

	// Attachments are best-effort: a failed file never rolls back the
	// complaint, it is reported back to the caller instead.
	attachments := make([]dto.AttachmentDTO, 0, len(req.Files))
	var failedFiles []string
	for _, file := range req.Files {
		stored, err := f.fileStorage.Upload(file.Reader, file.FileName, file.Size)
		if err != nil {
			failedFiles = append(failedFiles, file.FileName)
			continue
		}
		attachment := &models.Attachment{
			ComplaintID:  complaint.ID,
			FileURL:      stored.URL,
			ThumbnailURL: stored.ThumbnailURL,
			FileName:     file.FileName,
			FileType:     stored.MimeType,
			FileSize:     stored.SizeBytes,
		}
		if err := f.attachmentRepo.Save(ctx, attachment); err != nil {
			failedFiles = append(failedFiles, file.FileName)
			continue
		}
		attachments = append(attachments, toAttachmentDTO(attachment))
	}

	_ = createAuditLog(ctx, f.auditRepo, complaint.UserID, models.AuditActionComplaintSubmitted,
		fmt.Sprintf("Complaint %s submitted", complaint.TrackingID), true, nil, metadata)

	f.notifyAsync(complaint, models.NotificationIntentSubmitted, services.NotificationData{
		TrackingID: complaint.TrackingID,
		Category:   category.Name,
	})

	return &dto.SubmitComplaintResponse{
		Message:     "Complaint submitted successfully",
		ID:          complaint.ID,
		TrackingID:  complaint.TrackingID,
		Status:      complaint.Status,
		CreatedAt:   complaint.CreatedAt.Format(time.RFC3339),
		Attachments: attachments,
		FailedFiles: failedFiles,
	}, nil
}

// generateUniqueTrackingID retries random candidates against the unique index
func (f *ComplaintFlowImpl) generateUniqueTrackingID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < utils.TrackingIDMaxAttempts; attempt++ {
		candidate := models.GenerateTrackingID(utils.UTCNow())
		exists, err := f.complaintRepo.Exists(ctx, models.ComplaintFilter{TrackingID: &candidate})
		if err != nil {
			return "", NewBusinessError("COMPLAINT_SUBMISSION_FAILED", "Failed to submit complaint", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", NewBusinessError("TRACKING_ID_GENERATION_FAILED", "Failed to submit complaint", ErrTrackingIDGeneration)
}

// GetByTrackingID returns the public view of a complaint. The format check
// runs before any storage access.
func (f *ComplaintFlowImpl) GetByTrackingID(ctx context.Context, trackingID string) (*dto.TrackedComplaintResponse, error) {
	if !trackingIDPattern.MatchString(trackingID) {
		return nil, NewBusinessError("INVALID_TRACKING_ID_FORMAT",
			"Invalid tracking ID format. Please enter a valid tracking ID (e.g. IJW-2025-12345)", ErrInvalidTrackingIDFormat)
	}

	complaint, err := f.complaintRepo.ByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, NewBusinessError("COMPLAINT_LOOKUP_FAILED", "Failed to look up complaint", err)
	}
	if complaint == nil {
		return nil, NewBusinessError("COMPLAINT_NOT_FOUND",
			"No complaint found with this tracking ID. Please check and try again.", ErrComplaintNotFound)
	}

	categoryName := ""
	if complaint.Category != nil {
		categoryName = complaint.Category.Name
	}

	resp := &dto.TrackedComplaintResponse{
		ID:          complaint.ID,
		TrackingID:  complaint.TrackingID,
		Title:       complaint.DisplayTitle(categoryName),
		Description: complaint.Description,
		Location:    complaint.Location,
		Status:      complaint.Status,
		Priority:    complaint.Priority,
		IsAnonymous: complaint.IsAnonymous,
		SubmittedAt: complaint.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   complaint.UpdatedAt.Format(time.RFC3339),
		ResolvedAt:  formatTimePtr(complaint.ResolvedAt),
		ClosedAt:    formatTimePtr(complaint.ClosedAt),
		Attachments: make([]dto.AttachmentDTO, 0, len(complaint.Attachments)),
		Comments:    []dto.CommentDTO{},
	}

	if complaint.Category != nil {
		category := toCategoryDTO(complaint.Category, false)
		resp.Category = &category
	}
	if complaint.Subcategory != nil {
		subcategory := toSubcategoryDTO(complaint.Subcategory)
		resp.Subcategory = &subcategory
	}
	if complaint.AssignedUser != nil {
		resp.AssignedToName = utils.ToPtr(complaint.AssignedUser.FullName())
	}

	for i := range complaint.Attachments {
		resp.Attachments = append(resp.Attachments, toAttachmentDTO(&complaint.Attachments[i]))
	}

	// Public comments only; internal notes stay internal
	comments, err := f.commentRepo.ListByComplaint(ctx, complaint.ID, false)
	if err != nil {
		return nil, NewBusinessError("COMPLAINT_LOOKUP_FAILED", "Failed to look up complaint", err)
	}
	for _, comment := range comments {
		resp.Comments = append(resp.Comments, toCommentDTO(comment, false))
	}

	if complaint.Status == models.ComplaintStatusRejected {
		resp.IsRejected = true
		resp.RejectionReason = complaint.RejectionReason
		resp.StatusTimeline = nil
	} else {
		resp.StatusTimeline = buildStatusTimeline(complaint)
	}

	return resp, nil
}

// buildStatusTimeline projects the complaint onto the canonical five-step
// progression shown on the tracking page.
func buildStatusTimeline(complaint *models.Complaint) []dto.TimelineCheckpoint {
	currentRank := models.StatusRank(complaint.Status)

	steps := []struct {
		status string
		date   *time.Time
	}{
		{models.ComplaintStatusPending, &complaint.CreatedAt},
		{models.ComplaintStatusUnderReview, &complaint.UpdatedAt},
		{models.ComplaintStatusInProgress, &complaint.UpdatedAt},
		{models.ComplaintStatusResolved, complaint.ResolvedAt},
		{models.ComplaintStatusClosed, complaint.ClosedAt},
	}

	timeline := make([]dto.TimelineCheckpoint, 0, len(steps))
	for rank, step := range steps {
		completed := rank <= currentRank
		checkpoint := dto.TimelineCheckpoint{
			Status:    step.status,
			Completed: completed,
			Current:   step.status == complaint.Status,
		}
		if completed && step.date != nil {
			checkpoint.Date = utils.ToPtr(step.date.Format(time.RFC3339))
		}
		timeline = append(timeline, checkpoint)
	}
	return timeline
}

// ValidateTrackingID checks format and existence without exposing details
func (f *ComplaintFlowImpl) ValidateTrackingID(ctx context.Context, trackingID string) (*dto.ValidateTrackingIDResponse, error) {
	if trackingID == "" {
		return nil, NewBusinessError("TRACKING_ID_REQUIRED", "Please enter a tracking ID", ErrTrackingIDRequired)
	}
	if !trackingIDPattern.MatchString(trackingID) {
		return nil, NewBusinessError("INVALID_TRACKING_ID_FORMAT",
			"Invalid tracking ID format. Please enter a valid tracking ID (e.g. IJW-2025-12345)", ErrInvalidTrackingIDFormat)
	}

	exists, err := f.complaintRepo.Exists(ctx, models.ComplaintFilter{TrackingID: &trackingID})
	if err != nil {
		return nil, NewBusinessError("COMPLAINT_LOOKUP_FAILED", "Failed to look up complaint", err)
	}
	if !exists {
		return nil, NewBusinessError("COMPLAINT_NOT_FOUND",
			"No complaint found with this tracking ID. Please check and try again.", ErrComplaintNotFound)
	}

	return &dto.ValidateTrackingIDResponse{
		Message:    "Tracking ID is valid",
		Valid:      true,
		TrackingID: trackingID,
	}, nil
}

// GetStatusHistory returns the stored transition ledger newest first, headed
// by a synthesized submission entry derived from the creation timestamp.
func (f *ComplaintFlowImpl) GetStatusHistory(ctx context.Context, trackingID string) (*dto.StatusHistoryResponse, error) {
	if !trackingIDPattern.MatchString(trackingID) {
		return nil, NewBusinessError("INVALID_TRACKING_ID_FORMAT",
			"Invalid tracking ID format. Please enter a valid tracking ID (e.g. IJW-2025-12345)", ErrInvalidTrackingIDFormat)
	}

	complaint, err := f.complaintRepo.ByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, NewBusinessError("COMPLAINT_LOOKUP_FAILED", "Failed to look up complaint", err)
	}
	if complaint == nil {
		return nil, NewBusinessError("COMPLAINT_NOT_FOUND",
			"No complaint found with this tracking ID. Please check and try again.", ErrComplaintNotFound)
	}

	rows, err := f.statusHistoryRepo.ListByComplaint(ctx, complaint.ID, true)
	if err != nil {
		return nil, NewBusinessError("COMPLAINT_LOOKUP_FAILED", "Failed to look up complaint", err)
	}

	history := make([]dto.StatusHistoryItem, 0, len(rows)+1)
	history = append(history, dto.StatusHistoryItem{
		Status:      "Submitted",
		Date:        complaint.CreatedAt.Format(time.RFC3339),
		Description: "Your complaint has been successfully submitted.",
	})
	for _, row := range rows {
		item := dto.StatusHistoryItem{
			Status:      row.NewStatus,
			Date:        row.CreatedAt.Format(time.RFC3339),
			Description: row.Description(),
		}
		if row.ChangedByUser != nil {
			item.ChangedBy = utils.ToPtr(row.ChangedByUser.FullName())
		}
		history = append(history, item)
	}

	return &dto.StatusHistoryResponse{
		Message:       "Status history retrieved successfully",
		TrackingID:    complaint.TrackingID,
		CurrentStatus: complaint.Status,
		StatusHistory: history,
	}, nil
}

// ListUserComplaints returns the authenticated user's complaints, newest first
func (f *ComplaintFlowImpl) ListUserComplaints(ctx context.Context, userID uint) (*dto.ListUserComplaintsResponse, error) {
	complaints, err := f.complaintRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("COMPLAINT_LOOKUP_FAILED", "Failed to retrieve complaints", err)
	}

	items := make([]dto.ComplaintItem, 0, len(complaints))
	for _, complaint := range complaints {
		items = append(items, toComplaintItem(complaint))
	}

	return &dto.ListUserComplaintsResponse{
		Message:    "Complaints retrieved successfully",
		Results:    len(items),
		Complaints: items,
	}, nil
}

// notifyAsync dispatches the submitter notification after commit and records
// the attempt. Complaints without stored contact details are never notified.
func (f *ComplaintFlowImpl) notifyAsync(complaint *models.Complaint, intent string, data services.NotificationData) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		email, phone, ok := submitterContact(complaint)
		if !ok {
			return
		}

		result := f.notifier.Send(services.NotificationContact{Email: email, PhoneNumber: phone}, intent, data)

		logEntry := &models.NotificationLog{
			ComplaintID: complaint.ID,
			Intent:      intent,
			Channels:    result.Channels(),
			Success:     utils.ToPtr(result.Email || result.SMS),
		}
		if email != "" {
			logEntry.RecipientEmail = &email
		}
		if phone != "" {
			logEntry.RecipientPhone = &phone
		}
		if !(result.Email || result.SMS) {
			logEntry.ErrorMessage = utils.ToPtr("no channel accepted the message")
		}
		if err := f.notificationLogRepo.Save(ctx, logEntry); err != nil {
			errMsg := err.Error()
			_ = createAuditLog(ctx, f.auditRepo, complaint.UserID, models.AuditActionComplaintSubmitted,
				"Failed to record notification dispatch", false, &errMsg, nil)
		}
	}()
}

func toAttachmentDTO(attachment *models.Attachment) dto.AttachmentDTO {
	return dto.AttachmentDTO{
		ID:           attachment.ID,
		FileName:     attachment.FileName,
		FileType:     attachment.FileType,
		FileSize:     attachment.FileSize,
		FileURL:      attachment.FileURL,
		ThumbnailURL: attachment.ThumbnailURL,
		CreatedAt:    attachment.CreatedAt.Format(time.RFC3339),
	}
}

func toCommentDTO(comment *models.Comment, withInternalFields bool) dto.CommentDTO {
	item := dto.CommentDTO{
		ID:        comment.ID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
	}
	if comment.User != nil {
		item.AuthorName = utils.ToPtr(comment.User.FullName())
		item.AuthorRole = utils.ToPtr(comment.User.Role)
	}
	if withInternalFields {
		item.IsInternal = comment.IsInternal
	}
	return item
}

func toComplaintItem(complaint *models.Complaint) dto.ComplaintItem {
	categoryName := ""
	item := dto.ComplaintItem{
		ID:          complaint.ID,
		TrackingID:  complaint.TrackingID,
		Description: complaint.Description,
		Location:    complaint.Location,
		Status:      complaint.Status,
		Priority:    complaint.Priority,
		CreatedAt:   complaint.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   complaint.UpdatedAt.Format(time.RFC3339),
	}
	if complaint.Category != nil {
		categoryName = complaint.Category.Name
		item.Category = &complaint.Category.Name
	}
	if complaint.Subcategory != nil {
		item.Subcategory = &complaint.Subcategory.Name
	}
	item.Title = complaint.DisplayTitle(categoryName)
	return item
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return utils.ToPtr(t.Format(time.RFC3339))
}
