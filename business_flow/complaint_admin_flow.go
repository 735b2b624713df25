package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	"github.com/amirphl/Ijwi-ry-Abaturage/app/services"
	"github.com/amirphl/Ijwi-ry-Abaturage/config"
	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/repository"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ComplaintAdminFlow handles the back-office side of complaint management
type ComplaintAdminFlow interface {
	ListComplaints(ctx context.Context, req *dto.AdminListComplaintsRequest) (*dto.AdminListComplaintsResponse, error)
	UpdateStatus(ctx context.Context, complaintID uint, req *dto.UpdateComplaintStatusRequest, adminID uint, metadata *ClientMetadata) (*dto.ComplaintResponse, error)
	AssignComplaint(ctx context.Context, complaintID uint, req *dto.AssignComplaintRequest, adminID uint, metadata *ClientMetadata) (*dto.ComplaintResponse, error)
	UpdatePriority(ctx context.Context, complaintID uint, req *dto.UpdateComplaintPriorityRequest, adminID uint, metadata *ClientMetadata) (*dto.ComplaintResponse, error)
	GetStatistics(ctx context.Context) (*dto.ComplaintStatisticsResponse, error)
	ExportComplaints(ctx context.Context, req *dto.ExportComplaintsRequest) (string, []byte, error)
}

// ComplaintAdminFlowImpl implements the admin complaint business flow
type ComplaintAdminFlowImpl struct {
	complaintRepo       repository.ComplaintRepository
	categoryRepo        repository.CategoryRepository
	statusHistoryRepo   repository.StatusHistoryRepository
	userRepo            repository.UserRepository
	notificationLogRepo repository.NotificationLogRepository
	auditRepo           repository.AuditLogRepository
	notifier            services.ComplaintNotifier
	rc                  *redis.Client
	cacheConfig         *config.CacheConfig
	db                  *gorm.DB
}

// NewComplaintAdminFlow creates a new admin complaint flow instance
func NewComplaintAdminFlow(
	complaintRepo repository.ComplaintRepository,
	categoryRepo repository.CategoryRepository,
	statusHistoryRepo repository.StatusHistoryRepository,
	userRepo repository.UserRepository,
	notificationLogRepo repository.NotificationLogRepository,
	auditRepo repository.AuditLogRepository,
	notifier services.ComplaintNotifier,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
	db *gorm.DB,
) ComplaintAdminFlow {
	return &ComplaintAdminFlowImpl{
		complaintRepo:       complaintRepo,
		categoryRepo:        categoryRepo,
		statusHistoryRepo:   statusHistoryRepo,
		userRepo:            userRepo,
		notificationLogRepo: notificationLogRepo,
		auditRepo:           auditRepo,
		notifier:            notifier,
		rc:                  rc,
		cacheConfig:         cacheConfig,
		db:                  db,
	}
}

// ListComplaints returns a filtered, paginated complaint page newest first
func (f *ComplaintAdminFlowImpl) ListComplaints(ctx context.Context, req *dto.AdminListComplaintsRequest) (*dto.AdminListComplaintsResponse, error) {
	page := req.Page
	if page == 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = 10
	}

	filter := models.ComplaintFilter{
		Status:        req.Status,
		Priority:      req.Priority,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		AssignedTo:    req.AssignedTo,
		Unassigned:    req.Unassigned,
		Search:        req.Search,
		CreatedAfter:  req.StartDate,
		CreatedBefore: req.EndDate,
	}

	total, err := f.complaintRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_COMPLAINTS_FAILED", "Failed to list complaints", err)
	}

	offset := int(page-1) * int(pageSize)
	complaints, err := f.complaintRepo.ByFilter(ctx, filter, "created_at DESC", int(pageSize), offset)
	if err != nil {
		return nil, NewBusinessError("LIST_COMPLAINTS_FAILED", "Failed to list complaints", err)
	}

	items := make([]dto.AdminComplaintItem, 0, len(complaints))
	for _, complaint := range complaints {
		items = append(items, f.toAdminItem(ctx, complaint))
	}

	return &dto.AdminListComplaintsResponse{
		Message:    "Complaints retrieved successfully",
		Results:    len(items),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		Complaints: items,
	}, nil
}

// UpdateStatus applies a status transition, appends the ledger row in the
// same transaction and notifies the submitter after commit. resolvedAt and
// closedAt are stamped every time their status is entered, including
// re-entries.
func (f *ComplaintAdminFlowImpl) UpdateStatus(ctx context.Context, complaintID uint, req *dto.UpdateComplaintStatusRequest, adminID uint, metadata *ClientMetadata) (*dto.ComplaintResponse, error) {
	complaint, err := f.complaintRepo.ByID(ctx, complaintID)
	if err != nil {
		return nil, NewBusinessError("STATUS_UPDATE_FAILED", "Failed to update complaint status", err)
	}
	if complaint == nil {
		return nil, NewBusinessError("COMPLAINT_NOT_FOUND", "Complaint not found", ErrComplaintNotFound)
	}

	if !models.IsValidComplaintStatus(req.Status) {
		return nil, NewBusinessError("INVALID_STATUS", "Invalid status", ErrInvalidStatus)
	}

	// Rejection must carry a reason before anything is written
	if req.Status == models.ComplaintStatusRejected && (req.RejectionReason == nil || *req.RejectionReason == "") {
		return nil, NewBusinessError("MISSING_REJECTION_REASON", "Rejection reason is required", ErrMissingRejectionReason)
	}

	previousStatus := complaint.Status
	complaint.Status = req.Status
	switch req.Status {
	case models.ComplaintStatusResolved:
		complaint.ResolvedAt = utils.UTCNowPtr()
	case models.ComplaintStatusClosed:
		complaint.ClosedAt = utils.UTCNowPtr()
	case models.ComplaintStatusRejected:
		complaint.RejectionReason = req.RejectionReason
	}

	ledgerComment := req.Comment
	if ledgerComment == nil || *ledgerComment == "" {
		ledgerComment = req.RejectionReason
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.complaintRepo.Update(txCtx, complaint); err != nil {
			return fmt.Errorf("failed to update complaint: %w", err)
		}
		entry := &models.StatusHistory{
			ComplaintID:    complaint.ID,
			PreviousStatus: &previousStatus,
			NewStatus:      req.Status,
			Comment:        ledgerComment,
			ChangedBy:      &adminID,
		}
		if err := f.statusHistoryRepo.Save(txCtx, entry); err != nil {
			return fmt.Errorf("failed to save status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("STATUS_UPDATE_FAILED", "Failed to update complaint status", err)
	}

	_ = createAuditLog(ctx, f.auditRepo, &adminID, models.AuditActionStatusChanged,
		fmt.Sprintf("Complaint %s status changed from %s to %s", complaint.TrackingID, previousStatus, req.Status),
		true, nil, metadata)

	data := services.NotificationData{
		TrackingID: complaint.TrackingID,
		Status:     req.Status,
	}
	if req.Comment != nil {
		data.Comment = *req.Comment
	}
	if req.RejectionReason != nil {
		data.Reason = *req.RejectionReason
	}
	f.notifyAsync(complaint, models.NotificationIntentForStatus(req.Status), data, models.AuditActionStatusChanged)

	return &dto.ComplaintResponse{
		Message:   "Complaint status updated successfully",
		Complaint: f.toAdminItem(ctx, complaint),
	}, nil
}

// AssignComplaint sets or clears the assignee. Assignment forces the
// complaint into under_review; clearing leaves the status untouched. The
// ledger row and the notification are written only when the status changed.
func (f *ComplaintAdminFlowImpl) AssignComplaint(ctx context.Context, complaintID uint, req *dto.AssignComplaintRequest, adminID uint, metadata *ClientMetadata) (*dto.ComplaintResponse, error) {
	complaint, err := f.complaintRepo.ByID(ctx, complaintID)
	if err != nil {
		return nil, NewBusinessError("ASSIGNMENT_FAILED", "Failed to assign complaint", err)
	}
	if complaint == nil {
		return nil, NewBusinessError("COMPLAINT_NOT_FOUND", "Complaint not found", ErrComplaintNotFound)
	}

	if req.AssignedTo != nil {
		assignee, err := f.userRepo.ByID(ctx, *req.AssignedTo)
		if err != nil {
			return nil, NewBusinessError("ASSIGNMENT_FAILED", "Failed to assign complaint", err)
		}
		if assignee == nil || !assignee.IsAdmin() {
			return nil, NewBusinessError("ASSIGNEE_NOT_ADMIN", "Assigned user not found or is not an admin", ErrAssigneeNotAdmin)
		}
	} else if complaint.AssignedTo == nil {
		// Clearing an already clear assignment changes nothing
		return &dto.ComplaintResponse{
			Message:   "Complaint assignment unchanged",
			Complaint: f.toAdminItem(ctx, complaint),
		}, nil
	}

	previousStatus := complaint.Status
	complaint.AssignedTo = req.AssignedTo
	if req.AssignedTo != nil {
		complaint.Status = models.ComplaintStatusUnderReview
	}
	statusChanged := complaint.Status != previousStatus

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.complaintRepo.Update(txCtx, complaint); err != nil {
			return fmt.Errorf("failed to update complaint: %w", err)
		}
		if !statusChanged {
			return nil
		}
		comment := "Complaint assigned for review"
		if req.AssignedTo == nil {
			comment = "Complaint assignment removed"
		}
		entry := &models.StatusHistory{
			ComplaintID:    complaint.ID,
			PreviousStatus: &previousStatus,
			NewStatus:      complaint.Status,
			Comment:        &comment,
			ChangedBy:      &adminID,
		}
		if err := f.statusHistoryRepo.Save(txCtx, entry); err != nil {
			return fmt.Errorf("failed to save status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("ASSIGNMENT_FAILED", "Failed to assign complaint", err)
	}

	action := models.AuditActionComplaintAssigned
	description := fmt.Sprintf("Complaint %s assigned", complaint.TrackingID)
	if req.AssignedTo == nil {
		action = models.AuditActionComplaintUnassigned
		description = fmt.Sprintf("Complaint %s unassigned", complaint.TrackingID)
	}
	_ = createAuditLog(ctx, f.auditRepo, &adminID, action, description, true, nil, metadata)

	if statusChanged {
		f.notifyAsync(complaint, models.NotificationIntentStatusUpdate, services.NotificationData{
			TrackingID: complaint.TrackingID,
			Status:     complaint.Status,
			Comment:    "Your complaint has been assigned to an administrator for review.",
		}, action)
	}

	return &dto.ComplaintResponse{
		Message:   "Complaint assignment updated successfully",
		Complaint: f.toAdminItem(ctx, complaint),
	}, nil
}

// UpdatePriority changes the triage priority. A pure field update: no
// ledger row, no notification.
func (f *ComplaintAdminFlowImpl) UpdatePriority(ctx context.Context, complaintID uint, req *dto.UpdateComplaintPriorityRequest, adminID uint, metadata *ClientMetadata) (*dto.ComplaintResponse, error) {
	complaint, err := f.complaintRepo.ByID(ctx, complaintID)
	if err != nil {
		return nil, NewBusinessError("PRIORITY_UPDATE_FAILED", "Failed to update complaint priority", err)
	}
	if complaint == nil {
		return nil, NewBusinessError("COMPLAINT_NOT_FOUND", "Complaint not found", ErrComplaintNotFound)
	}

	if !models.IsValidComplaintPriority(req.Priority) {
		return nil, NewBusinessError("INVALID_PRIORITY", "Invalid priority", ErrInvalidPriority)
	}

	if err := f.complaintRepo.UpdatePriority(ctx, complaint.ID, req.Priority); err != nil {
		return nil, NewBusinessError("PRIORITY_UPDATE_FAILED", "Failed to update complaint priority", err)
	}
	complaint.Priority = req.Priority

	_ = createAuditLog(ctx, f.auditRepo, &adminID, models.AuditActionPriorityChanged,
		fmt.Sprintf("Complaint %s priority changed to %s", complaint.TrackingID, req.Priority), true, nil, metadata)

	return &dto.ComplaintResponse{
		Message:   "Complaint priority updated successfully",
		Complaint: f.toAdminItem(ctx, complaint),
	}, nil
}

// GetStatistics returns aggregate complaint counts, cached briefly in redis
func (f *ComplaintAdminFlowImpl) GetStatistics(ctx context.Context) (*dto.ComplaintStatisticsResponse, error) {
	cacheKey := ""
	if f.rc != nil && f.cacheConfig != nil && f.cacheConfig.Enabled {
		cacheKey = redisKey(*f.cacheConfig, utils.StatisticsCacheKey)
		if bs, err := f.rc.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached dto.ComplaintStatisticsResponse
			if err := json.Unmarshal(bs, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	total, err := f.complaintRepo.Count(ctx, models.ComplaintFilter{})
	if err != nil {
		return nil, NewBusinessError("STATISTICS_FAILED", "Failed to compute statistics", err)
	}
	recent, err := f.complaintRepo.CountCreatedSince(ctx, utils.UTCNow().Add(-utils.StatisticsRecentWindow))
	if err != nil {
		return nil, NewBusinessError("STATISTICS_FAILED", "Failed to compute statistics", err)
	}

	byStatus, err := f.complaintRepo.CountGroupedBy(ctx, "status")
	if err != nil {
		return nil, NewBusinessError("STATISTICS_FAILED", "Failed to compute statistics", err)
	}
	byPriority, err := f.complaintRepo.CountGroupedBy(ctx, "priority")
	if err != nil {
		return nil, NewBusinessError("STATISTICS_FAILED", "Failed to compute statistics", err)
	}
	byCategoryID, err := f.complaintRepo.CountGroupedBy(ctx, "category_id")
	if err != nil {
		return nil, NewBusinessError("STATISTICS_FAILED", "Failed to compute statistics", err)
	}

	// Category buckets are keyed by id in storage; expose names instead
	categories, err := f.categoryRepo.ByFilter(ctx, models.CategoryFilter{}, "name ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("STATISTICS_FAILED", "Failed to compute statistics", err)
	}
	nameByID := make(map[string]string, len(categories))
	for _, category := range categories {
		nameByID[strconv.FormatUint(uint64(category.ID), 10)] = category.Name
	}
	byCategory := make(map[string]int64, len(byCategoryID))
	for id, count := range byCategoryID {
		name := nameByID[id]
		if name == "" {
			name = "Category " + id
		}
		byCategory[name] = count
	}

	resp := &dto.ComplaintStatisticsResponse{
		Message:    "Statistics retrieved successfully",
		Total:      total,
		Recent:     recent,
		ByStatus:   toBuckets(byStatus),
		ByCategory: toBuckets(byCategory),
		ByPriority: toBuckets(byPriority),
	}

	if cacheKey != "" {
		if bs, err := json.Marshal(resp); err == nil {
			_ = f.rc.Set(ctx, cacheKey, bs, utils.StatisticsCacheTTL).Err()
		}
	}

	return resp, nil
}

// ExportComplaints renders the filtered complaints as an XLSX workbook
func (f *ComplaintAdminFlowImpl) ExportComplaints(ctx context.Context, req *dto.ExportComplaintsRequest) (string, []byte, error) {
	filter := models.ComplaintFilter{
		Status:        req.Status,
		Priority:      req.Priority,
		CategoryID:    req.CategoryID,
		CreatedAfter:  req.StartDate,
		CreatedBefore: req.EndDate,
	}
	complaints, err := f.complaintRepo.ByFilter(ctx, filter, "created_at DESC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to export complaints", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Complaints"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"id", "tracking_id", "title", "description", "location", "category", "subcategory", "status", "priority", "anonymous", "created_at", "updated_at", "resolved_at", "closed_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, complaint := range complaints {
		categoryName := ""
		if complaint.Category != nil {
			categoryName = complaint.Category.Name
		}
		subcategoryName := ""
		if complaint.Subcategory != nil {
			subcategoryName = complaint.Subcategory.Name
		}
		resolvedAt := ""
		if complaint.ResolvedAt != nil {
			resolvedAt = complaint.ResolvedAt.UTC().Format(time.RFC3339)
		}
		closedAt := ""
		if complaint.ClosedAt != nil {
			closedAt = complaint.ClosedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatUint(uint64(complaint.ID), 10),
			complaint.TrackingID,
			complaint.DisplayTitle(categoryName),
			complaint.Description,
			complaint.Location,
			categoryName,
			subcategoryName,
			complaint.Status,
			complaint.Priority,
			strconv.FormatBool(utils.IsTrue(complaint.IsAnonymous)),
			complaint.CreatedAt.UTC().Format(time.RFC3339),
			complaint.UpdatedAt.UTC().Format(time.RFC3339),
			resolvedAt,
			closedAt,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("complaints_%s.xlsx", utils.UTCNowFormat("2006-01-02"))
	return filename, buf.Bytes(), nil
}

func (f *ComplaintAdminFlowImpl) notifyAsync(complaint *models.Complaint, intent string, data services.NotificationData, auditAction string) {
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
		if err := f.notificationLogRepo.Save(ctx, logEntry); err != nil {
			errMsg := err.Error()
			_ = createAuditLog(ctx, f.auditRepo, complaint.UserID, auditAction,
				"Failed to record notification dispatch", false, &errMsg, nil)
		}
	}()
}

func (f *ComplaintAdminFlowImpl) toAdminItem(ctx context.Context, complaint *models.Complaint) dto.AdminComplaintItem {
	item := dto.AdminComplaintItem{
		ComplaintItem: toComplaintItem(complaint),
		IsAnonymous:   complaint.IsAnonymous,
		AssignedTo:    complaint.AssignedTo,
	}

	if utils.IsTrue(complaint.IsAnonymous) {
		return item
	}

	if complaint.UserID != nil {
		user := complaint.User
		if user == nil {
			user, _ = f.userRepo.ByID(ctx, *complaint.UserID)
		}
		if user != nil {
			item.SubmitterName = utils.ToPtr(user.FullName())
			item.SubmitterEmail = &user.Email
			item.SubmitterPhone = user.PhoneNumber
		}
	} else {
		item.SubmitterName = complaint.FullName
		item.SubmitterEmail = complaint.Email
		item.SubmitterPhone = complaint.PhoneNumber
	}

	if complaint.AssignedTo != nil {
		assignee := complaint.AssignedUser
		if assignee == nil {
			assignee, _ = f.userRepo.ByID(ctx, *complaint.AssignedTo)
		}
		if assignee != nil {
			item.AssignedToName = utils.ToPtr(assignee.FullName())
		}
	}

	return item
}

// toBuckets flattens a grouped count into sorted key/count pairs
func toBuckets(counts map[string]int64) []dto.StatisticsBucket {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	buckets := make([]dto.StatisticsBucket, 0, len(keys))
	for _, key := range keys {
		buckets = append(buckets, dto.StatisticsBucket{Key: key, Count: counts[key]})
	}
	return buckets
}
