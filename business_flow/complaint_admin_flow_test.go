package businessflow_test

import (
	"testing"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	businessflow "github.com/amirphl/Ijwi-ry-Abaturage/business_flow"
	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/repository"
	testingutil "github.com/amirphl/Ijwi-ry-Abaturage/testing"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newComplaintAdminFlow(testDB *testingutil.TestDB, notifier *stubNotifier) businessflow.ComplaintAdminFlow {
	return businessflow.NewComplaintAdminFlow(
		repository.NewComplaintRepository(testDB.DB),
		repository.NewCategoryRepository(testDB.DB),
		repository.NewStatusHistoryRepository(testDB.DB),
		repository.NewUserRepository(testDB.DB),
		repository.NewNotificationLogRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		notifier,
		nil, // statistics caching disabled in tests
		nil,
		testDB.DB,
	)
}

func TestUpdateComplaintStatus(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		category, err := fixtures.CreateTestCategory("Infrastructure")
		require.NoError(t, err)
		subcategory, err := fixtures.CreateTestSubcategory(category.ID, "Roads")
		require.NoError(t, err)
		admin, err := fixtures.CreateTestUser(models.UserRoleAdmin)
		require.NoError(t, err)

		statusHistoryRepo := repository.NewStatusHistoryRepository(testDB.DB)
		complaintRepo := repository.NewComplaintRepository(testDB.DB)
		flow := newComplaintAdminFlow(testDB, &stubNotifier{})

		countRows := func(complaintID uint) int {
			rows, err := statusHistoryRepo.ByFilter(ctx, models.StatusHistoryFilter{ComplaintID: &complaintID}, "", 0, 0)
			require.NoError(t, err)
			return len(rows)
		}

		t.Run("TransitionWritesLedgerRow", func(t *testing.T) {
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			resp, err := flow.UpdateStatus(ctx, complaint.ID, &dto.UpdateComplaintStatusRequest{
				Status:  models.ComplaintStatusUnderReview,
				Comment: utils.ToPtr("Taking a look"),
			}, admin.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.ComplaintStatusUnderReview, resp.Complaint.Status)

			rows, err := statusHistoryRepo.ByFilter(ctx, models.StatusHistoryFilter{ComplaintID: &complaint.ID}, "created_at DESC", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			require.NotNil(t, rows[0].PreviousStatus)
			assert.Equal(t, models.ComplaintStatusPending, *rows[0].PreviousStatus)
			assert.Equal(t, models.ComplaintStatusUnderReview, rows[0].NewStatus)
			require.NotNil(t, rows[0].ChangedBy)
			assert.Equal(t, admin.ID, *rows[0].ChangedBy)
			require.NotNil(t, rows[0].Comment)
			assert.Equal(t, "Taking a look", *rows[0].Comment)
		})

		t.Run("SameStatusStillWritesRow", func(t *testing.T) {
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			_, err = flow.UpdateStatus(ctx, complaint.ID, &dto.UpdateComplaintStatusRequest{
				Status: models.ComplaintStatusPending,
			}, admin.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, 1, countRows(complaint.ID))
		})

		t.Run("ResolvedStampsTimestamp", func(t *testing.T) {
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			_, err = flow.UpdateStatus(ctx, complaint.ID, &dto.UpdateComplaintStatusRequest{
				Status: models.ComplaintStatusResolved,
			}, admin.ID, metadata)
			require.NoError(t, err)

			stored, err := complaintRepo.ByID(ctx, complaint.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.ResolvedAt)
			first := *stored.ResolvedAt

			// Re-resolving stamps the timestamp again
			_, err = flow.UpdateStatus(ctx, complaint.ID, &dto.UpdateComplaintStatusRequest{
				Status: models.ComplaintStatusResolved,
			}, admin.ID, metadata)
			require.NoError(t, err)

			stored, err = complaintRepo.ByID(ctx, complaint.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.ResolvedAt)
			assert.False(t, stored.ResolvedAt.Before(first))
			assert.Equal(t, 2, countRows(complaint.ID))
		})

		t.Run("RejectedRequiresReason", func(t *testing.T) {
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			_, err = flow.UpdateStatus(ctx, complaint.ID, &dto.UpdateComplaintStatusRequest{
				Status: models.ComplaintStatusRejected,
			}, admin.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsMissingRejectionReason(err))

			// Nothing was written
			assert.Equal(t, 0, countRows(complaint.ID))
			stored, err := complaintRepo.ByID(ctx, complaint.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ComplaintStatusPending, stored.Status)
		})

		t.Run("RejectedLedgerCommentFallsBackToReason", func(t *testing.T) {
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			_, err = flow.UpdateStatus(ctx, complaint.ID, &dto.UpdateComplaintStatusRequest{
				Status:          models.ComplaintStatusRejected,
				RejectionReason: utils.ToPtr("Outside municipal jurisdiction"),
			}, admin.ID, metadata)
			require.NoError(t, err)

			rows, err := statusHistoryRepo.ByFilter(ctx, models.StatusHistoryFilter{ComplaintID: &complaint.ID}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			require.NotNil(t, rows[0].Comment)
			assert.Equal(t, "Outside municipal jurisdiction", *rows[0].Comment)

			stored, err := complaintRepo.ByID(ctx, complaint.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.RejectionReason)
		})

		t.Run("InvalidStatus", func(t *testing.T) {
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			_, err = flow.UpdateStatus(ctx, complaint.ID, &dto.UpdateComplaintStatusRequest{
				Status: "escalated",
			}, admin.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidStatus(err))
		})

		t.Run("UnknownComplaint", func(t *testing.T) {
			_, err := flow.UpdateStatus(ctx, 99999, &dto.UpdateComplaintStatusRequest{
				Status: models.ComplaintStatusUnderReview,
			}, admin.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsComplaintNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestStatusChangeNotifications(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		category, err := fixtures.CreateTestCategory("Infrastructure")
		require.NoError(t, err)
		subcategory, err := fixtures.CreateTestSubcategory(category.ID, "Roads")
		require.NoError(t, err)
		admin, err := fixtures.CreateTestUser(models.UserRoleAdmin)
		require.NoError(t, err)

		notificationLogRepo := repository.NewNotificationLogRepository(testDB.DB)

		t.Run("ResolutionUsesResolvedIntent", func(t *testing.T) {
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			notifier := &stubNotifier{}
			flow := newComplaintAdminFlow(testDB, notifier)

			_, err = flow.UpdateStatus(ctx, complaint.ID, &dto.UpdateComplaintStatusRequest{
				Status: models.ComplaintStatusResolved,
			}, admin.ID, metadata)
			require.NoError(t, err)

			calls := waitForNotifications(notifier, 1)
			require.Len(t, calls, 1)
			assert.Equal(t, models.NotificationIntentResolved, calls[0].Intent)
			assert.Equal(t, complaint.TrackingID, calls[0].Data.TrackingID)
			require.NotNil(t, complaint.Email)
			assert.Equal(t, *complaint.Email, calls[0].Contact.Email)

			// The dispatch is recorded once the goroutine is done
			deadline := time.Now().Add(2 * time.Second)
			var rows []*models.NotificationLog
			for time.Now().Before(deadline) {
				rows, err = notificationLogRepo.ListByComplaint(ctx, complaint.ID)
				require.NoError(t, err)
				if len(rows) > 0 {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			require.Len(t, rows, 1)
			assert.Equal(t, models.NotificationIntentResolved, rows[0].Intent)
			assert.True(t, utils.IsTrue(rows[0].Success))
		})

		t.Run("RejectionUsesRejectedIntent", func(t *testing.T) {
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			notifier := &stubNotifier{}
			flow := newComplaintAdminFlow(testDB, notifier)

			_, err = flow.UpdateStatus(ctx, complaint.ID, &dto.UpdateComplaintStatusRequest{
				Status:          models.ComplaintStatusRejected,
				RejectionReason: utils.ToPtr("Outside the mandate of this office"),
			}, admin.ID, metadata)
			require.NoError(t, err)

			calls := waitForNotifications(notifier, 1)
			require.Len(t, calls, 1)
			assert.Equal(t, models.NotificationIntentRejected, calls[0].Intent)
			assert.Equal(t, "Outside the mandate of this office", calls[0].Data.Reason)
		})

		t.Run("OtherTransitionsUseStatusUpdateIntent", func(t *testing.T) {
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			notifier := &stubNotifier{}
			flow := newComplaintAdminFlow(testDB, notifier)

			_, err = flow.UpdateStatus(ctx, complaint.ID, &dto.UpdateComplaintStatusRequest{
				Status: models.ComplaintStatusInProgress,
			}, admin.ID, metadata)
			require.NoError(t, err)

			calls := waitForNotifications(notifier, 1)
			require.Len(t, calls, 1)
			assert.Equal(t, models.NotificationIntentStatusUpdate, calls[0].Intent)
		})

		t.Run("AuthenticatedSubmitterNotNotified", func(t *testing.T) {
			citizen, err := fixtures.CreateTestUser(models.UserRoleCitizen)
			require.NoError(t, err)
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, &citizen.ID)
			require.NoError(t, err)

			notifier := &stubNotifier{}
			flow := newComplaintAdminFlow(testDB, notifier)

			_, err = flow.UpdateStatus(ctx, complaint.ID, &dto.UpdateComplaintStatusRequest{
				Status: models.ComplaintStatusResolved,
			}, admin.ID, metadata)
			require.NoError(t, err)

			time.Sleep(300 * time.Millisecond)
			assert.Empty(t, notifier.snapshot())
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAssignComplaint(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		category, err := fixtures.CreateTestCategory("Public Safety")
		require.NoError(t, err)
		subcategory, err := fixtures.CreateTestSubcategory(category.ID, "Police Services")
		require.NoError(t, err)
		admin, err := fixtures.CreateTestUser(models.UserRoleAdmin)
		require.NoError(t, err)
		citizen, err := fixtures.CreateTestUser(models.UserRoleCitizen)
		require.NoError(t, err)

		statusHistoryRepo := repository.NewStatusHistoryRepository(testDB.DB)
		complaintRepo := repository.NewComplaintRepository(testDB.DB)
		flow := newComplaintAdminFlow(testDB, &stubNotifier{})

		t.Run("AssigneeMustBeAdmin", func(t *testing.T) {
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			_, err = flow.AssignComplaint(ctx, complaint.ID, &dto.AssignComplaintRequest{
				AssignedTo: &citizen.ID,
			}, admin.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsAssigneeNotAdmin(err))
		})

		t.Run("AssignForcesUnderReview", func(t *testing.T) {
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			resp, err := flow.AssignComplaint(ctx, complaint.ID, &dto.AssignComplaintRequest{
				AssignedTo: &admin.ID,
			}, admin.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.ComplaintStatusUnderReview, resp.Complaint.Status)

			stored, err := complaintRepo.ByID(ctx, complaint.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.AssignedTo)
			assert.Equal(t, admin.ID, *stored.AssignedTo)

			rows, err := statusHistoryRepo.ByFilter(ctx, models.StatusHistoryFilter{ComplaintID: &complaint.ID}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			require.NotNil(t, rows[0].Comment)
			assert.Equal(t, "Complaint assigned for review", *rows[0].Comment)
		})

		t.Run("ClearingUnassignedIsNoOp", func(t *testing.T) {
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			_, err = flow.AssignComplaint(ctx, complaint.ID, &dto.AssignComplaintRequest{}, admin.ID, metadata)
			require.NoError(t, err)

			rows, err := statusHistoryRepo.ByFilter(ctx, models.StatusHistoryFilter{ComplaintID: &complaint.ID}, "", 0, 0)
			require.NoError(t, err)
			assert.Empty(t, rows)
		})

		t.Run("ReassignKeepsStatus", func(t *testing.T) {
			complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			_, err = flow.AssignComplaint(ctx, complaint.ID, &dto.AssignComplaintRequest{AssignedTo: &admin.ID}, admin.ID, metadata)
			require.NoError(t, err)

			// Reassigning an already under_review complaint adds no ledger row
			_, err = flow.AssignComplaint(ctx, complaint.ID, &dto.AssignComplaintRequest{AssignedTo: &admin.ID}, admin.ID, metadata)
			require.NoError(t, err)

			rows, err := statusHistoryRepo.ByFilter(ctx, models.StatusHistoryFilter{ComplaintID: &complaint.ID}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, rows, 1)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestUpdateComplaintPriority(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		category, err := fixtures.CreateTestCategory("Utilities")
		require.NoError(t, err)
		subcategory, err := fixtures.CreateTestSubcategory(category.ID, "Electricity")
		require.NoError(t, err)
		admin, err := fixtures.CreateTestUser(models.UserRoleAdmin)
		require.NoError(t, err)
		complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
		require.NoError(t, err)

		notifier := &stubNotifier{}
		flow := newComplaintAdminFlow(testDB, notifier)

		resp, err := flow.UpdatePriority(ctx, complaint.ID, &dto.UpdateComplaintPriorityRequest{
			Priority: models.ComplaintPriorityUrgent,
		}, admin.ID, metadata)
		require.NoError(t, err)
		assert.Equal(t, models.ComplaintPriorityUrgent, resp.Complaint.Priority)

		// Priority changes leave no trace in the status ledger and send nothing
		statusHistoryRepo := repository.NewStatusHistoryRepository(testDB.DB)
		rows, err := statusHistoryRepo.ByFilter(ctx, models.StatusHistoryFilter{ComplaintID: &complaint.ID}, "", 0, 0)
		require.NoError(t, err)
		assert.Empty(t, rows)

		_, err = flow.UpdatePriority(ctx, complaint.ID, &dto.UpdateComplaintPriorityRequest{
			Priority: "critical",
		}, admin.ID, metadata)
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidPriority(err))

		return nil
	})
	require.NoError(t, err)
}

func TestComplaintStatisticsAndListing(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		category, err := fixtures.CreateTestCategory("Healthcare")
		require.NoError(t, err)
		subcategory, err := fixtures.CreateTestSubcategory(category.ID, "Hospitals")
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)
		}

		flow := newComplaintAdminFlow(testDB, &stubNotifier{})

		t.Run("Statistics", func(t *testing.T) {
			stats, err := flow.GetStatistics(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(3), stats.Total)
			assert.Equal(t, int64(3), stats.Recent)
			require.Len(t, stats.ByStatus, 1)
			assert.Equal(t, models.ComplaintStatusPending, stats.ByStatus[0].Key)
			assert.Equal(t, int64(3), stats.ByStatus[0].Count)
			require.Len(t, stats.ByCategory, 1)
			assert.Equal(t, "Healthcare", stats.ByCategory[0].Key)
		})

		t.Run("ListWithFilter", func(t *testing.T) {
			status := models.ComplaintStatusPending
			resp, err := flow.ListComplaints(ctx, &dto.AdminListComplaintsRequest{
				Status:   &status,
				Page:     1,
				PageSize: 2,
			})
			require.NoError(t, err)
			assert.Equal(t, int64(3), resp.Total)
			assert.Len(t, resp.Complaints, 2)
			assert.Equal(t, uint(1), resp.Page)
			assert.Equal(t, uint(2), resp.PageSize)
		})

		t.Run("Export", func(t *testing.T) {
			filename, data, err := flow.ExportComplaints(ctx, &dto.ExportComplaintsRequest{})
			require.NoError(t, err)
			assert.Contains(t, filename, "complaints_")
			assert.Contains(t, filename, ".xlsx")
			assert.NotEmpty(t, data)
		})

		return nil
	})
	require.NoError(t, err)
}
