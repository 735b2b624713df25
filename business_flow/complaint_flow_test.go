// Package businessflow_test contains integration tests for the complaint flows
package businessflow_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	"github.com/amirphl/Ijwi-ry-Abaturage/app/services"
	businessflow "github.com/amirphl/Ijwi-ry-Abaturage/business_flow"
	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/repository"
	testingutil "github.com/amirphl/Ijwi-ry-Abaturage/testing"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trackingIDFormat = regexp.MustCompile(`^IJW-\d{4}-\d{5}$`)

type notifyCall struct {
	Contact services.NotificationContact
	Intent  string
	Data    services.NotificationData
}

type stubNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (s *stubNotifier) Send(contact services.NotificationContact, intent string, data services.NotificationData) services.NotificationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, notifyCall{Contact: contact, Intent: intent, Data: data})
	return services.NotificationResult{Email: contact.Email != "", SMS: contact.PhoneNumber != ""}
}

func (s *stubNotifier) snapshot() []notifyCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notifyCall(nil), s.calls...)
}

// waitForNotifications polls the stub until want dispatches arrived or the
// deadline passed. Dispatch runs in a fire-and-forget goroutine, so tests
// need a sync point before asserting on it.
func waitForNotifications(s *stubNotifier, want int) []notifyCall {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls := s.snapshot(); len(calls) >= want {
			return calls
		}
		time.Sleep(10 * time.Millisecond)
	}
	return s.snapshot()
}

type stubCaptcha struct {
	verifyOK bool
}

func (s *stubCaptcha) GenerateRotate(ctx context.Context) (*services.RotateChallenge, error) {
	return &services.RotateChallenge{ID: "stub-challenge"}, nil
}

func (s *stubCaptcha) VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool {
	return s.verifyOK
}

type stubStorage struct{}

func (s *stubStorage) Upload(reader io.Reader, originalFilename string, declaredSize int64) (*services.StoredFile, error) {
	return &services.StoredFile{
		URL:       "/uploads/" + originalFilename,
		PublicID:  originalFilename,
		MimeType:  "image/png",
		SizeBytes: declaredSize,
	}, nil
}

func (s *stubStorage) Delete(publicID string) error { return nil }

// countingComplaintRepo counts lookups so a test can prove a code path never
// reached storage.
type countingComplaintRepo struct {
	repository.ComplaintRepository
	mu      sync.Mutex
	lookups int
}

func (r *countingComplaintRepo) bump() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
}

func (r *countingComplaintRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

func (r *countingComplaintRepo) ByID(ctx context.Context, id uint) (*models.Complaint, error) {
	r.bump()
	return r.ComplaintRepository.ByID(ctx, id)
}

func (r *countingComplaintRepo) ByTrackingID(ctx context.Context, trackingID string) (*models.Complaint, error) {
	r.bump()
	return r.ComplaintRepository.ByTrackingID(ctx, trackingID)
}

func (r *countingComplaintRepo) ByFilter(ctx context.Context, filter models.ComplaintFilter, orderBy string, limit, offset int) ([]*models.Complaint, error) {
	r.bump()
	return r.ComplaintRepository.ByFilter(ctx, filter, orderBy, limit, offset)
}

func (r *countingComplaintRepo) Exists(ctx context.Context, filter models.ComplaintFilter) (bool, error) {
	r.bump()
	return r.ComplaintRepository.Exists(ctx, filter)
}

func newComplaintFlow(testDB *testingutil.TestDB, notifier services.ComplaintNotifier, captcha services.CaptchaService) businessflow.ComplaintFlow {
	return businessflow.NewComplaintFlow(
		repository.NewComplaintRepository(testDB.DB),
		repository.NewCategoryRepository(testDB.DB),
		repository.NewSubcategoryRepository(testDB.DB),
		repository.NewAttachmentRepository(testDB.DB),
		repository.NewStatusHistoryRepository(testDB.DB),
		repository.NewCommentRepository(testDB.DB),
		repository.NewNotificationLogRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		notifier,
		captcha,
		&stubStorage{},
		testDB.DB,
	)
}

func TestSubmitComplaint(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		category, err := fixtures.CreateTestCategory("Infrastructure")
		require.NoError(t, err)
		subcategory, err := fixtures.CreateTestSubcategory(category.ID, "Roads")
		require.NoError(t, err)

		otherCategory, err := fixtures.CreateTestCategory("Utilities")
		require.NoError(t, err)

		user, err := fixtures.CreateTestUser(models.UserRoleCitizen)
		require.NoError(t, err)

		statusHistoryRepo := repository.NewStatusHistoryRepository(testDB.DB)
		complaintRepo := repository.NewComplaintRepository(testDB.DB)

		t.Run("AuthenticatedSubmission", func(t *testing.T) {
			flow := newComplaintFlow(testDB, &stubNotifier{}, &stubCaptcha{verifyOK: true})

			resp, err := flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Title:         utils.ToPtr("Potholes on the main road"),
				Description:   "Deep potholes have formed along the main road after the rains.",
				Location:      "Kigali, Nyarugenge district",
				CategoryID:    category.ID,
				SubcategoryID: subcategory.ID,
				UserID:        &user.ID,
			}, metadata)
			require.NoError(t, err)

			assert.Regexp(t, trackingIDFormat, resp.TrackingID)
			assert.Equal(t, models.ComplaintStatusPending, resp.Status)

			stored, err := complaintRepo.ByID(ctx, resp.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			require.NotNil(t, stored.UserID)
			assert.Equal(t, user.ID, *stored.UserID)
			assert.Nil(t, stored.FullName)
			assert.Nil(t, stored.Email)

			// Exactly one ledger row, the submission itself
			rows, err := statusHistoryRepo.ByFilter(ctx, models.StatusHistoryFilter{ComplaintID: &resp.ID}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Nil(t, rows[0].PreviousStatus)
			assert.Equal(t, models.ComplaintStatusPending, rows[0].NewStatus)
		})

		t.Run("GuestRequiresCaptcha", func(t *testing.T) {
			flow := newComplaintFlow(testDB, &stubNotifier{}, &stubCaptcha{verifyOK: true})

			_, err := flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Description:   "Street lights have been off for two weeks in our neighborhood.",
				Location:      "Musanze",
				CategoryID:    category.ID,
				SubcategoryID: subcategory.ID,
				FullName:      utils.ToPtr("Alice Uwase"),
				Email:         utils.ToPtr("alice.uwase@example.com"),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCaptchaNotVerified(err))
		})

		t.Run("GuestCaptchaRejected", func(t *testing.T) {
			flow := newComplaintFlow(testDB, &stubNotifier{}, &stubCaptcha{verifyOK: false})

			_, err := flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Description:   "Street lights have been off for two weeks in our neighborhood.",
				Location:      "Musanze",
				CategoryID:    category.ID,
				SubcategoryID: subcategory.ID,
				FullName:      utils.ToPtr("Alice Uwase"),
				Email:         utils.ToPtr("alice.uwase@example.com"),
				CaptchaID:     utils.ToPtr("stub-challenge"),
				CaptchaAngle:  utils.ToPtr(42.0),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCaptchaNotVerified(err))
		})

		t.Run("GuestSubmissionStoresContact", func(t *testing.T) {
			flow := newComplaintFlow(testDB, &stubNotifier{}, &stubCaptcha{verifyOK: true})

			resp, err := flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Description:   "The public tap in our sector has been broken since last month.",
				Location:      "Huye",
				CategoryID:    category.ID,
				SubcategoryID: subcategory.ID,
				FullName:      utils.ToPtr("Alice Uwase"),
				PhoneNumber:   utils.ToPtr("+250788654321"),
				Email:         utils.ToPtr("alice.uwase@example.com"),
				CaptchaID:     utils.ToPtr("stub-challenge"),
				CaptchaAngle:  utils.ToPtr(42.0),
			}, metadata)
			require.NoError(t, err)

			stored, err := complaintRepo.ByID(ctx, resp.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Nil(t, stored.UserID)
			require.NotNil(t, stored.FullName)
			assert.Equal(t, "Alice Uwase", *stored.FullName)
		})

		t.Run("GuestWithoutContactRejected", func(t *testing.T) {
			flow := newComplaintFlow(testDB, &stubNotifier{}, &stubCaptcha{verifyOK: true})

			_, err := flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Description:   "Uncollected garbage is piling up next to the market entrance.",
				Location:      "Nyagatare",
				CategoryID:    category.ID,
				SubcategoryID: subcategory.ID,
				CaptchaID:     utils.ToPtr("stub-challenge"),
				CaptchaAngle:  utils.ToPtr(42.0),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsContactDetailsRequired(err))

			// Name without a phone number is not enough either
			_, err = flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Description:   "Uncollected garbage is piling up next to the market entrance.",
				Location:      "Nyagatare",
				CategoryID:    category.ID,
				SubcategoryID: subcategory.ID,
				FullName:      utils.ToPtr("Alice Uwase"),
				Email:         utils.ToPtr("alice.uwase@example.com"),
				CaptchaID:     utils.ToPtr("stub-challenge"),
				CaptchaAngle:  utils.ToPtr(42.0),
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsContactDetailsRequired(err))
		})

		t.Run("AnonymousGuestNeedsNoContact", func(t *testing.T) {
			flow := newComplaintFlow(testDB, &stubNotifier{}, &stubCaptcha{verifyOK: true})

			resp, err := flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Description:   "Bribes are being demanded at the sector office service desk.",
				Location:      "Rusizi",
				CategoryID:    category.ID,
				SubcategoryID: subcategory.ID,
				IsAnonymous:   true,
				CaptchaID:     utils.ToPtr("stub-challenge"),
				CaptchaAngle:  utils.ToPtr(42.0),
			}, metadata)
			require.NoError(t, err)

			stored, err := complaintRepo.ByID(ctx, resp.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.True(t, utils.IsTrue(stored.IsAnonymous))
			assert.Nil(t, stored.FullName)
		})

		t.Run("GuestSubmissionNotifiesSubmitter", func(t *testing.T) {
			notifier := &stubNotifier{}
			flow := newComplaintFlow(testDB, notifier, &stubCaptcha{verifyOK: true})

			resp, err := flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Description:   "The footbridge over the river has lost several planks.",
				Location:      "Karongi",
				CategoryID:    category.ID,
				SubcategoryID: subcategory.ID,
				FullName:      utils.ToPtr("Alice Uwase"),
				PhoneNumber:   utils.ToPtr("+250788654321"),
				Email:         utils.ToPtr("alice.uwase@example.com"),
				CaptchaID:     utils.ToPtr("stub-challenge"),
				CaptchaAngle:  utils.ToPtr(42.0),
			}, metadata)
			require.NoError(t, err)

			calls := waitForNotifications(notifier, 1)
			require.Len(t, calls, 1)
			assert.Equal(t, models.NotificationIntentSubmitted, calls[0].Intent)
			assert.Equal(t, "alice.uwase@example.com", calls[0].Contact.Email)
			assert.Equal(t, "+250788654321", calls[0].Contact.PhoneNumber)
			assert.Equal(t, resp.TrackingID, calls[0].Data.TrackingID)
		})

		t.Run("AnonymousSubmissionNeverNotified", func(t *testing.T) {
			notifier := &stubNotifier{}
			flow := newComplaintFlow(testDB, notifier, &stubCaptcha{verifyOK: true})

			_, err := flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Description:   "A night guard at the health post mistreats patients.",
				Location:      "Gicumbi",
				CategoryID:    category.ID,
				SubcategoryID: subcategory.ID,
				IsAnonymous:   true,
				CaptchaID:     utils.ToPtr("stub-challenge"),
				CaptchaAngle:  utils.ToPtr(42.0),
			}, metadata)
			require.NoError(t, err)

			time.Sleep(300 * time.Millisecond)
			assert.Empty(t, notifier.snapshot())
		})

		t.Run("AuthenticatedSubmissionNeverNotified", func(t *testing.T) {
			notifier := &stubNotifier{}
			flow := newComplaintFlow(testDB, notifier, &stubCaptcha{verifyOK: true})

			// Complaints linked to an account store no contact triple, so
			// there is nothing to dispatch to
			_, err := flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Description:   "The bus stop shelter collapsed during last week's storm.",
				Location:      "Kigali, Kicukiro district",
				CategoryID:    category.ID,
				SubcategoryID: subcategory.ID,
				UserID:        &user.ID,
			}, metadata)
			require.NoError(t, err)

			time.Sleep(300 * time.Millisecond)
			assert.Empty(t, notifier.snapshot())
		})

		t.Run("UnknownCategory", func(t *testing.T) {
			flow := newComplaintFlow(testDB, &stubNotifier{}, &stubCaptcha{verifyOK: true})

			_, err := flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Description:   "Description long enough to pass validation rules.",
				Location:      "Kigali",
				CategoryID:    99999,
				SubcategoryID: subcategory.ID,
				UserID:        &user.ID,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCategoryNotFound(err))
		})

		t.Run("SubcategoryMustBelongToCategory", func(t *testing.T) {
			flow := newComplaintFlow(testDB, &stubNotifier{}, &stubCaptcha{verifyOK: true})

			_, err := flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Description:   "Description long enough to pass validation rules.",
				Location:      "Kigali",
				CategoryID:    otherCategory.ID,
				SubcategoryID: subcategory.ID,
				UserID:        &user.ID,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsSubcategoryNotFound(err))
		})

		t.Run("TooManyFiles", func(t *testing.T) {
			flow := newComplaintFlow(testDB, &stubNotifier{}, &stubCaptcha{verifyOK: true})

			files := make([]dto.UploadedFile, utils.MaxUploadFiles+1)
			for i := range files {
				files[i] = dto.UploadedFile{
					Reader:   bytes.NewReader([]byte("fake")),
					FileName: fmt.Sprintf("photo_%d.png", i),
					Size:     4,
				}
			}

			_, err := flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Description:   "Description long enough to pass validation rules.",
				Location:      "Kigali",
				CategoryID:    category.ID,
				SubcategoryID: subcategory.ID,
				UserID:        &user.ID,
				Files:         files,
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsTooManyFiles(err))
		})

		t.Run("AttachmentsStored", func(t *testing.T) {
			flow := newComplaintFlow(testDB, &stubNotifier{}, &stubCaptcha{verifyOK: true})

			resp, err := flow.SubmitComplaint(ctx, &dto.SubmitComplaintRequest{
				Description:   "A collapsed drainage channel floods the street every time it rains.",
				Location:      "Rubavu",
				CategoryID:    category.ID,
				SubcategoryID: subcategory.ID,
				UserID:        &user.ID,
				Files: []dto.UploadedFile{
					{Reader: bytes.NewReader([]byte("fake image bytes")), FileName: "drainage.png", Size: 16},
				},
			}, metadata)
			require.NoError(t, err)
			require.Len(t, resp.Attachments, 1)
			assert.Equal(t, "drainage.png", resp.Attachments[0].FileName)
			assert.Empty(t, resp.FailedFiles)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTrackComplaint(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		category, err := fixtures.CreateTestCategory("Healthcare")
		require.NoError(t, err)
		subcategory, err := fixtures.CreateTestSubcategory(category.ID, "Hospitals")
		require.NoError(t, err)
		admin, err := fixtures.CreateTestUser(models.UserRoleAdmin)
		require.NoError(t, err)

		complaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
		require.NoError(t, err)

		flow := newComplaintFlow(testDB, &stubNotifier{}, &stubCaptcha{verifyOK: true})

		t.Run("InvalidFormat", func(t *testing.T) {
			_, err := flow.GetByTrackingID(ctx, "not-a-tracking-id")
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidTrackingIDFormat(err))
		})

		t.Run("UnknownTrackingID", func(t *testing.T) {
			_, err := flow.GetByTrackingID(ctx, "IJW-2026-00000")
			require.Error(t, err)
			assert.True(t, businessflow.IsComplaintNotFound(err))
		})

		t.Run("FoundWithTimeline", func(t *testing.T) {
			resp, err := flow.GetByTrackingID(ctx, complaint.TrackingID)
			require.NoError(t, err)

			assert.Equal(t, complaint.TrackingID, resp.TrackingID)
			assert.Equal(t, models.ComplaintStatusPending, resp.Status)
			assert.False(t, resp.IsRejected)
			require.Len(t, resp.StatusTimeline, 5)
			assert.Equal(t, models.ComplaintStatusPending, resp.StatusTimeline[0].Status)
			assert.True(t, resp.StatusTimeline[0].Completed)
			assert.True(t, resp.StatusTimeline[0].Current)
			assert.False(t, resp.StatusTimeline[1].Completed)
		})

		t.Run("RejectedHasNoTimeline", func(t *testing.T) {
			rejected, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			rejected.Status = models.ComplaintStatusRejected
			rejected.RejectionReason = utils.ToPtr("Duplicate of an existing complaint")
			require.NoError(t, testDB.DB.Save(rejected).Error)

			resp, err := flow.GetByTrackingID(ctx, rejected.TrackingID)
			require.NoError(t, err)
			assert.True(t, resp.IsRejected)
			assert.Nil(t, resp.StatusTimeline)
			require.NotNil(t, resp.RejectionReason)
			assert.Equal(t, "Duplicate of an existing complaint", *resp.RejectionReason)
		})

		t.Run("StatusHistoryStartsWithSubmission", func(t *testing.T) {
			_, err := fixtures.CreateTestStatusHistory(complaint.ID, nil, models.ComplaintStatusPending, nil)
			require.NoError(t, err)
			_, err = fixtures.CreateTestStatusHistory(complaint.ID, utils.ToPtr(models.ComplaintStatusPending), models.ComplaintStatusUnderReview, &admin.ID)
			require.NoError(t, err)

			resp, err := flow.GetStatusHistory(ctx, complaint.TrackingID)
			require.NoError(t, err)

			require.NotEmpty(t, resp.StatusHistory)
			head := resp.StatusHistory[0]
			assert.Equal(t, "Submitted", head.Status)
			assert.Equal(t, "Your complaint has been successfully submitted.", head.Description)
			assert.Nil(t, head.ChangedBy)

			// Stored rows follow, newest first
			last := resp.StatusHistory[1]
			assert.Contains(t, last.Description, models.ComplaintStatusUnderReview)
		})

		t.Run("ValidateTrackingID", func(t *testing.T) {
			_, err := flow.ValidateTrackingID(ctx, "")
			require.Error(t, err)
			assert.True(t, businessflow.IsTrackingIDRequired(err))

			_, err = flow.ValidateTrackingID(ctx, "bogus")
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidTrackingIDFormat(err))

			_, err = flow.ValidateTrackingID(ctx, "IJW-2026-00000")
			require.Error(t, err)
			assert.True(t, businessflow.IsComplaintNotFound(err))

			resp, err := flow.ValidateTrackingID(ctx, complaint.TrackingID)
			require.NoError(t, err)
			assert.True(t, resp.Valid)
			assert.Equal(t, complaint.TrackingID, resp.TrackingID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTrackingFormatCheckedBeforeStorage(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()

		counting := &countingComplaintRepo{ComplaintRepository: repository.NewComplaintRepository(testDB.DB)}
		flow := businessflow.NewComplaintFlow(
			counting,
			repository.NewCategoryRepository(testDB.DB),
			repository.NewSubcategoryRepository(testDB.DB),
			repository.NewAttachmentRepository(testDB.DB),
			repository.NewStatusHistoryRepository(testDB.DB),
			repository.NewCommentRepository(testDB.DB),
			repository.NewNotificationLogRepository(testDB.DB),
			repository.NewAuditLogRepository(testDB.DB),
			&stubNotifier{},
			&stubCaptcha{verifyOK: true},
			&stubStorage{},
			testDB.DB,
		)

		// Malformed tracking IDs are rejected before any repository call
		_, err := flow.GetByTrackingID(ctx, "not-a-tracking-id")
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidTrackingIDFormat(err))

		_, err = flow.ValidateTrackingID(ctx, "IJW-26-1")
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidTrackingIDFormat(err))

		_, err = flow.GetStatusHistory(ctx, "ijw-2026-12345")
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidTrackingIDFormat(err))

		assert.Equal(t, 0, counting.count())

		// A well-formed ID does hit the repository
		_, err = flow.GetByTrackingID(ctx, "IJW-2026-00000")
		require.Error(t, err)
		assert.True(t, businessflow.IsComplaintNotFound(err))
		assert.Equal(t, 1, counting.count())

		return nil
	})
	require.NoError(t, err)
}

func TestListUserComplaints(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		category, err := fixtures.CreateTestCategory("Education")
		require.NoError(t, err)
		subcategory, err := fixtures.CreateTestSubcategory(category.ID, "Primary Schools")
		require.NoError(t, err)

		user, err := fixtures.CreateTestUser(models.UserRoleCitizen)
		require.NoError(t, err)
		other, err := fixtures.CreateTestUser(models.UserRoleCitizen)
		require.NoError(t, err)

		_, err = fixtures.CreateTestComplaint(category.ID, subcategory.ID, &user.ID)
		require.NoError(t, err)
		_, err = fixtures.CreateTestComplaint(category.ID, subcategory.ID, &user.ID)
		require.NoError(t, err)
		_, err = fixtures.CreateTestComplaint(category.ID, subcategory.ID, &other.ID)
		require.NoError(t, err)

		flow := newComplaintFlow(testDB, &stubNotifier{}, &stubCaptcha{verifyOK: true})

		resp, err := flow.ListUserComplaints(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Results)
		require.Len(t, resp.Complaints, 2)
		for _, item := range resp.Complaints {
			assert.Regexp(t, trackingIDFormat, item.TrackingID)
		}

		return nil
	})
	require.NoError(t, err)
}
