package businessflow_test

import (
	"testing"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	businessflow "github.com/amirphl/Ijwi-ry-Abaturage/business_flow"
	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/repository"
	testingutil "github.com/amirphl/Ijwi-ry-Abaturage/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentFlow(testDB *testingutil.TestDB, notifier *stubNotifier) businessflow.CommentFlow {
	return businessflow.NewCommentFlow(
		repository.NewCommentRepository(testDB.DB),
		repository.NewComplaintRepository(testDB.DB),
		repository.NewUserRepository(testDB.DB),
		repository.NewNotificationLogRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		notifier,
		testDB.DB,
	)
}

func TestAddComment(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		category, err := fixtures.CreateTestCategory("Education")
		require.NoError(t, err)
		subcategory, err := fixtures.CreateTestSubcategory(category.ID, "Primary Schools")
		require.NoError(t, err)
		admin, err := fixtures.CreateTestUser(models.UserRoleAdmin)
		require.NoError(t, err)
		citizen, err := fixtures.CreateTestUser(models.UserRoleCitizen)
		require.NoError(t, err)
		other, err := fixtures.CreateTestUser(models.UserRoleCitizen)
		require.NoError(t, err)

		ownComplaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, &citizen.ID)
		require.NoError(t, err)

		flow := newCommentFlow(testDB, &stubNotifier{})

		t.Run("CitizenCommentsOnOwnComplaint", func(t *testing.T) {
			resp, err := flow.AddComment(ctx, ownComplaint.ID, &dto.AddCommentRequest{
				Content: "Any progress on this?",
			}, citizen.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, "Any progress on this?", resp.Comment.Content)
			require.NotNil(t, resp.Comment.AuthorName)
			// Citizens never see the internal flag
			assert.Nil(t, resp.Comment.IsInternal)
		})

		t.Run("CitizenCannotWriteInternalNotes", func(t *testing.T) {
			_, err := flow.AddComment(ctx, ownComplaint.ID, &dto.AddCommentRequest{
				Content:    "note to self",
				IsInternal: true,
			}, citizen.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInternalCommentDenied(err))
		})

		t.Run("CitizenCannotCommentOnOthersComplaint", func(t *testing.T) {
			_, err := flow.AddComment(ctx, ownComplaint.ID, &dto.AddCommentRequest{
				Content: "me too",
			}, other.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsNotAuthorized(err))
		})

		t.Run("CitizenCannotCommentOnGuestComplaint", func(t *testing.T) {
			guestComplaint, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
			require.NoError(t, err)

			_, err = flow.AddComment(ctx, guestComplaint.ID, &dto.AddCommentRequest{
				Content: "hello",
			}, citizen.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsNotAuthorized(err))
		})

		t.Run("AdminInternalNote", func(t *testing.T) {
			resp, err := flow.AddComment(ctx, ownComplaint.ID, &dto.AddCommentRequest{
				Content:    "Forwarded to the roads department",
				IsInternal: true,
			}, admin.ID, metadata)
			require.NoError(t, err)
			require.NotNil(t, resp.Comment.IsInternal)
			assert.True(t, *resp.Comment.IsInternal)
		})

		t.Run("AdminPublicComment", func(t *testing.T) {
			resp, err := flow.AddComment(ctx, ownComplaint.ID, &dto.AddCommentRequest{
				Content: "Repairs are scheduled for next week.",
			}, admin.ID, metadata)
			require.NoError(t, err)
			require.NotNil(t, resp.Comment.IsInternal)
			assert.False(t, *resp.Comment.IsInternal)
			require.NotNil(t, resp.Comment.AuthorRole)
			assert.Equal(t, models.UserRoleAdmin, *resp.Comment.AuthorRole)
		})

		t.Run("UnknownComplaint", func(t *testing.T) {
			_, err := flow.AddComment(ctx, 99999, &dto.AddCommentRequest{
				Content: "hello",
			}, admin.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsComplaintNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
