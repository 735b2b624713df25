package repository_test

import (
	"testing"

	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/repository"
	testingutil "github.com/amirphl/Ijwi-ry-Abaturage/testing"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplaintRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		repo := repository.NewComplaintRepository(testDB.DB)

		category, err := fixtures.CreateTestCategory("Infrastructure")
		require.NoError(t, err)
		subcategory, err := fixtures.CreateTestSubcategory(category.ID, "Roads")
		require.NoError(t, err)
		user, err := fixtures.CreateTestUser(models.UserRoleCitizen)
		require.NoError(t, err)
		admin, err := fixtures.CreateTestUser(models.UserRoleAdmin)
		require.NoError(t, err)

		mine, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, &user.ID)
		require.NoError(t, err)
		guest, err := fixtures.CreateTestComplaint(category.ID, subcategory.ID, nil)
		require.NoError(t, err)

		t.Run("ByTrackingID", func(t *testing.T) {
			found, err := repo.ByTrackingID(ctx, mine.TrackingID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, mine.ID, found.ID)
			require.NotNil(t, found.Category)
			assert.Equal(t, "Infrastructure", found.Category.Name)

			missing, err := repo.ByTrackingID(ctx, "IJW-2026-00000")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("ListByUser", func(t *testing.T) {
			rows, err := repo.ListByUser(ctx, user.ID)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, mine.ID, rows[0].ID)
		})

		t.Run("FilterByStatusAndUnassigned", func(t *testing.T) {
			status := models.ComplaintStatusPending
			rows, err := repo.ByFilter(ctx, models.ComplaintFilter{Status: &status}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, rows, 2)

			rows, err = repo.ByFilter(ctx, models.ComplaintFilter{Unassigned: utils.ToPtr(true)}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, rows, 2)

			guest.AssignedTo = &admin.ID
			require.NoError(t, repo.Update(ctx, guest))

			rows, err = repo.ByFilter(ctx, models.ComplaintFilter{Unassigned: utils.ToPtr(true)}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, mine.ID, rows[0].ID)

			rows, err = repo.ByFilter(ctx, models.ComplaintFilter{AssignedTo: &admin.ID}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, guest.ID, rows[0].ID)
		})

		t.Run("SearchMatchesTrackingID", func(t *testing.T) {
			rows, err := repo.ByFilter(ctx, models.ComplaintFilter{Search: &mine.TrackingID}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, mine.ID, rows[0].ID)
		})

		t.Run("CountGroupedBy", func(t *testing.T) {
			byStatus, err := repo.CountGroupedBy(ctx, "status")
			require.NoError(t, err)
			assert.Equal(t, int64(2), byStatus[models.ComplaintStatusPending])

			_, err = repo.CountGroupedBy(ctx, "title")
			require.Error(t, err)
		})

		t.Run("UpdatePriority", func(t *testing.T) {
			require.NoError(t, repo.UpdatePriority(ctx, mine.ID, models.ComplaintPriorityHigh))

			stored, err := repo.ByID(ctx, mine.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ComplaintPriorityHigh, stored.Priority)
		})

		return nil
	})
	require.NoError(t, err)
}
