package businessflow_test

import (
	"testing"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	businessflow "github.com/amirphl/Ijwi-ry-Abaturage/business_flow"
	"github.com/amirphl/Ijwi-ry-Abaturage/config"
	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/repository"
	testingutil "github.com/amirphl/Ijwi-ry-Abaturage/testing"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCategoryFlow(testDB *testingutil.TestDB) businessflow.CategoryFlow {
	return businessflow.NewCategoryFlow(
		repository.NewCategoryRepository(testDB.DB),
		repository.NewSubcategoryRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		nil, // no redis in tests, tree served straight from the database
		&config.CacheConfig{},
		testDB.DB,
	)
}

func TestCategoryManagement(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")
		admin, err := fixtures.CreateTestUser(models.UserRoleAdmin)
		require.NoError(t, err)

		flow := newCategoryFlow(testDB)

		t.Run("CreateCategory", func(t *testing.T) {
			resp, err := flow.CreateCategory(ctx, &dto.CreateCategoryRequest{
				Name:        "Infrastructure",
				Description: utils.ToPtr("Roads, bridges and public works"),
			}, admin.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, "Infrastructure", resp.Category.Name)
			assert.True(t, utils.IsTrue(resp.Category.IsActive))
		})

		t.Run("DuplicateCategoryName", func(t *testing.T) {
			_, err := flow.CreateCategory(ctx, &dto.CreateCategoryRequest{Name: "Infrastructure"}, admin.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCategoryExists(err))
		})

		t.Run("CreateSubcategory", func(t *testing.T) {
			categories, err := flow.ListCategories(ctx)
			require.NoError(t, err)
			require.Len(t, categories.Categories, 1)
			categoryID := categories.Categories[0].ID

			resp, err := flow.CreateSubcategory(ctx, &dto.CreateSubcategoryRequest{
				CategoryID: categoryID,
				Name:       "Roads",
			}, admin.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, categoryID, resp.Subcategory.CategoryID)

			// Same name in the same category is rejected
			_, err = flow.CreateSubcategory(ctx, &dto.CreateSubcategoryRequest{
				CategoryID: categoryID,
				Name:       "Roads",
			}, admin.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsSubcategoryExists(err))

			// Unknown parent category
			_, err = flow.CreateSubcategory(ctx, &dto.CreateSubcategoryRequest{
				CategoryID: 99999,
				Name:       "Bridges",
			}, admin.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCategoryNotFound(err))
		})

		t.Run("DeactivatedCategoryHiddenFromListing", func(t *testing.T) {
			created, err := flow.CreateCategory(ctx, &dto.CreateCategoryRequest{Name: "Utilities"}, admin.ID, metadata)
			require.NoError(t, err)

			_, err = flow.UpdateCategory(ctx, created.Category.ID, &dto.UpdateCategoryRequest{
				IsActive: utils.ToPtr(false),
			}, admin.ID, metadata)
			require.NoError(t, err)

			listed, err := flow.ListCategories(ctx)
			require.NoError(t, err)
			for _, category := range listed.Categories {
				assert.NotEqual(t, "Utilities", category.Name)
			}
		})

		t.Run("RenameToExistingName", func(t *testing.T) {
			created, err := flow.CreateCategory(ctx, &dto.CreateCategoryRequest{Name: "Healthcare"}, admin.ID, metadata)
			require.NoError(t, err)

			_, err = flow.UpdateCategory(ctx, created.Category.ID, &dto.UpdateCategoryRequest{
				Name: utils.ToPtr("Infrastructure"),
			}, admin.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCategoryExists(err))
		})

		t.Run("UpdateUnknownCategory", func(t *testing.T) {
			_, err := flow.UpdateCategory(ctx, 99999, &dto.UpdateCategoryRequest{
				Name: utils.ToPtr("Ghost"),
			}, admin.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCategoryNotFound(err))
		})

		t.Run("CategoryTree", func(t *testing.T) {
			tree, err := flow.ListCategoryTree(ctx)
			require.NoError(t, err)

			var infrastructure *dto.CategoryDTO
			for i := range tree.Categories {
				if tree.Categories[i].Name == "Infrastructure" {
					infrastructure = &tree.Categories[i]
				}
				// Deactivated categories stay out of the tree
				assert.NotEqual(t, "Utilities", tree.Categories[i].Name)
			}
			require.NotNil(t, infrastructure)
			require.Len(t, infrastructure.Subcategories, 1)
			assert.Equal(t, "Roads", infrastructure.Subcategories[0].Name)
		})

		t.Run("CategoryTreeWithoutCacheConfig", func(t *testing.T) {
			// No cache wiring at all must degrade to plain database reads
			uncached := businessflow.NewCategoryFlow(
				repository.NewCategoryRepository(testDB.DB),
				repository.NewSubcategoryRepository(testDB.DB),
				repository.NewAuditLogRepository(testDB.DB),
				nil,
				nil,
				testDB.DB,
			)

			tree, err := uncached.ListCategoryTree(ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, tree.Categories)
		})

		t.Run("ListSubcategoriesOfUnknownCategory", func(t *testing.T) {
			_, err := flow.ListSubcategories(ctx, 99999)
			require.Error(t, err)
			assert.True(t, businessflow.IsCategoryNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
