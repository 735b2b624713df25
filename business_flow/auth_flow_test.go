package businessflow_test

import (
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

func newSignupFlow(testDB *testingutil.TestDB) businessflow.SignupFlow {
	notificationSvc := services.NewNotificationService(services.NewMockSMSProvider(), services.NewMockEmailProvider())
	return businessflow.NewSignupFlow(
		repository.NewUserRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		notificationSvc,
		"https://ijwi-ry-abaturage.rw/verify-email",
		testDB.DB,
	)
}

func newLoginFlow(t *testing.T, testDB *testingutil.TestDB) businessflow.LoginFlow {
	tokenService, err := services.NewTokenService(
		time.Hour, 24*time.Hour, "ijwi-test", "ijwi-test-clients", false, "", "", "test-secret-key-for-jwt-signing")
	require.NoError(t, err)

	notificationSvc := services.NewNotificationService(services.NewMockSMSProvider(), services.NewMockEmailProvider())
	return businessflow.NewLoginFlow(
		repository.NewUserRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		tokenService,
		notificationSvc,
		"https://ijwi-ry-abaturage.rw/reset-password",
		testDB.DB,
	)
}

func TestRegisterAndVerify(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")
		userRepo := repository.NewUserRepository(testDB.DB)
		flow := newSignupFlow(testDB)

		req := &dto.RegisterRequest{
			FirstName: "Aline",
			LastName:  "Uwase",
			Email:     "aline.uwase@example.com",
			Password:  "StrongPass123",
		}

		t.Run("Register", func(t *testing.T) {
			resp, err := flow.Register(ctx, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, "aline.uwase@example.com", resp.User.Email)
			assert.Equal(t, models.UserRoleCitizen, resp.User.Role)

			stored, err := userRepo.ByEmail(ctx, req.Email)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.False(t, utils.IsTrue(stored.IsVerified))
			require.NotNil(t, stored.VerificationToken)
			// Password is stored hashed
			assert.NotEqual(t, req.Password, stored.PasswordHash)
		})

		t.Run("DuplicateEmail", func(t *testing.T) {
			_, err := flow.Register(ctx, req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsEmailAlreadyExists(err))
		})

		t.Run("VerifyEmail", func(t *testing.T) {
			stored, err := userRepo.ByEmail(ctx, req.Email)
			require.NoError(t, err)
			require.NotNil(t, stored.VerificationToken)

			_, err = flow.VerifyEmail(ctx, *stored.VerificationToken, metadata)
			require.NoError(t, err)

			stored, err = userRepo.ByEmail(ctx, req.Email)
			require.NoError(t, err)
			assert.True(t, utils.IsTrue(stored.IsVerified))
		})

		t.Run("VerifyWithBogusToken", func(t *testing.T) {
			_, err := flow.VerifyEmail(ctx, "not-a-real-token", metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsVerificationNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")
		flow := newLoginFlow(t, testDB)

		user, err := fixtures.CreateTestUser(models.UserRoleCitizen)
		require.NoError(t, err)

		t.Run("Success", func(t *testing.T) {
			resp, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    user.Email,
				Password: "TestPass123",
			}, metadata)
			require.NoError(t, err)
			assert.NotEmpty(t, resp.Token)
			assert.NotEmpty(t, resp.RefreshToken)
			assert.Equal(t, user.Email, resp.User.Email)
		})

		t.Run("WrongPassword", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    user.Email,
				Password: "WrongPass123",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsIncorrectCredentials(err))
		})

		t.Run("UnknownEmail", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    "nobody@example.com",
				Password: "TestPass123",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsIncorrectCredentials(err))
		})

		t.Run("UnverifiedEmailRejected", func(t *testing.T) {
			unverified, err := fixtures.CreateTestUser(models.UserRoleCitizen)
			require.NoError(t, err)
			unverified.IsVerified = utils.ToPtr(false)
			require.NoError(t, testDB.DB.Save(unverified).Error)

			_, err = flow.Login(ctx, &dto.LoginRequest{
				Email:    unverified.Email,
				Password: "TestPass123",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsEmailNotVerified(err))
		})

		t.Run("RefreshToken", func(t *testing.T) {
			loginResp, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    user.Email,
				Password: "TestPass123",
			}, metadata)
			require.NoError(t, err)

			refreshResp, err := flow.RefreshToken(ctx, &dto.RefreshTokenRequest{
				RefreshToken: loginResp.RefreshToken,
			}, metadata)
			require.NoError(t, err)
			assert.NotEmpty(t, refreshResp.Token)

			_, err = flow.RefreshToken(ctx, &dto.RefreshTokenRequest{
				RefreshToken: "garbage",
			}, metadata)
			require.Error(t, err)
		})

		t.Run("CurrentUser", func(t *testing.T) {
			profile, err := flow.CurrentUser(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, user.Email, profile.Email)

			_, err = flow.CurrentUser(ctx, 99999)
			require.Error(t, err)
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPasswordReset(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")
		userRepo := repository.NewUserRepository(testDB.DB)
		flow := newLoginFlow(t, testDB)

		user, err := fixtures.CreateTestUser(models.UserRoleCitizen)
		require.NoError(t, err)

		t.Run("ForgotPassword", func(t *testing.T) {
			_, err := flow.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: user.Email}, metadata)
			require.NoError(t, err)

			stored, err := userRepo.ByID(ctx, user.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.ResetPasswordToken)
			require.NotNil(t, stored.ResetPasswordExpires)
			assert.True(t, stored.ResetPasswordExpires.After(utils.UTCNow()))
		})

		t.Run("ForgotPasswordUnknownEmail", func(t *testing.T) {
			_, err := flow.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "nobody@example.com"}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		t.Run("ResetPassword", func(t *testing.T) {
			stored, err := userRepo.ByID(ctx, user.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.ResetPasswordToken)

			_, err = flow.ResetPassword(ctx, *stored.ResetPasswordToken, &dto.ResetPasswordRequest{
				Password:        "BrandNewPass123",
				ConfirmPassword: "BrandNewPass123",
			}, metadata)
			require.NoError(t, err)

			// The new password works, the old one does not
			_, err = flow.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: "BrandNewPass123"}, metadata)
			require.NoError(t, err)
			_, err = flow.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: "TestPass123"}, metadata)
			require.Error(t, err)
		})

		t.Run("ResetWithBogusToken", func(t *testing.T) {
			_, err := flow.ResetPassword(ctx, "not-a-real-token", &dto.ResetPasswordRequest{
				Password:        "AnotherPass123",
				ConfirmPassword: "AnotherPass123",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsResetTokenInvalid(err))
		})

		return nil
	})
	require.NoError(t, err)
}
