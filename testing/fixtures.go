// Package testing provides test utilities and database setup for testing the complaint platform
package testing

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	mrand "math/rand"

	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates a verified user with the given role
func (tf *TestFixtures) CreateTestUser(role string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := mrand.Intn(100000000)

	user := &models.User{
		FirstName:    "Jean",
		LastName:     "Mukamana",
		Email:        fmt.Sprintf("jean.mukamana.%d@example.com", suffix),
		PhoneNumber:  utils.ToPtr(fmt.Sprintf("+2507%08d", suffix)),
		PasswordHash: string(hashedPassword),
		Role:         role,
		IsVerified:   utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}

	return user, nil
}

// CreateTestCategory creates an active category with a unique name
func (tf *TestFixtures) CreateTestCategory(name string) (*models.Category, error) {
	category := &models.Category{
		Name:        name,
		Description: utils.ToPtr(fmt.Sprintf("Test category %s", name)),
		IsActive:    utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create test category: %w", err)
	}

	return category, nil
}

// CreateTestSubcategory creates an active subcategory under the given category
func (tf *TestFixtures) CreateTestSubcategory(categoryID uint, name string) (*models.Subcategory, error) {
	subcategory := &models.Subcategory{
		Name:        name,
		Description: utils.ToPtr(fmt.Sprintf("Test subcategory %s", name)),
		CategoryID:  categoryID,
		IsActive:    utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(subcategory).Error; err != nil {
		return nil, fmt.Errorf("failed to create test subcategory: %w", err)
	}

	return subcategory, nil
}

// CreateTestComplaint creates a pending complaint for the given category and
// subcategory. userID may be nil for guest submissions.
func (tf *TestFixtures) CreateTestComplaint(categoryID, subcategoryID uint, userID *uint) (*models.Complaint, error) {
	complaint := &models.Complaint{
		TrackingID:    models.GenerateTrackingID(utils.UTCNow()),
		Title:         utils.ToPtr("Broken water pipe"),
		Description:   "The main water pipe on the street has been leaking for a week.",
		Location:      "Kigali, Gasabo district",
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		Status:        models.ComplaintStatusPending,
		Priority:      models.ComplaintPriorityMedium,
		IsAnonymous:   utils.ToPtr(false),
	}

	if userID != nil {
		complaint.UserID = userID
	} else {
		complaint.FullName = utils.ToPtr("Claude Nshimiyimana")
		complaint.PhoneNumber = utils.ToPtr("+250788123456")
		complaint.Email = utils.ToPtr("claude.nshimiyimana@example.com")
	}

	if err := tf.DB.DB.Create(complaint).Error; err != nil {
		return nil, fmt.Errorf("failed to create test complaint: %w", err)
	}

	return complaint, nil
}

// CreateTestStatusHistory appends a status transition row for a complaint
func (tf *TestFixtures) CreateTestStatusHistory(complaintID uint, previous *string, next string, changedBy *uint) (*models.StatusHistory, error) {
	row := &models.StatusHistory{
		ComplaintID:    complaintID,
		PreviousStatus: previous,
		NewStatus:      next,
		ChangedBy:      changedBy,
	}

	if err := tf.DB.DB.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to create test status history: %w", err)
	}

	return row, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(userID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		UserID:      userID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}

func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
