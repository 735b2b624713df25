package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"github.com/stretchr/testify/assert"
)

func TestGenerateTrackingID(t *testing.T) {
	pattern := regexp.MustCompile(`^IJW-\d{4}-\d{5}$`)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		id := GenerateTrackingID(now)
		assert.Regexp(t, pattern, id)
		assert.Contains(t, id, "IJW-2026-")
		assert.Len(t, id, 14)
	}
}

func TestStatusRank(t *testing.T) {
	ordered := []string{
		ComplaintStatusPending,
		ComplaintStatusUnderReview,
		ComplaintStatusInProgress,
		ComplaintStatusResolved,
		ComplaintStatusClosed,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, StatusRank(ordered[i]), StatusRank(ordered[i-1]))
	}

	assert.Equal(t, -1, StatusRank(ComplaintStatusRejected))
	assert.Equal(t, -1, StatusRank("bogus"))
}

func TestStatusAndPriorityValidation(t *testing.T) {
	assert.True(t, IsValidComplaintStatus(ComplaintStatusPending))
	assert.True(t, IsValidComplaintStatus(ComplaintStatusRejected))
	assert.False(t, IsValidComplaintStatus("escalated"))
	assert.False(t, IsValidComplaintStatus(""))

	assert.True(t, IsValidComplaintPriority(ComplaintPriorityUrgent))
	assert.False(t, IsValidComplaintPriority("critical"))
}

func TestDisplayTitle(t *testing.T) {
	complaint := &Complaint{}
	assert.Equal(t, "Infrastructure Issue", complaint.DisplayTitle("Infrastructure"))

	complaint.Title = utils.ToPtr("")
	assert.Equal(t, "Infrastructure Issue", complaint.DisplayTitle("Infrastructure"))

	complaint.Title = utils.ToPtr("Broken street light on KN 5 Ave")
	assert.Equal(t, "Broken street light on KN 5 Ave", complaint.DisplayTitle("Infrastructure"))
}

func TestHasContact(t *testing.T) {
	complaint := &Complaint{}
	assert.False(t, complaint.HasContact())

	complaint.Email = utils.ToPtr("")
	assert.False(t, complaint.HasContact())

	complaint.Email = utils.ToPtr("citizen@example.com")
	assert.True(t, complaint.HasContact())

	complaint.Email = nil
	complaint.PhoneNumber = utils.ToPtr("+250788123456")
	assert.True(t, complaint.HasContact())
}
