package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationIntentForStatus(t *testing.T) {
	assert.Equal(t, NotificationIntentResolved, NotificationIntentForStatus(ComplaintStatusResolved))
	assert.Equal(t, NotificationIntentRejected, NotificationIntentForStatus(ComplaintStatusRejected))

	for _, status := range []string{
		ComplaintStatusPending,
		ComplaintStatusUnderReview,
		ComplaintStatusInProgress,
		ComplaintStatusClosed,
	} {
		assert.Equal(t, NotificationIntentStatusUpdate, NotificationIntentForStatus(status))
	}
}
