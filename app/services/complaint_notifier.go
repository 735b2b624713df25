package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/amirphl/Ijwi-ry-Abaturage/models"
)

// NotificationContact holds the reachable channels of a complaint submitter.
type NotificationContact struct {
	Email       string
	PhoneNumber string
}

// NotificationData carries the template fields for a complaint notification.
type NotificationData struct {
	TrackingID string
	Category   string
	Status     string
	Comment    string
	Reason     string
}

// NotificationResult reports which channels were actually delivered.
type NotificationResult struct {
	Email bool
	SMS   bool
}

// Channels lists the delivered channel names for audit records.
func (r NotificationResult) Channels() []string {
	channels := make([]string, 0, 2)
	if r.Email {
		channels = append(channels, "email")
	}
	if r.SMS {
		channels = append(channels, "sms")
	}
	return channels
}

// ComplaintNotifier dispatches complaint lifecycle notifications over email
// and SMS. Delivery is best effort: failures are logged and degrade the
// per-channel result to false, they are never returned to the caller.
type ComplaintNotifier interface {
	Send(contact NotificationContact, intent string, data NotificationData) NotificationResult
}

type ComplaintNotifierImpl struct {
	notificationService NotificationService
	trackingURL         string
}

// NewComplaintNotifier creates a complaint notifier. trackingURL is the
// public page where citizens look up their complaints.
func NewComplaintNotifier(notificationService NotificationService, trackingURL string) ComplaintNotifier {
	return &ComplaintNotifierImpl{
		notificationService: notificationService,
		trackingURL:         trackingURL,
	}
}

// Send delivers the notification on every channel present in contact.
func (n *ComplaintNotifierImpl) Send(contact NotificationContact, intent string, data NotificationData) NotificationResult {
	var result NotificationResult

	if contact.Email != "" {
		subject, body := n.emailTemplate(intent, data)
		if subject == "" {
			log.Printf("unknown notification intent %q for email to %s", intent, contact.Email)
		} else if err := n.notificationService.SendEmail(contact.Email, subject, body); err != nil {
			log.Printf("email notification failed for %s: %v", data.TrackingID, err)
		} else {
			result.Email = true
		}
	}

	if contact.PhoneNumber != "" {
		message := n.smsTemplate(intent, data)
		if message == "" {
			log.Printf("unknown notification intent %q for sms to %s", intent, contact.PhoneNumber)
		} else if err := n.notificationService.SendSMS(NormalizePhoneNumber(contact.PhoneNumber), message); err != nil {
			log.Printf("sms notification failed for %s: %v", data.TrackingID, err)
		} else {
			result.SMS = true
		}
	}

	return result
}

func (n *ComplaintNotifierImpl) emailTemplate(intent string, data NotificationData) (subject, body string) {
	switch intent {
	case models.NotificationIntentSubmitted:
		subject = fmt.Sprintf("Complaint Submitted - Tracking ID: %s", data.TrackingID)
		lines := []string{
			"Thank you for submitting your complaint to Ijwi ry'Abaturage. Your voice matters to us.",
			"",
			fmt.Sprintf("Tracking ID: %s", data.TrackingID),
			fmt.Sprintf("Category: %s", data.Category),
			"",
			fmt.Sprintf("You can track the status of your complaint using the tracking ID above at %s", n.trackingURL),
			"",
			"We will notify you of any updates regarding your complaint.",
		}
		body = n.withSignature(lines)
	case models.NotificationIntentStatusUpdate:
		subject = fmt.Sprintf("Complaint Status Update - Tracking ID: %s", data.TrackingID)
		lines := []string{
			"The status of your complaint has been updated.",
			"",
			fmt.Sprintf("Tracking ID: %s", data.TrackingID),
			fmt.Sprintf("New Status: %s", data.Status),
		}
		if data.Comment != "" {
			lines = append(lines, fmt.Sprintf("Comment: %s", data.Comment))
		}
		lines = append(lines,
			"",
			fmt.Sprintf("You can view more details about your complaint at %s", n.trackingURL),
			"",
			"Thank you for using Ijwi ry'Abaturage to help improve public services.",
		)
		body = n.withSignature(lines)
	case models.NotificationIntentResolved:
		subject = fmt.Sprintf("Complaint Resolved - Tracking ID: %s", data.TrackingID)
		lines := []string{
			"We are pleased to inform you that your complaint has been resolved.",
			"",
			fmt.Sprintf("Tracking ID: %s", data.TrackingID),
		}
		if data.Comment != "" {
			lines = append(lines, fmt.Sprintf("Resolution Details: %s", data.Comment))
		}
		lines = append(lines,
			"",
			fmt.Sprintf("You can view more details about the resolution at %s", n.trackingURL),
			"",
			"We would appreciate your feedback on how your complaint was handled.",
			"Thank you for using Ijwi ry'Abaturage to help improve public services.",
		)
		body = n.withSignature(lines)
	case models.NotificationIntentRejected:
		subject = fmt.Sprintf("Complaint Status Update - Tracking ID: %s", data.TrackingID)
		lines := []string{
			"We regret to inform you that your complaint could not be processed further.",
			"",
			fmt.Sprintf("Tracking ID: %s", data.TrackingID),
			"Status: Rejected",
			fmt.Sprintf("Reason: %s", data.Reason),
			"",
			fmt.Sprintf("You can view more details about your complaint at %s", n.trackingURL),
			"",
			"If you have any questions or need further clarification, please contact our support team.",
			"Thank you for using Ijwi ry'Abaturage.",
		}
		body = n.withSignature(lines)
	case models.NotificationIntentNewComment:
		subject = fmt.Sprintf("New Comment on Your Complaint - Tracking ID: %s", data.TrackingID)
		lines := []string{
			"A new comment has been added to your complaint.",
			"",
			fmt.Sprintf("Tracking ID: %s", data.TrackingID),
			fmt.Sprintf("Comment: %s", data.Comment),
			"",
			fmt.Sprintf("You can view the full conversation and respond at %s", n.trackingURL),
			"",
			"Thank you for using Ijwi ry'Abaturage.",
		}
		body = n.withSignature(lines)
	}
	return subject, body
}

func (n *ComplaintNotifierImpl) smsTemplate(intent string, data NotificationData) string {
	switch intent {
	case models.NotificationIntentSubmitted:
		return fmt.Sprintf("Ijwi ry'Abaturage: Your complaint has been submitted successfully. Your tracking ID is %s. Use this ID to check the status of your complaint at %s", data.TrackingID, n.trackingURL)
	case models.NotificationIntentStatusUpdate:
		return fmt.Sprintf("Ijwi ry'Abaturage: Your complaint (%s) status has been updated to %q. Check details at %s", data.TrackingID, data.Status, n.trackingURL)
	case models.NotificationIntentResolved:
		return fmt.Sprintf("Ijwi ry'Abaturage: Your complaint (%s) has been resolved. Please check the details and provide feedback at %s", data.TrackingID, n.trackingURL)
	case models.NotificationIntentRejected:
		return fmt.Sprintf("Ijwi ry'Abaturage: Your complaint (%s) status has been updated. Please check the details at %s", data.TrackingID, n.trackingURL)
	case models.NotificationIntentNewComment:
		return fmt.Sprintf("Ijwi ry'Abaturage: A new comment has been added to your complaint (%s). View it at %s", data.TrackingID, n.trackingURL)
	}
	return ""
}

func (n *ComplaintNotifierImpl) withSignature(lines []string) string {
	lines = append(lines, "", "Best regards,", "The Ijwi ry'Abaturage Team")
	return strings.Join(lines, "\n")
}
