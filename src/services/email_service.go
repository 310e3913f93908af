package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/dealfolio/backend/src/config"
	"github.com/username/dealfolio/backend/src/logger"
)

func NewEmailService() EmailService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return newMockEmailService()
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:                       mg,
			senderEmail:              config.Cfg.SenderEmail,
			senderName:               config.Cfg.SenderName,
			verificationEmailBaseURL: config.Cfg.VerificationEmailBaseURL,
			passwordResetBaseURL:     config.Cfg.PasswordResetBaseURL,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return newMockEmailService()
		}
		return &SMTPEmailService{
			server:                   config.Cfg.SMTPServer,
			port:                     config.Cfg.SMTPPort,
			user:                     config.Cfg.SMTPUser,
			password:                 config.Cfg.SMTPPassword,
			senderEmail:              config.Cfg.SenderEmail,
			verificationEmailBaseURL: config.Cfg.VerificationEmailBaseURL,
			passwordResetBaseURL:     config.Cfg.PasswordResetBaseURL,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return newMockEmailService()
	}
}

type MailgunEmailService struct {
	mg                       *mailgun.MailgunImpl
	senderEmail              string
	senderName               string
	verificationEmailBaseURL string
	passwordResetBaseURL     string
}

func (s *MailgunEmailService) SendVerificationEmail(toEmail, username, token string) error {
	verificationLink := fmt.Sprintf("%s?token=%s", s.verificationEmailBaseURL, token)
	subject := "Verify your Dealfolio account"
	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome to Dealfolio. Please verify your email address by visiting the link below:\n\n%s\n\nThe link expires in %s.\n\nIf you did not create this account you can ignore this message.",
		username, verificationLink, config.Cfg.VerificationTokenExpiry)
	return s.send(toEmail, subject, body)
}

func (s *MailgunEmailService) SendPasswordResetEmail(toEmail, username, token string) error {
	resetLink := fmt.Sprintf("%s?token=%s", s.passwordResetBaseURL, token)
	subject := "Reset your Dealfolio password"
	body := fmt.Sprintf(
		"Hi %s,\n\nA password reset was requested for your account. Visit the link below to choose a new password:\n\n%s\n\nThe link expires in %s.\n\nIf you did not request a reset you can ignore this message.",
		username, resetLink, config.Cfg.PasswordResetTokenExpiry)
	return s.send(toEmail, subject, body)
}

func (s *MailgunEmailService) send(toEmail, subject, body string) error {
	sender := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	message := mailgun.NewMessage(sender, subject, body, toEmail)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Mailgun send failed", "to", toEmail, "subject", subject, "error", err)
		return fmt.Errorf("failed to send email via mailgun: %w", err)
	}
	logger.L.Info("Email sent via Mailgun", "to", toEmail, "subject", subject, "messageID", id)
	return nil
}

type SMTPEmailService struct {
	server                   string
	port                     int
	user                     string
	password                 string
	senderEmail              string
	verificationEmailBaseURL string
	passwordResetBaseURL     string
}

func (s *SMTPEmailService) SendVerificationEmail(toEmail, username, token string) error {
	link := fmt.Sprintf("%s?token=%s", s.verificationEmailBaseURL, token)
	body := fmt.Sprintf("Hi %s,\n\nPlease verify your Dealfolio account: %s\n", username, link)
	return s.send(toEmail, "Verify your Dealfolio account", body)
}

func (s *SMTPEmailService) SendPasswordResetEmail(toEmail, username, token string) error {
	link := fmt.Sprintf("%s?token=%s", s.passwordResetBaseURL, token)
	body := fmt.Sprintf("Hi %s,\n\nReset your Dealfolio password: %s\n", username, link)
	return s.send(toEmail, "Reset your Dealfolio password", body)
}

func (s *SMTPEmailService) send(toEmail, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.server, s.port)
	auth := smtp.PlainAuth("", s.user, s.password, s.server)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.senderEmail, toEmail, subject, body))
	if err := smtp.SendMail(addr, auth, s.senderEmail, []string{toEmail}, msg); err != nil {
		logger.L.Error("SMTP send failed", "to", toEmail, "subject", subject, "error", err)
		return fmt.Errorf("failed to send email via smtp: %w", err)
	}
	logger.L.Info("Email sent via SMTP", "to", toEmail, "subject", subject)
	return nil
}

// MockEmailService logs instead of sending, for local development and tests.
type MockEmailService struct {
	verificationEmailBaseURL string
	passwordResetBaseURL     string
}

func newMockEmailService() *MockEmailService {
	return &MockEmailService{
		verificationEmailBaseURL: config.Cfg.VerificationEmailBaseURL,
		passwordResetBaseURL:     config.Cfg.PasswordResetBaseURL,
	}
}

func (s *MockEmailService) SendVerificationEmail(toEmail, username, token string) error {
	logger.L.Info("MOCK verification email", "to", toEmail, "username", username,
		"link", fmt.Sprintf("%s?token=%s", s.verificationEmailBaseURL, token))
	return nil
}

func (s *MockEmailService) SendPasswordResetEmail(toEmail, username, token string) error {
	logger.L.Info("MOCK password reset email", "to", toEmail, "username", username,
		"link", fmt.Sprintf("%s?token=%s", s.passwordResetBaseURL, token))
	return nil
}
