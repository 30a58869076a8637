package email

import (
	"context"
	"fmt"
	"time"

	"labtrack/internal/config"
	"labtrack/internal/logger"

	"github.com/mailgun/mailgun-go/v5"
)

// ImportSummary describes one finished CSV import.
type ImportSummary struct {
	Username string
	Filename string
	Imported int
	Errors   []string
	At       time.Time
}

type Service struct {
	client      mailgun.Mailgun
	domain      string
	senderEmail string
	senderName  string
	recipient   string
	enabled     bool
}

func NewService(cfg *config.Config) *Service {
	enabled := cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" && cfg.NotifyEmail != ""

	var client mailgun.Mailgun
	if enabled {
		client = mailgun.NewMailgun(cfg.MailgunAPIKey)
	}

	return &Service{
		client:      client,
		domain:      cfg.MailgunDomain,
		senderEmail: cfg.MailgunSenderEmail,
		senderName:  cfg.MailgunSenderName,
		recipient:   cfg.NotifyEmail,
		enabled:     enabled,
	}
}

func (s *Service) IsEnabled() bool {
	return s != nil && s.enabled
}

func (s *Service) SendImportSummary(summary ImportSummary) error {
	if !s.IsEnabled() {
		return fmt.Errorf("email service is not configured")
	}

	subject := fmt.Sprintf("[labtrack] %d samples imported from %s", summary.Imported, summary.Filename)

	message := mailgun.NewMessage(
		s.domain,
		fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail),
		subject,
		importSummaryText(summary),
		s.recipient,
	)
	message.SetHTML(importSummaryHTML(summary))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := s.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send import summary to %s: %w", s.recipient, err)
	}

	logger.Info("Import summary sent",
		"recipient", s.recipient,
		"response", resp)
	return nil
}

// NotifyImport sends the summary in the background; failures are only logged.
func (s *Service) NotifyImport(summary ImportSummary) {
	if !s.IsEnabled() {
		return
	}
	go func() {
		if err := s.SendImportSummary(summary); err != nil {
			logger.Error("Failed to send import summary", "error", err)
		}
	}()
}
