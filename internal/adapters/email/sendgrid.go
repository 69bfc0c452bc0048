// Package email delivers transactional mail through SendGrid.
package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Vimbi/cryptocurrency-investments-sub001/internal/infrastructure/config"
	"github.com/Vimbi/cryptocurrency-investments-sub001/pkg/logger"
)

// Sender delivers notification emails
type Sender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	enabled   bool
	logger    *logger.Logger
}

// NewSender creates a notification sender. With no provider configured it
// only logs, which keeps development environments working without keys.
func NewSender(cfg config.EmailConfig, log *logger.Logger) *Sender {
	s := &Sender{
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		enabled:   cfg.Provider == "sendgrid" && cfg.APIKey != "",
		logger:    log,
	}
	if s.enabled {
		s.client = sendgrid.NewSendClient(cfg.APIKey)
	}
	return s
}

// TransferCode delivers a one-time withdrawal code to the user's email
func (s *Sender) TransferCode(ctx context.Context, toEmail, code string) error {
	subject := "Your withdrawal confirmation code"
	plain := fmt.Sprintf("Your withdrawal confirmation code is %s. If you did not request a withdrawal, contact support immediately.", code)

	if !s.enabled {
		s.logger.Info("Email provider disabled, logging withdrawal code delivery",
			"to", toEmail)
		return nil
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, plain, "")

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send withdrawal code email: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected withdrawal code email: status %d, body: %s", resp.StatusCode, resp.Body)
	}

	return nil
}
