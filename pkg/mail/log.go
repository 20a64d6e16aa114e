package mail

import (
	"context"

	"github.com/abisalde/storefront-auth/pkg/logger"
)

// LogMailService writes messages to the log instead of delivering them.
// Development only: bodies carry OTPs and tokens.
type LogMailService struct {
	log logger.Logger
}

func NewLogMailService(log logger.Logger) *LogMailService {
	return &LogMailService{log: log}
}

func (s *LogMailService) SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error {
	if recipientEmail == "" {
		return ErrNoRecipient
	}
	s.log.Info(ctx, "mail", "to", recipientEmail, "subject", subject, "body", body)
	return nil
}

func (s *LogMailService) SendHTMLEmail(ctx context.Context, recipientEmail, subject, htmlBody string) error {
	return s.SendPlainTextEmail(ctx, recipientEmail, subject, htmlBody)
}
