package mail

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

var ErrNoRecipient = errors.New("mail recipient is empty")

type Mailer interface {
	SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error
	SendHTMLEmail(ctx context.Context, recipientEmail, subject, htmlBody string) error
}

type SMTPMailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewSMTPMailService(host string, port int, username, password, from string) *SMTPMailService {
	return &SMTPMailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: from,
	}
}

func (s *SMTPMailService) SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error {
	return s.send(ctx, recipientEmail, subject, "text/plain", body)
}

func (s *SMTPMailService) SendHTMLEmail(ctx context.Context, recipientEmail, subject, htmlBody string) error {
	return s.send(ctx, recipientEmail, subject, "text/html", htmlBody)
}

func (s *SMTPMailService) send(ctx context.Context, recipientEmail, subject, contentType, body string) error {
	if recipientEmail == "" {
		return ErrNoRecipient
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", recipientEmail)
	m.SetHeader("Subject", subject)
	m.SetBody(contentType, body)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email sending canceled: %w", ctx.Err())
	}
}
