package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/abisalde/storefront-auth/internal/model"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/*.html
var templateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type emailJob struct {
	to       string
	subject  string
	template string
	data     any
}

func (s *AuthService) welcomeEmail(user *model.User) emailJob {
	return emailJob{
		to:       user.Email,
		subject:  "Welcome to Forever!",
		template: "welcome.html",
		data:     struct{ Name string }{Name: user.Name},
	}
}

func (s *AuthService) verificationEmail(user *model.User, token string) emailJob {
	link := strings.TrimRight(s.cfg.App.FrontendURL, "/") + "/verify-email?token=" + url.QueryEscape(token)
	return emailJob{
		to:       user.Email,
		subject:  "Verify your email address",
		template: "verify_email.html",
		data: struct {
			Name string
			Link string
		}{Name: user.Name, Link: link},
	}
}

func (s *AuthService) otpEmail(user *model.User, otp string) emailJob {
	return emailJob{
		to:       user.Email,
		subject:  "Password Reset OTP",
		template: "forgot_password.html",
		data: struct {
			Name     string
			Code     string
			ValidFor string
		}{Name: user.Name, Code: otp, ValidFor: humanDuration(s.cfg.Auth.OTPTTL)},
	}
}

// dispatch sends every job concurrently under mail.timeout. The request
// context only contributes values: a client hanging up must not abort
// delivery of a token that is already stored.
func (s *AuthService) dispatch(ctx context.Context, jobs ...emailJob) model.EmailStatus {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Mail.Timeout)
	defer cancel()

	var g errgroup.Group
	for _, job := range jobs {
		g.Go(func() error {
			if err := s.send(sendCtx, job); err != nil {
				s.log.Error(ctx, "email delivery failed", "subject", job.subject, "error", err)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return model.EmailStatusDeliveryFailed
	}
	return model.EmailStatusSent
}

func (s *AuthService) send(ctx context.Context, job emailJob) error {
	var body bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&body, job.template, job.data); err != nil {
		return fmt.Errorf("render %s: %w", job.template, err)
	}
	return s.mailService.SendHTMLEmail(ctx, job.to, job.subject, body.String())
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if h := int(d / time.Hour); h > 1 {
			return fmt.Sprintf("%d hours", h)
		}
		return "1 hour"
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
