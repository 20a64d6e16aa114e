package mail

import (
	"context"
	"fmt"

	"github.com/abisalde/storefront-auth/internal/configs"
	"github.com/abisalde/storefront-auth/pkg/logger"
)

func NewMailerService(cfg *configs.Config, log logger.Logger) (Mailer, error) {
	ctx := context.Background()

	switch cfg.Mail.Provider {
	case "resend":
		log.Info(ctx, "initializing resend mail service")
		return NewResendMailService(cfg.Mail.APIKey, cfg.Mail.Sender), nil
	case "smtp":
		log.Info(ctx, "initializing smtp mail service", "host", cfg.Mail.SMTPHost)
		return NewSMTPMailService(
			cfg.Mail.SMTPHost,
			cfg.Mail.SMTPPort,
			cfg.Mail.SMTPUsername,
			cfg.Mail.SMTPPassword,
			cfg.Mail.Sender,
		), nil
	case "log":
		if cfg.IsProduction() {
			return nil, fmt.Errorf("mail provider %q is not allowed in production", cfg.Mail.Provider)
		}
		log.Warn(ctx, "mail delivery disabled, messages are written to the log")
		return NewLogMailService(log), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
	}
}
