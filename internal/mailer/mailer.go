package mailer

import (
	"fmt"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Config carries SMTP settings for moderator notifications.
type Config struct {
	Host           string
	Port           int
	Username       string
	Password       string
	SenderEmail    string
	ModeratorEmail string
}

// Enabled reports whether the configuration is complete enough to send mail.
func (c Config) Enabled() bool {
	return c.Host != "" && c.SenderEmail != "" && c.ModeratorEmail != ""
}

// Mailer emails the moderator when a submission lands in the pending queue.
type Mailer struct {
	cfg    Config
	logger *logger.Logger
}

func NewMailer(cfg Config, log *logger.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		logger: log.Named("Mailer"),
	}
}

// NotifyPendingListing sends the notification asynchronously; delivery
// failures are logged and never surfaced to the submitting user.
func (m *Mailer) NotifyPendingListing(listing *domain.Listing) {
	if !m.cfg.Enabled() {
		m.logger.Debug("SMTP not configured, skipping moderator notification")
		return
	}

	go func() {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.cfg.SenderEmail)
		msg.SetHeader("To", m.cfg.ModeratorEmail)
		msg.SetHeader("Subject", "New listing awaiting moderation")
		msg.SetBody("text/plain", fmt.Sprintf(
			"A new listing %q (id %s) was submitted by %s and is waiting in the moderation queue.",
			listing.Title, listing.ID, listing.OwnerID))

		dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
		if err := dialer.DialAndSend(msg); err != nil {
			m.logger.Error("Failed to send moderator notification",
				zap.String("listing_id", listing.ID),
				zap.Error(err))
			return
		}
		m.logger.Info("Moderator notified about pending listing", zap.String("listing_id", listing.ID))
	}()
}

// NopNotifier satisfies domain.Notifier when notifications are disabled.
type NopNotifier struct{}

func (NopNotifier) NotifyPendingListing(*domain.Listing) {}
