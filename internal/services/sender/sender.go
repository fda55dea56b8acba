// Package sender доставляет события подписки по электронной почте.
// Сервис читает сообщения из очереди уведомлений и отправляет письмо
// через SMTP с обязательным STARTTLS.
package sender

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/config"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

const smtpDialTimeout = 10 * time.Second

// SenderService отправляет почтовые уведомления о событиях подписки.
type SenderService struct {
	cfg config.SMTP
	log *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(cfg config.SMTP, log *slog.Logger) *SenderService {
	return &SenderService{
		cfg: cfg,
		log: log,
	}
}

// HandleDelivery обрабатывает одно сообщение из очереди уведомлений.
func (s *SenderService) HandleDelivery(body []byte) error {
	var event models.NotificationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	// Движок не хранит почтовые адреса пользователей, поэтому события без
	// адреса уходят администратору.
	to := event.Email
	if to == "" {
		to = s.cfg.AdminEmail
	}

	subject, bodyText := composeMessage(event)
	return s.sendMail(to, subject, bodyText)
}

func composeMessage(event models.NotificationEvent) (subject, body string) {
	switch event.Kind {
	case models.NotificationActivated:
		subject = "Подписка активирована"
		body = fmt.Sprintf("Подписка пользователя %d активирована (тариф %s).",
			event.UserID, event.Plan)
		if event.EndDate != nil {
			body += fmt.Sprintf(" Действует до %s.", event.EndDate.Format("02.01.2006"))
		}
	case models.NotificationExpiring:
		subject = "Подписка скоро закончится"
		body = fmt.Sprintf("Подписка пользователя %d закончится через %d дн. Продлите её заранее.",
			event.UserID, event.DaysLeft)
	case models.NotificationExpired:
		subject = "Подписка истекла"
		body = fmt.Sprintf("Подписка пользователя %d (тариф %s) истекла.",
			event.UserID, event.Plan)
	case models.NotificationRevoked:
		subject = "Подписка отозвана"
		body = fmt.Sprintf("Подписка пользователя %d отозвана администратором.", event.UserID)
	default:
		subject = "Событие подписки"
		body = fmt.Sprintf("Событие %q для пользователя %d.", event.Kind, event.UserID)
	}
	return subject, body
}

func (s *SenderService) sendMail(to, subject, bodyText string) error {
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", s.cfg.SMTPUser),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort

	conn, err := net.DialTimeout("tcp", addr, smtpDialTimeout)
	if err != nil {
		s.log.Error("failed to dial SMTP server", sl.Err(err))
		return fmt.Errorf("failed to dial SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		_ = conn.Close()
		s.log.Error("failed to create SMTP client", sl.Err(err))
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	ok, _ := client.Extension("STARTTLS")
	if !ok {
		s.log.Error("SMTP server does not support STARTTLS")
		return fmt.Errorf("smtp server does not support STARTTLS")
	}
	if err = client.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost}); err != nil {
		s.log.Error("failed to start TLS", sl.Err(err))
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	if err = client.Auth(auth); err != nil {
		s.log.Error("smtp auth failed", sl.Err(err))
		return fmt.Errorf("smtp auth failed: %w", err)
	}

	if err = client.Mail(s.cfg.SMTPUser); err != nil {
		s.log.Error("failed to set mail sender", sl.Err(err))
		return fmt.Errorf("failed to set mail sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		s.log.Error("failed to set recipient", sl.Err(err))
		return fmt.Errorf("failed to set recipient %s: %w", to, err)
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get write closer", sl.Err(err))
		return fmt.Errorf("failed to get write closer: %w", err)
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write message", sl.Err(err))
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close write closer", sl.Err(err))
		return fmt.Errorf("failed to close write closer: %w", err)
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return fmt.Errorf("failed to quit SMTP client: %w", err)
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
