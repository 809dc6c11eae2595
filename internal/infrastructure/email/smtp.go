// Package email sends operator notifications over SMTP.
package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"threadmind/internal/shared/config"
	"threadmind/internal/shared/logger"
)

// SMTPNotifier delivers operator notifications. All sends are best effort:
// callers log failures and move on, notifications never gate business flow.
type SMTPNotifier struct {
	cfg    *config.SMTPConfig
	dialer *gomail.Dialer
	logger logger.Interface
}

func NewSMTPNotifier(cfg *config.SMTPConfig, log logger.Interface) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: log,
	}
}

// Enabled reports whether SMTP is configured at all.
func (s *SMTPNotifier) Enabled() bool {
	return s.cfg != nil && s.cfg.Host != "" && s.cfg.OperatorTo != ""
}

// NotifyTaskAutoPaused tells the operator a task paused itself.
func (s *SMTPNotifier) NotifyTaskAutoPaused(ctx context.Context, taskName, reason string) error {
	subject := fmt.Sprintf("Automation task %q was paused", taskName)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Task Auto-Paused</h2>
			<p>The automation task <strong>%s</strong> paused itself.</p>
			<p>Reason: %s</p>
			<p>Resume it from the admin panel once the cause is resolved.</p>
		</body>
		</html>
	`, taskName, reason)
	plainBody := fmt.Sprintf(`Task Auto-Paused

The automation task %q paused itself.
Reason: %s

Resume it from the admin panel once the cause is resolved.
`, taskName, reason)

	return s.send(subject, htmlBody, plainBody)
}

// NotifySubscriptionIssue tells the operator the subscription entered a
// non-operational state (expired, inactive).
func (s *SMTPNotifier) NotifySubscriptionIssue(ctx context.Context, state, detail string) error {
	subject := fmt.Sprintf("AI subscription needs attention: %s", state)
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Subscription Needs Attention</h2>
			<p>The AI service subscription is now in state <strong>%s</strong>.</p>
			<p>%s</p>
			<p>Indexing and automation are suspended until the subscription is restored.</p>
		</body>
		</html>
	`, state, detail)
	plainBody := fmt.Sprintf(`Subscription Needs Attention

The AI service subscription is now in state %q.
%s

Indexing and automation are suspended until the subscription is restored.
`, state, detail)

	return s.send(subject, htmlBody, plainBody)
}

func (s *SMTPNotifier) send(subject, htmlBody, plainBody string) error {
	if !s.Enabled() {
		s.logger.Debugw("smtp not configured, dropping notification", "subject", subject)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(s.cfg.FromAddress, s.cfg.FromName))
	msg.SetHeader("To", s.cfg.OperatorTo)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plainBody)
	msg.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	return nil
}
