package mailer

import (
	"context"
	"fmt"
	"strings"

	"birthday_notifier/internal/domain/notify"

	"gopkg.in/gomail.v2"
)

// SMTPNotifier implements the notify.Notifier interface over an SMTP relay
// using gopkg.in/gomail.v2.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPNotifier(host string, port int, username, password, from string) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send delivers the birthday greeting to a single address. Quota-type
// rejections from the relay are wrapped with notify.ErrQuotaExceeded so the
// dispatch engine can abort the cycle instead of burning through the rest of
// the recipient list.
func (n *SMTPNotifier) Send(ctx context.Context, email, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", fmt.Sprintf("Happy Birthday, %s! 🎉", name))
	m.SetBody("text/html", birthdayBody(name))

	if err := n.dialer.DialAndSend(m); err != nil {
		return classifySendError(err)
	}
	return nil
}

// classifySendError separates quota/rate-limit rejections from transient
// failures. Gmail reports its daily cap with "Daily user sending limit
// exceeded"; other relays use "quota" or "rate limit" wording.
func classifySendError(err error) error {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"sending limit exceeded", "quota exceeded", "rate limit"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("smtp: %w: %v", notify.ErrQuotaExceeded, err)
		}
	}
	return fmt.Errorf("smtp send failed: %w", err)
}

func birthdayBody(name string) string {
	return fmt.Sprintf(`<div style="font-family:sans-serif;padding:20px;background:#f7fafc;border-radius:8px;">
      <h2 style="color:#6366f1;">Happy Birthday, %s!</h2>
      <p>Wishing you a fantastic year ahead. Enjoy your special day! 🎂🥳</p>
      <hr style="margin:20px 0;"/>
      <small>This is an automated birthday wish from the Birthday Notifier App.</small>
    </div>`, name)
}
