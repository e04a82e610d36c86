package dispatch

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// MailSender is satisfied by *mail.Client.
type MailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailComposer sends one plain-text message addressed to every contact
// with a valid email.
type EmailComposer struct {
	sender MailSender
	from   string
}

func NewEmailComposer(sender MailSender, from string) *EmailComposer {
	return &EmailComposer{sender: sender, from: from}
}

// NewSMTPClient builds a go-mail client. Credentials switch on SMTP AUTH.
func NewSMTPClient(host string, port int, username, password string) (*mail.Client, error) {
	opts := []mail.Option{mail.WithPort(port), mail.WithTLSPortPolicy(mail.TLSOpportunistic)}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}
	c, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return c, nil
}

func (e *EmailComposer) Channel() string { return "email" }

func (e *EmailComposer) Send(ctx context.Context, a Alert) (int, error) {
	emails := Emails(a.Contacts)
	if len(emails) == 0 {
		return 0, nil
	}

	m := mail.NewMsg()
	if err := m.From(e.from); err != nil {
		return 0, fmt.Errorf("from %q: %w", e.from, err)
	}
	// one unparsable address must not cost the others their email
	to := 0
	var rejected error
	for _, addr := range emails {
		if err := m.AddTo(addr); err != nil {
			rejected = err
			continue
		}
		to++
	}
	if to == 0 {
		return 0, fmt.Errorf("recipients: %w", rejected)
	}
	m.Subject(a.Message.Subject)
	m.SetGenHeader(mail.HeaderXMailer, "safecheck")
	m.SetGenHeader("X-Alert-ID", a.ID)
	m.SetBodyString(mail.TypeTextPlain, a.Message.Body)

	if err := e.sender.DialAndSendWithContext(ctx, m); err != nil {
		return 0, err
	}
	return to, nil
}
