package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/dukex/scrapeflow/pkg/protocol"
)

var ErrInvalidHeader = errors.New("header contains a line break")

// SMTPMailer sends plain text messages through an SMTP relay.
type SMTPMailer struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now      func() time.Time
}

// NewSMTPMailer creates a mailer for addr (host:port). PLAIN auth is used when
// username is set.
func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	mailer := &SMTPMailer{
		addr:     addr,
		from:     from,
		sendMail: smtp.SendMail,
		now:      time.Now,
	}

	if username != "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		mailer.auth = smtp.PlainAuth("", username, password, host)
	}

	return mailer
}

// Send delivers the message. net/smtp has no context support, so the context
// is only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, email protocol.Email) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	recipients := splitRecipients(email.To)
	if len(recipients) == 0 {
		return false, ErrNoRecipient
	}

	msg, err := m.compose(recipients, email)
	if err != nil {
		return false, err
	}

	err = m.sendMail(m.addr, m.auth, m.from, recipients, msg)
	if err != nil {
		return false, fmt.Errorf("smtp %s: %w", m.addr, err)
	}

	return true, nil
}

func (m *SMTPMailer) compose(recipients []string, email protocol.Email) ([]byte, error) {
	for _, header := range append([]string{m.from, email.Subject}, recipients...) {
		if strings.ContainsAny(header, "\r\n") {
			return nil, ErrInvalidHeader
		}
	}

	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(email.Body, "\r\n", "\n"), "\n", "\r\n"))

	return []byte(b.String()), nil
}

func splitRecipients(to string) []string {
	var recipients []string

	for _, address := range strings.Split(to, ",") {
		address = strings.TrimSpace(address)
		if address != "" {
			recipients = append(recipients, address)
		}
	}

	return recipients
}
