// Package mail sends account emails over SMTP.
package mail

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"gopkg.in/gomail.v2"
)

// Message is a single outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// SMTPMailer delivers through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer returns a mailer for host:port authenticating as user.
func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	if from == "" {
		from = user
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

// Send dials the relay and sends m. gomail has no context support; ctx is
// only checked before dialing.
func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/html", m.HTML)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", m.To, err)
	}
	log.Printf("mail: sent %q to %s", m.Subject, m.To)
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when no
// SMTP relay is configured so local setups can still complete verification.
type LogMailer struct{}

// Send logs m.
func (LogMailer) Send(_ context.Context, m Message) error {
	log.Printf("mail: SMTP not configured; would send %q to %s:\n%s", m.Subject, m.To, m.HTML)
	return nil
}

// VerificationLink builds the frontend URL that completes verification.
func VerificationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/verify-email/" + token
}

// VerificationEmail builds the message sent after registration.
func VerificationEmail(to, name, link string) Message {
	name = html.EscapeString(name)
	link = html.EscapeString(link)
	body := fmt.Sprintf(`<h2>Welcome to SkillsHub, %s!</h2>
<p>Please confirm your email address to activate your account.</p>
<p><a href="%s">Verify my email</a></p>
<p>This link expires in 24 hours. If you did not create an account you can ignore this email.</p>`, name, link)

	return Message{
		To:      to,
		Subject: "Verify your SkillsHub account",
		HTML:    body,
	}
}
