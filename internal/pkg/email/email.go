package email

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Drivers
const (
	DriverSMTP     = "smtp"
	DriverSendgrid = "sendgrid"
	DriverConsole  = "console"
)

// Message is a single outgoing mail with an optional HTML alternative
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// HasRecipients reports whether the message has anyone to go to
func (m Message) HasRecipients() bool {
	for _, to := range m.To {
		if strings.TrimSpace(to) != "" {
			return true
		}
	}
	return false
}

// Mailer sends messages. Send blocks until the message is handed over.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds mail settings for every driver
type Config struct {
	Driver         string
	Host           string
	Port           int
	Username       string
	Password       string
	FromName       string
	FromEmail      string
	UseTLS         bool
	SendgridAPIKey string
}

// NewMailer returns the Mailer selected by cfg.Driver
func NewMailer(cfg Config, logger zerolog.Logger) (Mailer, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverSMTP:
		return NewSMTPMailer(cfg, logger), nil
	case DriverSendgrid:
		if cfg.SendgridAPIKey == "" {
			return nil, fmt.Errorf("mail driver %q requires an API key", cfg.Driver)
		}
		return NewSendgridMailer(cfg, logger), nil
	case DriverConsole, "":
		return NewConsoleMailer(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

// compose renders msg as a MIME message, multipart/alternative when HTML is present
func compose(from string, msg Message) (string, error) {
	body := new(strings.Builder)

	fmt.Fprintf(body, "From: %s\r\n", from)
	fmt.Fprintf(body, "To: %s\r\n", oneLine(strings.Join(msg.To, ", ")))
	fmt.Fprintf(body, "Subject: %s\r\n", headerText(msg.Subject))
	fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprint(body, "MIME-Version: 1.0\r\n")

	if msg.HTML == "" {
		fmt.Fprint(body, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		fmt.Fprint(body, msg.Text)
		return body.String(), nil
	}

	w := multipart.NewWriter(body)
	fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", w.Boundary())

	part, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=UTF-8"}})
	if err != nil {
		return "", fmt.Errorf("creating text/plain part: %w", err)
	}
	fmt.Fprintf(part, "%s\r\n", msg.Text)

	part, err = w.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=UTF-8"}})
	if err != nil {
		return "", fmt.Errorf("creating text/html part: %w", err)
	}
	fmt.Fprintf(part, "%s\r\n", msg.HTML)

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}
	return body.String(), nil
}

func fromAddress(cfg Config) string {
	if cfg.FromName == "" {
		return cfg.FromEmail
	}
	return fmt.Sprintf("%s <%s>", headerText(cfg.FromName), oneLine(cfg.FromEmail))
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// oneLine folds line breaks so a value cannot start a new header
func oneLine(s string) string {
	return lineBreaks.Replace(s)
}

// headerText prepares free text for a header, RFC 2047 encoding anything non-ASCII
func headerText(s string) string {
	return mime.QEncoding.Encode("utf-8", oneLine(s))
}
