package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridMailer delivers messages through the SendGrid v3 API
type SendgridMailer struct {
	key    string
	from   *sgmail.Email
	logger zerolog.Logger
}

var _ Mailer = (*SendgridMailer)(nil)

// NewSendgridMailer creates a new SendgridMailer
func NewSendgridMailer(cfg Config, logger zerolog.Logger) *SendgridMailer {
	return &SendgridMailer{
		key:    cfg.SendgridAPIKey,
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

func (svc *SendgridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail("", to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}

// Send implements Mailer
func (svc *SendgridMailer) Send(ctx context.Context, msg Message) error {
	if !msg.HasRecipients() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(svc.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		svc.logger.Error().Err(err).Str("subject", msg.Subject).Msg("sending email")
		return fmt.Errorf("sending email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		svc.logger.Error().Int("status", res.StatusCode).Str("body", res.Body).Msg("sending email")
		return fmt.Errorf("sending email: sendgrid answered %d", res.StatusCode)
	}
	return nil
}
