package service

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/it-all/slim-postgres/internal/config"
	"github.com/it-all/slim-postgres/internal/constants"
)

// Mailer sends plain text notifications
type Mailer interface {
	Send(to []string, subject, body string) error
}

// sendClient is the part of the SendGrid client the service uses
type sendClient interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// EmailService sends email through SendGrid.
type EmailService struct {
	client sendClient
	from   *mail.Email
}

// NewEmailService creates a new EmailService from the email settings.
func NewEmailService(cfg config.EmailSettings) (*EmailService, error) {
	if cfg.SendGridAPIKey == "" {
		return nil, fmt.Errorf("SENDGRID_API_KEY environment variable not set")
	}

	fromAddress := cfg.FromAddress
	if fromAddress == "" {
		fromAddress = constants.DefaultEmailFromAddress
	}
	fromName := cfg.FromName
	if fromName == "" {
		fromName = constants.DefaultEmailFromName
	}

	return &EmailService{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   mail.NewEmail(fromName, fromAddress),
	}, nil
}

// Send delivers one message addressed to every recipient in to.
func (s *EmailService) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}

	personalization := mail.NewPersonalization()
	for _, address := range to {
		personalization.AddTos(mail.NewEmail("", address))
	}

	message := mail.NewV3Mail()
	message.SetFrom(s.from)
	message.Subject = subject
	message.AddPersonalizations(personalization)
	message.AddContent(mail.NewContent("text/plain", body))

	response, err := s.client.Send(message)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("Failed to send email")
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, strings.TrimSpace(response.Body))
	}

	log.Info().Int("status_code", response.StatusCode).Str("subject", subject).Msg("Email sent")
	return nil
}
