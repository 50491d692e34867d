package services

import (
	"context"
	"fmt"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/templates"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/email"
	"github.com/miu/unidesk/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

const (
	subjectVoterCredentials   = "Your Voting Account Details"
	subjectVoterApproved      = "Your Voting Status Update"
	subjectStudentCredentials = "Your Research Account Details"
	subjectResearchSchedule   = "Research Information Updated"
	subjectSupervisorAssigned = "New Student Assigned: %s"

	htmlFallback = "Please view this email in HTML format."
)

// NotificationService sends the mails triggered by record saves
type NotificationService interface {
	SendVoterCredentials(ctx context.Context, voter *models.Voter, password string) error
	SendVoterApproved(ctx context.Context, voter *models.Voter) error
	SendStudentCredentials(ctx context.Context, student *models.Student, password string) error
	// SendResearchSchedule mails the schedule to the student and the assignment to the supervisor
	SendResearchSchedule(ctx context.Context, student *models.Student, topic *models.ResearchTopic, supervisor *models.Supervisor, schedule models.Schedule) error
}

type notificationServiceImpl struct {
	mailer     email.Mailer
	mail       *templates.Mail
	metrics    *metrics.Metrics
	university string
	logger     zerolog.Logger
}

// NewNotificationService creates a notification service on top of mailer
func NewNotificationService(mailer email.Mailer, university string, m *metrics.Metrics, logger zerolog.Logger) (NotificationService, error) {
	mail, err := templates.LoadMail()
	if err != nil {
		return nil, err
	}
	return &notificationServiceImpl{
		mailer:     mailer,
		mail:       mail,
		metrics:    m,
		university: university,
		logger:     logger,
	}, nil
}

type credentialsMail struct {
	Name     string
	Email    string
	RegNo    string
	Password string
}

type scheduleMail struct {
	Student    *models.Student
	Topic      *models.ResearchTopic
	Supervisor *models.Supervisor
	Schedule   models.Schedule
	University string
}

func (s *notificationServiceImpl) send(ctx context.Context, kind string, msg email.Message) error {
	err := s.mailer.Send(ctx, msg)
	s.metrics.EmailSent(kind, err)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", kind).Strs("to", msg.To).Msg("Failed to send notification")
		return fmt.Errorf("%w: %s: %v", apperrors.ErrNotificationFailed, kind, err)
	}
	s.logger.Info().Str("kind", kind).Strs("to", msg.To).Msg("Notification sent")
	return nil
}

func (s *notificationServiceImpl) text(kind, tmpl string, data interface{}) (string, error) {
	body, err := s.mail.Text(tmpl, data)
	if err != nil {
		return "", fmt.Errorf("%w: render %s: %v", apperrors.ErrNotificationFailed, kind, err)
	}
	return body, nil
}

func (s *notificationServiceImpl) SendVoterCredentials(ctx context.Context, voter *models.Voter, password string) error {
	body, err := s.text("voter_credentials", "voter_credentials", credentialsMail{
		Name: voter.Name, Email: voter.Email, RegNo: voter.RegNo, Password: password,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, "voter_credentials", email.Message{
		To:      []string{voter.Email},
		Subject: subjectVoterCredentials,
		Text:    body,
	})
}

func (s *notificationServiceImpl) SendVoterApproved(ctx context.Context, voter *models.Voter) error {
	body, err := s.text("voter_approved", "voter_approved", voter)
	if err != nil {
		return err
	}
	return s.send(ctx, "voter_approved", email.Message{
		To:      []string{voter.Email},
		Subject: subjectVoterApproved,
		Text:    body,
	})
}

func (s *notificationServiceImpl) SendStudentCredentials(ctx context.Context, student *models.Student, password string) error {
	body, err := s.text("student_credentials", "student_credentials", credentialsMail{
		Name: student.Name, Email: student.Email, RegNo: student.RegNo, Password: password,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, "student_credentials", email.Message{
		To:      []string{student.Email},
		Subject: subjectStudentCredentials,
		Text:    body,
	})
}

func (s *notificationServiceImpl) SendResearchSchedule(ctx context.Context, student *models.Student, topic *models.ResearchTopic, supervisor *models.Supervisor, schedule models.Schedule) error {
	data := scheduleMail{
		Student:    student,
		Topic:      topic,
		Supervisor: supervisor,
		Schedule:   schedule,
		University: s.university,
	}

	text, err := s.text("research_schedule", "research_schedule", data)
	if err != nil {
		return err
	}
	html, err := s.mail.HTML("research_schedule", data)
	if err != nil {
		return fmt.Errorf("%w: render research_schedule: %v", apperrors.ErrNotificationFailed, err)
	}
	if err := s.send(ctx, "research_schedule", email.Message{
		To:      []string{student.Email},
		Subject: subjectResearchSchedule,
		Text:    text,
		HTML:    html,
	}); err != nil {
		return err
	}

	html, err = s.mail.HTML("supervisor_assignment", data)
	if err != nil {
		return fmt.Errorf("%w: render supervisor_assignment: %v", apperrors.ErrNotificationFailed, err)
	}
	return s.send(ctx, "supervisor_assignment", email.Message{
		To:      []string{supervisor.Email},
		Subject: fmt.Sprintf(subjectSupervisorAssigned, student.Name),
		Text:    htmlFallback,
		HTML:    html,
	})
}
