package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/validation"
	"github.com/miu/unidesk/internal/pkg/websocket"
	"github.com/rs/zerolog"
)

const (
	MsgEmailInUse   = "This email is already in use."
	MsgRegNoInUse   = "A voter with this registration number already exists."
	MsgRegistration = "Registration successful. Please check your email for login details."
)

// VoterService manages election accounts
type VoterService interface {
	// Register handles the public registration form
	Register(ctx context.Context, form dto.VoterRegistrationForm) (*models.Voter, error)
	Create(ctx context.Context, req dto.VoterRequest) (*models.Voter, error)
	Update(ctx context.Context, id int64, req dto.VoterRequest) (*models.Voter, error)
	// Save writes the voter. A voter without a password gets a generated one by
	// mail; an active voter who has not voted gets the status mail on every save.
	Save(ctx context.Context, voter *models.Voter, password string) error
	Get(ctx context.Context, id int64) (*models.Voter, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Voter, int64, error)
	Count(ctx context.Context) (int64, error)
	// CreateStaff creates or promotes a staff account with a chosen password
	CreateStaff(ctx context.Context, name, email, regNo, password string) (*models.Voter, error)
	ResetPassword(ctx context.Context, regNo string) error
	Delete(ctx context.Context, id int64) error
}

type voterServiceImpl struct {
	repo          VoterRepository
	notifications NotificationService
	audit         AuditService
	publisher     Publisher
	logger        zerolog.Logger
}

// NewVoterService creates a new voter service. publisher may be nil.
func NewVoterService(repo VoterRepository, notifications NotificationService, audit AuditService, publisher Publisher, logger zerolog.Logger) VoterService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &voterServiceImpl{
		repo:          repo,
		notifications: notifications,
		audit:         audit,
		publisher:     publisher,
		logger:        logger,
	}
}

// uniqueness errors keyed by the field names of the form or the API payload
var (
	voterFormUnique = map[error][2]string{
		apperrors.ErrEmailAlreadyExists: {"email", MsgEmailInUse},
		apperrors.ErrRegNoAlreadyExists: {"reg_no", MsgRegNoInUse},
	}
	voterAPIUnique = map[error][2]string{
		apperrors.ErrEmailAlreadyExists: {"email", MsgEmailInUse},
		apperrors.ErrRegNoAlreadyExists: {"regNo", MsgRegNoInUse},
	}
)

func (s *voterServiceImpl) Register(ctx context.Context, form dto.VoterRegistrationForm) (*models.Voter, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.RegNo = strings.TrimSpace(form.RegNo)
	if err := validation.Struct(form); err != nil {
		return nil, err
	}

	var errs apperrors.FieldErrors
	if _, err := s.repo.GetByEmail(ctx, form.Email); err == nil {
		errs = append(errs, apperrors.NewFieldError("email", MsgEmailInUse))
	} else if !errors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetByRegNo(ctx, form.RegNo); err == nil {
		errs = append(errs, apperrors.NewFieldError("reg_no", MsgRegNoInUse))
	} else if !errors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errs
	}

	voter := form.ToVoter()
	if err := s.Save(ctx, voter, ""); err != nil {
		if voter.ID == 0 {
			return nil, uniqueField(err, voterFormUnique)
		}
		return voter, err
	}
	s.publisher.Publish(websocket.EventVoterRegistered,
		fmt.Sprintf("%s registered to vote", voter.Name),
		map[string]interface{}{"id": voter.ID, "name": voter.Name})
	return voter, nil
}

func (s *voterServiceImpl) Create(ctx context.Context, req dto.VoterRequest) (*models.Voter, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	voter := &models.Voter{}
	req.Apply(voter)
	if err := s.Save(ctx, voter, req.Password); err != nil {
		if voter.ID == 0 {
			return nil, uniqueField(err, voterAPIUnique)
		}
		return voter, err
	}
	return voter, nil
}

func (s *voterServiceImpl) Update(ctx context.Context, id int64, req dto.VoterRequest) (*models.Voter, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	voter, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(voter)
	if err := s.Save(ctx, voter, req.Password); err != nil {
		return voter, uniqueField(err, voterAPIUnique)
	}
	return voter, nil
}

func (s *voterServiceImpl) Save(ctx context.Context, voter *models.Voter, password string) error {
	creating := voter.ID == 0
	var cred credential
	needsPassword := password != "" || voter.PasswordHash == ""
	if needsPassword {
		c, err := newCredential(password)
		if err != nil {
			return err
		}
		cred = c
		if creating {
			voter.PasswordHash = cred.hash
		}
	}

	if creating {
		if err := s.repo.Create(ctx, voter); err != nil {
			return err
		}
		s.audit.Record(ctx, models.AuditAddition, "voter", voter.ID, voter.String(), "")
	} else {
		if err := s.repo.Update(ctx, voter); err != nil {
			return err
		}
		if needsPassword {
			if err := s.repo.SetPassword(ctx, voter.ID, cred.hash); err != nil {
				return err
			}
			voter.PasswordHash = cred.hash
		}
		s.audit.Record(ctx, models.AuditChange, "voter", voter.ID, voter.String(), "")
	}
	s.logger.Info().Int64("voterId", voter.ID).Bool("created", creating).Msg("Voter saved")

	if cred.generated {
		if err := s.notifications.SendVoterCredentials(ctx, voter, cred.plain); err != nil {
			return err
		}
	}
	if voter.AwaitingVote() {
		return s.notifications.SendVoterApproved(ctx, voter)
	}
	return nil
}

func (s *voterServiceImpl) Get(ctx context.Context, id int64) (*models.Voter, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *voterServiceImpl) List(ctx context.Context, q models.ListQuery) ([]models.Voter, int64, error) {
	return s.repo.List(ctx, q)
}

func (s *voterServiceImpl) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *voterServiceImpl) CreateStaff(ctx context.Context, name, email, regNo, password string) (*models.Voter, error) {
	if password == "" {
		return nil, apperrors.FieldErrors{apperrors.NewFieldError("password", "This field is required.")}
	}
	hash, err := newCredential(password)
	if err != nil {
		return nil, err
	}

	voter, err := s.repo.GetByRegNo(ctx, regNo)
	switch {
	case err == nil:
		voter.IsStaff = true
		voter.IsActive = true
		if err := s.repo.Update(ctx, voter); err != nil {
			return nil, err
		}
		if err := s.repo.SetPassword(ctx, voter.ID, hash.hash); err != nil {
			return nil, err
		}
		s.audit.Record(ctx, models.AuditChange, "voter", voter.ID, voter.String(), "Granted staff access.")
		return voter, nil
	case !errors.Is(err, apperrors.ErrResourceNotFound):
		return nil, err
	}

	req := dto.VoterRequest{Name: name, Email: email, RegNo: regNo, IsStaff: true, HasVoted: true}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	voter = &models.Voter{}
	req.Apply(voter)
	voter.PasswordHash = hash.hash
	if err := s.repo.Create(ctx, voter); err != nil {
		return nil, uniqueField(err, voterAPIUnique)
	}
	s.audit.Record(ctx, models.AuditAddition, "voter", voter.ID, voter.String(), "Staff account created.")
	return voter, nil
}

func (s *voterServiceImpl) ResetPassword(ctx context.Context, regNo string) error {
	voter, err := s.repo.GetByRegNo(ctx, regNo)
	if err != nil {
		return err
	}
	cred, err := newCredential("")
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, voter.ID, cred.hash); err != nil {
		return err
	}
	return s.notifications.SendVoterCredentials(ctx, voter, cred.plain)
}

func (s *voterServiceImpl) Delete(ctx context.Context, id int64) error {
	voter, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, models.AuditDeletion, "voter", id, voter.String(), "")
	return nil
}
