package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/filestorage"
	"github.com/miu/unidesk/internal/pkg/validation"
	"github.com/miu/unidesk/internal/pkg/websocket"
	"github.com/rs/zerolog"
)

// StudentService manages research student accounts
type StudentService interface {
	Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error)
	Update(ctx context.Context, id int64, req dto.StudentRequest) (*models.Student, error)
	// Save writes the student and runs the save side effects: a generated
	// password mail for accounts without one, the audit entry on creation, and
	// the schedule mails whenever supervisor, selected topic and start date are set.
	// password may be empty.
	Save(ctx context.Context, student *models.Student, password string) error
	Get(ctx context.Context, id int64) (*models.Student, error)
	GetByRegNo(ctx context.Context, regNo string) (*models.Student, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Student, int64, error)
	ListWithoutTopic(ctx context.Context, q models.ListQuery) ([]models.Student, int64, error)
	SetProfileImage(ctx context.Context, id int64, file *multipart.FileHeader) (*models.Student, error)
	// ResetPassword replaces the password with a generated one and mails it
	ResetPassword(ctx context.Context, regNo string) error
	Delete(ctx context.Context, id int64) error
}

type studentServiceImpl struct {
	repo          StudentRepository
	notifications NotificationService
	audit         AuditService
	storage       filestorage.FileStorage
	publisher     Publisher
	logger        zerolog.Logger
}

// NewStudentService creates a new student service. publisher may be nil.
func NewStudentService(
	repo StudentRepository,
	notifications NotificationService,
	audit AuditService,
	storage filestorage.FileStorage,
	publisher Publisher,
	logger zerolog.Logger,
) StudentService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &studentServiceImpl{
		repo:          repo,
		notifications: notifications,
		audit:         audit,
		storage:       storage,
		publisher:     publisher,
		logger:        logger,
	}
}

var studentUnique = map[error][2]string{
	apperrors.ErrRegNoAlreadyExists: {"regNo", "Student with this Reg no already exists."},
}

func validateStudent(s *models.Student) error {
	var errs apperrors.FieldErrors
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, apperrors.NewFieldError("name", "This field is required."))
	}
	if strings.TrimSpace(s.RegNo) == "" {
		errs = append(errs, apperrors.NewFieldError("regNo", "This field is required."))
	}
	if strings.TrimSpace(s.Email) == "" {
		errs = append(errs, apperrors.NewFieldError("email", "This field is required."))
	}
	if s.Level == "" {
		s.Level = models.LevelDegree
	}
	if !s.Level.Valid() {
		errs = append(errs, apperrors.NewFieldError("level", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", s.Level)))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *studentServiceImpl) Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	student := &models.Student{}
	if err := req.Apply(student); err != nil {
		return nil, apperrors.FieldErrors{asFieldError(err)}
	}
	if err := s.Save(ctx, student, req.Password); err != nil {
		return student, err
	}
	return s.repo.GetByID(ctx, student.ID)
}

func (s *studentServiceImpl) Update(ctx context.Context, id int64, req dto.StudentRequest) (*models.Student, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(student); err != nil {
		return nil, apperrors.FieldErrors{asFieldError(err)}
	}
	if err := s.Save(ctx, student, req.Password); err != nil {
		return student, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *studentServiceImpl) Save(ctx context.Context, student *models.Student, password string) error {
	if err := validateStudent(student); err != nil {
		return err
	}

	creating := student.ID == 0
	var cred credential
	needsPassword := password != "" || student.PasswordHash == ""
	if needsPassword {
		c, err := newCredential(password)
		if err != nil {
			return err
		}
		cred = c
		if creating {
			student.PasswordHash = cred.hash
		}
	}

	if creating {
		if err := s.repo.Create(ctx, student); err != nil {
			return uniqueField(err, studentUnique)
		}
	} else {
		if err := s.repo.Update(ctx, student); err != nil {
			return uniqueField(err, studentUnique)
		}
		if needsPassword {
			if err := s.repo.SetPassword(ctx, student.ID, cred.hash); err != nil {
				return err
			}
			student.PasswordHash = cred.hash
		}
	}

	if creating {
		s.audit.Record(ctx, models.AuditAddition, "student", student.ID, student.String(),
			fmt.Sprintf("A new student %q with registration number %q has been added.", student.Name, student.RegNo))
		s.publisher.Publish(websocket.EventStudentCreated,
			fmt.Sprintf("New student %s registered", student.Name),
			map[string]interface{}{"id": student.ID, "name": student.Name})
	} else {
		s.audit.Record(ctx, models.AuditChange, "student", student.ID, student.String(), "")
	}

	s.logger.Info().Int64("studentId", student.ID).Bool("created", creating).Msg("Student saved")

	if cred.generated {
		if err := s.notifications.SendStudentCredentials(ctx, student, cred.plain); err != nil {
			return err
		}
	}
	return s.notifySchedule(ctx, student.ID)
}

// notifySchedule mails the research schedule when the student has a supervisor,
// a selected topic and a start date
func (s *studentServiceImpl) notifySchedule(ctx context.Context, id int64) error {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !student.ReadyForSchedule() || student.Supervisor == nil || student.SelectedTopic == nil {
		return nil
	}
	schedule := ComputeSchedule(*student.StartDate, student.GraduationDate)
	return s.notifications.SendResearchSchedule(ctx, student, student.SelectedTopic, student.Supervisor, schedule)
}

func (s *studentServiceImpl) Get(ctx context.Context, id int64) (*models.Student, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *studentServiceImpl) GetByRegNo(ctx context.Context, regNo string) (*models.Student, error) {
	return s.repo.GetByRegNo(ctx, regNo)
}

func (s *studentServiceImpl) List(ctx context.Context, q models.ListQuery) ([]models.Student, int64, error) {
	return s.repo.List(ctx, q)
}

func (s *studentServiceImpl) ListWithoutTopic(ctx context.Context, q models.ListQuery) ([]models.Student, int64, error) {
	return s.repo.ListWithoutTopic(ctx, q)
}

func (s *studentServiceImpl) SetProfileImage(ctx context.Context, id int64, file *multipart.FileHeader) (*models.Student, error) {
	if err := checkUpload(file, "image", filestorage.DirStudentImages); err != nil {
		return nil, err
	}
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := s.storage.Save(ctx, file, filestorage.DirStudentImages)
	if err != nil {
		return nil, fmt.Errorf("failed to store profile image: %w", err)
	}
	old := student.ProfileImage
	student.ProfileImage = &url
	if err := s.repo.Update(ctx, student); err != nil {
		_ = s.storage.Delete(ctx, url)
		return nil, err
	}
	if old != nil && *old != "" {
		if err := s.storage.Delete(ctx, *old); err != nil {
			s.logger.Warn().Err(err).Str("url", *old).Msg("Failed to delete replaced profile image")
		}
	}
	return student, nil
}

func (s *studentServiceImpl) ResetPassword(ctx context.Context, regNo string) error {
	student, err := s.repo.GetByRegNo(ctx, regNo)
	if err != nil {
		return err
	}
	cred, err := newCredential("")
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, student.ID, cred.hash); err != nil {
		return err
	}
	return s.notifications.SendStudentCredentials(ctx, student, cred.plain)
}

func (s *studentServiceImpl) Delete(ctx context.Context, id int64) error {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if student.ProfileImage != nil && *student.ProfileImage != "" {
		if err := s.storage.Delete(ctx, *student.ProfileImage); err != nil {
			s.logger.Warn().Err(err).Int64("studentId", id).Msg("Failed to delete profile image")
		}
	}
	s.audit.Record(ctx, models.AuditDeletion, "student", id, student.String(), "")
	return nil
}

// asFieldError keeps a *FieldError as is and attaches anything else to the form
func asFieldError(err error) *apperrors.FieldError {
	if fe, ok := err.(*apperrors.FieldError); ok {
		return fe
	}
	return apperrors.NewFieldError("", err.Error())
}
