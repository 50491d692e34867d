package services

import (
	"context"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/validation"
)

// FacultyService defines the interface for faculty-related operations
type FacultyService interface {
	Create(ctx context.Context, req dto.FacultyRequest) (*models.Faculty, error)
	Get(ctx context.Context, id int64) (*models.Faculty, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Faculty, int64, error)
	Update(ctx context.Context, id int64, req dto.FacultyRequest) (*models.Faculty, error)
	// Delete removes the faculty with its courses, supervisors and students
	Delete(ctx context.Context, id int64) error
}

// facultyServiceImpl implements the FacultyService interface
type facultyServiceImpl struct {
	records records[models.Faculty]
}

// NewFacultyService creates a new faculty service instance
func NewFacultyService(repo FacultyRepository, audit AuditService) FacultyService {
	return &facultyServiceImpl{
		records: records[models.Faculty]{repo: repo, audit: audit, kind: "faculty", id: func(f *models.Faculty) int64 { return f.ID }},
	}
}

var facultyUnique = map[error][2]string{
	apperrors.ErrFacultyAlreadyExists: {"shortCode", "Faculty with this short code already exists."},
}

func (s *facultyServiceImpl) Create(ctx context.Context, req dto.FacultyRequest) (*models.Faculty, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	f := &models.Faculty{}
	req.Apply(f)
	if err := s.records.create(ctx, f); err != nil {
		return nil, uniqueField(err, facultyUnique)
	}
	return f, nil
}

func (s *facultyServiceImpl) Get(ctx context.Context, id int64) (*models.Faculty, error) {
	return s.records.get(ctx, id)
}

func (s *facultyServiceImpl) List(ctx context.Context, q models.ListQuery) ([]models.Faculty, int64, error) {
	return s.records.list(ctx, q)
}

func (s *facultyServiceImpl) Update(ctx context.Context, id int64, req dto.FacultyRequest) (*models.Faculty, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	f, err := s.records.get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(f)
	if err := s.records.update(ctx, f); err != nil {
		return nil, uniqueField(err, facultyUnique)
	}
	return f, nil
}

func (s *facultyServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.records.delete(ctx, id)
}

// CourseService defines the interface for course-related operations
type CourseService interface {
	Create(ctx context.Context, req dto.CourseRequest) (*models.Course, error)
	Get(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Course, int64, error)
	Update(ctx context.Context, id int64, req dto.CourseRequest) (*models.Course, error)
	Delete(ctx context.Context, id int64) error
}

type courseServiceImpl struct {
	records records[models.Course]
}

// NewCourseService creates a new course service instance
func NewCourseService(repo CourseRepository, audit AuditService) CourseService {
	return &courseServiceImpl{
		records: records[models.Course]{repo: repo, audit: audit, kind: "course", id: func(c *models.Course) int64 { return c.ID }},
	}
}

func (s *courseServiceImpl) Create(ctx context.Context, req dto.CourseRequest) (*models.Course, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	c := &models.Course{}
	req.Apply(c)
	if err := s.records.create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *courseServiceImpl) Get(ctx context.Context, id int64) (*models.Course, error) {
	return s.records.get(ctx, id)
}

func (s *courseServiceImpl) List(ctx context.Context, q models.ListQuery) ([]models.Course, int64, error) {
	return s.records.list(ctx, q)
}

func (s *courseServiceImpl) Update(ctx context.Context, id int64, req dto.CourseRequest) (*models.Course, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	c, err := s.records.get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(c)
	if err := s.records.update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *courseServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.records.delete(ctx, id)
}

// SupervisorService defines the interface for supervisor-related operations
type SupervisorService interface {
	Create(ctx context.Context, req dto.SupervisorRequest) (*models.Supervisor, error)
	Get(ctx context.Context, id int64) (*models.Supervisor, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Supervisor, int64, error)
	Update(ctx context.Context, id int64, req dto.SupervisorRequest) (*models.Supervisor, error)
	Delete(ctx context.Context, id int64) error
}

type supervisorServiceImpl struct {
	records records[models.Supervisor]
}

// NewSupervisorService creates a new supervisor service instance
func NewSupervisorService(repo SupervisorRepository, audit AuditService) SupervisorService {
	return &supervisorServiceImpl{
		records: records[models.Supervisor]{repo: repo, audit: audit, kind: "supervisor", id: func(s *models.Supervisor) int64 { return s.ID }},
	}
}

var supervisorUnique = map[error][2]string{
	apperrors.ErrEmailAlreadyExists: {"email", "Supervisor with this email already exists."},
}

func (s *supervisorServiceImpl) Create(ctx context.Context, req dto.SupervisorRequest) (*models.Supervisor, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	sv := &models.Supervisor{}
	req.Apply(sv)
	if err := s.records.create(ctx, sv); err != nil {
		return nil, uniqueField(err, supervisorUnique)
	}
	return sv, nil
}

func (s *supervisorServiceImpl) Get(ctx context.Context, id int64) (*models.Supervisor, error) {
	return s.records.get(ctx, id)
}

func (s *supervisorServiceImpl) List(ctx context.Context, q models.ListQuery) ([]models.Supervisor, int64, error) {
	return s.records.list(ctx, q)
}

func (s *supervisorServiceImpl) Update(ctx context.Context, id int64, req dto.SupervisorRequest) (*models.Supervisor, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	sv, err := s.records.get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(sv)
	if err := s.records.update(ctx, sv); err != nil {
		return nil, uniqueField(err, supervisorUnique)
	}
	return sv, nil
}

func (s *supervisorServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.records.delete(ctx, id)
}
