package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
)

var studentColumns = []string{
	"s.id", "s.name", "s.reg_no", "s.email", "s.phone", "s.faculty_id", "s.course_id", "s.level",
	"s.supervisor_id", "s.selected_topic_id", "s.start_date", "s.graduation_date",
	"s.password_hash", "s.profile_image", "s.created_at", "s.updated_at",
	"f.name", "f.short_code", "f.email",
	"c.name",
	"sv.name", "sv.email", "sv.contact", "sv.faculty_id",
	"t.topic", "t.district_of_study", "t.case_study_area", "t.approved",
}

var studentList = listSpec{
	search: []string{"s.name", "s.reg_no", "s.email"},
	filters: map[string]filterSpec{
		"faculty":    {column: "s.faculty_id", kind: filterInt},
		"course":     {column: "s.course_id", kind: filterInt},
		"supervisor": {column: "s.supervisor_id", kind: filterInt},
		"level":      {column: "s.level", kind: filterString},
	},
	orderBy: []string{"s.name ASC", "s.id ASC"},
}

// StudentRepository handles research student database operations
type StudentRepository struct {
	base
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{base: newBase(db)}
}

func (r *StudentRepository) from() squirrel.SelectBuilder {
	return r.sb.Select().From("students s").
		Join("faculties f ON f.id = s.faculty_id").
		Join("courses c ON c.id = s.course_id").
		LeftJoin("supervisors sv ON sv.id = s.supervisor_id").
		LeftJoin("research_topics t ON t.id = s.selected_topic_id")
}

// scanStudent scans a student row together with its joined relations
func scanStudent(row scanner, s *models.Student) error {
	var (
		faculty                    models.Faculty
		courseName                 string
		svName, svEmail, svContact *string
		svFaculty                  *int64
		topic, district, caseStudy *string
		approved                   *bool
		level                      string
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.RegNo, &s.Email, &s.Phone, &s.FacultyID, &s.CourseID, &level,
		&s.SupervisorID, &s.SelectedTopicID, &s.StartDate, &s.GraduationDate,
		&s.PasswordHash, &s.ProfileImage, &s.CreatedAt, &s.UpdatedAt,
		&faculty.Name, &faculty.ShortCode, &faculty.Email,
		&courseName,
		&svName, &svEmail, &svContact, &svFaculty,
		&topic, &district, &caseStudy, &approved,
	)
	if err != nil {
		return err
	}
	s.Level = models.Level(level)

	faculty.ID = s.FacultyID
	s.Faculty = &faculty
	s.Course = &models.Course{ID: s.CourseID, Name: courseName, FacultyID: s.FacultyID}

	if s.SupervisorID != nil && svName != nil {
		s.Supervisor = &models.Supervisor{
			ID:        *s.SupervisorID,
			Name:      *svName,
			Email:     deref(svEmail),
			Contact:   deref(svContact),
			FacultyID: derefInt(svFaculty),
		}
	}
	if s.SelectedTopicID != nil && topic != nil {
		s.SelectedTopic = &models.ResearchTopic{
			ID:              *s.SelectedTopicID,
			StudentID:       s.ID,
			Topic:           *topic,
			DistrictOfStudy: deref(district),
			CaseStudyArea:   deref(caseStudy),
			Approved:        approved != nil && *approved,
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func (r *StudentRepository) values(s *models.Student) map[string]interface{} {
	return map[string]interface{}{
		"name":              s.Name,
		"reg_no":            s.RegNo,
		"email":             s.Email,
		"phone":             s.Phone,
		"faculty_id":        s.FacultyID,
		"course_id":         s.CourseID,
		"level":             string(s.Level),
		"supervisor_id":     s.SupervisorID,
		"selected_topic_id": s.SelectedTopicID,
		"start_date":        s.StartDate,
		"graduation_date":   s.GraduationDate,
		"profile_image":     s.ProfileImage,
	}
}

// Create inserts a student and sets its ID and timestamps
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	now := time.Now().UTC()
	values := r.values(s)
	values["password_hash"] = s.PasswordHash
	values["created_at"] = now
	values["updated_at"] = now

	id, err := r.insert(ctx, r.sb.Insert("students").SetMap(values), "student")
	if err != nil {
		return err
	}
	s.ID = id
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// GetByID retrieves a student with faculty, course, supervisor and selected topic
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	s := &models.Student{}
	q := r.from().Columns(studentColumns...).Where(squirrel.Eq{"s.id": id})
	if err := r.one(ctx, q, "student", id, func(row scanner) error { return scanStudent(row, s) }); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByRegNo retrieves a student by registration number
func (r *StudentRepository) GetByRegNo(ctx context.Context, regNo string) (*models.Student, error) {
	s := &models.Student{}
	q := r.from().Columns(studentColumns...).Where(squirrel.Eq{"s.reg_no": regNo})
	if err := r.one(ctx, q, "student", regNo, func(row scanner) error { return scanStudent(row, s) }); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *StudentRepository) listFrom(ctx context.Context, from squirrel.SelectBuilder, q models.ListQuery) ([]models.Student, int64, error) {
	students := []models.Student{}
	total, err := r.list(ctx, from, studentColumns, studentList, q, func(row scanner) error {
		var s models.Student
		if err := scanStudent(row, &s); err != nil {
			return err
		}
		students = append(students, s)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

// List returns a page of students
func (r *StudentRepository) List(ctx context.Context, q models.ListQuery) ([]models.Student, int64, error) {
	return r.listFrom(ctx, r.from(), q)
}

// ListWithoutTopic returns a page of students that have not selected a topic yet
func (r *StudentRepository) ListWithoutTopic(ctx context.Context, q models.ListQuery) ([]models.Student, int64, error) {
	return r.listFrom(ctx, r.from().Where(squirrel.Eq{"s.selected_topic_id": nil}), q)
}

// Update updates an existing student. The password hash is left alone.
func (r *StudentRepository) Update(ctx context.Context, s *models.Student) error {
	now := time.Now().UTC()
	values := r.values(s)
	values["updated_at"] = now
	if err := r.exec(ctx, r.sb.Update("students").SetMap(values).Where(squirrel.Eq{"id": s.ID}), "student", s.ID); err != nil {
		return err
	}
	s.UpdatedAt = now
	return nil
}

// SetPassword stores a new password hash for a student
func (r *StudentRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, r.sb.Update("students").
		Set("password_hash", hash).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}), "student", id)
}

// Delete removes a student with their topics, milestones, meetings and files
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "students", "student", id)
}

// Count returns the number of students
func (r *StudentRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "students")
}
