package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
)

var courseColumns = []string{"c.id", "c.name", "c.faculty_id", "f.name", "f.short_code", "f.email"}

var courseList = listSpec{
	search: []string{"c.name", "f.name"},
	filters: map[string]filterSpec{
		"faculty": {column: "c.faculty_id", kind: filterInt},
	},
	orderBy: []string{"c.name ASC"},
}

// CourseRepository handles course database operations
type CourseRepository struct {
	base
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{base: newBase(db)}
}

func (r *CourseRepository) from() squirrel.SelectBuilder {
	return r.sb.Select().From("courses c").Join("faculties f ON f.id = c.faculty_id")
}

func scanCourse(row scanner, c *models.Course) error {
	c.Faculty = &models.Faculty{}
	if err := row.Scan(&c.ID, &c.Name, &c.FacultyID, &c.Faculty.Name, &c.Faculty.ShortCode, &c.Faculty.Email); err != nil {
		return err
	}
	c.Faculty.ID = c.FacultyID
	return nil
}

// Create inserts a course and sets its ID
func (r *CourseRepository) Create(ctx context.Context, c *models.Course) error {
	id, err := r.insert(ctx, r.sb.Insert("courses").
		Columns("name", "faculty_id").
		Values(c.Name, c.FacultyID), "course")
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// GetByID retrieves a course with its faculty
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	c := &models.Course{}
	q := r.from().Columns(courseColumns...).Where(squirrel.Eq{"c.id": id})
	if err := r.one(ctx, q, "course", id, func(row scanner) error { return scanCourse(row, c) }); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns a page of courses
func (r *CourseRepository) List(ctx context.Context, q models.ListQuery) ([]models.Course, int64, error) {
	courses := []models.Course{}
	total, err := r.list(ctx, r.from(), courseColumns, courseList, q, func(row scanner) error {
		var c models.Course
		if err := scanCourse(row, &c); err != nil {
			return err
		}
		courses = append(courses, c)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// Update updates an existing course
func (r *CourseRepository) Update(ctx context.Context, c *models.Course) error {
	return r.exec(ctx, r.sb.Update("courses").
		SetMap(map[string]interface{}{
			"name":       c.Name,
			"faculty_id": c.FacultyID,
		}).
		Where(squirrel.Eq{"id": c.ID}), "course", c.ID)
}

// Delete removes a course and the students enrolled on it
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "courses", "course", id)
}

// Count returns the number of courses
func (r *CourseRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "courses")
}
