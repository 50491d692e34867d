package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
)

var facultyColumns = []string{"f.id", "f.name", "f.short_code", "f.email"}

var facultyList = listSpec{
	search:  []string{"f.name", "f.short_code"},
	orderBy: []string{"f.name ASC"},
}

// FacultyRepository handles faculty database operations
type FacultyRepository struct {
	base
}

// NewFacultyRepository creates a new FacultyRepository
func NewFacultyRepository(db *pgxpool.Pool) *FacultyRepository {
	return &FacultyRepository{base: newBase(db)}
}

func scanFaculty(row scanner, f *models.Faculty) error {
	return row.Scan(&f.ID, &f.Name, &f.ShortCode, &f.Email)
}

// Create inserts a faculty and sets its ID
func (r *FacultyRepository) Create(ctx context.Context, f *models.Faculty) error {
	id, err := r.insert(ctx, r.sb.Insert("faculties").
		Columns("name", "short_code", "email").
		Values(f.Name, f.ShortCode, f.Email), "faculty")
	if err != nil {
		return err
	}
	f.ID = id
	return nil
}

// GetByID retrieves a faculty by ID
func (r *FacultyRepository) GetByID(ctx context.Context, id int64) (*models.Faculty, error) {
	f := &models.Faculty{}
	q := r.sb.Select(facultyColumns...).From("faculties f").Where(squirrel.Eq{"f.id": id})
	if err := r.one(ctx, q, "faculty", id, func(row scanner) error { return scanFaculty(row, f) }); err != nil {
		return nil, err
	}
	return f, nil
}

// List returns a page of faculties
func (r *FacultyRepository) List(ctx context.Context, q models.ListQuery) ([]models.Faculty, int64, error) {
	faculties := []models.Faculty{}
	total, err := r.list(ctx, r.sb.Select().From("faculties f"), facultyColumns, facultyList, q, func(row scanner) error {
		var f models.Faculty
		if err := scanFaculty(row, &f); err != nil {
			return err
		}
		faculties = append(faculties, f)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return faculties, total, nil
}

// Update updates an existing faculty
func (r *FacultyRepository) Update(ctx context.Context, f *models.Faculty) error {
	return r.exec(ctx, r.sb.Update("faculties").
		SetMap(map[string]interface{}{
			"name":       f.Name,
			"short_code": f.ShortCode,
			"email":      f.Email,
		}).
		Where(squirrel.Eq{"id": f.ID}), "faculty", f.ID)
}

// Delete removes a faculty. Courses, supervisors and students go with it.
func (r *FacultyRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "faculties", "faculty", id)
}

// Count returns the number of faculties
func (r *FacultyRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "faculties")
}
