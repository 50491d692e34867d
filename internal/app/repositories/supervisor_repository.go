package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
)

var supervisorColumns = []string{"s.id", "s.name", "s.email", "s.contact", "s.faculty_id", "f.name", "f.short_code", "f.email"}

var supervisorList = listSpec{
	search: []string{"s.name", "s.email"},
	filters: map[string]filterSpec{
		"faculty": {column: "s.faculty_id", kind: filterInt},
	},
	orderBy: []string{"s.name ASC"},
}

// SupervisorRepository handles supervisor database operations
type SupervisorRepository struct {
	base
}

// NewSupervisorRepository creates a new SupervisorRepository
func NewSupervisorRepository(db *pgxpool.Pool) *SupervisorRepository {
	return &SupervisorRepository{base: newBase(db)}
}

func (r *SupervisorRepository) from() squirrel.SelectBuilder {
	return r.sb.Select().From("supervisors s").Join("faculties f ON f.id = s.faculty_id")
}

func scanSupervisor(row scanner, s *models.Supervisor) error {
	s.Faculty = &models.Faculty{}
	if err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Contact, &s.FacultyID,
		&s.Faculty.Name, &s.Faculty.ShortCode, &s.Faculty.Email); err != nil {
		return err
	}
	s.Faculty.ID = s.FacultyID
	return nil
}

// Create inserts a supervisor and sets its ID
func (r *SupervisorRepository) Create(ctx context.Context, s *models.Supervisor) error {
	id, err := r.insert(ctx, r.sb.Insert("supervisors").
		Columns("name", "email", "contact", "faculty_id").
		Values(s.Name, s.Email, s.Contact, s.FacultyID), "supervisor")
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// GetByID retrieves a supervisor with its faculty
func (r *SupervisorRepository) GetByID(ctx context.Context, id int64) (*models.Supervisor, error) {
	s := &models.Supervisor{}
	q := r.from().Columns(supervisorColumns...).Where(squirrel.Eq{"s.id": id})
	if err := r.one(ctx, q, "supervisor", id, func(row scanner) error { return scanSupervisor(row, s) }); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns a page of supervisors
func (r *SupervisorRepository) List(ctx context.Context, q models.ListQuery) ([]models.Supervisor, int64, error) {
	supervisors := []models.Supervisor{}
	total, err := r.list(ctx, r.from(), supervisorColumns, supervisorList, q, func(row scanner) error {
		var s models.Supervisor
		if err := scanSupervisor(row, &s); err != nil {
			return err
		}
		supervisors = append(supervisors, s)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return supervisors, total, nil
}

// Update updates an existing supervisor
func (r *SupervisorRepository) Update(ctx context.Context, s *models.Supervisor) error {
	return r.exec(ctx, r.sb.Update("supervisors").
		SetMap(map[string]interface{}{
			"name":       s.Name,
			"email":      s.Email,
			"contact":    s.Contact,
			"faculty_id": s.FacultyID,
		}).
		Where(squirrel.Eq{"id": s.ID}), "supervisor", s.ID)
}

// Delete removes a supervisor and the students assigned to them
func (r *SupervisorRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "supervisors", "supervisor", id)
}

// Count returns the number of supervisors
func (r *SupervisorRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "supervisors")
}
