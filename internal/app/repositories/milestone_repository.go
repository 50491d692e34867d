package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
)

var milestoneColumns = []string{
	"m.id", "m.student_id", "m.name", "m.due_date", "m.completion_date",
	"s.name", "s.reg_no", "t.topic",
}

var milestoneList = listSpec{
	search: []string{"m.name", "s.name", "s.reg_no"},
	filters: map[string]filterSpec{
		"student": {column: "m.student_id", kind: filterInt},
	},
	orderBy: []string{"m.due_date ASC", "m.id ASC"},
}

// MilestoneRepository handles milestone database operations
type MilestoneRepository struct {
	base
}

// NewMilestoneRepository creates a new MilestoneRepository
func NewMilestoneRepository(db *pgxpool.Pool) *MilestoneRepository {
	return &MilestoneRepository{base: newBase(db)}
}

func (r *MilestoneRepository) from() squirrel.SelectBuilder {
	return r.sb.Select().From("milestones m").
		Join("students s ON s.id = m.student_id").
		LeftJoin("research_topics t ON t.id = s.selected_topic_id")
}

// scanStudentRef fills the student and topic names shown next to a child record
func scanStudentRef(studentID int64, name, regNo string, topic *string) *models.Student {
	s := &models.Student{ID: studentID, Name: name, RegNo: regNo}
	if topic != nil {
		s.SelectedTopic = &models.ResearchTopic{Topic: *topic, StudentID: studentID}
	}
	return s
}

func scanMilestone(row scanner, m *models.Milestone) error {
	var name, regNo string
	var topic *string
	if err := row.Scan(&m.ID, &m.StudentID, &m.Name, &m.DueDate, &m.CompletionDate, &name, &regNo, &topic); err != nil {
		return err
	}
	m.Student = scanStudentRef(m.StudentID, name, regNo, topic)
	return nil
}

// Create inserts a milestone and sets its ID
func (r *MilestoneRepository) Create(ctx context.Context, m *models.Milestone) error {
	id, err := r.insert(ctx, r.sb.Insert("milestones").
		Columns("student_id", "name", "due_date", "completion_date").
		Values(m.StudentID, m.Name, m.DueDate, m.CompletionDate), "milestone")
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// GetByID retrieves a milestone
func (r *MilestoneRepository) GetByID(ctx context.Context, id int64) (*models.Milestone, error) {
	m := &models.Milestone{}
	q := r.from().Columns(milestoneColumns...).Where(squirrel.Eq{"m.id": id})
	if err := r.one(ctx, q, "milestone", id, func(row scanner) error { return scanMilestone(row, m) }); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns a page of milestones
func (r *MilestoneRepository) List(ctx context.Context, q models.ListQuery) ([]models.Milestone, int64, error) {
	milestones := []models.Milestone{}
	total, err := r.list(ctx, r.from(), milestoneColumns, milestoneList, q, func(row scanner) error {
		var m models.Milestone
		if err := scanMilestone(row, &m); err != nil {
			return err
		}
		milestones = append(milestones, m)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return milestones, total, nil
}

// ListByStudent returns a student's milestones ordered by due date
func (r *MilestoneRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Milestone, error) {
	sql, args, err := r.from().Columns(milestoneColumns...).
		Where(squirrel.Eq{"m.student_id": studentID}).
		OrderBy(milestoneList.orderBy...).
		ToSql()
	if err != nil {
		return nil, err
	}
	milestones := []models.Milestone{}
	err = r.each(ctx, sql, args, func(row scanner) error {
		var m models.Milestone
		if err := scanMilestone(row, &m); err != nil {
			return err
		}
		milestones = append(milestones, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return milestones, nil
}

// Update updates an existing milestone
func (r *MilestoneRepository) Update(ctx context.Context, m *models.Milestone) error {
	return r.exec(ctx, r.sb.Update("milestones").
		SetMap(map[string]interface{}{
			"student_id":      m.StudentID,
			"name":            m.Name,
			"due_date":        m.DueDate,
			"completion_date": m.CompletionDate,
		}).
		Where(squirrel.Eq{"id": m.ID}), "milestone", m.ID)
}

// Delete removes a milestone
func (r *MilestoneRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "milestones", "milestone", id)
}

// Count returns the number of milestones
func (r *MilestoneRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "milestones")
}
