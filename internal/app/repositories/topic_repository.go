package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
)

var topicColumns = []string{
	"t.id", "t.student_id", "t.topic", "t.district_of_study", "t.case_study_area", "t.approved",
	"s.name", "s.reg_no", "s.email", "sv.id", "sv.name",
}

var topicList = listSpec{
	search: []string{"t.topic", "t.district_of_study", "t.case_study_area", "s.name", "s.reg_no"},
	filters: map[string]filterSpec{
		"student":  {column: "t.student_id", kind: filterInt},
		"approved": {column: "t.approved", kind: filterBool},
	},
	orderBy: []string{"t.id ASC"},
}

// TopicRepository handles research topic database operations
type TopicRepository struct {
	base
}

// NewTopicRepository creates a new TopicRepository
func NewTopicRepository(db *pgxpool.Pool) *TopicRepository {
	return &TopicRepository{base: newBase(db)}
}

func (r *TopicRepository) from() squirrel.SelectBuilder {
	return r.sb.Select().From("research_topics t").Join("students s ON s.id = t.student_id").
		LeftJoin("supervisors sv ON sv.id = s.supervisor_id")
}

func scanTopic(row scanner, t *models.ResearchTopic) error {
	var (
		supervisorID   *int64
		supervisorName *string
	)
	t.Student = &models.Student{}
	if err := row.Scan(&t.ID, &t.StudentID, &t.Topic, &t.DistrictOfStudy, &t.CaseStudyArea, &t.Approved,
		&t.Student.Name, &t.Student.RegNo, &t.Student.Email, &supervisorID, &supervisorName); err != nil {
		return err
	}
	t.Student.ID = t.StudentID
	if supervisorID != nil {
		t.Student.SupervisorID = supervisorID
		t.Student.Supervisor = &models.Supervisor{ID: *supervisorID, Name: deref(supervisorName)}
	}
	return nil
}

// Create inserts a topic. A topic string already taken yields apperrors.ErrTopicTaken.
func (r *TopicRepository) Create(ctx context.Context, t *models.ResearchTopic) error {
	id, err := r.insert(ctx, r.sb.Insert("research_topics").
		Columns("student_id", "topic", "district_of_study", "case_study_area", "approved").
		Values(t.StudentID, t.Topic, t.DistrictOfStudy, t.CaseStudyArea, t.Approved), "research topic")
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// GetByID retrieves a topic with its student
func (r *TopicRepository) GetByID(ctx context.Context, id int64) (*models.ResearchTopic, error) {
	t := &models.ResearchTopic{}
	q := r.from().Columns(topicColumns...).Where(squirrel.Eq{"t.id": id})
	if err := r.one(ctx, q, "research topic", id, func(row scanner) error { return scanTopic(row, t) }); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns a page of topics
func (r *TopicRepository) List(ctx context.Context, q models.ListQuery) ([]models.ResearchTopic, int64, error) {
	topics := []models.ResearchTopic{}
	total, err := r.list(ctx, r.from(), topicColumns, topicList, q, func(row scanner) error {
		var t models.ResearchTopic
		if err := scanTopic(row, &t); err != nil {
			return err
		}
		topics = append(topics, t)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return topics, total, nil
}

// ListByStudent returns every topic a student proposed
func (r *TopicRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.ResearchTopic, error) {
	sql, args, err := r.from().Columns(topicColumns...).
		Where(squirrel.Eq{"t.student_id": studentID}).
		OrderBy("t.id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	topics := []models.ResearchTopic{}
	err = r.each(ctx, sql, args, func(row scanner) error {
		var t models.ResearchTopic
		if err := scanTopic(row, &t); err != nil {
			return err
		}
		topics = append(topics, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return topics, nil
}

// Update updates an existing topic
func (r *TopicRepository) Update(ctx context.Context, t *models.ResearchTopic) error {
	return r.exec(ctx, r.sb.Update("research_topics").
		SetMap(map[string]interface{}{
			"student_id":        t.StudentID,
			"topic":             t.Topic,
			"district_of_study": t.DistrictOfStudy,
			"case_study_area":   t.CaseStudyArea,
			"approved":          t.Approved,
		}).
		Where(squirrel.Eq{"id": t.ID}), "research topic", t.ID)
}

// Delete removes a topic. A student who selected it is left without one.
func (r *TopicRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "research_topics", "research topic", id)
}

// Count returns the number of topics
func (r *TopicRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "research_topics")
}
