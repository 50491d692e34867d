package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
)

var meetingColumns = []string{
	"m.id", "m.student_id", "m.date", "m.discussion_points", "m.action_items",
	"s.name", "s.reg_no", "t.topic",
}

var meetingList = listSpec{
	search: []string{"m.discussion_points", "m.action_items", "s.name", "s.reg_no"},
	filters: map[string]filterSpec{
		"student": {column: "m.student_id", kind: filterInt},
	},
	orderBy: []string{"m.date DESC", "m.id DESC"},
}

type MeetingRepository struct {
	base
}

func NewMeetingRepository(db *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{base: newBase(db)}
}

func (r *MeetingRepository) from() squirrel.SelectBuilder {
	return r.sb.Select().From("meetings m").
		Join("students s ON s.id = m.student_id").
		LeftJoin("research_topics t ON t.id = s.selected_topic_id")
}

func scanMeeting(row scanner, m *models.Meeting) error {
	var name, regNo string
	var topic *string
	if err := row.Scan(&m.ID, &m.StudentID, &m.Date, &m.DiscussionPoints, &m.ActionItems, &name, &regNo, &topic); err != nil {
		return err
	}
	m.Student = scanStudentRef(m.StudentID, name, regNo, topic)
	return nil
}

func (r *MeetingRepository) Create(ctx context.Context, m *models.Meeting) error {
	id, err := r.insert(ctx, r.sb.Insert("meetings").
		Columns("student_id", "date", "discussion_points", "action_items").
		Values(m.StudentID, m.Date, m.DiscussionPoints, m.ActionItems), "meeting")
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

func (r *MeetingRepository) GetByID(ctx context.Context, id int64) (*models.Meeting, error) {
	m := &models.Meeting{}
	q := r.from().Columns(meetingColumns...).Where(squirrel.Eq{"m.id": id})
	if err := r.one(ctx, q, "meeting", id, func(row scanner) error { return scanMeeting(row, m) }); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MeetingRepository) List(ctx context.Context, q models.ListQuery) ([]models.Meeting, int64, error) {
	meetings := []models.Meeting{}
	total, err := r.list(ctx, r.from(), meetingColumns, meetingList, q, func(row scanner) error {
		var m models.Meeting
		if err := scanMeeting(row, &m); err != nil {
			return err
		}
		meetings = append(meetings, m)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return meetings, total, nil
}

// ListByStudent returns a student's meetings, most recent first
func (r *MeetingRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Meeting, error) {
	sql, args, err := r.from().Columns(meetingColumns...).
		Where(squirrel.Eq{"m.student_id": studentID}).
		OrderBy(meetingList.orderBy...).
		ToSql()
	if err != nil {
		return nil, err
	}
	meetings := []models.Meeting{}
	err = r.each(ctx, sql, args, func(row scanner) error {
		var m models.Meeting
		if err := scanMeeting(row, &m); err != nil {
			return err
		}
		meetings = append(meetings, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meetings, nil
}

func (r *MeetingRepository) Update(ctx context.Context, m *models.Meeting) error {
	return r.exec(ctx, r.sb.Update("meetings").
		SetMap(map[string]interface{}{
			"student_id":        m.StudentID,
			"date":              m.Date,
			"discussion_points": m.DiscussionPoints,
			"action_items":      m.ActionItems,
		}).
		Where(squirrel.Eq{"id": m.ID}), "meeting", m.ID)
}

func (r *MeetingRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "meetings", "meeting", id)
}

func (r *MeetingRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "meetings")
}
