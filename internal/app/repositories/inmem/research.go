package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/pkg/apperrors"
)

// cascade deletes. Callers hold the write lock.

func (d *DB) deleteFaculty(id int64) {
	delete(d.faculties, id)
	for cid, c := range d.courses {
		if c.FacultyID == id {
			d.deleteCourse(cid)
		}
	}
	for sid, s := range d.supervisors {
		if s.FacultyID == id {
			d.deleteSupervisor(sid)
		}
	}
	for sid, s := range d.students {
		if s.FacultyID == id {
			d.deleteStudent(sid)
		}
	}
}

func (d *DB) deleteCourse(id int64) {
	delete(d.courses, id)
	for sid, s := range d.students {
		if s.CourseID == id {
			d.deleteStudent(sid)
		}
	}
}

func (d *DB) deleteSupervisor(id int64) {
	delete(d.supervisors, id)
	for sid, s := range d.students {
		if s.SupervisorID != nil && *s.SupervisorID == id {
			d.deleteStudent(sid)
		}
	}
}

func (d *DB) deleteStudent(id int64) {
	delete(d.students, id)
	for tid, t := range d.topics {
		if t.StudentID == id {
			d.deleteTopic(tid)
		}
	}
	for mid, m := range d.milestones {
		if m.StudentID == id {
			delete(d.milestones, mid)
		}
	}
	for mid, m := range d.meetings {
		if m.StudentID == id {
			delete(d.meetings, mid)
		}
	}
	for fid, f := range d.files {
		if f.StudentID == id {
			delete(d.files, fid)
		}
	}
}

func (d *DB) deleteTopic(id int64) {
	delete(d.topics, id)
	for sid, s := range d.students {
		if s.SelectedTopicID != nil && *s.SelectedTopicID == id {
			s.SelectedTopicID = nil
			d.students[sid] = s
		}
	}
}

// studentView fills the relations a joined Postgres read returns
func (d *DB) studentView(s models.Student) models.Student {
	if f, ok := d.faculties[s.FacultyID]; ok {
		s.Faculty = &f
	}
	if c, ok := d.courses[s.CourseID]; ok {
		s.Course = &models.Course{ID: c.ID, Name: c.Name, FacultyID: c.FacultyID}
	}
	if s.SupervisorID != nil {
		if sv, ok := d.supervisors[*s.SupervisorID]; ok {
			s.Supervisor = &sv
		}
	}
	if s.SelectedTopicID != nil {
		if t, ok := d.topics[*s.SelectedTopicID]; ok {
			s.SelectedTopic = &t
		}
	}
	return s
}

func (d *DB) studentRef(id int64) *models.Student {
	s, ok := d.students[id]
	if !ok {
		return &models.Student{ID: id}
	}
	ref := &models.Student{ID: s.ID, Name: s.Name, RegNo: s.RegNo, Email: s.Email}
	if s.SelectedTopicID != nil {
		if t, ok := d.topics[*s.SelectedTopicID]; ok {
			ref.SelectedTopic = &models.ResearchTopic{Topic: t.Topic, StudentID: s.ID}
		}
	}
	return ref
}

// FacultyRepository stores faculties in memory
type FacultyRepository struct{ db *DB }

func (r *FacultyRepository) checkUnique(f *models.Faculty) error {
	for id, other := range r.db.faculties {
		if id != f.ID && other.ShortCode == f.ShortCode {
			return apperrors.ErrFacultyAlreadyExists
		}
	}
	return nil
}

func (r *FacultyRepository) Create(_ context.Context, f *models.Faculty) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.checkUnique(f); err != nil {
		return err
	}
	f.ID = r.db.next("faculties")
	r.db.faculties[f.ID] = *f
	return nil
}

func (r *FacultyRepository) GetByID(_ context.Context, id int64) (*models.Faculty, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	f, ok := r.db.faculties[id]
	if !ok {
		return nil, notFound("faculty", id)
	}
	return &f, nil
}

func (r *FacultyRepository) List(_ context.Context, q models.ListQuery) ([]models.Faculty, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.Faculty{}
	for _, id := range sortedIDs(r.db.faculties) {
		f := r.db.faculties[id]
		if matches(q.Search, f.Name, f.ShortCode) {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	items, total := page(out, q)
	return items, total, nil
}

func (r *FacultyRepository) Update(_ context.Context, f *models.Faculty) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.faculties[f.ID]; !ok {
		return notFound("faculty", f.ID)
	}
	if err := r.checkUnique(f); err != nil {
		return err
	}
	r.db.faculties[f.ID] = *f
	return nil
}

func (r *FacultyRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.faculties[id]; !ok {
		return notFound("faculty", id)
	}
	r.db.deleteFaculty(id)
	return nil
}

func (r *FacultyRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.faculties)), nil
}

// CourseRepository stores courses in memory
type CourseRepository struct{ db *DB }

func (r *CourseRepository) view(c models.Course) models.Course {
	if f, ok := r.db.faculties[c.FacultyID]; ok {
		c.Faculty = &f
	}
	return c
}

func (r *CourseRepository) Create(_ context.Context, c *models.Course) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.faculties[c.FacultyID]; !ok {
		return missingRef("creating course")
	}
	c.ID = r.db.next("courses")
	r.db.courses[c.ID] = *c
	return nil
}

func (r *CourseRepository) GetByID(_ context.Context, id int64) (*models.Course, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.courses[id]
	if !ok {
		return nil, notFound("course", id)
	}
	c = r.view(c)
	return &c, nil
}

func (r *CourseRepository) List(_ context.Context, q models.ListQuery) ([]models.Course, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	f, err := parseFilters(q, []string{"faculty"}, nil)
	if err != nil {
		return nil, 0, err
	}
	out := []models.Course{}
	for _, id := range sortedIDs(r.db.courses) {
		c := r.view(r.db.courses[id])
		facultyName := ""
		if c.Faculty != nil {
			facultyName = c.Faculty.Name
		}
		if matches(q.Search, c.Name, facultyName) && f.intIs("faculty", c.FacultyID) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	items, total := page(out, q)
	return items, total, nil
}

func (r *CourseRepository) Update(_ context.Context, c *models.Course) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.courses[c.ID]; !ok {
		return notFound("course", c.ID)
	}
	if _, ok := r.db.faculties[c.FacultyID]; !ok {
		return missingRef("updating course")
	}
	stored := *c
	stored.Faculty = nil
	r.db.courses[c.ID] = stored
	return nil
}

func (r *CourseRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.courses[id]; !ok {
		return notFound("course", id)
	}
	r.db.deleteCourse(id)
	return nil
}

func (r *CourseRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.courses)), nil
}

// SupervisorRepository stores supervisors in memory
type SupervisorRepository struct{ db *DB }

func (r *SupervisorRepository) check(s *models.Supervisor, op string) error {
	if _, ok := r.db.faculties[s.FacultyID]; !ok {
		return missingRef(op)
	}
	for id, other := range r.db.supervisors {
		if id != s.ID && other.Email == s.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	return nil
}

func (r *SupervisorRepository) view(s models.Supervisor) models.Supervisor {
	if f, ok := r.db.faculties[s.FacultyID]; ok {
		s.Faculty = &f
	}
	return s
}

func (r *SupervisorRepository) Create(_ context.Context, s *models.Supervisor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.check(s, "creating supervisor"); err != nil {
		return err
	}
	s.ID = r.db.next("supervisors")
	stored := *s
	stored.Faculty = nil
	r.db.supervisors[s.ID] = stored
	return nil
}

func (r *SupervisorRepository) GetByID(_ context.Context, id int64) (*models.Supervisor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	s, ok := r.db.supervisors[id]
	if !ok {
		return nil, notFound("supervisor", id)
	}
	s = r.view(s)
	return &s, nil
}

func (r *SupervisorRepository) List(_ context.Context, q models.ListQuery) ([]models.Supervisor, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	f, err := parseFilters(q, []string{"faculty"}, nil)
	if err != nil {
		return nil, 0, err
	}
	out := []models.Supervisor{}
	for _, id := range sortedIDs(r.db.supervisors) {
		s := r.db.supervisors[id]
		if matches(q.Search, s.Name, s.Email) && f.intIs("faculty", s.FacultyID) {
			out = append(out, r.view(s))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	items, total := page(out, q)
	return items, total, nil
}

func (r *SupervisorRepository) Update(_ context.Context, s *models.Supervisor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.supervisors[s.ID]; !ok {
		return notFound("supervisor", s.ID)
	}
	if err := r.check(s, "updating supervisor"); err != nil {
		return err
	}
	stored := *s
	stored.Faculty = nil
	r.db.supervisors[s.ID] = stored
	return nil
}

func (r *SupervisorRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.supervisors[id]; !ok {
		return notFound("supervisor", id)
	}
	r.db.deleteSupervisor(id)
	return nil
}

func (r *SupervisorRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.supervisors)), nil
}

// StudentRepository stores research students in memory
type StudentRepository struct{ db *DB }

func (r *StudentRepository) check(s *models.Student, op string) error {
	if _, ok := r.db.faculties[s.FacultyID]; !ok {
		return missingRef(op)
	}
	if _, ok := r.db.courses[s.CourseID]; !ok {
		return missingRef(op)
	}
	if s.SupervisorID != nil {
		if _, ok := r.db.supervisors[*s.SupervisorID]; !ok {
			return missingRef(op)
		}
	}
	if s.SelectedTopicID != nil {
		if _, ok := r.db.topics[*s.SelectedTopicID]; !ok {
			return missingRef(op)
		}
	}
	for id, other := range r.db.students {
		if id != s.ID && other.RegNo == s.RegNo {
			return apperrors.ErrRegNoAlreadyExists
		}
	}
	return nil
}

func stripStudent(s models.Student) models.Student {
	s.Faculty, s.Course, s.Supervisor, s.SelectedTopic = nil, nil, nil, nil
	return s
}

func (r *StudentRepository) Create(_ context.Context, s *models.Student) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.check(s, "creating student"); err != nil {
		return err
	}
	now := time.Now().UTC()
	s.ID = r.db.next("students")
	s.CreatedAt, s.UpdatedAt = now, now
	r.db.students[s.ID] = stripStudent(*s)
	return nil
}

func (r *StudentRepository) get(id int64) (*models.Student, error) {
	s, ok := r.db.students[id]
	if !ok {
		return nil, notFound("student", id)
	}
	s = r.db.studentView(s)
	return &s, nil
}

func (r *StudentRepository) GetByID(_ context.Context, id int64) (*models.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.get(id)
}

func (r *StudentRepository) GetByRegNo(_ context.Context, regNo string) (*models.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for id, s := range r.db.students {
		if s.RegNo == regNo {
			return r.get(id)
		}
	}
	return nil, notFound("student", regNo)
}

func (r *StudentRepository) list(q models.ListQuery, keep func(models.Student) bool) ([]models.Student, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	f, err := parseFilters(q, []string{"faculty", "course", "supervisor"}, nil)
	if err != nil {
		return nil, 0, err
	}
	out := []models.Student{}
	for _, id := range sortedIDs(r.db.students) {
		s := r.db.students[id]
		if !keep(s) || !matches(q.Search, s.Name, s.RegNo, s.Email) {
			continue
		}
		if f.intIs("faculty", s.FacultyID) && f.intIs("course", s.CourseID) &&
			f.intPtrIs("supervisor", s.SupervisorID) && f.strIs("level", string(s.Level)) {
			out = append(out, r.db.studentView(s))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	items, total := page(out, q)
	return items, total, nil
}

func (r *StudentRepository) List(_ context.Context, q models.ListQuery) ([]models.Student, int64, error) {
	return r.list(q, func(models.Student) bool { return true })
}

func (r *StudentRepository) ListWithoutTopic(_ context.Context, q models.ListQuery) ([]models.Student, int64, error) {
	return r.list(q, func(s models.Student) bool { return s.SelectedTopicID == nil })
}

func (r *StudentRepository) Update(_ context.Context, s *models.Student) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	old, ok := r.db.students[s.ID]
	if !ok {
		return notFound("student", s.ID)
	}
	if err := r.check(s, "updating student"); err != nil {
		return err
	}
	s.UpdatedAt = time.Now().UTC()
	stored := stripStudent(*s)
	stored.PasswordHash = old.PasswordHash
	stored.CreatedAt = old.CreatedAt
	r.db.students[s.ID] = stored
	return nil
}

func (r *StudentRepository) SetPassword(_ context.Context, id int64, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.students[id]
	if !ok {
		return notFound("student", id)
	}
	s.PasswordHash = hash
	s.UpdatedAt = time.Now().UTC()
	r.db.students[id] = s
	return nil
}

func (r *StudentRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.students[id]; !ok {
		return notFound("student", id)
	}
	r.db.deleteStudent(id)
	return nil
}

func (r *StudentRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.students)), nil
}

// TopicRepository stores research topics in memory
type TopicRepository struct{ db *DB }

func (r *TopicRepository) check(t *models.ResearchTopic, op string) error {
	if _, ok := r.db.students[t.StudentID]; !ok {
		return missingRef(op)
	}
	for id, other := range r.db.topics {
		if id != t.ID && other.Topic == t.Topic {
			return apperrors.ErrTopicTaken
		}
	}
	return nil
}

func (r *TopicRepository) view(t models.ResearchTopic) models.ResearchTopic {
	if s, ok := r.db.students[t.StudentID]; ok {
		t.Student = &models.Student{ID: s.ID, Name: s.Name, RegNo: s.RegNo, Email: s.Email}
		if s.SupervisorID != nil {
			if sv, ok := r.db.supervisors[*s.SupervisorID]; ok {
				t.Student.SupervisorID = s.SupervisorID
				t.Student.Supervisor = &models.Supervisor{ID: sv.ID, Name: sv.Name}
			}
		}
	}
	return t
}

func (r *TopicRepository) Create(_ context.Context, t *models.ResearchTopic) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.check(t, "creating research topic"); err != nil {
		return err
	}
	t.ID = r.db.next("research_topics")
	stored := *t
	stored.Student = nil
	r.db.topics[t.ID] = stored
	return nil
}

func (r *TopicRepository) GetByID(_ context.Context, id int64) (*models.ResearchTopic, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	t, ok := r.db.topics[id]
	if !ok {
		return nil, notFound("research topic", id)
	}
	t = r.view(t)
	return &t, nil
}

func (r *TopicRepository) List(_ context.Context, q models.ListQuery) ([]models.ResearchTopic, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	f, err := parseFilters(q, []string{"student"}, []string{"approved"})
	if err != nil {
		return nil, 0, err
	}
	out := []models.ResearchTopic{}
	for _, id := range sortedIDs(r.db.topics) {
		t := r.view(r.db.topics[id])
		var name, regNo string
		if t.Student != nil {
			name, regNo = t.Student.Name, t.Student.RegNo
		}
		if matches(q.Search, t.Topic, t.DistrictOfStudy, t.CaseStudyArea, name, regNo) &&
			f.intIs("student", t.StudentID) && f.boolIs("approved", t.Approved) {
			out = append(out, t)
		}
	}
	items, total := page(out, q)
	return items, total, nil
}

func (r *TopicRepository) ListByStudent(_ context.Context, studentID int64) ([]models.ResearchTopic, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []models.ResearchTopic{}
	for _, id := range sortedIDs(r.db.topics) {
		if t := r.db.topics[id]; t.StudentID == studentID {
			out = append(out, r.view(t))
		}
	}
	return out, nil
}

func (r *TopicRepository) Update(_ context.Context, t *models.ResearchTopic) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.topics[t.ID]; !ok {
		return notFound("research topic", t.ID)
	}
	if err := r.check(t, "updating research topic"); err != nil {
		return err
	}
	stored := *t
	stored.Student = nil
	r.db.topics[t.ID] = stored
	return nil
}

func (r *TopicRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.topics[id]; !ok {
		return notFound("research topic", id)
	}
	r.db.deleteTopic(id)
	return nil
}

func (r *TopicRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.topics)), nil
}

// MilestoneRepository stores milestones in memory
type MilestoneRepository struct{ db *DB }

func (r *MilestoneRepository) Create(_ context.Context, m *models.Milestone) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.students[m.StudentID]; !ok {
		return missingRef("creating milestone")
	}
	m.ID = r.db.next("milestones")
	stored := *m
	stored.Student = nil
	r.db.milestones[m.ID] = stored
	return nil
}

func (r *MilestoneRepository) GetByID(_ context.Context, id int64) (*models.Milestone, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	m, ok := r.db.milestones[id]
	if !ok {
		return nil, notFound("milestone", id)
	}
	m.Student = r.db.studentRef(m.StudentID)
	return &m, nil
}

func (r *MilestoneRepository) filtered(q models.ListQuery, studentID *int64) ([]models.Milestone, error) {
	f, err := parseFilters(q, []string{"student"}, nil)
	if err != nil {
		return nil, err
	}
	out := []models.Milestone{}
	for _, id := range sortedIDs(r.db.milestones) {
		m := r.db.milestones[id]
		if studentID != nil && m.StudentID != *studentID {
			continue
		}
		m.Student = r.db.studentRef(m.StudentID)
		if matches(q.Search, m.Name, m.Student.Name, m.Student.RegNo) && f.intIs("student", m.StudentID) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *MilestoneRepository) List(_ context.Context, q models.ListQuery) ([]models.Milestone, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out, err := r.filtered(q, nil)
	if err != nil {
		return nil, 0, err
	}
	items, total := page(out, q)
	return items, total, nil
}

func (r *MilestoneRepository) ListByStudent(_ context.Context, studentID int64) ([]models.Milestone, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.filtered(models.ListQuery{}, &studentID)
}

func (r *MilestoneRepository) Update(_ context.Context, m *models.Milestone) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.milestones[m.ID]; !ok {
		return notFound("milestone", m.ID)
	}
	if _, ok := r.db.students[m.StudentID]; !ok {
		return missingRef("updating milestone")
	}
	stored := *m
	stored.Student = nil
	r.db.milestones[m.ID] = stored
	return nil
}

func (r *MilestoneRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.milestones[id]; !ok {
		return notFound("milestone", id)
	}
	delete(r.db.milestones, id)
	return nil
}

func (r *MilestoneRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.milestones)), nil
}

// MeetingRepository stores meetings in memory
type MeetingRepository struct{ db *DB }

func (r *MeetingRepository) Create(_ context.Context, m *models.Meeting) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.students[m.StudentID]; !ok {
		return missingRef("creating meeting")
	}
	m.ID = r.db.next("meetings")
	stored := *m
	stored.Student = nil
	r.db.meetings[m.ID] = stored
	return nil
}

func (r *MeetingRepository) GetByID(_ context.Context, id int64) (*models.Meeting, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	m, ok := r.db.meetings[id]
	if !ok {
		return nil, notFound("meeting", id)
	}
	m.Student = r.db.studentRef(m.StudentID)
	return &m, nil
}

func (r *MeetingRepository) filtered(q models.ListQuery, studentID *int64) ([]models.Meeting, error) {
	f, err := parseFilters(q, []string{"student"}, nil)
	if err != nil {
		return nil, err
	}
	out := []models.Meeting{}
	for _, id := range sortedIDs(r.db.meetings) {
		m := r.db.meetings[id]
		if studentID != nil && m.StudentID != *studentID {
			continue
		}
		m.Student = r.db.studentRef(m.StudentID)
		if matches(q.Search, m.DiscussionPoints, m.ActionItems, m.Student.Name, m.Student.RegNo) && f.intIs("student", m.StudentID) {
			out = append(out, m)
		}
	}
	// newest first, then highest id
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (r *MeetingRepository) List(_ context.Context, q models.ListQuery) ([]models.Meeting, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out, err := r.filtered(q, nil)
	if err != nil {
		return nil, 0, err
	}
	items, total := page(out, q)
	return items, total, nil
}

func (r *MeetingRepository) ListByStudent(_ context.Context, studentID int64) ([]models.Meeting, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.filtered(models.ListQuery{}, &studentID)
}

func (r *MeetingRepository) Update(_ context.Context, m *models.Meeting) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.meetings[m.ID]; !ok {
		return notFound("meeting", m.ID)
	}
	if _, ok := r.db.students[m.StudentID]; !ok {
		return missingRef("updating meeting")
	}
	stored := *m
	stored.Student = nil
	r.db.meetings[m.ID] = stored
	return nil
}

func (r *MeetingRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.meetings[id]; !ok {
		return notFound("meeting", id)
	}
	delete(r.db.meetings, id)
	return nil
}

func (r *MeetingRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.meetings)), nil
}

// ResearchFileRepository stores research file records in memory
type ResearchFileRepository struct{ db *DB }

func (r *ResearchFileRepository) Create(_ context.Context, f *models.ResearchFile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.students[f.StudentID]; !ok {
		return missingRef("creating research file")
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	f.ID = r.db.next("research_files")
	r.db.files[f.ID] = *f
	return nil
}

func (r *ResearchFileRepository) GetByID(_ context.Context, id int64) (*models.ResearchFile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	f, ok := r.db.files[id]
	if !ok {
		return nil, notFound("research file", id)
	}
	return &f, nil
}

func (r *ResearchFileRepository) filtered(q models.ListQuery, studentID *int64) ([]models.ResearchFile, error) {
	f, err := parseFilters(q, []string{"student"}, nil)
	if err != nil {
		return nil, err
	}
	out := []models.ResearchFile{}
	ids := sortedIDs(r.db.files)
	for i := len(ids) - 1; i >= 0; i-- {
		file := r.db.files[ids[i]]
		if studentID != nil && file.StudentID != *studentID {
			continue
		}
		if matches(q.Search, file.Description, file.FileURL) && f.intIs("student", file.StudentID) {
			out = append(out, file)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ResearchFileRepository) List(_ context.Context, q models.ListQuery) ([]models.ResearchFile, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out, err := r.filtered(q, nil)
	if err != nil {
		return nil, 0, err
	}
	items, total := page(out, q)
	return items, total, nil
}

func (r *ResearchFileRepository) ListByStudent(_ context.Context, studentID int64) ([]models.ResearchFile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.filtered(models.ListQuery{}, &studentID)
}

func (r *ResearchFileRepository) Update(_ context.Context, f *models.ResearchFile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	old, ok := r.db.files[f.ID]
	if !ok {
		return notFound("research file", f.ID)
	}
	if _, ok := r.db.students[f.StudentID]; !ok {
		return missingRef("updating research file")
	}
	f.CreatedAt = old.CreatedAt
	r.db.files[f.ID] = *f
	return nil
}

func (r *ResearchFileRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.files[id]; !ok {
		return notFound("research file", id)
	}
	delete(r.db.files, id)
	return nil
}

func (r *ResearchFileRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.files)), nil
}
