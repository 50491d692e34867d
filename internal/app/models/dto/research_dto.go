package dto

import (
	"fmt"
	"time"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/pkg/apperrors"
)

// DateLayout is the calendar date format accepted by forms and the admin API
const DateLayout = "2006-01-02"

// FacultyRequest is the admin create/update payload for a faculty
type FacultyRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	ShortCode string `json:"shortCode" binding:"required,max=10"`
	Email     string `json:"email" binding:"required,email,max=100"`
}

// Apply copies the request onto f
func (r FacultyRequest) Apply(f *models.Faculty) {
	f.Name = r.Name
	f.ShortCode = r.ShortCode
	f.Email = r.Email
}

// CourseRequest is the admin create/update payload for a course
type CourseRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	FacultyID int64  `json:"facultyId" binding:"required,gt=0"`
}

// Apply copies the request onto c
func (r CourseRequest) Apply(c *models.Course) {
	c.Name = r.Name
	c.FacultyID = r.FacultyID
}

// SupervisorRequest is the admin create/update payload for a supervisor
type SupervisorRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email,max=100"`
	Contact   string `json:"contact" binding:"required,max=100"`
	FacultyID int64  `json:"facultyId" binding:"required,gt=0"`
}

// Apply copies the request onto s
func (r SupervisorRequest) Apply(s *models.Supervisor) {
	s.Name = r.Name
	s.Email = r.Email
	s.Contact = r.Contact
	s.FacultyID = r.FacultyID
}

// StudentRequest is the admin create/update payload for a research student
type StudentRequest struct {
	Name            string  `json:"name" binding:"required,max=100"`
	RegNo           string  `json:"regNo" binding:"required,max=50"`
	Email           string  `json:"email" binding:"required,email,max=100"`
	Phone           *string `json:"phone" binding:"omitempty,max=15"`
	FacultyID       int64   `json:"facultyId" binding:"required,gt=0"`
	CourseID        int64   `json:"courseId" binding:"required,gt=0"`
	Level           string  `json:"level" binding:"omitempty,oneof=DEGREE DIPLOMA NATIONAL_CERTIFICATE"`
	SupervisorID    *int64  `json:"supervisorId" binding:"omitempty,gt=0"`
	SelectedTopicID *int64  `json:"selectedTopicId" binding:"omitempty,gt=0"`
	StartDate       *string `json:"startDate" binding:"omitempty,datetime=2006-01-02"`
	GraduationDate  *string `json:"graduationDate" binding:"omitempty,datetime=2006-01-02"`
	Password        string  `json:"password" binding:"omitempty,min=6"`
}

// Apply copies the request onto s. The password is handled by the service.
func (r StudentRequest) Apply(s *models.Student) error {
	start, err := ParseOptionalDate("startDate", r.StartDate)
	if err != nil {
		return err
	}
	graduation, err := ParseOptionalDate("graduationDate", r.GraduationDate)
	if err != nil {
		return err
	}

	s.Name = r.Name
	s.RegNo = r.RegNo
	s.Email = r.Email
	s.Phone = r.Phone
	s.FacultyID = r.FacultyID
	s.CourseID = r.CourseID
	s.Level = models.Level(r.Level)
	if s.Level == "" {
		s.Level = models.LevelDegree
	}
	s.SupervisorID = r.SupervisorID
	s.SelectedTopicID = r.SelectedTopicID
	s.StartDate = start
	s.GraduationDate = graduation
	return nil
}

// TopicForm is the topic proposal form of the research portal
type TopicForm struct {
	Topic           string `form:"topic" json:"topic" binding:"required,max=200"`
	DistrictOfStudy string `form:"district_of_study" json:"districtOfStudy" binding:"required,max=100"`
	CaseStudyArea   string `form:"case_study_area" json:"caseStudyArea" binding:"required,max=100"`
}

// TopicRequest is the admin create/update payload for a research topic
type TopicRequest struct {
	StudentID int64 `json:"studentId" binding:"required,gt=0"`
	TopicForm
	Approved bool `json:"approved"`
}

// Apply copies the request onto t
func (r TopicRequest) Apply(t *models.ResearchTopic) {
	t.StudentID = r.StudentID
	t.Topic = r.Topic
	t.DistrictOfStudy = r.DistrictOfStudy
	t.CaseStudyArea = r.CaseStudyArea
	t.Approved = r.Approved
}

// MilestoneRequest is the admin create/update payload for a milestone
type MilestoneRequest struct {
	StudentID      int64   `json:"studentId" binding:"required,gt=0"`
	Name           string  `json:"name" binding:"required,max=100"`
	DueDate        string  `json:"dueDate" binding:"required,datetime=2006-01-02"`
	CompletionDate *string `json:"completionDate" binding:"omitempty,datetime=2006-01-02"`
}

// Apply copies the request onto m
func (r MilestoneRequest) Apply(m *models.Milestone) error {
	due, err := ParseOptionalDate("dueDate", &r.DueDate)
	if err != nil {
		return err
	}
	completed, err := ParseOptionalDate("completionDate", r.CompletionDate)
	if err != nil {
		return err
	}
	m.StudentID = r.StudentID
	m.Name = r.Name
	if due != nil {
		m.DueDate = *due
	}
	m.CompletionDate = completed
	return nil
}

// MeetingRequest is the admin create/update payload for a supervision meeting
type MeetingRequest struct {
	StudentID        int64  `json:"studentId" binding:"required,gt=0"`
	Date             string `json:"date" binding:"required,datetime=2006-01-02"`
	DiscussionPoints string `json:"discussionPoints" binding:"required"`
	ActionItems      string `json:"actionItems" binding:"required"`
}

// Apply copies the request onto m
func (r MeetingRequest) Apply(m *models.Meeting) error {
	date, err := ParseOptionalDate("date", &r.Date)
	if err != nil {
		return err
	}
	m.StudentID = r.StudentID
	if date != nil {
		m.Date = *date
	}
	m.DiscussionPoints = r.DiscussionPoints
	m.ActionItems = r.ActionItems
	return nil
}

// ResearchFileForm carries the text fields of a research file upload
type ResearchFileForm struct {
	StudentID   int64  `form:"student_id" json:"studentId"`
	Description string `form:"description" json:"description" binding:"max=255"`
}

// ResearchGuide is everything a logged-in research student sees about their research
type ResearchGuide struct {
	Student    models.Student         `json:"student"`
	Topic      *models.ResearchTopic  `json:"topic,omitempty"`
	Topics     []models.ResearchTopic `json:"topics"`
	Supervisor *models.Supervisor     `json:"supervisor,omitempty"`
	Schedule   *models.Schedule       `json:"schedule,omitempty"`
	Milestones []models.Milestone     `json:"milestones"`
	Meetings   []models.Meeting       `json:"meetings"`
	Files      []models.ResearchFile  `json:"files"`
}

// ParseOptionalDate parses a YYYY-MM-DD value; nil or empty input yields nil
func ParseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, *value)
	if err != nil {
		return nil, apperrors.NewFieldError(field, fmt.Sprintf("Enter a valid date (%s).", DateLayout))
	}
	return &t, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
