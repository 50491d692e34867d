package models

import "time"

// ResearchTopic is a research title proposed by a student
type ResearchTopic struct {
	ID              int64  `json:"id" db:"id"`
	StudentID       int64  `json:"studentId" db:"student_id"`
	Topic           string `json:"topic" db:"topic"`
	DistrictOfStudy string `json:"districtOfStudy" db:"district_of_study"`
	CaseStudyArea   string `json:"caseStudyArea" db:"case_study_area"`
	Approved        bool   `json:"approved" db:"approved"`

	Student *Student `json:"student,omitempty"`
}

func (t ResearchTopic) String() string {
	return t.Topic
}

// Milestone is a dated deliverable checkpoint in a student's research timeline
type Milestone struct {
	ID             int64      `json:"id" db:"id"`
	StudentID      int64      `json:"studentId" db:"student_id"`
	Name           string     `json:"name" db:"name"`
	DueDate        time.Time  `json:"dueDate" db:"due_date"`
	CompletionDate *time.Time `json:"completionDate,omitempty" db:"completion_date"`

	Student *Student `json:"student,omitempty"`
}

func (m Milestone) String() string {
	topic := ""
	if m.Student != nil && m.Student.SelectedTopic != nil {
		topic = m.Student.SelectedTopic.Topic
	}
	return topic + " - " + m.Name
}

// Completed reports whether the milestone has a completion date
func (m Milestone) Completed() bool {
	return m.CompletionDate != nil
}

// Meeting records a supervision meeting
type Meeting struct {
	ID               int64     `json:"id" db:"id"`
	StudentID        int64     `json:"studentId" db:"student_id"`
	Date             time.Time `json:"date" db:"date"`
	DiscussionPoints string    `json:"discussionPoints" db:"discussion_points"`
	ActionItems      string    `json:"actionItems" db:"action_items"`

	Student *Student `json:"student,omitempty"`
}

func (m Meeting) String() string {
	topic := ""
	if m.Student != nil && m.Student.SelectedTopic != nil {
		topic = m.Student.SelectedTopic.Topic + " "
	}
	return topic + m.Date.Format("2006-01-02") + " " + m.DiscussionPoints
}

// ResearchFile is a document uploaded against a student's research
type ResearchFile struct {
	ID          int64     `json:"id" db:"id"`
	StudentID   int64     `json:"studentId" db:"student_id"`
	FileURL     string    `json:"fileUrl" db:"file_url"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

func (f ResearchFile) String() string {
	if f.Description != "" {
		return f.Description
	}
	return f.FileURL
}

// Schedule holds the derived deadlines of a research timeline.
// It is computed on demand and never stored.
type Schedule struct {
	Proposal time.Time  `json:"proposal"`
	Findings time.Time  `json:"findings"`
	Report   time.Time  `json:"report"`
	Defense  *time.Time `json:"defense,omitempty"`
}
