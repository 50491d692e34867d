package models

import (
	"fmt"
	"time"
)

// Student defines the research student model based on the 'students' table
type Student struct {
	ID              int64      `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	RegNo           string     `json:"regNo" db:"reg_no"`
	Email           string     `json:"email" db:"email"`
	Phone           *string    `json:"phone,omitempty" db:"phone"`
	FacultyID       int64      `json:"facultyId" db:"faculty_id"`
	CourseID        int64      `json:"courseId" db:"course_id"`
	Level           Level      `json:"level" db:"level"`
	SupervisorID    *int64     `json:"supervisorId,omitempty" db:"supervisor_id"`
	SelectedTopicID *int64     `json:"selectedTopicId,omitempty" db:"selected_topic_id"`
	StartDate       *time.Time `json:"startDate,omitempty" db:"start_date"`
	GraduationDate  *time.Time `json:"graduationDate,omitempty" db:"graduation_date"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	ProfileImage    *string    `json:"profileImage,omitempty" db:"profile_image"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	Faculty       *Faculty       `json:"faculty,omitempty"`
	Course        *Course        `json:"course,omitempty"`
	Supervisor    *Supervisor    `json:"supervisor,omitempty"`
	SelectedTopic *ResearchTopic `json:"selectedTopic,omitempty"`
}

func (s Student) String() string {
	return fmt.Sprintf("%s - %s", s.Name, s.RegNo)
}

// ReadyForSchedule reports whether the student has everything a research schedule is built from
func (s Student) ReadyForSchedule() bool {
	return s.SupervisorID != nil && s.SelectedTopicID != nil && s.StartDate != nil
}
