package models

// Supervisor is an academic member of staff who guides research students
type Supervisor struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Email     string `json:"email" db:"email"`
	Contact   string `json:"contact" db:"contact"`
	FacultyID int64  `json:"facultyId" db:"faculty_id"`

	Faculty *Faculty `json:"faculty,omitempty"`
}

func (s Supervisor) String() string {
	return s.Name
}
