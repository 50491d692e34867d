package models

// Course represents a course offered by a faculty.
type Course struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	FacultyID int64  `json:"facultyId" db:"faculty_id"`

	// Relations (populated when needed)
	Faculty *Faculty `json:"faculty,omitempty"`
}

func (c Course) String() string {
	return c.Name
}
