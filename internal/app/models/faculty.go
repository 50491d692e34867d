package models

// Faculty represents a faculty at the university
type Faculty struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	ShortCode string `json:"shortCode" db:"short_code"`
	Email     string `json:"email" db:"email"`
}

func (f Faculty) String() string {
	return f.Name
}
