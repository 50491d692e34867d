package models

import (
	"fmt"
	"time"
)

// Voter defines the election account based on the 'voters' table
type Voter struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	RegNo          string    `json:"regNo" db:"reg_no"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	Phone          *string   `json:"phone,omitempty" db:"phone"`
	GraduationYear *string   `json:"graduationYear,omitempty" db:"graduation_year"`
	IsActive       bool      `json:"isActive" db:"is_active"`
	IsStaff        bool      `json:"isStaff" db:"is_staff"`
	HasVoted       bool      `json:"hasVoted" db:"has_voted"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

func (v Voter) String() string {
	return fmt.Sprintf("%s - %s", v.Name, v.RegNo)
}

// AwaitingVote reports whether the voter is active and has not cast a ballot yet
func (v Voter) AwaitingVote() bool {
	return v.IsActive && !v.HasVoted
}

// Position is an electable office
type Position struct {
	ID    int64  `json:"id" db:"id"`
	Title string `json:"title" db:"title"`
}

func (p Position) String() string {
	return p.Title
}

// Candidate stands for exactly one position
type Candidate struct {
	ID         int64   `json:"id" db:"id"`
	Name       string  `json:"name" db:"name"`
	Email      string  `json:"email" db:"email"`
	Phone      *string `json:"phone,omitempty" db:"phone"`
	PositionID int64   `json:"positionId" db:"position_id"`
	Votes      int     `json:"votes" db:"votes"`
	ImageURL   *string `json:"imageUrl,omitempty" db:"image_url"`

	// VoteCount is the number of vote rows, computed on read
	VoteCount int64     `json:"voteCount"`
	Position  *Position `json:"position,omitempty"`
}

func (c Candidate) String() string {
	title := ""
	if c.Position != nil {
		title = c.Position.Title
	}
	return fmt.Sprintf("%s - %s", c.Name, title)
}

// Vote links one voter to one candidate. Votes are never updated.
type Vote struct {
	ID          int64     `json:"id" db:"id"`
	VoterID     int64     `json:"voterId" db:"voter_id"`
	CandidateID int64     `json:"candidateId" db:"candidate_id"`
	PositionID  int64     `json:"positionId" db:"position_id"`
	CreatedAt   time.Time `json:"timestamp" db:"created_at"`

	Voter     *Voter     `json:"voter,omitempty"`
	Candidate *Candidate `json:"candidate,omitempty"`
	Position  *Position  `json:"position,omitempty"`
}

func (v Vote) String() string {
	var voter, candidate, position string
	if v.Voter != nil {
		voter = v.Voter.Name
	}
	if v.Candidate != nil {
		candidate = v.Candidate.Name
	}
	if v.Position != nil {
		position = v.Position.Title
	}
	return fmt.Sprintf("%s voted for %s in %s", voter, candidate, position)
}
