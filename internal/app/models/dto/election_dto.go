package dto

import "github.com/miu/unidesk/internal/app/models"

// VoterRegistrationForm is the public self-registration form of the election portal
type VoterRegistrationForm struct {
	Name           string `form:"name" json:"name" binding:"required,max=100"`
	Email          string `form:"email" json:"email" binding:"required,email,max=100"`
	RegNo          string `form:"reg_no" json:"regNo" binding:"required,max=50"`
	Phone          string `form:"phone_number" json:"phone" binding:"omitempty,max=15"`
	GraduationYear string `form:"graduation_year" json:"graduationYear" binding:"omitempty,len=4,numeric"`
}

// ToVoter builds an active voter without a password from the form
func (f VoterRegistrationForm) ToVoter() *models.Voter {
	return &models.Voter{
		Name:           f.Name,
		Email:          f.Email,
		RegNo:          f.RegNo,
		Phone:          optional(f.Phone),
		GraduationYear: optional(f.GraduationYear),
		IsActive:       true,
	}
}

// LoginForm is shared by the election, research and admin login pages
type LoginForm struct {
	RegNo    string `form:"reg_no" json:"regNo" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// VoterRequest is the admin create/update payload for a voter
type VoterRequest struct {
	Name           string  `json:"name" binding:"required,max=100"`
	Email          string  `json:"email" binding:"required,email,max=100"`
	RegNo          string  `json:"regNo" binding:"required,max=50"`
	Phone          *string `json:"phone" binding:"omitempty,max=15"`
	GraduationYear *string `json:"graduationYear" binding:"omitempty,len=4,numeric"`
	IsActive       *bool   `json:"isActive"`
	IsStaff        bool    `json:"isStaff"`
	HasVoted       bool    `json:"hasVoted"`
	Password       string  `json:"password" binding:"omitempty,min=6"`
}

// Apply copies the request onto v. The password is handled by the service.
func (r VoterRequest) Apply(v *models.Voter) {
	v.Name = r.Name
	v.Email = r.Email
	v.RegNo = r.RegNo
	v.Phone = r.Phone
	v.GraduationYear = r.GraduationYear
	v.IsActive = r.IsActive == nil || *r.IsActive
	v.IsStaff = r.IsStaff
	v.HasVoted = r.HasVoted
}

// PositionRequest is the admin create/update payload for a position
type PositionRequest struct {
	Title string `json:"title" binding:"required,max=100"`
}

// Apply copies the request onto p
func (r PositionRequest) Apply(p *models.Position) {
	p.Title = r.Title
}

// CandidateRequest is the admin create/update payload for a candidate
type CandidateRequest struct {
	Name       string  `json:"name" binding:"required,max=100"`
	Email      string  `json:"email" binding:"required,email,max=100"`
	Phone      *string `json:"phone" binding:"omitempty,max=15"`
	PositionID int64   `json:"positionId" binding:"required,gt=0"`
}

// Apply copies the request onto c, leaving the vote counter alone
func (r CandidateRequest) Apply(c *models.Candidate) {
	c.Name = r.Name
	c.Email = r.Email
	c.Phone = r.Phone
	c.PositionID = r.PositionID
}

// PositionTally is one position with its candidates and their vote counts
type PositionTally struct {
	Position   models.Position    `json:"position"`
	Candidates []models.Candidate `json:"candidates"`
	TotalVotes int64              `json:"totalVotes"`
}

// HomePage is the public landing page of the election portal
type HomePage struct {
	Positions []PositionTally `json:"positions"`
	Year      int             `json:"year"`
}

// BallotPosition is one section of the ballot
type BallotPosition struct {
	Position   models.Position    `json:"position"`
	Candidates []models.Candidate `json:"candidates"`
	// VotedFor is the candidate already chosen for this position, if any
	VotedFor *int64 `json:"votedFor,omitempty"`
}

// FieldName is the form field the ballot uses for this position
func (b BallotPosition) FieldName() string {
	return BallotField(b.Position.ID)
}

// Ballot is what a voter sees on the voting page
type Ballot struct {
	Voter     models.Voter     `json:"voter"`
	Positions []BallotPosition `json:"positions"`
}

// ResultsPage is the post-vote results summary
type ResultsPage struct {
	Positions        []PositionTally `json:"positions"`
	RegisteredVoters int64           `json:"registeredVoters"`
	TotalVotes       int64           `json:"totalVotes"`
}

// VoteCastEvent is broadcast to websocket listeners after a ballot is stored
type VoteCastEvent struct {
	VoterID int64           `json:"voterId"`
	Tallies []PositionTally `json:"tallies"`
}
