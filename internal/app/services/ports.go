package services

import (
	"context"

	"github.com/miu/unidesk/internal/app/models"
)

// Repositories return apperrors.ErrResourceNotFound for missing rows and map
// unique violations onto the matching apperrors sentinel.

// ReadRepository is the read and delete half of a table
type ReadRepository[T any] interface {
	GetByID(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context, q models.ListQuery) ([]T, int64, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// CRUDRepository adds writes. Create fills in the generated ID.
type CRUDRepository[T any] interface {
	ReadRepository[T]
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, item *T) error
}

type FacultyRepository interface {
	CRUDRepository[models.Faculty]
}

type CourseRepository interface {
	CRUDRepository[models.Course]
}

type SupervisorRepository interface {
	CRUDRepository[models.Supervisor]
}

type StudentRepository interface {
	CRUDRepository[models.Student]
	GetByRegNo(ctx context.Context, regNo string) (*models.Student, error)
	// ListWithoutTopic lists students whose selected topic is empty
	ListWithoutTopic(ctx context.Context, q models.ListQuery) ([]models.Student, int64, error)
	SetPassword(ctx context.Context, id int64, hash string) error
}

type TopicRepository interface {
	CRUDRepository[models.ResearchTopic]
	ListByStudent(ctx context.Context, studentID int64) ([]models.ResearchTopic, error)
}

type MilestoneRepository interface {
	CRUDRepository[models.Milestone]
	ListByStudent(ctx context.Context, studentID int64) ([]models.Milestone, error)
}

type MeetingRepository interface {
	CRUDRepository[models.Meeting]
	ListByStudent(ctx context.Context, studentID int64) ([]models.Meeting, error)
}

type ResearchFileRepository interface {
	CRUDRepository[models.ResearchFile]
	ListByStudent(ctx context.Context, studentID int64) ([]models.ResearchFile, error)
}

type VoterRepository interface {
	CRUDRepository[models.Voter]
	GetByRegNo(ctx context.Context, regNo string) (*models.Voter, error)
	GetByEmail(ctx context.Context, email string) (*models.Voter, error)
	SetPassword(ctx context.Context, id int64, hash string) error
}

type PositionRepository interface {
	CRUDRepository[models.Position]
	// ListAll returns every position ordered by id
	ListAll(ctx context.Context) ([]models.Position, error)
}

type CandidateRepository interface {
	CRUDRepository[models.Candidate]
	// ListWithVotes returns every candidate with its position and counted vote rows,
	// ordered by position id then candidate id
	ListWithVotes(ctx context.Context) ([]models.Candidate, error)
}

// VoteRepository has no update path: votes are immutable once cast
type VoteRepository interface {
	ReadRepository[models.Vote]
	// CastBallot stores every vote of one ballot atomically. If the voter already
	// holds a vote for any submitted position nothing is stored and an
	// *apperrors.AlreadyVotedError naming the lowest such position id is returned.
	CastBallot(ctx context.Context, voterID int64, votes []models.Vote) error
	// VotedPositions maps position id to the chosen candidate id for a voter
	VotedPositions(ctx context.Context, voterID int64) (map[int64]int64, error)
}

type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, q models.ListQuery) ([]models.AuditEntry, int64, error)
}

// Store groups every repository the services need
type Store struct {
	Faculties   FacultyRepository
	Courses     CourseRepository
	Supervisors SupervisorRepository
	Students    StudentRepository
	Topics      TopicRepository
	Milestones  MilestoneRepository
	Meetings    MeetingRepository
	Files       ResearchFileRepository
	Voters      VoterRepository
	Positions   PositionRepository
	Candidates  CandidateRepository
	Votes       VoteRepository
	Audit       AuditRepository
}

// Publisher pushes realtime events to connected clients
type Publisher interface {
	Publish(eventType, message string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, interface{}) {}
