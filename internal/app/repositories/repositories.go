package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/services"
)

// Repositories holds all the repository instances
type Repositories struct {
	FacultyRepository      *FacultyRepository
	CourseRepository       *CourseRepository
	SupervisorRepository   *SupervisorRepository
	StudentRepository      *StudentRepository
	TopicRepository        *TopicRepository
	MilestoneRepository    *MilestoneRepository
	MeetingRepository      *MeetingRepository
	ResearchFileRepository *ResearchFileRepository
	VoterRepository        *VoterRepository
	PositionRepository     *PositionRepository
	CandidateRepository    *CandidateRepository
	VoteRepository         *VoteRepository
	AuditRepository        *AuditRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		FacultyRepository:      NewFacultyRepository(db),
		CourseRepository:       NewCourseRepository(db),
		SupervisorRepository:   NewSupervisorRepository(db),
		StudentRepository:      NewStudentRepository(db),
		TopicRepository:        NewTopicRepository(db),
		MilestoneRepository:    NewMilestoneRepository(db),
		MeetingRepository:      NewMeetingRepository(db),
		ResearchFileRepository: NewResearchFileRepository(db),
		VoterRepository:        NewVoterRepository(db),
		PositionRepository:     NewPositionRepository(db),
		CandidateRepository:    NewCandidateRepository(db),
		VoteRepository:         NewVoteRepository(db),
		AuditRepository:        NewAuditRepository(db),
	}
}

// Store exposes the repositories through the service ports
func (r *Repositories) Store() services.Store {
	return services.Store{
		Faculties:   r.FacultyRepository,
		Courses:     r.CourseRepository,
		Supervisors: r.SupervisorRepository,
		Students:    r.StudentRepository,
		Topics:      r.TopicRepository,
		Milestones:  r.MilestoneRepository,
		Meetings:    r.MeetingRepository,
		Files:       r.ResearchFileRepository,
		Voters:      r.VoterRepository,
		Positions:   r.PositionRepository,
		Candidates:  r.CandidateRepository,
		Votes:       r.VoteRepository,
		Audit:       r.AuditRepository,
	}
}
