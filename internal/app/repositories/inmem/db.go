// Package inmem keeps every table in process memory. It backs the "memory"
// database driver and the service tests, and mirrors the constraint and
// cascade behaviour of the Postgres schema.
package inmem

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/services"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/helpers"
)

// DB holds all tables behind one lock so multi-table writes are atomic
type DB struct {
	mu  sync.RWMutex
	seq map[string]int64

	faculties   map[int64]models.Faculty
	courses     map[int64]models.Course
	supervisors map[int64]models.Supervisor
	students    map[int64]models.Student
	topics      map[int64]models.ResearchTopic
	milestones  map[int64]models.Milestone
	meetings    map[int64]models.Meeting
	files       map[int64]models.ResearchFile
	voters      map[int64]models.Voter
	positions   map[int64]models.Position
	candidates  map[int64]models.Candidate
	votes       map[int64]models.Vote
	audit       []models.AuditEntry
}

// New returns an empty database
func New() *DB {
	return &DB{
		seq:         make(map[string]int64),
		faculties:   make(map[int64]models.Faculty),
		courses:     make(map[int64]models.Course),
		supervisors: make(map[int64]models.Supervisor),
		students:    make(map[int64]models.Student),
		topics:      make(map[int64]models.ResearchTopic),
		milestones:  make(map[int64]models.Milestone),
		meetings:    make(map[int64]models.Meeting),
		files:       make(map[int64]models.ResearchFile),
		voters:      make(map[int64]models.Voter),
		positions:   make(map[int64]models.Position),
		candidates:  make(map[int64]models.Candidate),
		votes:       make(map[int64]models.Vote),
	}
}

// Store exposes the tables through the repository ports
func (d *DB) Store() services.Store {
	return services.Store{
		Faculties:   &FacultyRepository{d},
		Courses:     &CourseRepository{d},
		Supervisors: &SupervisorRepository{d},
		Students:    &StudentRepository{d},
		Topics:      &TopicRepository{d},
		Milestones:  &MilestoneRepository{d},
		Meetings:    &MeetingRepository{d},
		Files:       &ResearchFileRepository{d},
		Voters:      &VoterRepository{d},
		Positions:   &PositionRepository{d},
		Candidates:  &CandidateRepository{d},
		Votes:       &VoteRepository{d},
		Audit:       &AuditRepository{d},
	}
}

func (d *DB) next(table string) int64 {
	d.seq[table]++
	return d.seq[table]
}

func notFound(entity string, id interface{}) error {
	return apperrors.NewResourceNotFoundError(fmt.Sprintf("%s %v not found", entity, id))
}

func missingRef(op string) error {
	return fmt.Errorf("%w: %s references a record that does not exist", apperrors.ErrValidationFailed, op)
}

// sortedIDs returns the keys of m in ascending order
func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// page cuts one page out of items and reports the total
func page[T any](items []T, q models.ListQuery) ([]T, int64) {
	start, end := helpers.CalculateSliceIndices(q.Page, q.Size, len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, int64(len(items))
}

// matches reports whether any field contains the search term, ignoring case
func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// filters holds the parsed filter values of a list query
type filters struct {
	q     models.ListQuery
	ints  map[string]*int64
	bools map[string]*bool
}

func parseFilters(q models.ListQuery, ints, bools []string) (filters, error) {
	f := filters{q: q, ints: map[string]*int64{}, bools: map[string]*bool{}}
	for _, key := range ints {
		v, err := q.IntFilter(key)
		if err != nil {
			return f, fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
		}
		f.ints[key] = v
	}
	for _, key := range bools {
		v, err := q.BoolFilter(key)
		if err != nil {
			return f, fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
		}
		f.bools[key] = v
	}
	return f, nil
}

func (f filters) intIs(key string, v int64) bool {
	want := f.ints[key]
	return want == nil || *want == v
}

func (f filters) intPtrIs(key string, v *int64) bool {
	want := f.ints[key]
	return want == nil || (v != nil && *want == *v)
}

func (f filters) boolIs(key string, v bool) bool {
	want := f.bools[key]
	return want == nil || *want == v
}

func (f filters) strIs(key, v string) bool {
	want := f.q.StringFilter(key)
	return want == nil || *want == v
}
