package services_test

import (
	"context"
	"mime/multipart"
	"path"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/repositories/inmem"
	"github.com/miu/unidesk/internal/app/services"
	"github.com/miu/unidesk/internal/pkg/auth"
	"github.com/miu/unidesk/internal/pkg/email"
	"github.com/miu/unidesk/internal/pkg/metrics"
)

// memStorage keeps uploads as URLs only
type memStorage struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
}

func (m *memStorage) Save(_ context.Context, fh *multipart.FileHeader, dir string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url := path.Join("/media", dir, fh.Filename)
	m.saved = append(m.saved, url)
	return url, nil
}

func (m *memStorage) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, url)
	return nil
}

type published struct {
	Type    string
	Message string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(eventType, message string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Type: eventType, Message: message, Payload: payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) last(eventType string) (published, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Type == eventType {
			return p.events[i], true
		}
	}
	return published{}, false
}

type fixture struct {
	store     services.Store
	mailer    *email.MemoryMailer
	storage   *memStorage
	publisher *recordingPublisher
	metrics   *metrics.Metrics

	audit       services.AuditService
	faculties   services.FacultyService
	courses     services.CourseService
	supervisors services.SupervisorService
	students    services.StudentService
	research    services.ResearchService
	voters      services.VoterService
	election    services.ElectionService
	auth        services.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lgr := zerolog.Nop()
	f := &fixture{
		store:     inmem.New().Store(),
		mailer:    email.NewMemoryMailer(),
		storage:   &memStorage{},
		publisher: &recordingPublisher{},
		metrics:   metrics.New(),
	}
	notifications, err := services.NewNotificationService(f.mailer, "Metropolitan International University", f.metrics, lgr)
	require.NoError(t, err)

	f.audit = services.NewAuditService(f.store.Audit, lgr)
	f.faculties = services.NewFacultyService(f.store.Faculties, f.audit)
	f.courses = services.NewCourseService(f.store.Courses, f.audit)
	f.supervisors = services.NewSupervisorService(f.store.Supervisors, f.audit)
	f.students = services.NewStudentService(f.store.Students, notifications, f.audit, f.storage, f.publisher, lgr)
	f.research = services.NewResearchService(f.store, f.audit, f.storage, lgr)
	f.voters = services.NewVoterService(f.store.Voters, notifications, f.audit, f.publisher, lgr)
	f.election = services.NewElectionService(f.store, f.audit, f.storage, f.publisher, f.metrics, lgr)
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", SessionExp: time.Hour, TokenIssuer: "test"})
	f.auth = services.NewAuthService(f.store.Students, f.store.Voters, jwtService, lgr)
	return f
}

// academics creates one faculty, course and supervisor
func (f *fixture) academics(t *testing.T) (models.Faculty, models.Course, models.Supervisor) {
	t.Helper()
	ctx := context.Background()
	faculty := models.Faculty{Name: "Faculty of Science and Technology", ShortCode: "FST", Email: "fst@miu.ac.ug"}
	require.NoError(t, f.store.Faculties.Create(ctx, &faculty))
	course := models.Course{Name: "Computer Science", FacultyID: faculty.ID}
	require.NoError(t, f.store.Courses.Create(ctx, &course))
	supervisor := models.Supervisor{Name: "Dr. Okello", Email: "okello@miu.ac.ug", Contact: "0700000000", FacultyID: faculty.ID}
	require.NoError(t, f.store.Supervisors.Create(ctx, &supervisor))
	return faculty, course, supervisor
}

// student stores a research student directly, bypassing mail
func (f *fixture) student(t *testing.T, faculty models.Faculty, course models.Course, regNo, password string) models.Student {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	s := models.Student{
		Name: "Student " + regNo, RegNo: regNo, Email: regNo + "@students.miu.ac.ug",
		FacultyID: faculty.ID, CourseID: course.ID, Level: models.LevelDegree, PasswordHash: hash,
	}
	require.NoError(t, f.store.Students.Create(context.Background(), &s))
	return s
}

// voter stores a voter directly, bypassing mail
func (f *fixture) voter(t *testing.T, regNo, password string, mutate ...func(*models.Voter)) models.Voter {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	v := models.Voter{
		Name: "Voter " + regNo, RegNo: regNo, Email: regNo + "@voters.miu.ac.ug",
		PasswordHash: hash, IsActive: true,
	}
	for _, m := range mutate {
		m(&v)
	}
	require.NoError(t, f.store.Voters.Create(context.Background(), &v))
	return v
}

var passwordLine = regexp.MustCompile(`Password: (\S+)`)

// mailedPassword extracts the password from a credentials mail
func mailedPassword(t *testing.T, msg email.Message) string {
	t.Helper()
	m := passwordLine.FindStringSubmatch(msg.Text)
	require.Len(t, m, 2, "no password in mail:\n%s", msg.Text)
	return m[1]
}
