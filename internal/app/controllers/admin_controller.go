package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/services"
	"github.com/miu/unidesk/internal/middleware"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// adminFilter is one sidebar filter of an admin table
type adminFilter struct {
	Name    string
	Label   string
	Options []filterOption
}

type filterOption struct {
	Value string
	Label string
}

var yesNo = []filterOption{{Value: "true", Label: "Yes"}, {Value: "false", Label: "No"}}

// adminTable describes the read-only HTML listing of one resource
type adminTable struct {
	Name    string
	Title   string
	Columns []string
	Filters []adminFilter
	rows    func(ctx context.Context, q models.ListQuery) ([][]string, int64, error)
}

func table[T any](name, title string, columns []string, filters []adminFilter,
	list func(context.Context, models.ListQuery) ([]T, int64, error), row func(T) []string) adminTable {
	return adminTable{
		Name:    name,
		Title:   title,
		Columns: columns,
		Filters: filters,
		rows: func(ctx context.Context, q models.ListQuery) ([][]string, int64, error) {
			items, total, err := list(ctx, q)
			if err != nil {
				return nil, 0, err
			}
			out := make([][]string, 0, len(items))
			for _, item := range items {
				out = append(out, row(item))
			}
			return out, total, nil
		},
	}
}

func yes(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// AdminController serves the staff HTML pages
type AdminController struct {
	authService services.AuthService
	tables      []adminTable
	logger      zerolog.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(
	authService services.AuthService,
	faculties services.FacultyService,
	courses services.CourseService,
	supervisors services.SupervisorService,
	students services.StudentService,
	research services.ResearchService,
	voters services.VoterService,
	election services.ElectionService,
	audit services.AuditService,
	logger zerolog.Logger,
) *AdminController {
	levels := make([]filterOption, 0, 3)
	for _, l := range models.Levels() {
		levels = append(levels, filterOption{Value: string(l), Label: l.Label()})
	}

	tables := []adminTable{
		table("faculties", "Faculties", []string{"Name", "Short code", "Email"}, nil, faculties.List,
			func(f models.Faculty) []string { return []string{f.Name, f.ShortCode, f.Email} }),
		table("courses", "Courses", []string{"Name", "Faculty"}, nil, courses.List,
			func(c models.Course) []string {
				faculty := ""
				if c.Faculty != nil {
					faculty = c.Faculty.Name
				}
				return []string{c.Name, faculty}
			}),
		table("supervisors", "Supervisors", []string{"Name", "Email", "Contact"}, nil, supervisors.List,
			func(s models.Supervisor) []string { return []string{s.Name, s.Email, s.Contact} }),
		table("students", "Students", []string{"Name", "Reg no", "Email", "Level", "Supervisor", "Topic"},
			[]adminFilter{{Name: "level", Label: "Level", Options: levels}}, students.List,
			func(s models.Student) []string {
				supervisor, topic := "", ""
				if s.Supervisor != nil {
					supervisor = s.Supervisor.Name
				}
				if s.SelectedTopic != nil {
					topic = s.SelectedTopic.Topic
				}
				return []string{s.Name, s.RegNo, s.Email, s.Level.Label(), supervisor, topic}
			}),
		table("topics", "Research topics", []string{"Topic", "Student", "District", "Case study area", "Approved"},
			[]adminFilter{{Name: "approved", Label: "Approved", Options: yesNo}}, research.ListTopics,
			func(t models.ResearchTopic) []string {
				student := ""
				if t.Student != nil {
					student = t.Student.Name
				}
				return []string{t.Topic, student, t.DistrictOfStudy, t.CaseStudyArea, yes(t.Approved)}
			}),
		table("milestones", "Milestones", []string{"Milestone", "Due date", "Completed"}, nil, research.ListMilestones,
			func(m models.Milestone) []string {
				return []string{m.String(), helpers.FormatDate(&m.DueDate), helpers.FormatDate(m.CompletionDate)}
			}),
		table("meetings", "Meetings", []string{"Meeting", "Action items"}, nil, research.ListMeetings,
			func(m models.Meeting) []string { return []string{m.String(), m.ActionItems} }),
		table("files", "Research files", []string{"Description", "File", "Uploaded"}, nil, research.ListFiles,
			func(f models.ResearchFile) []string {
				return []string{f.Description, f.FileURL, helpers.FormatDate(&f.CreatedAt)}
			}),
		table("voters", "Voters", []string{"Name", "Reg no", "Email", "Active", "Has voted"},
			[]adminFilter{
				{Name: "is_active", Label: "Active", Options: yesNo},
				{Name: "has_voted", Label: "Has voted", Options: yesNo},
			}, voters.List,
			func(v models.Voter) []string {
				return []string{v.Name, v.RegNo, v.Email, yes(v.IsActive), yes(v.HasVoted)}
			}),
		table("positions", "Positions", []string{"Title"}, nil, election.ListPositions,
			func(p models.Position) []string { return []string{p.Title} }),
		table("candidates", "Candidates", []string{"Name", "Position", "Email", "Phone", "Votes"}, nil, election.ListCandidates,
			func(c models.Candidate) []string {
				position := ""
				if c.Position != nil {
					position = c.Position.Title
				}
				return []string{c.Name, position, c.Email, orEmpty(c.Phone), strconv.FormatInt(c.VoteCount, 10)}
			}),
		table("votes", "Votes", []string{"Voter", "Candidate", "Position", "Timestamp"}, nil, election.ListVotes,
			func(v models.Vote) []string {
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
				return []string{voter, candidate, position, v.CreatedAt.Format("2006-01-02 15:04")}
			}),
		table("audit", "Recent actions", []string{"When", "User", "Action", "Object", "Message"},
			[]adminFilter{{Name: "action", Label: "Action", Options: []filterOption{
				{Value: string(models.AuditAddition), Label: "Addition"},
				{Value: string(models.AuditChange), Label: "Change"},
				{Value: string(models.AuditDeletion), Label: "Deletion"},
			}}}, audit.List,
			func(e models.AuditEntry) []string {
				return []string{e.CreatedAt.Format("2006-01-02 15:04"), e.Actor, string(e.Action),
					fmt.Sprintf("%s: %s", e.ObjectType, e.ObjectRepr), e.Message}
			}),
	}

	return &AdminController{
		authService: authService,
		tables:      tables,
		logger:      logger,
	}
}

func (c *AdminController) lookup(name string) (adminTable, bool) {
	for _, t := range c.tables {
		if t.Name == name {
			return t, true
		}
	}
	return adminTable{}, false
}

// LoginForm shows the staff login page
func (c *AdminController) LoginForm(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "admin_login.html", page(ctx, "Site administration", gin.H{
		"Action": "/admin/login/",
		"Next":   ctx.Query("next"),
	}))
}

// Login authenticates a staff voter
func (c *AdminController) Login(ctx *gin.Context) {
	login(ctx, c.authService, c.logger, services.PortalAdmin, "admin_login.html", "/admin/login/", "/admin/")
}

// Logout clears the session
func (c *AdminController) Logout(ctx *gin.Context) {
	if err := middleware.EndSession(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to clear session")
	}
	middleware.AddFlash(ctx, middleware.FlashInfo, "You have been logged out.")
	ctx.Redirect(http.StatusFound, "/admin/login/")
}

type tableCount struct {
	Name  string
	Title string
	Count int64
}

// Index lists every resource with its record count
func (c *AdminController) Index(ctx *gin.Context) {
	counts := make([]tableCount, 0, len(c.tables))
	for _, t := range c.tables {
		_, total, err := t.rows(requestContext(ctx), models.ListQuery{Page: 1, Size: 1})
		if err != nil {
			renderError(ctx, c.logger, err)
			return
		}
		counts = append(counts, tableCount{Name: t.Name, Title: t.Title, Count: total})
	}
	ctx.HTML(http.StatusOK, "admin_index.html", page(ctx, "Site administration", gin.H{"Tables": counts}))
}

// List renders one resource as a searchable, filterable, paged table
func (c *AdminController) List(ctx *gin.Context) {
	t, ok := c.lookup(ctx.Param("resource"))
	if !ok {
		renderError(ctx, c.logger, apperrors.ErrResourceNotFound)
		return
	}
	names := make([]string, 0, len(t.Filters))
	for _, f := range t.Filters {
		names = append(names, f.Name)
	}
	q := listQuery(ctx, names...)
	rows, total, err := t.rows(requestContext(ctx), q)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidationFailed) {
			middleware.AddFlash(ctx, middleware.FlashError, err.Error())
			ctx.Redirect(http.StatusFound, "/admin/"+t.Name+"/")
			return
		}
		renderError(ctx, c.logger, err)
		return
	}
	ctx.HTML(http.StatusOK, "admin_list.html", page(ctx, t.Title, gin.H{
		"Table":      t,
		"Rows":       rows,
		"Query":      q,
		"Pagination": helpers.NewPaginationInfo(total, q.Page, q.Size),
	}))
}
