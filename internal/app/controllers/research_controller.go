package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/app/services"
	"github.com/miu/unidesk/internal/middleware"
	"github.com/miu/unidesk/internal/pkg/auth"
	"github.com/miu/unidesk/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// ResearchController serves the research portal under /research
type ResearchController struct {
	authService     services.AuthService
	researchService services.ResearchService
	studentService  services.StudentService
	facultyService  services.FacultyService
	courseService   services.CourseService
	logger          zerolog.Logger
}

// NewResearchController creates a new ResearchController
func NewResearchController(
	authService services.AuthService,
	researchService services.ResearchService,
	studentService services.StudentService,
	facultyService services.FacultyService,
	courseService services.CourseService,
	logger zerolog.Logger,
) *ResearchController {
	return &ResearchController{
		authService:     authService,
		researchService: researchService,
		studentService:  studentService,
		facultyService:  facultyService,
		courseService:   courseService,
		logger:          logger,
	}
}

const guideURL = "/research/research-guide/"

// Entry shows the research login, or sends a logged in student to the guide
func (c *ResearchController) Entry(ctx *gin.Context) {
	if id := middleware.CurrentIdentity(ctx); id != nil && id.Kind == auth.KindStudent {
		ctx.Redirect(http.StatusFound, guideURL)
		return
	}
	ctx.HTML(http.StatusOK, "research_login.html", page(ctx, "Research Portal", gin.H{
		"Action": "/research/",
		"Next":   ctx.Query("next"),
	}))
}

// Login authenticates a research student
func (c *ResearchController) Login(ctx *gin.Context) {
	login(ctx, c.authService, c.logger, services.PortalResearch, "research_login.html", "/research/", guideURL)
}

// Logout clears the session
func (c *ResearchController) Logout(ctx *gin.Context) {
	if err := middleware.EndSession(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to clear session")
	}
	middleware.AddFlash(ctx, middleware.FlashInfo, "You have been logged out.")
	ctx.Redirect(http.StatusFound, "/research/")
}

// Guide shows the student's topic, supervisor, schedule and records
func (c *ResearchController) Guide(ctx *gin.Context) {
	c.renderGuide(ctx, http.StatusOK, gin.H{})
}

func (c *ResearchController) renderGuide(ctx *gin.Context, status int, data gin.H) {
	id := middleware.CurrentIdentity(ctx)
	guide, err := c.researchService.Guide(requestContext(ctx), id.ID)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	data["Guide"] = guide
	if _, ok := data["TopicForm"]; !ok {
		data["TopicForm"] = dto.TopicForm{}
	}
	ctx.HTML(status, "research_guide.html", page(ctx, "Research Guide", data))
}

// ProposeTopic records a topic submitted by the logged in student
func (c *ResearchController) ProposeTopic(ctx *gin.Context) {
	id := middleware.CurrentIdentity(ctx)
	var form dto.TopicForm
	err := middleware.BindForm(ctx, &form)
	if err == nil {
		_, err = c.researchService.ProposeTopic(requestContext(ctx), id.ID, form)
	}
	if err != nil {
		if fields, general, ok := formErrors(err); ok {
			c.renderGuide(ctx, http.StatusOK, gin.H{"TopicForm": form, "TopicErrors": fields, "Notes": general})
			return
		}
		renderError(ctx, c.logger, err)
		return
	}
	middleware.AddFlash(ctx, middleware.FlashSuccess, "Your research topic has been submitted.")
	ctx.Redirect(http.StatusFound, guideURL)
}

// UploadFile stores a research document for the logged in student
func (c *ResearchController) UploadFile(ctx *gin.Context) {
	id := middleware.CurrentIdentity(ctx)
	form := dto.ResearchFileForm{StudentID: id.ID, Description: ctx.PostForm("description")}
	file, _ := ctx.FormFile("file")

	if _, err := c.researchService.UploadFile(requestContext(ctx), form, file); err != nil {
		if fields, general, ok := formErrors(err); ok {
			c.renderGuide(ctx, http.StatusOK, gin.H{"FileErrors": fields, "Notes": general})
			return
		}
		renderError(ctx, c.logger, err)
		return
	}
	middleware.AddFlash(ctx, middleware.FlashSuccess, "File uploaded.")
	ctx.Redirect(http.StatusFound, guideURL)
}

// Students lists research students for staff with search and filters
func (c *ResearchController) Students(ctx *gin.Context) {
	q := listQuery(ctx, "faculty", "course", "level", "supervisor")
	students, total, err := c.studentService.List(requestContext(ctx), q)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	all := models.ListQuery{Page: 1, Size: helpers.MaxPageSize}
	faculties, _, err := c.facultyService.List(requestContext(ctx), all)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	courses, _, err := c.courseService.List(requestContext(ctx), all)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.HTML(http.StatusOK, "research_students.html", page(ctx, "Research Students", gin.H{
		"Students":   students,
		"Pagination": helpers.NewPaginationInfo(total, q.Page, q.Size),
		"Query":      q,
		"Faculties":  faculties,
		"Courses":    courses,
		"Levels":     models.Levels(),
	}))
}

// ResearchData lists topics with their student and supervisor
func (c *ResearchController) ResearchData(ctx *gin.Context) {
	q := listQuery(ctx, "approved", "student")
	topics, total, err := c.researchService.ListTopics(requestContext(ctx), q)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.HTML(http.StatusOK, "research_data.html", page(ctx, "Research Data", gin.H{
		"Topics":     topics,
		"Pagination": helpers.NewPaginationInfo(total, q.Page, q.Size),
		"Query":      q,
	}))
}

// StudentsWithoutTopics lists students who have not selected a topic yet
func (c *ResearchController) StudentsWithoutTopics(ctx *gin.Context) {
	q := listQuery(ctx)
	students, total, err := c.studentService.ListWithoutTopic(requestContext(ctx), q)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.HTML(http.StatusOK, "students_without_topics.html", page(ctx, "Students Without Topics", gin.H{
		"Students":   students,
		"Pagination": helpers.NewPaginationInfo(total, q.Page, q.Size),
		"Query":      q,
	}))
}
