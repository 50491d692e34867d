package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/app/services"
	"github.com/miu/unidesk/internal/middleware"
	"github.com/miu/unidesk/internal/pkg/apperrors"
)

// APIResource is the set of JSON handlers mounted under /admin/api/<Name>.
// A nil handler means the operation is not offered.
type APIResource struct {
	Name   string
	List   gin.HandlerFunc
	Get    gin.HandlerFunc
	Create gin.HandlerFunc
	Update gin.HandlerFunc
	Delete gin.HandlerFunc
}

// AdminAPIController exposes the staff JSON API
type AdminAPIController struct {
	faculties   services.FacultyService
	courses     services.CourseService
	supervisors services.SupervisorService
	students    services.StudentService
	research    services.ResearchService
	voters      services.VoterService
	election    services.ElectionService
	audit       services.AuditService
}

// NewAdminAPIController creates a new AdminAPIController
func NewAdminAPIController(
	faculties services.FacultyService,
	courses services.CourseService,
	supervisors services.SupervisorService,
	students services.StudentService,
	research services.ResearchService,
	voters services.VoterService,
	election services.ElectionService,
	audit services.AuditService,
) *AdminAPIController {
	return &AdminAPIController{
		faculties:   faculties,
		courses:     courses,
		supervisors: supervisors,
		students:    students,
		research:    research,
		voters:      voters,
		election:    election,
		audit:       audit,
	}
}

// Resources lists every resource of the API in menu order
func (c *AdminAPIController) Resources() []APIResource {
	return []APIResource{
		crud("faculties", c.faculties.List, c.faculties.Get, c.faculties.Create, c.faculties.Update, c.faculties.Delete),
		crud("courses", c.courses.List, c.courses.Get, c.courses.Create, c.courses.Update, c.courses.Delete, "faculty"),
		crud("supervisors", c.supervisors.List, c.supervisors.Get, c.supervisors.Create, c.supervisors.Update, c.supervisors.Delete, "faculty"),
		crud("students", c.students.List, c.students.Get, c.students.Create, c.students.Update, c.students.Delete,
			"faculty", "course", "level", "supervisor"),
		crud("topics", c.research.ListTopics, c.research.GetTopic, c.research.CreateTopic, c.research.UpdateTopic, c.research.DeleteTopic,
			"approved", "student"),
		crud("milestones", c.research.ListMilestones, c.research.GetMilestone, c.research.CreateMilestone, c.research.UpdateMilestone,
			c.research.DeleteMilestone, "student"),
		crud("meetings", c.research.ListMeetings, c.research.GetMeeting, c.research.CreateMeeting, c.research.UpdateMeeting,
			c.research.DeleteMeeting, "student"),
		{
			Name:   "files",
			List:   listHandler(c.research.ListFiles, "student"),
			Get:    getHandler(c.research.GetFile),
			Create: c.UploadResearchFile,
			Delete: deleteHandler(c.research.DeleteFile),
		},
		crud("voters", c.voters.List, c.voters.Get, c.voters.Create, c.voters.Update, c.voters.Delete,
			"is_active", "has_voted", "is_staff"),
		crud("positions", c.election.ListPositions, c.election.GetPosition, c.election.CreatePosition, c.election.UpdatePosition,
			c.election.DeletePosition),
		crud("candidates", c.election.ListCandidates, c.election.GetCandidate, c.election.CreateCandidate, c.election.UpdateCandidate,
			c.election.DeleteCandidate, "position"),
		{
			Name:   "votes",
			List:   listHandler(c.election.ListVotes, "candidate", "position", "voter"),
			Get:    getHandler(c.election.GetVote),
			Delete: deleteHandler(c.election.DeleteVote),
		},
		{
			Name: "audit",
			List: listHandler(c.audit.List, "object_type", "action"),
		},
	}
}

func crud[T any, R any](
	name string,
	list func(context.Context, models.ListQuery) ([]T, int64, error),
	get func(context.Context, int64) (*T, error),
	create func(context.Context, R) (*T, error),
	update func(context.Context, int64, R) (*T, error),
	del func(context.Context, int64) error,
	filters ...string,
) APIResource {
	return APIResource{
		Name:   name,
		List:   listHandler(list, filters...),
		Get:    getHandler(get),
		Create: createHandler(create),
		Update: updateHandler(update),
		Delete: deleteHandler(del),
	}
}

func listHandler[T any](list func(context.Context, models.ListQuery) ([]T, int64, error), filters ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		q := listQuery(ctx, filters...)
		items, total, err := list(requestContext(ctx), q)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		respondPage(ctx, items, total, q)
	}
}

func getHandler[T any](get func(context.Context, int64) (*T, error)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := parseID(ctx, "id")
		if !ok {
			return
		}
		item, err := get(requestContext(ctx), id)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(item, ""))
	}
}

func createHandler[T any, R any](create func(context.Context, R) (*T, error)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req R
		if !middleware.BindJSON(ctx, &req) {
			return
		}
		item, err := create(requestContext(ctx), req)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(item, "Created"))
	}
}

func updateHandler[T any, R any](update func(context.Context, int64, R) (*T, error)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := parseID(ctx, "id")
		if !ok {
			return
		}
		var req R
		if !middleware.BindJSON(ctx, &req) {
			return
		}
		item, err := update(requestContext(ctx), id, req)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(item, "Updated"))
	}
}

func deleteHandler(del func(context.Context, int64) error) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := parseID(ctx, "id")
		if !ok {
			return
		}
		if err := del(requestContext(ctx), id); err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Deleted"))
	}
}

// UploadResearchFile handles the multipart research file upload
func (c *AdminAPIController) UploadResearchFile(ctx *gin.Context) {
	var form dto.ResearchFileForm
	if err := ctx.ShouldBind(&form); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Invalid upload form"))
		return
	}
	file, err := ctx.FormFile("file")
	if err != nil {
		file = nil
	}
	rf, err := c.research.UploadFile(requestContext(ctx), form, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(rf, "File uploaded"))
}

// UploadStudentImage replaces a student's profile image
func (c *AdminAPIController) UploadStudentImage(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	file, err := ctx.FormFile("image")
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.FieldErrors{apperrors.NewFieldError("image", "This field is required.")})
		return
	}
	student, err := c.students.SetProfileImage(requestContext(ctx), id, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student, "Profile image updated"))
}

// UploadCandidateImage replaces a candidate's photo
func (c *AdminAPIController) UploadCandidateImage(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	file, err := ctx.FormFile("image")
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.FieldErrors{apperrors.NewFieldError("image", "This field is required.")})
		return
	}
	candidate, err := c.election.SetCandidateImage(requestContext(ctx), id, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(candidate, "Image updated"))
}
