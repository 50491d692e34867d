package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/middleware"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// requestContext is the context services run under. It carries the identity
// LoadIdentity attached, which the audit log reads.
func requestContext(ctx *gin.Context) context.Context {
	return ctx.Request.Context()
}

// parseID reads a positive int64 path parameter
func parseID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid ID").
			WithField(name).
			WithSeverity(dto.ErrorSeverityWarning).
			WithDetails("ID must be a positive number")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// listQuery reads q, page, size and the named filters from the query string
func listQuery(ctx *gin.Context, filters ...string) models.ListQuery {
	page, size := helpers.ParsePaginationParams(ctx)
	q := models.ListQuery{
		Search:  strings.TrimSpace(ctx.Query("q")),
		Filters: make(map[string]string, len(filters)),
		Page:    page,
		Size:    size,
	}
	for _, f := range filters {
		if v := strings.TrimSpace(ctx.Query(f)); v != "" {
			q.Filters[f] = v
		}
	}
	return q
}

func respondPage(ctx *gin.Context, items interface{}, total int64, q models.ListQuery) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.PaginatedResponse{
		Items:      items,
		Pagination: helpers.NewPaginationInfo(total, q.Page, q.Size),
	}, ""))
}

// page is the data every HTML page is rendered with
func page(ctx *gin.Context, title string, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["Flashes"] = middleware.Flashes(ctx)
	data["User"] = middleware.CurrentIdentity(ctx)
	data["IsStaff"] = middleware.IsStaff(ctx)
	data["Year"] = time.Now().Year()
	return data
}

// renderError shows the error page for errors no form can display
func renderError(ctx *gin.Context, logger zerolog.Logger, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong. Please try again later."
	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound):
		status = http.StatusNotFound
		message = "The page you requested could not be found."
	case errors.Is(err, apperrors.ErrPermissionDenied):
		status = http.StatusForbidden
		message = "You do not have permission to view this page."
	case errors.Is(err, apperrors.ErrNotificationFailed):
		message = "Your changes were saved but the notification email could not be sent."
	}
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", ctx.Request.URL.Path).Msg("Request failed")
	}
	ctx.HTML(status, "error.html", page(ctx, "Error", gin.H{"Status": status, "Message": message}))
}

// formErrors splits a service error into field messages and form-wide messages.
// ok is false when err is not a form error.
func formErrors(err error) (fields map[string]string, general []string, ok bool) {
	var fe apperrors.FieldErrors
	if !errors.As(err, &fe) {
		var single *apperrors.FieldError
		if !errors.As(err, &single) {
			return nil, nil, false
		}
		fe = apperrors.FieldErrors{single}
	}
	fields = make(map[string]string, len(fe))
	for _, e := range fe {
		if e.Field == "" {
			general = append(general, e.Message)
			continue
		}
		if _, seen := fields[e.Field]; !seen {
			fields[e.Field] = e.Message
		}
	}
	return fields, general, true
}

// safeNext returns next when it is a local path, fallback otherwise
func safeNext(next, fallback string) string {
	if next == "" || strings.ContainsAny(next, "\\\r\n\t") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(next, "//") {
		return fallback
	}
	return next
}
