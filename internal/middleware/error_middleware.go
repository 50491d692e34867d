package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/auth"
)

// --- Central Error Handling Middleware/Function ---

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	status, detail := APIError(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	} else {
		detail.WithSeverity(dto.ErrorSeverityWarning)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

// APIError maps an error onto a status code and error detail
func APIError(err error) (int, *dto.ErrorDetail) {
	var fieldErrs apperrors.FieldErrors
	var verrs validator.ValidationErrors
	var already *apperrors.AlreadyVotedError
	var custom *apperrors.CustomError

	switch {
	case errors.As(err, &already):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeAlreadyVoted, already.Error()).
			WithDetails(map[string]interface{}{"positionId": already.PositionID})
	case errors.As(err, &fieldErrs):
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
			WithDetails(fieldErrs.ByField())
		if len(fieldErrs) == 1 {
			detail.Field = fieldErrs[0].Field
			detail.Message = fieldErrs[0].Message
		}
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) || errors.Is(err, apperrors.ErrRegNoAlreadyExists) ||
			errors.Is(err, apperrors.ErrTopicTaken) || errors.Is(err, apperrors.ErrFacultyAlreadyExists) {
			detail.Code = dto.ErrorCodeResourceAlreadyExists
			return http.StatusConflict, detail
		}
		return http.StatusBadRequest, detail
	case errors.As(err, &verrs):
		return http.StatusBadRequest, dto.HandleValidationError(err)
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		msg := "Permission denied"
		if errors.As(err, &custom) {
			msg = custom.Message
		}
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, msg)
	case errors.Is(err, apperrors.ErrInvalidCredentials), errors.Is(err, auth.ErrNoIdentity):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, apperrors.ErrAccountDisabled):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeAccountDisabled, "Account is disabled")
	case errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrEmailAlreadyExists), errors.Is(err, apperrors.ErrRegNoAlreadyExists),
		errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, err.Error())
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrEmptyBallot):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())
	case errors.Is(err, apperrors.ErrNotificationFailed):
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeExternalServiceError,
			"The record was saved but the notification email could not be sent")
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}
