package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/validation"
)

// BindJSON decodes and validates the request body into obj.
// On failure the error response is written and false is returned.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			err = apperrors.NewBadRequestError("Malformed JSON body")
		}
		HandleAPIError(c, err)
		return false
	}
	return true
}

// BindForm decodes a form-encoded or multipart body into obj.
// Validation errors are returned as apperrors.FieldErrors for re-rendering.
func BindForm(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBind(obj); err != nil {
		return validation.ToFieldErrors(err)
	}
	return nil
}
