package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/pkg/apperrors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator. It reads the same `binding` tags gin does,
// so services validate exactly what the controllers bind.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")
		validate.RegisterTagNameFunc(fieldName)
	})
	return validate
}

// RegisterGin makes gin report the same field names as Validator
func RegisterGin() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
	}
}

// Struct validates obj and returns apperrors.FieldErrors on failure
func Struct(obj interface{}) error {
	if err := Validator().Struct(obj); err != nil {
		return ToFieldErrors(err)
	}
	return nil
}

// ToFieldErrors converts validator output into apperrors.FieldErrors.
// Other errors are wrapped in ErrValidationFailed.
func ToFieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.FieldErrors{apperrors.NewFieldError("", err.Error())}
	}
	out := make(apperrors.FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperrors.NewFieldError(fe.Field(), dto.ValidationMessage(fe)))
	}
	return out
}

// fieldName prefers the form tag, then the json tag, then the Go name
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}
