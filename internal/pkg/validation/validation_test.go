package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu/unidesk/internal/pkg/apperrors"
)

type sample struct {
	Name  string `form:"full_name" json:"name" binding:"required,max=5"`
	Email string `json:"email" binding:"omitempty,email"`
	Code  string `binding:"omitempty,len=4,numeric"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(sample{Name: "Ann", Email: "ann@miu.ac.ug", Code: "2024"}))

	err := Struct(sample{Name: "Annabelle", Email: "nope", Code: "20a4"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	var fe apperrors.FieldErrors
	require.True(t, errors.As(err, &fe))
	fields := fe.ByField()
	assert.Equal(t, "Ensure this value has at most 5 characters.", fields["full_name"])
	assert.Equal(t, "Enter a valid email address.", fields["email"])
	assert.Equal(t, "Enter a whole number.", fields["Code"])
}

func TestStructRequired(t *testing.T) {
	var fe apperrors.FieldErrors
	require.True(t, errors.As(Struct(sample{}), &fe))
	assert.Equal(t, map[string]string{"full_name": "This field is required."}, fe.ByField())
}

func TestToFieldErrorsWrapsOtherErrors(t *testing.T) {
	err := ToFieldErrors(errors.New("EOF"))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	var fe apperrors.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "EOF", fe.ByField()[""])
}
