package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu/unidesk/internal/pkg/apperrors"
)

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"", "/vote/"},
		{"/results/", "/results/"},
		{"/research/?tab=files", "/research/?tab=files"},
		{"//evil.example", "/vote/"},
		{`/\evil.example`, "/vote/"},
		{`\\evil.example`, "/vote/"},
		{"/\r\nSet-Cookie: x=1", "/vote/"},
		{"http://evil.example/", "/vote/"},
		{"javascript:alert(1)", "/vote/"},
		{"results/", "/vote/"},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			assert.Equal(t, tt.want, safeNext(tt.next, "/vote/"))
		})
	}
}

func TestFormErrors(t *testing.T) {
	fields, general, ok := formErrors(apperrors.FieldErrors{
		apperrors.NewFieldError("", "Invalid registration number or password."),
		apperrors.NewFieldError("reg_no", "This field is required."),
		apperrors.NewFieldError("reg_no", "Ensure this value has at most 50 characters."),
	})
	require.True(t, ok)
	assert.Equal(t, map[string]string{"reg_no": "This field is required."}, fields)
	assert.Equal(t, []string{"Invalid registration number or password."}, general)

	_, _, ok = formErrors(assert.AnError)
	assert.False(t, ok)
}
