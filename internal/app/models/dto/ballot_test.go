package dto

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu/unidesk/internal/pkg/apperrors"
)

func TestParseBallot(t *testing.T) {
	form := url.Values{
		"position_1":          {"10"},
		"position_2":          {""},
		"position_3":          {"30", "31"},
		"csrfmiddlewaretoken": {"abc"},
	}
	got, err := ParseBallot(form)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 10, 3: 30}, got)
	assert.Equal(t, "position_3", BallotField(3))
}

func TestParseBallot_Empty(t *testing.T) {
	got, err := ParseBallot(url.Values{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseBallot_Malformed(t *testing.T) {
	for _, form := range []url.Values{
		{"position_x": {"1"}},
		{"position_0": {"1"}},
		{"position_1": {"abc"}},
		{"position_1": {"-4"}},
	} {
		_, err := ParseBallot(form)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed, "form %v", form)
	}
}
