package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu/unidesk/internal/app/services"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeSchedule(t *testing.T) {
	tests := []struct {
		name       string
		start      time.Time
		graduation *time.Time
		proposal   string
		findings   string
		report     string
		defense    string
	}{
		{
			name:     "leap year without graduation",
			start:    day("2024-01-01"),
			proposal: "2024-01-31",
			findings: "2024-03-31",
			report:   "2024-04-30",
		},
		{
			name:       "with graduation",
			start:      day("2023-09-15"),
			graduation: ptr(day("2024-12-31")),
			proposal:   "2023-10-15",
			findings:   "2023-12-14",
			report:     "2024-01-13",
			defense:    "2024-11-01",
		},
		{
			name:     "time of day is ignored",
			start:    time.Date(2023, 2, 27, 23, 45, 0, 0, time.UTC),
			proposal: "2023-03-29",
			findings: "2023-05-28",
			report:   "2023-06-27",
		},
		{
			name:       "graduation before the report",
			start:      day("2024-06-01"),
			graduation: ptr(day("2024-07-01")),
			proposal:   "2024-07-01",
			findings:   "2024-08-30",
			report:     "2024-09-29",
			defense:    "2024-05-02",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := services.ComputeSchedule(tt.start, tt.graduation)
			assert.Equal(t, day(tt.proposal), s.Proposal)
			assert.Equal(t, day(tt.findings), s.Findings)
			assert.Equal(t, day(tt.report), s.Report)
			if tt.defense == "" {
				assert.Nil(t, s.Defense)
				return
			}
			require.NotNil(t, s.Defense)
			assert.Equal(t, day(tt.defense), *s.Defense)
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
