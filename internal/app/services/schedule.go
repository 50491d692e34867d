package services

import (
	"time"

	"github.com/miu/unidesk/internal/app/models"
)

const (
	proposalAfterStart    = 30
	findingsAfterProposal = 60
	reportAfterFindings   = 30
	defenseBeforeGraduate = 60
)

// ComputeSchedule derives the research deadlines from a start date.
// The defense date is only set when a graduation date is known.
func ComputeSchedule(start time.Time, graduation *time.Time) models.Schedule {
	start = models.DateOnly(start)
	proposal := start.AddDate(0, 0, proposalAfterStart)
	findings := proposal.AddDate(0, 0, findingsAfterProposal)
	schedule := models.Schedule{
		Proposal: proposal,
		Findings: findings,
		Report:   findings.AddDate(0, 0, reportAfterFindings),
	}
	if graduation != nil {
		defense := models.DateOnly(*graduation).AddDate(0, 0, -defenseBeforeGraduate)
		schedule.Defense = &defense
	}
	return schedule
}
