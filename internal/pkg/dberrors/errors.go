package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn" // Import pgconn for PgError
)

// Constraint names declared by the migrations
const (
	FacultyShortCodeKey   = "faculties_short_code_key"
	SupervisorEmailKey    = "supervisors_email_key"
	StudentRegNoKey       = "students_reg_no_key"
	TopicKey              = "research_topics_topic_key"
	VoterEmailKey         = "voters_email_key"
	VoterRegNoKey         = "voters_reg_no_key"
	CandidateEmailKey     = "candidates_email_key"
	VoteVoterCandidateKey = "votes_voter_id_candidate_id_key"
	VoteVoterPositionKey  = "votes_voter_id_position_id_key"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraintName
}

// IsDuplicateKeyError checks for any unique violation.
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsForeignKeyError checks for a foreign key violation, e.g. a course pointing at a missing faculty.
func IsForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
