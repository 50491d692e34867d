package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/db"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/dberrors"
	"github.com/miu/unidesk/internal/pkg/logger"
)

var voteColumns = []string{
	"v.id", "v.voter_id", "v.candidate_id", "v.position_id", "v.created_at",
	"vo.name", "vo.reg_no", "c.name", "p.title",
}

var voteList = listSpec{
	search: []string{"vo.name", "vo.reg_no", "c.name", "p.title"},
	filters: map[string]filterSpec{
		"candidate": {column: "v.candidate_id", kind: filterInt},
		"position":  {column: "v.position_id", kind: filterInt},
		"voter":     {column: "v.voter_id", kind: filterInt},
	},
	orderBy: []string{"v.created_at DESC", "v.id DESC"},
}

// VoteRepository handles vote database operations
type VoteRepository struct {
	base
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(db *pgxpool.Pool) *VoteRepository {
	return &VoteRepository{base: newBase(db)}
}

func (r *VoteRepository) from() squirrel.SelectBuilder {
	return r.sb.Select().From("votes v").
		Join("voters vo ON vo.id = v.voter_id").
		Join("candidates c ON c.id = v.candidate_id").
		Join("positions p ON p.id = v.position_id")
}

func scanVote(row scanner, v *models.Vote) error {
	v.Voter = &models.Voter{}
	v.Candidate = &models.Candidate{}
	v.Position = &models.Position{}
	if err := row.Scan(&v.ID, &v.VoterID, &v.CandidateID, &v.PositionID, &v.CreatedAt,
		&v.Voter.Name, &v.Voter.RegNo, &v.Candidate.Name, &v.Position.Title); err != nil {
		return err
	}
	v.Voter.ID = v.VoterID
	v.Candidate.ID = v.CandidateID
	v.Candidate.PositionID = v.PositionID
	v.Position.ID = v.PositionID
	return nil
}

// CastBallot stores one ballot in a single transaction. The voter row is locked
// first so concurrent ballots from the same voter are serialized.
func (r *VoteRepository) CastBallot(ctx context.Context, voterID int64, votes []models.Vote) error {
	if len(votes) == 0 {
		return apperrors.ErrEmptyBallot
	}

	ordered := make([]models.Vote, len(votes))
	copy(ordered, votes)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].PositionID < ordered[j].PositionID })

	positionIDs := make([]int64, len(ordered))
	for i, v := range ordered {
		positionIDs[i] = v.PositionID
	}

	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Select("id").From("voters").Where(squirrel.Eq{"id": voterID}).Suffix("FOR UPDATE").ToSql()
		if err != nil {
			return err
		}
		var locked int64
		if err := tx.QueryRow(ctx, sql, args...).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return notFound("voter", voterID)
			}
			return fmt.Errorf("error locking voter: %w", err)
		}

		// Reject the whole ballot on the lowest position already voted for
		sql, args, err = r.sb.Select("v.position_id", "p.title").
			From("votes v").
			Join("positions p ON p.id = v.position_id").
			Where(squirrel.Eq{"v.voter_id": voterID, "v.position_id": positionIDs}).
			OrderBy("v.position_id ASC").
			Limit(1).
			ToSql()
		if err != nil {
			return err
		}
		dup := &apperrors.AlreadyVotedError{}
		err = tx.QueryRow(ctx, sql, args...).Scan(&dup.PositionID, &dup.PositionTitle)
		switch {
		case err == nil:
			return dup
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("error checking existing votes: %w", err)
		}

		now := time.Now().UTC()
		for i := range ordered {
			v := &ordered[i]
			sql, args, err := r.sb.Insert("votes").
				Columns("voter_id", "candidate_id", "position_id", "created_at").
				Values(voterID, v.CandidateID, v.PositionID, now).
				Suffix("RETURNING id").
				ToSql()
			if err != nil {
				return err
			}
			if err := tx.QueryRow(ctx, sql, args...).Scan(&v.ID); err != nil {
				if dberrors.IsDuplicateConstraintError(err, dberrors.VoteVoterPositionKey) ||
					dberrors.IsDuplicateConstraintError(err, dberrors.VoteVoterCandidateKey) {
					return &apperrors.AlreadyVotedError{PositionID: v.PositionID}
				}
				logger.Error().Err(err).Int64("voter_id", voterID).Int64("position_id", v.PositionID).Msg("Error inserting vote")
				return translateWriteError(err, "casting vote")
			}
			v.VoterID = voterID
			v.CreatedAt = now

			sql, args, err = r.sb.Update("candidates").
				Set("votes", squirrel.Expr("votes + 1")).
				Where(squirrel.Eq{"id": v.CandidateID}).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, sql, args...); err != nil {
				return fmt.Errorf("error incrementing candidate tally: %w", err)
			}
		}

		sql, args, err = r.sb.Update("voters").Set("has_voted", true).Where(squirrel.Eq{"id": voterID}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error marking voter as voted: %w", err)
		}

		copy(votes, orderedBack(votes, ordered))
		return nil
	})
}

// orderedBack returns the stored votes in the caller's original order
func orderedBack(original, stored []models.Vote) []models.Vote {
	byPosition := make(map[int64]models.Vote, len(stored))
	for _, v := range stored {
		byPosition[v.PositionID] = v
	}
	out := make([]models.Vote, len(original))
	for i, v := range original {
		out[i] = byPosition[v.PositionID]
	}
	return out
}

// VotedPositions maps position id to candidate id for every vote the voter holds
func (r *VoteRepository) VotedPositions(ctx context.Context, voterID int64) (map[int64]int64, error) {
	sql, args, err := r.sb.Select("position_id", "candidate_id").From("votes").
		Where(squirrel.Eq{"voter_id": voterID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	voted := make(map[int64]int64)
	err = r.each(ctx, sql, args, func(row scanner) error {
		var positionID, candidateID int64
		if err := row.Scan(&positionID, &candidateID); err != nil {
			return err
		}
		voted[positionID] = candidateID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voted, nil
}

// GetByID retrieves a vote with voter, candidate and position names
func (r *VoteRepository) GetByID(ctx context.Context, id int64) (*models.Vote, error) {
	v := &models.Vote{}
	q := r.from().Columns(voteColumns...).Where(squirrel.Eq{"v.id": id})
	if err := r.one(ctx, q, "vote", id, func(row scanner) error { return scanVote(row, v) }); err != nil {
		return nil, err
	}
	return v, nil
}

// List returns a page of votes, newest first
func (r *VoteRepository) List(ctx context.Context, q models.ListQuery) ([]models.Vote, int64, error) {
	votes := []models.Vote{}
	total, err := r.list(ctx, r.from(), voteColumns, voteList, q, func(row scanner) error {
		var v models.Vote
		if err := scanVote(row, &v); err != nil {
			return err
		}
		votes = append(votes, v)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

// Delete removes a vote, takes it off the candidate's tally and clears the
// voter's has_voted flag once they hold no votes.
func (r *VoteRepository) Delete(ctx context.Context, id int64) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Delete("votes").Where(squirrel.Eq{"id": id}).Suffix("RETURNING voter_id, candidate_id").ToSql()
		if err != nil {
			return err
		}
		var voterID, candidateID int64
		if err := tx.QueryRow(ctx, sql, args...).Scan(&voterID, &candidateID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return notFound("vote", id)
			}
			return fmt.Errorf("error deleting vote: %w", err)
		}

		sql, args, err = r.sb.Update("candidates").
			Set("votes", squirrel.Expr("GREATEST(votes - 1, 0)")).
			Where(squirrel.Eq{"id": candidateID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error decrementing candidate tally: %w", err)
		}

		sql, args, err = r.sb.Update("voters").
			Set("has_voted", squirrel.Expr("EXISTS (SELECT 1 FROM votes WHERE voter_id = ?)", voterID)).
			Where(squirrel.Eq{"id": voterID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error updating voter status: %w", err)
		}
		return nil
	})
}

// Count returns the number of votes
func (r *VoteRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "votes")
}
