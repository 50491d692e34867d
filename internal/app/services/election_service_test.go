package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/websocket"
)

type race struct {
	president, secretary models.Position
	alice, bob, carol    *models.Candidate
}

// candidates sets up two positions: alice and bob stand for president, carol for secretary
func (f *fixture) candidates(t *testing.T) race {
	t.Helper()
	ctx := context.Background()
	var r race
	president, err := f.election.CreatePosition(ctx, dto.PositionRequest{Title: "Guild President"})
	require.NoError(t, err)
	secretary, err := f.election.CreatePosition(ctx, dto.PositionRequest{Title: "General Secretary"})
	require.NoError(t, err)
	r.president, r.secretary = *president, *secretary

	r.alice, err = f.election.CreateCandidate(ctx, dto.CandidateRequest{Name: "Alice", Email: "alice@miu.ac.ug", PositionID: president.ID})
	require.NoError(t, err)
	r.bob, err = f.election.CreateCandidate(ctx, dto.CandidateRequest{Name: "Bob", Email: "bob@miu.ac.ug", PositionID: president.ID})
	require.NoError(t, err)
	r.carol, err = f.election.CreateCandidate(ctx, dto.CandidateRequest{Name: "Carol", Email: "carol@miu.ac.ug", PositionID: secretary.ID})
	require.NoError(t, err)
	return r
}

func tallyOf(t *testing.T, tallies []dto.PositionTally, candidateID int64) int64 {
	t.Helper()
	for _, pt := range tallies {
		for _, c := range pt.Candidates {
			if c.ID == candidateID {
				return c.VoteCount
			}
		}
	}
	t.Fatalf("candidate %d not in tallies", candidateID)
	return 0
}

func TestElectionService_CastBallot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.candidates(t)
	voter := f.voter(t, "2022/BCS/100", "secret1")

	err := f.election.CastBallot(ctx, voter.ID, map[int64]int64{
		r.president.ID: r.alice.ID,
		r.secretary.ID: r.carol.ID,
	})
	require.NoError(t, err)

	home, err := f.election.Home(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, tallyOf(t, home.Positions, r.alice.ID))
	assert.EqualValues(t, 0, tallyOf(t, home.Positions, r.bob.ID))
	assert.EqualValues(t, 1, tallyOf(t, home.Positions, r.carol.ID))

	stored, err := f.store.Voters.GetByID(ctx, voter.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasVoted)

	assert.Equal(t, []string{websocket.EventVoteCast}, f.publisher.types())
	event, ok := f.publisher.events[0].Payload.(dto.VoteCastEvent)
	require.True(t, ok)
	assert.Equal(t, voter.ID, event.VoterID)
	assert.Len(t, event.Tallies, 2)

	ballot, err := f.election.BallotFor(ctx, voter.ID)
	require.NoError(t, err)
	require.Len(t, ballot.Positions, 2)
	for _, bp := range ballot.Positions {
		require.NotNil(t, bp.VotedFor)
	}
}

func TestElectionService_SecondVoteForPositionIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.candidates(t)
	voter := f.voter(t, "2022/BCS/101", "secret1")

	require.NoError(t, f.election.CastBallot(ctx, voter.ID, map[int64]int64{r.president.ID: r.alice.ID}))

	err := f.election.CastBallot(ctx, voter.ID, map[int64]int64{r.president.ID: r.bob.ID})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyVoted)
	var already *apperrors.AlreadyVotedError
	require.True(t, errors.As(err, &already))
	assert.Equal(t, "You have already voted for the position: Guild President.", already.Error())

	votes, total, err := f.election.ListVotes(ctx, models.ListQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, r.alice.ID, votes[0].CandidateID)
}

func TestElectionService_BallotIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.candidates(t)
	voter := f.voter(t, "2022/BCS/102", "secret1")

	require.NoError(t, f.election.CastBallot(ctx, voter.ID, map[int64]int64{r.president.ID: r.alice.ID}))

	// secretary is new but president repeats, so nothing is stored
	err := f.election.CastBallot(ctx, voter.ID, map[int64]int64{
		r.president.ID: r.bob.ID,
		r.secretary.ID: r.carol.ID,
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyVoted)

	home, err := f.election.Home(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, tallyOf(t, home.Positions, r.carol.ID))
	assert.EqualValues(t, 0, tallyOf(t, home.Positions, r.bob.ID))

	ballot, err := f.election.BallotFor(ctx, voter.ID)
	require.NoError(t, err)
	for _, bp := range ballot.Positions {
		if bp.Position.ID == r.secretary.ID {
			assert.Nil(t, bp.VotedFor)
		} else {
			require.NotNil(t, bp.VotedFor)
			assert.Equal(t, r.alice.ID, *bp.VotedFor)
		}
	}
}

func TestElectionService_InvalidBallots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.candidates(t)
	voter := f.voter(t, "2022/BCS/103", "secret1")
	inactive := f.voter(t, "2022/BCS/104", "secret1", func(v *models.Voter) { v.IsActive = false })

	t.Run("empty", func(t *testing.T) {
		err := f.election.CastBallot(ctx, voter.ID, nil)
		assert.ErrorIs(t, err, apperrors.ErrEmptyBallot)
	})

	t.Run("candidate of another position", func(t *testing.T) {
		err := f.election.CastBallot(ctx, voter.ID, map[int64]int64{r.secretary.ID: r.alice.ID})
		var fe apperrors.FieldErrors
		require.True(t, errors.As(err, &fe))
		assert.Contains(t, fe.ByField(), dto.BallotField(r.secretary.ID))
	})

	t.Run("unknown candidate", func(t *testing.T) {
		err := f.election.CastBallot(ctx, voter.ID, map[int64]int64{r.president.ID: 9999})
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("inactive voter", func(t *testing.T) {
		err := f.election.CastBallot(ctx, inactive.ID, map[int64]int64{r.president.ID: r.alice.ID})
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	votes, err := f.store.Votes.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, votes)
	assert.Empty(t, f.publisher.types())
}

func TestElectionService_HomeListsEmptyPositions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.candidates(t)
	empty, err := f.election.CreatePosition(ctx, dto.PositionRequest{Title: "Treasurer"})
	require.NoError(t, err)

	home, err := f.election.Home(ctx)
	require.NoError(t, err)
	require.Len(t, home.Positions, 3)
	for _, pt := range home.Positions {
		switch pt.Position.ID {
		case empty.ID:
			assert.NotNil(t, pt.Candidates)
			assert.Empty(t, pt.Candidates)
		case r.president.ID:
			assert.Len(t, pt.Candidates, 2)
		case r.secretary.ID:
			assert.Len(t, pt.Candidates, 1)
		}
	}
	assert.NotZero(t, home.Year)
}

func TestElectionService_DeleteVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.candidates(t)
	voter := f.voter(t, "2022/BCS/105", "secret1")
	require.NoError(t, f.election.CastBallot(ctx, voter.ID, map[int64]int64{r.president.ID: r.alice.ID}))

	votes, _, err := f.election.ListVotes(ctx, models.ListQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, votes, 1)

	require.NoError(t, f.election.DeleteVote(ctx, votes[0].ID))

	alice, err := f.election.GetCandidate(ctx, r.alice.ID)
	require.NoError(t, err)
	assert.Zero(t, alice.Votes)
	assert.Zero(t, alice.VoteCount)

	stored, err := f.store.Voters.GetByID(ctx, voter.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasVoted)

	// the voter may vote for the position again
	require.NoError(t, f.election.CastBallot(ctx, voter.ID, map[int64]int64{r.president.ID: r.bob.ID}))
}

func TestElectionService_Results(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.candidates(t)
	first := f.voter(t, "2022/BCS/106", "secret1")
	second := f.voter(t, "2022/BCS/107", "secret1")
	f.voter(t, "2022/BCS/108", "secret1")

	require.NoError(t, f.election.CastBallot(ctx, first.ID, map[int64]int64{r.president.ID: r.alice.ID, r.secretary.ID: r.carol.ID}))
	require.NoError(t, f.election.CastBallot(ctx, second.ID, map[int64]int64{r.president.ID: r.alice.ID}))

	results, err := f.election.Results(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, results.RegisteredVoters)
	assert.EqualValues(t, 3, results.TotalVotes)
}
