package repositories_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu/unidesk/internal/app/migrations"
	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/repositories"
	"github.com/miu/unidesk/internal/app/services"
	"github.com/miu/unidesk/internal/pkg/apperrors"
)

// postgresStore connects to TEST_DATABASE_URL and applies the migrations
func postgresStore(t *testing.T) services.Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, migrations.NewMigrator(pool, zerolog.Nop()).Migrate(ctx))
	return repositories.NewRepositories(pool).Store()
}

type ballot struct {
	voter     models.Voter
	president models.Position
	secretary models.Position
	alice     models.Candidate
	carol     models.Candidate
}

// seedBallot creates rows with unique keys so runs can share a database
func seedBallot(t *testing.T, store services.Store) ballot {
	t.Helper()
	ctx := context.Background()
	tag := uuid.NewString()[:8]
	var b ballot

	b.voter = models.Voter{Name: "Brian", RegNo: "T/" + tag, Email: tag + "@voters.test", IsActive: true}
	require.NoError(t, store.Voters.Create(ctx, &b.voter))
	b.president = models.Position{Title: "Guild President " + tag}
	require.NoError(t, store.Positions.Create(ctx, &b.president))
	b.secretary = models.Position{Title: "General Secretary " + tag}
	require.NoError(t, store.Positions.Create(ctx, &b.secretary))
	b.alice = models.Candidate{Name: "Alice", Email: "alice-" + tag + "@candidates.test", PositionID: b.president.ID}
	require.NoError(t, store.Candidates.Create(ctx, &b.alice))
	b.carol = models.Candidate{Name: "Carol", Email: "carol-" + tag + "@candidates.test", PositionID: b.secretary.ID}
	require.NoError(t, store.Candidates.Create(ctx, &b.carol))

	t.Cleanup(func() {
		_ = store.Voters.Delete(ctx, b.voter.ID)
		_ = store.Positions.Delete(ctx, b.president.ID)
		_ = store.Positions.Delete(ctx, b.secretary.ID)
	})
	return b
}

func TestVoteRepository_CastBallot(t *testing.T) {
	store := postgresStore(t)
	b := seedBallot(t, store)
	ctx := context.Background()

	votes := []models.Vote{{CandidateID: b.alice.ID, PositionID: b.president.ID}}
	require.NoError(t, store.Votes.CastBallot(ctx, b.voter.ID, votes))
	assert.NotZero(t, votes[0].ID)
	assert.Equal(t, b.voter.ID, votes[0].VoterID)

	err := store.Votes.CastBallot(ctx, b.voter.ID, []models.Vote{
		{CandidateID: b.carol.ID, PositionID: b.secretary.ID},
		{CandidateID: b.alice.ID, PositionID: b.president.ID},
	})
	var already *apperrors.AlreadyVotedError
	require.True(t, errors.As(err, &already), "got %v", err)
	assert.Equal(t, b.president.ID, already.PositionID)
	assert.Equal(t, b.president.Title, already.PositionTitle)

	voted, err := store.Votes.VotedPositions(ctx, b.voter.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{b.president.ID: b.alice.ID}, voted)

	alice, err := store.Candidates.GetByID(ctx, b.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, alice.Votes)
	carol, err := store.Candidates.GetByID(ctx, b.carol.ID)
	require.NoError(t, err)
	assert.Zero(t, carol.Votes)

	voter, err := store.Voters.GetByID(ctx, b.voter.ID)
	require.NoError(t, err)
	assert.True(t, voter.HasVoted)

	assert.ErrorIs(t, store.Votes.CastBallot(ctx, b.voter.ID, nil), apperrors.ErrEmptyBallot)
	assert.ErrorIs(t, store.Votes.CastBallot(ctx, -1, votes), apperrors.ErrResourceNotFound)
}

func TestVoteRepository_ConcurrentBallotsStoreOnce(t *testing.T) {
	store := postgresStore(t)
	b := seedBallot(t, store)
	ctx := context.Background()

	const attempts = 5
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Votes.CastBallot(ctx, b.voter.ID, []models.Vote{
				{CandidateID: b.alice.ID, PositionID: b.president.ID},
			})
		}(i)
	}
	wg.Wait()

	stored := 0
	for _, err := range errs {
		if err == nil {
			stored++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrAlreadyVoted)
	}
	assert.Equal(t, 1, stored)

	alice, err := store.Candidates.GetByID(ctx, b.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, alice.Votes)
}
