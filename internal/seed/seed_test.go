package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appModels "github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/repositories/inmem"
	"github.com/miu/unidesk/internal/pkg/auth"
)

func TestCreateDefaultData(t *testing.T) {
	store := inmem.New().Store()
	ctx := context.Background()
	admin := Admin{RegNo: "admin", Email: "admin@localhost", Password: "admin-pass-1"}

	require.NoError(t, CreateDefaultData(ctx, store, admin, zerolog.Nop()))
	require.NoError(t, CreateDefaultData(ctx, store, admin, zerolog.Nop()), "second run is a no-op")

	faculties, err := store.Faculties.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(defaultFaculties), faculties)
	courses, err := store.Courses.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, courses)
	positions, err := store.Positions.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(defaultPositions), positions)

	staff, err := store.Voters.GetByRegNo(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, staff.IsStaff)
	assert.True(t, staff.HasVoted, "staff never appear as pending voters")
	assert.True(t, auth.CheckPassword(staff.PasswordHash, "admin-pass-1"))

	_, total, err := store.Voters.List(ctx, appModels.ListQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestCreateDefaultData_NoAdminPassword(t *testing.T) {
	store := inmem.New().Store()
	ctx := context.Background()

	require.NoError(t, CreateDefaultData(ctx, store, Admin{RegNo: "admin"}, zerolog.Nop()))
	n, err := store.Voters.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
