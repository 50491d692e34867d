package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/repositories/inmem"
	"github.com/miu/unidesk/internal/app/services"
	"github.com/miu/unidesk/internal/pkg/email"
	"github.com/miu/unidesk/internal/pkg/metrics"
)

type fixture struct {
	cli    *commandLine
	store  services.Store
	mailer *email.MemoryMailer
	seeded int
}

func setup(t *testing.T) *fixture {
	t.Helper()
	lgr := zerolog.Nop()
	store := inmem.New().Store()
	mailer := email.NewMemoryMailer()
	notifications, err := services.NewNotificationService(mailer, "Test University", metrics.New(), lgr)
	require.NoError(t, err)
	audit := services.NewAuditService(store.Audit, lgr)

	f := &fixture{store: store, mailer: mailer}
	f.cli = &commandLine{
		voters:   services.NewVoterService(store.Voters, notifications, audit, nil, lgr),
		students: services.NewStudentService(store.Students, notifications, audit, nil, nil, lgr),
		seed: func(context.Context) error {
			f.seeded++
			return nil
		},
		out: &bytes.Buffer{},
	}
	return f
}

func mockPassword(t *testing.T, pwd string) {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func Test_commandLine_usage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: []string{"manage"}},
		{name: "unknown command", args: []string{"manage", "lol"}},
		{name: "createstaff: no regno", args: []string{"manage", "createstaff", "-email", "a@b.c"}},
		{name: "resetpassword: no regno", args: []string{"manage", "resetpassword"}},
		{name: "createstaff: unknown flag", args: []string{"manage", "createstaff", "-lol"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, f.cli.run(ctx, tt.args), errHelp)
		})
	}
}

func Test_commandLine_createstaff(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("empty password", func(t *testing.T) {
		mockPassword(t, "")
		err := f.cli.run(ctx, []string{"manage", "createstaff", "-regno", "STAFF/1", "-email", "staff@miu.ac.ug", "-name", "Staff One"})
		assert.ErrorIs(t, err, errHelp)
	})

	t.Run("creates a staff voter", func(t *testing.T) {
		mockPassword(t, "s3cret-pass")
		err := f.cli.run(ctx, []string{"manage", "createstaff", "-regno", "STAFF/1", "-email", "staff@miu.ac.ug", "-name", "Staff One"})
		require.NoError(t, err)

		voter, err := f.store.Voters.GetByRegNo(ctx, "STAFF/1")
		require.NoError(t, err)
		assert.True(t, voter.IsStaff)
		assert.True(t, voter.IsActive)
		assert.NotEqual(t, "s3cret-pass", voter.PasswordHash)
		assert.Empty(t, f.mailer.Sent(), "staff accounts are not mailed")
	})

	t.Run("promotes an existing voter", func(t *testing.T) {
		require.NoError(t, f.store.Voters.Create(ctx, &models.Voter{
			Name: "Jane Voter", Email: "jane@miu.ac.ug", RegNo: "2020/BIT/001", IsActive: true,
		}))
		mockPassword(t, "another-pass")
		require.NoError(t, f.cli.run(ctx, []string{"manage", "createstaff", "-regno", "2020/BIT/001"}))

		voter, err := f.store.Voters.GetByRegNo(ctx, "2020/BIT/001")
		require.NoError(t, err)
		assert.True(t, voter.IsStaff)
		assert.Equal(t, "Jane Voter", voter.Name)
	})
}

func Test_commandLine_resetpassword(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.store.Voters.Create(ctx, &models.Voter{
		Name: "Jane Voter", Email: "jane@miu.ac.ug", RegNo: "2020/BIT/001", PasswordHash: "old", IsActive: true,
	}))

	require.NoError(t, f.cli.run(ctx, []string{"manage", "resetpassword", "-regno", "2020/BIT/001"}))

	voter, err := f.store.Voters.GetByRegNo(ctx, "2020/BIT/001")
	require.NoError(t, err)
	assert.NotEqual(t, "old", voter.PasswordHash)
	assert.Len(t, f.mailer.SentTo("jane@miu.ac.ug"), 1)

	err = f.cli.run(ctx, []string{"manage", "resetpassword", "-regno", "nobody"})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, errHelp))
}

func Test_commandLine_migrateAndSeed(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// memory driver
	require.NoError(t, f.cli.run(ctx, []string{"manage", "migrate"}))

	migrated := 0
	f.cli.migrate = func(context.Context) error { migrated++; return nil }
	f.cli.pending = func(context.Context) ([]string, error) { return []string{"001_research.sql"}, nil }
	require.NoError(t, f.cli.run(ctx, []string{"manage", "migrate"}))
	assert.Equal(t, 1, migrated)

	require.NoError(t, f.cli.run(ctx, []string{"manage", "migrate", "-list"}))
	assert.Equal(t, 1, migrated)
	assert.Contains(t, f.cli.out.(*bytes.Buffer).String(), "001_research.sql")

	require.NoError(t, f.cli.run(ctx, []string{"manage", "seed"}))
	assert.Equal(t, 1, f.seeded)
}
