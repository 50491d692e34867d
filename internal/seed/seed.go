package seed

import (
	"context"
	"errors"

	appModels "github.com/miu/unidesk/internal/app/models"
	appServices "github.com/miu/unidesk/internal/app/services"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// Admin is the staff account created when no staff voter exists
type Admin struct {
	RegNo    string
	Email    string
	Password string
}

var defaultFaculties = []struct {
	faculty appModels.Faculty
	courses []string
}{
	{
		faculty: appModels.Faculty{Name: "Faculty of Science and Technology", ShortCode: "FST", Email: "fst@localhost"},
		courses: []string{"Computer Science", "Information Technology"},
	},
	{
		faculty: appModels.Faculty{Name: "Faculty of Business and Management", ShortCode: "FBM", Email: "fbm@localhost"},
		courses: []string{"Business Administration", "Accounting and Finance"},
	},
}

var defaultPositions = []string{"Guild President", "Vice President", "General Secretary"}

// CreateDefaultData creates faculties, courses, positions and a staff account
// on an empty store. Tables that already hold rows are left alone.
func CreateDefaultData(ctx context.Context, store appServices.Store, admin Admin, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data...")
	var finalErr error // To collect potential errors without stopping the process

	// --- Faculties & Courses --- //
	if n, err := store.Faculties.Count(ctx); err != nil {
		finalErr = errors.Join(finalErr, err)
	} else if n == 0 {
		for _, def := range defaultFaculties {
			faculty := def.faculty
			if err := store.Faculties.Create(ctx, &faculty); err != nil {
				if !errors.Is(err, apperrors.ErrFacultyAlreadyExists) {
					lgr.Error().Err(err).Str("faculty", faculty.ShortCode).Msg("Error creating faculty")
					finalErr = errors.Join(finalErr, err)
				}
				continue
			}
			for _, name := range def.courses {
				course := &appModels.Course{Name: name, FacultyID: faculty.ID}
				if err := store.Courses.Create(ctx, course); err != nil {
					lgr.Error().Err(err).Str("course", name).Msg("Error creating course")
					finalErr = errors.Join(finalErr, err)
				}
			}
		}
		lgr.Info().Int("faculties", len(defaultFaculties)).Msg("Default faculties created")
	}

	// --- Election positions --- //
	if n, err := store.Positions.Count(ctx); err != nil {
		finalErr = errors.Join(finalErr, err)
	} else if n == 0 {
		for _, title := range defaultPositions {
			if err := store.Positions.Create(ctx, &appModels.Position{Title: title}); err != nil {
				lgr.Error().Err(err).Str("position", title).Msg("Error creating position")
				finalErr = errors.Join(finalErr, err)
			}
		}
	}

	// --- Default staff account --- //
	if err := createAdmin(ctx, store.Voters, admin, lgr); err != nil {
		finalErr = errors.Join(finalErr, err)
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr // Return collected errors, if any
}

func createAdmin(ctx context.Context, voters appServices.VoterRepository, admin Admin, lgr zerolog.Logger) error {
	if admin.Password == "" {
		lgr.Info().Msg("No admin password configured, skipping staff account creation")
		return nil
	}
	_, total, err := voters.List(ctx, appModels.ListQuery{Filters: map[string]string{"is_staff": "true"}, Page: 1, Size: 1})
	if err != nil {
		return err
	}
	if total > 0 {
		lgr.Info().Msg("Staff account already exists, skipping creation")
		return nil
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return err
	}
	staff := &appModels.Voter{
		Name:         "System Administrator",
		Email:        admin.Email,
		RegNo:        admin.RegNo,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
		HasVoted:     true,
	}
	if err := voters.Create(ctx, staff); err != nil {
		return err
	}
	lgr.Info().Int64("voterId", staff.ID).Str("regNo", staff.RegNo).Msg("Default staff account created")
	return nil
}
