package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// Portal selects the backend chain a login form is checked against
type Portal string

const (
	PortalElection Portal = "election"
	PortalResearch Portal = "research"
	PortalAdmin    Portal = "admin"
)

// MsgInvalidLogin is the message every failed login shows
const MsgInvalidLogin = "Invalid registration number or password."

// StudentBackend authenticates research students by registration number
func StudentBackend(repo StudentRepository) auth.Backend {
	return auth.BackendFunc(func(ctx context.Context, creds auth.Credentials) (*auth.Identity, error) {
		student, err := repo.GetByRegNo(ctx, creds.Identifier)
		if err != nil {
			if errors.Is(err, apperrors.ErrResourceNotFound) {
				return nil, nil
			}
			return nil, err
		}
		if !auth.CheckPassword(student.PasswordHash, creds.Password) {
			return nil, nil
		}
		return studentIdentity(student), nil
	})
}

// VoterRegNoBackend authenticates voters by registration number.
// Inactive voters never authenticate.
func VoterRegNoBackend(repo VoterRepository) auth.Backend {
	return voterBackend(repo.GetByRegNo)
}

// VoterEmailBackend authenticates voters by email address
func VoterEmailBackend(repo VoterRepository) auth.Backend {
	return voterBackend(repo.GetByEmail)
}

func voterBackend(lookup func(ctx context.Context, key string) (*models.Voter, error)) auth.Backend {
	return auth.BackendFunc(func(ctx context.Context, creds auth.Credentials) (*auth.Identity, error) {
		voter, err := lookup(ctx, creds.Identifier)
		if err != nil {
			if errors.Is(err, apperrors.ErrResourceNotFound) {
				return nil, nil
			}
			return nil, err
		}
		if !voter.IsActive || !auth.CheckPassword(voter.PasswordHash, creds.Password) {
			return nil, nil
		}
		return voterIdentity(voter), nil
	})
}

func studentIdentity(s *models.Student) *auth.Identity {
	return &auth.Identity{Kind: auth.KindStudent, ID: s.ID, Name: s.Name, RegNo: s.RegNo, Email: s.Email}
}

func voterIdentity(v *models.Voter) *auth.Identity {
	return &auth.Identity{Kind: auth.KindVoter, ID: v.ID, Name: v.Name, RegNo: v.RegNo, Email: v.Email, IsStaff: v.IsStaff}
}

// AuthService logs accounts into the portals and restores session identities
type AuthService interface {
	// Login checks the form against the portal's chain and signs a session token
	Login(ctx context.Context, portal Portal, form dto.LoginForm) (*auth.Identity, string, time.Time, error)
	// Session validates a session token and reloads its identity
	Session(ctx context.Context, token string) (*auth.Identity, error)
	// Identity loads the current state of an account
	Identity(ctx context.Context, kind auth.Kind, id int64) (*auth.Identity, error)
}

type authServiceImpl struct {
	chains   map[Portal]auth.Chain
	students StudentRepository
	voters   VoterRepository
	jwt      *auth.JWTService
	logger   zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(students StudentRepository, voters VoterRepository, jwtService *auth.JWTService, logger zerolog.Logger) AuthService {
	election := auth.Chain{VoterRegNoBackend(voters), VoterEmailBackend(voters)}
	return &authServiceImpl{
		chains: map[Portal]auth.Chain{
			PortalElection: election,
			PortalResearch: {StudentBackend(students)},
			PortalAdmin:    election,
		},
		students: students,
		voters:   voters,
		jwt:      jwtService,
		logger:   logger,
	}
}

func (s *authServiceImpl) Login(ctx context.Context, portal Portal, form dto.LoginForm) (*auth.Identity, string, time.Time, error) {
	chain, ok := s.chains[portal]
	if !ok {
		return nil, "", time.Time{}, fmt.Errorf("unknown portal %q", portal)
	}
	creds := auth.Credentials{Identifier: strings.TrimSpace(form.RegNo), Password: form.Password}
	if creds.Identifier == "" || creds.Password == "" {
		return nil, "", time.Time{}, apperrors.FieldErrors{{Message: MsgInvalidLogin, Err: apperrors.ErrInvalidCredentials}}
	}

	id, err := chain.Authenticate(ctx, creds)
	if err != nil {
		if errors.Is(err, auth.ErrNoIdentity) {
			s.logger.Info().Str("portal", string(portal)).Str("identifier", creds.Identifier).Msg("Login failed")
			return nil, "", time.Time{}, apperrors.FieldErrors{{Message: MsgInvalidLogin, Err: apperrors.ErrInvalidCredentials}}
		}
		return nil, "", time.Time{}, err
	}
	if portal == PortalAdmin && !id.IsStaff {
		s.logger.Warn().Str("regNo", id.RegNo).Msg("Non-staff account tried the admin login")
		return nil, "", time.Time{}, apperrors.FieldErrors{{
			Message: "Please enter the correct registration number and password for a staff account.",
			Err:     apperrors.ErrPermissionDenied,
		}}
	}

	token, expires, err := s.jwt.GenerateToken(id)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	s.logger.Info().Str("portal", string(portal)).Str("kind", string(id.Kind)).Int64("id", id.ID).Msg("Login succeeded")
	return id, token, expires, nil
}

func (s *authServiceImpl) Session(ctx context.Context, token string) (*auth.Identity, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return s.Identity(ctx, claims.Kind, claims.UserID)
}

func (s *authServiceImpl) Identity(ctx context.Context, kind auth.Kind, id int64) (*auth.Identity, error) {
	switch kind {
	case auth.KindStudent:
		student, err := s.students.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return studentIdentity(student), nil
	case auth.KindVoter:
		voter, err := s.voters.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !voter.IsActive {
			return nil, apperrors.ErrAccountDisabled
		}
		return voterIdentity(voter), nil
	}
	return nil, fmt.Errorf("%w: unknown account kind %q", auth.ErrInvalidToken, kind)
}
