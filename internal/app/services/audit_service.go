package services

import (
	"context"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// AuditService keeps the administrative change log
type AuditService interface {
	// Record appends an entry. Failures are logged, never returned.
	Record(ctx context.Context, action models.AuditAction, objectType string, objectID int64, repr, message string)
	List(ctx context.Context, q models.ListQuery) ([]models.AuditEntry, int64, error)
}

type auditServiceImpl struct {
	repo   AuditRepository
	logger zerolog.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo AuditRepository, logger zerolog.Logger) AuditService {
	return &auditServiceImpl{repo: repo, logger: logger}
}

func (s *auditServiceImpl) Record(ctx context.Context, action models.AuditAction, objectType string, objectID int64, repr, message string) {
	entry := &models.AuditEntry{
		Actor:      auth.IdentityFrom(ctx).Actor(),
		ObjectType: objectType,
		ObjectID:   objectID,
		ObjectRepr: repr,
		Action:     action,
		Message:    message,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn().Err(err).
			Str("objectType", objectType).
			Int64("objectId", objectID).
			Msg("Failed to write audit entry")
	}
}

func (s *auditServiceImpl) List(ctx context.Context, q models.ListQuery) ([]models.AuditEntry, int64, error) {
	return s.repo.List(ctx, q)
}
