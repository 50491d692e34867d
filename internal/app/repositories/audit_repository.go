package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
)

var auditColumns = []string{"id", "actor", "object_type", "object_id", "object_repr", "action", "message", "created_at"}

var auditList = listSpec{
	search: []string{"actor", "object_repr", "message"},
	filters: map[string]filterSpec{
		"object_type": {column: "object_type", kind: filterString},
		"action":      {column: "action", kind: filterString},
	},
	orderBy: []string{"created_at DESC", "id DESC"},
}

// AuditRepository stores the administrative change log
type AuditRepository struct {
	base
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{base: newBase(db)}
}

// Create appends an entry to the change log
func (r *AuditRepository) Create(ctx context.Context, e *models.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	id, err := r.insert(ctx, r.sb.Insert("audit_log").
		Columns("actor", "object_type", "object_id", "object_repr", "action", "message", "created_at").
		Values(e.Actor, e.ObjectType, e.ObjectID, truncate(e.ObjectRepr, 200), string(e.Action), e.Message, e.CreatedAt), "audit entry")
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// List returns a page of the change log, newest first
func (r *AuditRepository) List(ctx context.Context, q models.ListQuery) ([]models.AuditEntry, int64, error) {
	entries := []models.AuditEntry{}
	total, err := r.list(ctx, r.sb.Select().From("audit_log"), auditColumns, auditList, q, func(row scanner) error {
		var e models.AuditEntry
		var action string
		if err := row.Scan(&e.ID, &e.Actor, &e.ObjectType, &e.ObjectID, &e.ObjectRepr, &action, &e.Message, &e.CreatedAt); err != nil {
			return err
		}
		e.Action = models.AuditAction(action)
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
