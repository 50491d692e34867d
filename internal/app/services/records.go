package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/filestorage"
)

// records is the audited create/update/delete path shared by the admin resources
type records[T any] struct {
	repo  CRUDRepository[T]
	audit AuditService
	kind  string
	id    func(*T) int64
}

func (r records[T]) get(ctx context.Context, id int64) (*T, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %s id must be positive", apperrors.ErrValidationFailed, r.kind)
	}
	return r.repo.GetByID(ctx, id)
}

func (r records[T]) list(ctx context.Context, q models.ListQuery) ([]T, int64, error) {
	return r.repo.List(ctx, q)
}

func (r records[T]) create(ctx context.Context, item *T) error {
	if err := r.repo.Create(ctx, item); err != nil {
		return err
	}
	r.audit.Record(ctx, models.AuditAddition, r.kind, r.id(item), fmt.Sprint(item), "")
	return nil
}

func (r records[T]) update(ctx context.Context, item *T) error {
	if err := r.repo.Update(ctx, item); err != nil {
		return err
	}
	r.audit.Record(ctx, models.AuditChange, r.kind, r.id(item), fmt.Sprint(item), "")
	return nil
}

func (r records[T]) delete(ctx context.Context, id int64) error {
	item, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.audit.Record(ctx, models.AuditDeletion, r.kind, id, fmt.Sprint(item), "")
	return nil
}

// uniqueField turns a storage uniqueness error into a form error.
// fields maps the sentinel to the field name and message; errors without a
// mapping are returned unchanged.
func uniqueField(err error, fields map[error][2]string) error {
	for sentinel, fm := range fields {
		if errors.Is(err, sentinel) {
			return apperrors.FieldErrors{{Field: fm[0], Message: fm[1], Err: sentinel}}
		}
	}
	return err
}

// checkUpload rejects uploads whose type dir does not accept, as a form error on field
func checkUpload(file *multipart.FileHeader, field, dir string) error {
	if err := filestorage.CheckType(file, dir); err != nil {
		msg := fmt.Sprintf("Upload a file of one of these types: %s.", strings.Join(filestorage.Extensions(dir), ", "))
		return apperrors.FieldErrors{{Field: field, Message: msg, Err: err}}
	}
	return nil
}
