package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/dberrors"
	"github.com/miu/unidesk/internal/pkg/helpers"
	"github.com/miu/unidesk/internal/pkg/logger"
)

// ErrNotFound is shared by every repository
var ErrNotFound = apperrors.ErrResourceNotFound

// scanner is satisfied by pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

// base carries the pool and the squirrel builder every repository uses
type base struct {
	db *pgxpool.Pool
	// Use squirrel instance with placeholder format
	sb squirrel.StatementBuilderType
}

func newBase(db *pgxpool.Pool) base {
	return base{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func notFound(entity string, id interface{}) error {
	return apperrors.NewResourceNotFoundError(fmt.Sprintf("%s %v not found", entity, id))
}

// uniqueErrors maps constraint names to the error reported for them
var uniqueErrors = map[string]error{
	dberrors.FacultyShortCodeKey:   apperrors.ErrFacultyAlreadyExists,
	dberrors.SupervisorEmailKey:    apperrors.ErrEmailAlreadyExists,
	dberrors.StudentRegNoKey:       apperrors.ErrRegNoAlreadyExists,
	dberrors.TopicKey:              apperrors.ErrTopicTaken,
	dberrors.VoterEmailKey:         apperrors.ErrEmailAlreadyExists,
	dberrors.VoterRegNoKey:         apperrors.ErrRegNoAlreadyExists,
	dberrors.CandidateEmailKey:     apperrors.ErrEmailAlreadyExists,
	dberrors.VoteVoterCandidateKey: apperrors.ErrAlreadyVoted,
	dberrors.VoteVoterPositionKey:  apperrors.ErrAlreadyVoted,
}

// translateWriteError maps constraint violations onto application errors
func translateWriteError(err error, op string) error {
	for constraint, appErr := range uniqueErrors {
		if dberrors.IsDuplicateConstraintError(err, constraint) {
			return appErr
		}
	}
	if dberrors.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", apperrors.ErrResourceAlreadyExists, op)
	}
	if dberrors.IsForeignKeyError(err) {
		return fmt.Errorf("%w: %s references a record that does not exist", apperrors.ErrValidationFailed, op)
	}
	return fmt.Errorf("error %s: %w", op, err)
}

// filterKind tells how a list filter value is parsed
type filterKind int

const (
	filterInt filterKind = iota
	filterBool
	filterString
)

type filterSpec struct {
	column string
	kind   filterKind
}

// listSpec describes the search columns and filters of an admin list view
type listSpec struct {
	search  []string
	filters map[string]filterSpec
	orderBy []string
}

// apply adds the search and filter conditions of q to sel
func (s listSpec) apply(sel squirrel.SelectBuilder, q models.ListQuery) (squirrel.SelectBuilder, error) {
	if q.Search != "" && len(s.search) > 0 {
		pattern := "%" + q.Search + "%"
		or := squirrel.Or{}
		for _, col := range s.search {
			or = append(or, squirrel.ILike{col: pattern})
		}
		sel = sel.Where(or)
	}

	for key, spec := range s.filters {
		switch spec.kind {
		case filterInt:
			v, err := q.IntFilter(key)
			if err != nil {
				return sel, fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
			}
			if v != nil {
				sel = sel.Where(squirrel.Eq{spec.column: *v})
			}
		case filterBool:
			v, err := q.BoolFilter(key)
			if err != nil {
				return sel, fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
			}
			if v != nil {
				sel = sel.Where(squirrel.Eq{spec.column: *v})
			}
		case filterString:
			if v := q.StringFilter(key); v != nil {
				sel = sel.Where(squirrel.Eq{spec.column: *v})
			}
		}
	}
	return sel, nil
}

// list runs a filtered, paged select and its matching count.
// from must carry the FROM and JOIN clauses but no columns.
func (b base) list(ctx context.Context, from squirrel.SelectBuilder, columns []string, spec listSpec, q models.ListQuery, scan func(scanner) error) (int64, error) {
	filtered, err := spec.apply(from, q)
	if err != nil {
		return 0, err
	}

	countSQL, countArgs, err := filtered.Columns("COUNT(*)").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := b.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count query")
		return 0, fmt.Errorf("error counting rows: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(q.Page, q.Size)
	sql, args, err := filtered.Columns(columns...).
		OrderBy(spec.orderBy...).
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build list query: %w", err)
	}

	if err := b.each(ctx, sql, args, scan); err != nil {
		return 0, err
	}
	return total, nil
}

// each runs a query and calls scan once per row
func (b base) each(ctx context.Context, sql string, args []interface{}, scan func(scanner) error) error {
	rows, err := b.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list query")
		return fmt.Errorf("error querying rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}
	return nil
}

// count returns the number of rows in table
func (b base) count(ctx context.Context, table string) (int64, error) {
	sql, args, err := b.sb.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var n int64
	if err := b.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting %s: %w", table, err)
	}
	return n, nil
}

// deleteByID deletes one row and reports a missing row as not found
func (b base) deleteByID(ctx context.Context, table, entity string, id int64) error {
	sql, args, err := b.sb.Delete(table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete %s query: %w", entity, err)
	}
	tag, err := b.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("id", id).Str("table", table).Msg("Error executing delete query")
		return fmt.Errorf("error deleting %s: %w", entity, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(entity, id)
	}
	return nil
}

// exec runs an update and reports a missing row as not found
func (b base) exec(ctx context.Context, q squirrel.Sqlizer, entity string, id int64) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s query: %w", entity, err)
	}
	tag, err := b.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("id", id).Str("entity", entity).Msg("Error executing update query")
		return translateWriteError(err, "updating "+entity)
	}
	if tag.RowsAffected() == 0 {
		return notFound(entity, id)
	}
	return nil
}

// insert runs an INSERT ... RETURNING id
func (b base) insert(ctx context.Context, q squirrel.InsertBuilder, entity string) (int64, error) {
	sql, args, err := q.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create %s query: %w", entity, err)
	}
	var id int64
	if err := b.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		logger.Error().Err(err).Str("entity", entity).Msg("Error executing insert query")
		return 0, translateWriteError(err, "creating "+entity)
	}
	return id, nil
}

// one runs a single-row select; no rows means not found
func (b base) one(ctx context.Context, q squirrel.SelectBuilder, entity string, key interface{}, scan func(scanner) error) error {
	sql, args, err := q.Limit(1).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build get %s query: %w", entity, err)
	}
	if err := scan(b.db.QueryRow(ctx, sql, args...)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound(entity, key)
		}
		logger.Error().Err(err).Str("entity", entity).Msg("Error scanning row")
		return fmt.Errorf("error getting %s: %w", entity, err)
	}
	return nil
}
