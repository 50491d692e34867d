package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
)

var positionColumns = []string{"id", "title"}

var positionList = listSpec{
	search:  []string{"title"},
	orderBy: []string{"id ASC"},
}

// PositionRepository handles electable position database operations
type PositionRepository struct {
	base
}

// NewPositionRepository creates a new PositionRepository
func NewPositionRepository(db *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{base: newBase(db)}
}

func scanPosition(row scanner, p *models.Position) error {
	return row.Scan(&p.ID, &p.Title)
}

// Create inserts a position and sets its ID
func (r *PositionRepository) Create(ctx context.Context, p *models.Position) error {
	id, err := r.insert(ctx, r.sb.Insert("positions").Columns("title").Values(p.Title), "position")
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// GetByID retrieves a position by ID
func (r *PositionRepository) GetByID(ctx context.Context, id int64) (*models.Position, error) {
	p := &models.Position{}
	q := r.sb.Select(positionColumns...).From("positions").Where(squirrel.Eq{"id": id})
	if err := r.one(ctx, q, "position", id, func(row scanner) error { return scanPosition(row, p) }); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns a page of positions
func (r *PositionRepository) List(ctx context.Context, q models.ListQuery) ([]models.Position, int64, error) {
	positions := []models.Position{}
	total, err := r.list(ctx, r.sb.Select().From("positions"), positionColumns, positionList, q, func(row scanner) error {
		var p models.Position
		if err := scanPosition(row, &p); err != nil {
			return err
		}
		positions = append(positions, p)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return positions, total, nil
}

// ListAll returns every position ordered by id
func (r *PositionRepository) ListAll(ctx context.Context) ([]models.Position, error) {
	sql, args, err := r.sb.Select(positionColumns...).From("positions").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, err
	}
	positions := []models.Position{}
	err = r.each(ctx, sql, args, func(row scanner) error {
		var p models.Position
		if err := scanPosition(row, &p); err != nil {
			return err
		}
		positions = append(positions, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return positions, nil
}

// Update renames a position
func (r *PositionRepository) Update(ctx context.Context, p *models.Position) error {
	return r.exec(ctx, r.sb.Update("positions").Set("title", p.Title).Where(squirrel.Eq{"id": p.ID}), "position", p.ID)
}

// Delete removes a position with its candidates and votes
func (r *PositionRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "positions", "position", id)
}

// Count returns the number of positions
func (r *PositionRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "positions")
}
