package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
)

var candidateColumns = []string{
	"c.id", "c.name", "c.email", "c.phone", "c.position_id", "c.votes", "c.image_url",
	"p.title",
	"(SELECT COUNT(*) FROM votes v WHERE v.candidate_id = c.id)",
}

var candidateList = listSpec{
	search: []string{"c.name", "c.email", "p.title"},
	filters: map[string]filterSpec{
		"position": {column: "c.position_id", kind: filterInt},
	},
	orderBy: []string{"c.position_id ASC", "c.id ASC"},
}

// CandidateRepository handles candidate database operations
type CandidateRepository struct {
	base
}

// NewCandidateRepository creates a new CandidateRepository
func NewCandidateRepository(db *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{base: newBase(db)}
}

func (r *CandidateRepository) from() squirrel.SelectBuilder {
	return r.sb.Select().From("candidates c").Join("positions p ON p.id = c.position_id")
}

func scanCandidate(row scanner, c *models.Candidate) error {
	c.Position = &models.Position{}
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.PositionID, &c.Votes, &c.ImageURL,
		&c.Position.Title, &c.VoteCount); err != nil {
		return err
	}
	c.Position.ID = c.PositionID
	return nil
}

// Create inserts a candidate and sets its ID
func (r *CandidateRepository) Create(ctx context.Context, c *models.Candidate) error {
	id, err := r.insert(ctx, r.sb.Insert("candidates").
		Columns("name", "email", "phone", "position_id", "votes", "image_url").
		Values(c.Name, c.Email, c.Phone, c.PositionID, c.Votes, c.ImageURL), "candidate")
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// GetByID retrieves a candidate with its position and vote count
func (r *CandidateRepository) GetByID(ctx context.Context, id int64) (*models.Candidate, error) {
	c := &models.Candidate{}
	q := r.from().Columns(candidateColumns...).Where(squirrel.Eq{"c.id": id})
	if err := r.one(ctx, q, "candidate", id, func(row scanner) error { return scanCandidate(row, c) }); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns a page of candidates
func (r *CandidateRepository) List(ctx context.Context, q models.ListQuery) ([]models.Candidate, int64, error) {
	candidates := []models.Candidate{}
	total, err := r.list(ctx, r.from(), candidateColumns, candidateList, q, func(row scanner) error {
		var c models.Candidate
		if err := scanCandidate(row, &c); err != nil {
			return err
		}
		candidates = append(candidates, c)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return candidates, total, nil
}

// ListWithVotes returns every candidate ordered by position then id
func (r *CandidateRepository) ListWithVotes(ctx context.Context) ([]models.Candidate, error) {
	sql, args, err := r.from().Columns(candidateColumns...).OrderBy(candidateList.orderBy...).ToSql()
	if err != nil {
		return nil, err
	}
	candidates := []models.Candidate{}
	err = r.each(ctx, sql, args, func(row scanner) error {
		var c models.Candidate
		if err := scanCandidate(row, &c); err != nil {
			return err
		}
		candidates = append(candidates, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// Update updates a candidate's details. The stored tally is not touched.
func (r *CandidateRepository) Update(ctx context.Context, c *models.Candidate) error {
	return r.exec(ctx, r.sb.Update("candidates").
		SetMap(map[string]interface{}{
			"name":        c.Name,
			"email":       c.Email,
			"phone":       c.Phone,
			"position_id": c.PositionID,
			"image_url":   c.ImageURL,
		}).
		Where(squirrel.Eq{"id": c.ID}), "candidate", c.ID)
}

// Delete removes a candidate and the votes cast for them
func (r *CandidateRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "candidates", "candidate", id)
}

// Count returns the number of candidates
func (r *CandidateRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "candidates")
}
