package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
)

var voterColumns = []string{
	"id", "name", "email", "reg_no", "password_hash", "phone", "graduation_year",
	"is_active", "is_staff", "has_voted", "created_at",
}

var voterList = listSpec{
	search: []string{"name", "reg_no", "email"},
	filters: map[string]filterSpec{
		"is_active": {column: "is_active", kind: filterBool},
		"has_voted": {column: "has_voted", kind: filterBool},
		"is_staff":  {column: "is_staff", kind: filterBool},
	},
	orderBy: []string{"name ASC", "id ASC"},
}

// VoterRepository handles voter account database operations
type VoterRepository struct {
	base
}

// NewVoterRepository creates a new VoterRepository
func NewVoterRepository(db *pgxpool.Pool) *VoterRepository {
	return &VoterRepository{base: newBase(db)}
}

func scanVoter(row scanner, v *models.Voter) error {
	return row.Scan(&v.ID, &v.Name, &v.Email, &v.RegNo, &v.PasswordHash, &v.Phone, &v.GraduationYear,
		&v.IsActive, &v.IsStaff, &v.HasVoted, &v.CreatedAt)
}

// Create inserts a voter and sets its ID
func (r *VoterRepository) Create(ctx context.Context, v *models.Voter) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	id, err := r.insert(ctx, r.sb.Insert("voters").
		Columns("name", "email", "reg_no", "password_hash", "phone", "graduation_year",
			"is_active", "is_staff", "has_voted", "created_at").
		Values(v.Name, v.Email, v.RegNo, v.PasswordHash, v.Phone, v.GraduationYear,
			v.IsActive, v.IsStaff, v.HasVoted, v.CreatedAt), "voter")
	if err != nil {
		return err
	}
	v.ID = id
	return nil
}

func (r *VoterRepository) getBy(ctx context.Context, cond squirrel.Sqlizer, key interface{}) (*models.Voter, error) {
	v := &models.Voter{}
	q := r.sb.Select(voterColumns...).From("voters").Where(cond)
	if err := r.one(ctx, q, "voter", key, func(row scanner) error { return scanVoter(row, v) }); err != nil {
		return nil, err
	}
	return v, nil
}

// GetByID retrieves a voter by ID
func (r *VoterRepository) GetByID(ctx context.Context, id int64) (*models.Voter, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id}, id)
}

// GetByRegNo retrieves a voter by registration number
func (r *VoterRepository) GetByRegNo(ctx context.Context, regNo string) (*models.Voter, error) {
	return r.getBy(ctx, squirrel.Eq{"reg_no": regNo}, regNo)
}

// GetByEmail retrieves a voter by email, ignoring case
func (r *VoterRepository) GetByEmail(ctx context.Context, email string) (*models.Voter, error) {
	return r.getBy(ctx, squirrel.Expr("LOWER(email) = ?", strings.ToLower(email)), email)
}

// List returns a page of voters
func (r *VoterRepository) List(ctx context.Context, q models.ListQuery) ([]models.Voter, int64, error) {
	voters := []models.Voter{}
	total, err := r.list(ctx, r.sb.Select().From("voters"), voterColumns, voterList, q, func(row scanner) error {
		var v models.Voter
		if err := scanVoter(row, &v); err != nil {
			return err
		}
		voters = append(voters, v)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return voters, total, nil
}

// Update updates a voter's profile and flags. The password hash is left alone.
func (r *VoterRepository) Update(ctx context.Context, v *models.Voter) error {
	return r.exec(ctx, r.sb.Update("voters").
		SetMap(map[string]interface{}{
			"name":            v.Name,
			"email":           v.Email,
			"reg_no":          v.RegNo,
			"phone":           v.Phone,
			"graduation_year": v.GraduationYear,
			"is_active":       v.IsActive,
			"is_staff":        v.IsStaff,
			"has_voted":       v.HasVoted,
		}).
		Where(squirrel.Eq{"id": v.ID}), "voter", v.ID)
}

// SetPassword stores a new password hash for a voter
func (r *VoterRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, r.sb.Update("voters").Set("password_hash", hash).Where(squirrel.Eq{"id": id}), "voter", id)
}

// Delete removes a voter and their votes
func (r *VoterRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "voters", "voter", id)
}

// Count returns the number of voters
func (r *VoterRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "voters")
}
