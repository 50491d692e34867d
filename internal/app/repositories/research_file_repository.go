package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miu/unidesk/internal/app/models"
)

var researchFileColumns = []string{"rf.id", "rf.student_id", "rf.file_url", "rf.description", "rf.created_at"}

var researchFileList = listSpec{
	search: []string{"rf.description", "rf.file_url"},
	filters: map[string]filterSpec{
		"student": {column: "rf.student_id", kind: filterInt},
	},
	orderBy: []string{"rf.created_at DESC", "rf.id DESC"},
}

// ResearchFileRepository handles uploaded research document records.
// The files themselves live in filestorage.
type ResearchFileRepository struct {
	base
}

// NewResearchFileRepository creates a new ResearchFileRepository
func NewResearchFileRepository(db *pgxpool.Pool) *ResearchFileRepository {
	return &ResearchFileRepository{base: newBase(db)}
}

func scanResearchFile(row scanner, f *models.ResearchFile) error {
	return row.Scan(&f.ID, &f.StudentID, &f.FileURL, &f.Description, &f.CreatedAt)
}

// Create inserts a research file record
func (r *ResearchFileRepository) Create(ctx context.Context, f *models.ResearchFile) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	id, err := r.insert(ctx, r.sb.Insert("research_files").
		Columns("student_id", "file_url", "description", "created_at").
		Values(f.StudentID, f.FileURL, f.Description, f.CreatedAt), "research file")
	if err != nil {
		return err
	}
	f.ID = id
	return nil
}

// GetByID retrieves a research file record
func (r *ResearchFileRepository) GetByID(ctx context.Context, id int64) (*models.ResearchFile, error) {
	f := &models.ResearchFile{}
	q := r.sb.Select(researchFileColumns...).From("research_files rf").Where(squirrel.Eq{"rf.id": id})
	if err := r.one(ctx, q, "research file", id, func(row scanner) error { return scanResearchFile(row, f) }); err != nil {
		return nil, err
	}
	return f, nil
}

// List returns a page of research files
func (r *ResearchFileRepository) List(ctx context.Context, q models.ListQuery) ([]models.ResearchFile, int64, error) {
	files := []models.ResearchFile{}
	total, err := r.list(ctx, r.sb.Select().From("research_files rf"), researchFileColumns, researchFileList, q, func(row scanner) error {
		var f models.ResearchFile
		if err := scanResearchFile(row, &f); err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

// ListByStudent returns a student's files, newest first
func (r *ResearchFileRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.ResearchFile, error) {
	sql, args, err := r.sb.Select(researchFileColumns...).From("research_files rf").
		Where(squirrel.Eq{"rf.student_id": studentID}).
		OrderBy(researchFileList.orderBy...).
		ToSql()
	if err != nil {
		return nil, err
	}
	files := []models.ResearchFile{}
	err = r.each(ctx, sql, args, func(row scanner) error {
		var f models.ResearchFile
		if err := scanResearchFile(row, &f); err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Update updates the description and location of a research file
func (r *ResearchFileRepository) Update(ctx context.Context, f *models.ResearchFile) error {
	return r.exec(ctx, r.sb.Update("research_files").
		SetMap(map[string]interface{}{
			"student_id":  f.StudentID,
			"file_url":    f.FileURL,
			"description": f.Description,
		}).
		Where(squirrel.Eq{"id": f.ID}), "research file", f.ID)
}

// Delete removes a research file record
func (r *ResearchFileRepository) Delete(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "research_files", "research file", id)
}

// Count returns the number of research files
func (r *ResearchFileRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "research_files")
}
