package filestorage

import (
	"context"
	"mime/multipart"
)

// Directories uploads are grouped under
const (
	DirStudentImages   = "student_images"
	DirCandidateImages = "candidate_images"
	DirResearchFiles   = "research_files"
)

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// Save stores an uploaded file under dir and returns the URL it is served from
	Save(ctx context.Context, fileHeader *multipart.FileHeader, dir string) (string, error)

	// Delete removes the file behind a URL previously returned by Save.
	// Deleting a missing file is not an error.
	Delete(ctx context.Context, fileURL string) error
}
