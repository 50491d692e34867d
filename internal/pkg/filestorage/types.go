package filestorage

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedType is returned for uploads whose extension a directory does not accept
var ErrUnsupportedType = errors.New("unsupported file type")

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".odt":  "application/vnd.oasis.opendocument.text",
	".rtf":  "application/rtf",
	".txt":  "text/plain; charset=utf-8",
	".csv":  "text/csv; charset=utf-8",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

var typesByDir = map[string]map[string]string{
	DirStudentImages:   imageTypes,
	DirCandidateImages: imageTypes,
	DirResearchFiles:   documentTypes,
}

// Extensions lists the extensions dir accepts, sorted
func Extensions(dir string) []string {
	types := typesByDir[cleanDir(dir)]
	out := make([]string, 0, len(types))
	for ext := range types {
		out = append(out, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(out)
	return out
}

// CheckType reports ErrUnsupportedType unless dir accepts the extension of the uploaded file
func CheckType(fileHeader *multipart.FileHeader, dir string) error {
	if fileHeader == nil {
		return nil
	}
	if _, err := contentType(fileHeader.Filename, dir); err != nil {
		return err
	}
	return nil
}

// contentType maps a filename to the MIME type it is stored and served with.
// The client's Content-Type header is never trusted.
func contentType(filename, dir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	ct, ok := typesByDir[cleanDir(dir)][ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return ct, nil
}

// Attachment reports whether files under urlPath must be downloaded rather than shown inline
func Attachment(urlPath string) bool {
	return strings.Contains(urlPath, "/"+DirResearchFiles+"/")
}
