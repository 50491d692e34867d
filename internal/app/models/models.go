package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Level is the programme level a research student is enrolled on
type Level string

const (
	LevelDegree              Level = "DEGREE"
	LevelDiploma             Level = "DIPLOMA"
	LevelNationalCertificate Level = "NATIONAL_CERTIFICATE"
)

// Valid reports whether l is one of the known programme levels
func (l Level) Valid() bool {
	switch l {
	case LevelDegree, LevelDiploma, LevelNationalCertificate:
		return true
	}
	return false
}

// Label returns the human readable name of the level
func (l Level) Label() string {
	switch l {
	case LevelDegree:
		return "Degree"
	case LevelDiploma:
		return "Diploma"
	case LevelNationalCertificate:
		return "National Certificate"
	}
	return string(l)
}

// Levels lists every programme level in display order
func Levels() []Level {
	return []Level{LevelDegree, LevelDiploma, LevelNationalCertificate}
}

// ListQuery carries the search, filter and paging options of an admin list view
type ListQuery struct {
	Search  string
	Filters map[string]string
	Page    int
	Size    int
}

// Filter returns the filter value for key, or "" when it is not set
func (q ListQuery) Filter(key string) string {
	if q.Filters == nil {
		return ""
	}
	return q.Filters[key]
}

// URL encodes the query as a query string pointing at page
func (q ListQuery) URL(page int) string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	for key, value := range q.Filters {
		v.Set(key, value)
	}
	v.Set("page", strconv.Itoa(page))
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	return "?" + v.Encode()
}

// DateOnly truncates t to midnight UTC of the same calendar day
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IntFilter parses the filter value for key as an id. A missing filter yields nil.
func (q ListQuery) IntFilter(key string) (*int64, error) {
	raw := strings.TrimSpace(q.Filter(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %q is not a number", key, raw)
	}
	return &v, nil
}

// BoolFilter parses the filter value for key as a yes/no flag. A missing filter yields nil.
func (q ListQuery) BoolFilter(key string) (*bool, error) {
	raw := strings.ToLower(strings.TrimSpace(q.Filter(key)))
	switch raw {
	case "":
		return nil, nil
	case "1", "true", "yes", "on":
		v := true
		return &v, nil
	case "0", "false", "no", "off":
		v := false
		return &v, nil
	}
	return nil, fmt.Errorf("filter %s: %q is not a yes/no value", key, raw)
}

// StringFilter returns the trimmed filter value for key, or nil when unset
func (q ListQuery) StringFilter(key string) *string {
	raw := strings.TrimSpace(q.Filter(key))
	if raw == "" {
		return nil
	}
	return &raw
}
