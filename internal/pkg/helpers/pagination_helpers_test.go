package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewPaginationInfo(t *testing.T) {
	tests := []struct {
		name              string
		total             int64
		page, size        int
		wantPage, wantAll int
		wantSize          int
	}{
		{"empty", 0, 1, 10, 1, 1, 10},
		{"exact pages", 40, 2, 20, 2, 2, 20},
		{"partial last page", 41, 3, 20, 3, 3, 20},
		{"page past the end", 5, 9, 20, 1, 1, 20},
		{"size over max", 500, 1, 1000, 1, 25, DefaultPageSize},
		{"zero page", 10, 0, 5, 1, 2, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := NewPaginationInfo(tt.total, tt.page, tt.size)
			assert.Equal(t, tt.wantPage, info.CurrentPage)
			assert.Equal(t, tt.wantAll, info.TotalPages)
			assert.Equal(t, tt.wantSize, info.PageSize)
			assert.Equal(t, tt.total, info.TotalItems)
		})
	}
}

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 10)
	assert.EqualValues(t, 20, offset)
	assert.EqualValues(t, 10, limit)

	offset, limit = CalculateOffsetLimit(-1, 0)
	assert.EqualValues(t, 0, offset)
	assert.EqualValues(t, DefaultPageSize, limit)
}

func TestCalculateSliceIndices(t *testing.T) {
	start, end := CalculateSliceIndices(2, 10, 15)
	assert.Equal(t, 10, start)
	assert.Equal(t, 15, end)

	start, end = CalculateSliceIndices(5, 10, 15)
	assert.Equal(t, 15, start)
	assert.Equal(t, 15, end)
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/admin/voters?page=abc&size=7", nil)

	page, size := ParsePaginationParams(c)
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, 7, size)
}

func TestParseDurationAndFormatDate(t *testing.T) {
	assert.Equal(t, 2*time.Hour, ParseDuration("2h", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("", time.Minute))

	d := time.Date(2024, 3, 2, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-02", FormatDate(&d))
	assert.Equal(t, "", FormatDate(nil))
}
