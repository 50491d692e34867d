package templates

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/models/dto"
)

type flash struct{ Level, Message string }

func TestPagesParse(t *testing.T) {
	pages, err := Pages()
	require.NoError(t, err)
	for _, name := range []string{
		"home.html", "register.html", "login.html", "vote.html", "success.html", "error.html",
		"research_login.html", "research_guide.html", "research_students.html", "research_data.html",
		"students_without_topics.html", "admin_login.html", "admin_index.html", "admin_list.html",
	} {
		assert.NotNil(t, pages.Lookup(name), name)
	}
}

func TestErrorPage(t *testing.T) {
	pages, err := Pages()
	require.NoError(t, err)

	var b strings.Builder
	err = pages.ExecuteTemplate(&b, "error.html", map[string]interface{}{
		"Title":   "Error",
		"Status":  404,
		"Message": "The page you requested could not be found.",
		"Flashes": []flash{{"info", "<b>escaped</b>"}},
		"Year":    2025,
	})
	require.NoError(t, err)
	out := b.String()
	assert.Contains(t, out, "<h1>404</h1>")
	assert.Contains(t, out, "&lt;b&gt;escaped&lt;/b&gt;")
	assert.Contains(t, out, "&copy; 2025")
	assert.Contains(t, out, `href="/login/"`, "anonymous navigation")
}

func TestAdminListPagination(t *testing.T) {
	pages, err := Pages()
	require.NoError(t, err)

	var b strings.Builder
	err = pages.ExecuteTemplate(&b, "admin_list.html", map[string]interface{}{
		"Title": "Voters",
		"Table": map[string]interface{}{
			"Title":   "Voters",
			"Columns": []string{"Name", "Reg no"},
		},
		"Rows":       [][]string{{"Brian", "2022/BBA/001"}},
		"Query":      models.ListQuery{Search: "bri", Page: 2, Size: 1},
		"Pagination": dto.PaginationInfo{CurrentPage: 2, TotalPages: 3, PageSize: 1, TotalItems: 3},
		"Year":       2025,
	})
	require.NoError(t, err)
	out := b.String()
	assert.Contains(t, out, "<td>2022/BBA/001</td>")
	assert.Contains(t, out, "Page 2 of 3")
	assert.Contains(t, out, "page=1")
	assert.Contains(t, out, "page=3")
	assert.Contains(t, out, "q=bri")
}

func TestMailTemplates(t *testing.T) {
	mail, err := LoadMail()
	require.NoError(t, err)

	body, err := mail.Text("voter_credentials", map[string]string{"Name": "Brian", "Email": "brian@miu.ac.ug", "Password": "aB3dE9"})
	require.NoError(t, err)
	assert.Contains(t, body, "Dear Brian,")
	assert.Contains(t, body, "Password: aB3dE9")

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	defense := time.Date(2024, 10, 3, 0, 0, 0, 0, time.UTC)
	data := map[string]interface{}{
		"Student":    models.Student{Name: "Amina", RegNo: "2021/BCS/001", Email: "amina@miu.ac.ug", StartDate: &start},
		"Topic":      models.ResearchTopic{Topic: "Solar irrigation"},
		"Supervisor": models.Supervisor{Name: "Dr. Okello"},
		"Schedule": models.Schedule{
			Proposal: start.AddDate(0, 0, 30),
			Findings: start.AddDate(0, 0, 90),
			Report:   start.AddDate(0, 0, 120),
			Defense:  &defense,
		},
		"University": "Metropolitan International University",
	}
	text, err := mail.Text("research_schedule", data)
	require.NoError(t, err)
	assert.Contains(t, text, "Research Topic: Solar irrigation")
	assert.Contains(t, text, "Proposal Submission Deadline: 2024-03-02")
	assert.Contains(t, text, "Defense Date: 2024-10-03")
	assert.NotContains(t, text, "Graduation Date")

	html, err := mail.HTML("supervisor_assignment", data)
	require.NoError(t, err)
	assert.Contains(t, html, "Dear Dr. Okello,")
	assert.Contains(t, html, "2021/BCS/001")

	_, err = mail.Text("missing", nil)
	assert.Error(t, err)
}
