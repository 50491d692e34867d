// Package templates embeds the HTML pages and the notification mail bodies.
package templates

import (
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

//go:embed pages/*.html mail/*.tmpl
var FS embed.FS

// DateLayout is how dates are printed on pages and in mails
const DateLayout = "2006-01-02"

// Funcs are available to every page and mail template
func Funcs() map[string]interface{} {
	return map[string]interface{}{
		"day": func(t time.Time) string { return t.Format(DateLayout) },
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format(DateLayout)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		// fieldError looks up a form error, tolerating pages rendered without errors
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
		"upper": strings.ToUpper,
		"add":   func(a, b int) int { return a + b },
		"sub":   func(a, b int) int { return a - b },
	}
}

// Pages parses every page template
func Pages() (*htmltemplate.Template, error) {
	return htmltemplate.New("").Funcs(htmltemplate.FuncMap(Funcs())).ParseFS(FS, "pages/*.html")
}

// Mail holds the parsed notification bodies
type Mail struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

// LoadMail parses every mail template
func LoadMail() (*Mail, error) {
	text, err := texttemplate.New("").Funcs(texttemplate.FuncMap(Funcs())).ParseFS(FS, "mail/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text mail templates: %w", err)
	}
	html, err := htmltemplate.New("").Funcs(htmltemplate.FuncMap(Funcs())).ParseFS(FS, "mail/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html mail templates: %w", err)
	}
	return &Mail{text: text, html: html}, nil
}

// Text renders mail/<name>.txt.tmpl
func (m *Mail) Text(name string, data interface{}) (string, error) {
	var b strings.Builder
	if err := m.text.ExecuteTemplate(&b, name+".txt.tmpl", data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// HTML renders mail/<name>.html.tmpl
func (m *Mail) HTML(name string, data interface{}) (string, error) {
	var b strings.Builder
	if err := m.html.ExecuteTemplate(&b, name+".html.tmpl", data); err != nil {
		return "", err
	}
	return b.String(), nil
}
