package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_PlainText(t *testing.T) {
	body, err := compose("Office <office@miu.ac.ug>", Message{
		To: []string{"a@miu.ac.ug", "b@miu.ac.ug"}, Subject: "Hello", Text: "Password: abc123",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "From: Office <office@miu.ac.ug>\r\n")
	assert.Contains(t, body, "To: a@miu.ac.ug, b@miu.ac.ug\r\n")
	assert.Contains(t, body, "Content-Type: text/plain; charset=UTF-8\r\n\r\nPassword: abc123")
	assert.NotContains(t, body, "multipart")
}

func TestCompose_Alternative(t *testing.T) {
	body, err := compose("office@miu.ac.ug", Message{
		To: []string{"a@miu.ac.ug"}, Subject: "Schedule", Text: "plain body", HTML: "<p>html body</p>",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, body, "text/html; charset=UTF-8")
	assert.Less(t, strings.Index(body, "plain body"), strings.Index(body, "<p>html body</p>"))
}

func TestCompose_HeadersStayOnOneLine(t *testing.T) {
	body, err := compose(fromAddress(Config{FromName: "Zoë\r\nX-Spam: yes", FromEmail: "office@miu.ac.ug"}), Message{
		To:      []string{"a@miu.ac.ug\r\nCc: spy@evil.test"},
		Subject: "Schedule for Zoë\r\nBcc: spy@evil.test",
		Text:    "plain body",
	})
	require.NoError(t, err)

	headers := body[:strings.Index(body, "\r\n\r\n")]
	for _, line := range strings.Split(headers, "\r\n") {
		name := strings.SplitN(line, ":", 2)[0]
		assert.Contains(t, []string{"From", "To", "Subject", "Date", "MIME-Version", "Content-Type"}, name)
	}
	assert.NotContains(t, body, "\nBcc:")
	assert.Contains(t, body, "Subject: =?utf-8?q?")
	assert.Contains(t, body, "To: a@miu.ac.ug Cc: spy@evil.test\r\n")

	subject := strings.TrimPrefix(headers[strings.Index(headers, "Subject: "):], "Subject: ")
	subject = subject[:strings.Index(subject, "\r\n")]
	decoded, err := new(mime.WordDecoder).DecodeHeader(subject)
	require.NoError(t, err)
	assert.Equal(t, "Schedule for Zoë Bcc: spy@evil.test", decoded)
}

func TestNewMailer(t *testing.T) {
	lgr := zerolog.Nop()

	m, err := NewMailer(Config{Driver: "console"}, lgr)
	require.NoError(t, err)
	assert.IsType(t, &ConsoleMailer{}, m)

	m, err = NewMailer(Config{Driver: "SMTP", Host: "localhost"}, lgr)
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	_, err = NewMailer(Config{Driver: "sendgrid"}, lgr)
	assert.Error(t, err)

	_, err = NewMailer(Config{Driver: "pigeon"}, lgr)
	assert.Error(t, err)
}

func TestConsoleMailer_LogsMessage(t *testing.T) {
	var buf bytes.Buffer
	m := NewConsoleMailer(Config{FromName: "Office", FromEmail: "office@miu.ac.ug"}, zerolog.New(&buf))

	require.NoError(t, m.Send(context.Background(), Message{To: []string{"a@miu.ac.ug"}, Subject: "Hi", Text: "body"}))
	assert.Contains(t, buf.String(), "Subject: Hi")

	buf.Reset()
	require.NoError(t, m.Send(context.Background(), Message{To: []string{" "}, Subject: "nobody"}))
	assert.Empty(t, buf.String())
}

func TestMemoryMailer(t *testing.T) {
	m := NewMemoryMailer()
	ctx := context.Background()
	require.NoError(t, m.Send(ctx, Message{To: []string{"a@miu.ac.ug"}, Subject: "one"}))
	require.NoError(t, m.Send(ctx, Message{To: []string{"b@miu.ac.ug", "a@miu.ac.ug"}, Subject: "two"}))

	assert.Len(t, m.Sent(), 2)
	assert.Len(t, m.SentTo("a@miu.ac.ug"), 2)
	assert.Len(t, m.SentTo("b@miu.ac.ug"), 1)

	m.Err = errors.New("smtp down")
	assert.Error(t, m.Send(ctx, Message{To: []string{"c@miu.ac.ug"}}))
	assert.Empty(t, m.SentTo("c@miu.ac.ug"))

	m.Reset()
	assert.Empty(t, m.Sent())
}

func TestSendgridMailer_Send(t *testing.T) {
	var got map[string]interface{}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		if r.URL.Path != sendgridEndpoint {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	oldHost := sendgridHost
	sendgridHost = srv.URL
	t.Cleanup(func() { sendgridHost = oldHost })

	m := NewSendgridMailer(Config{SendgridAPIKey: "SG.key", FromName: "Office", FromEmail: "office@miu.ac.ug"}, zerolog.Nop())
	err := m.Send(context.Background(), Message{To: []string{"a@miu.ac.ug"}, Subject: "Hi", Text: "plain", HTML: "<b>html</b>"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer SG.key", auth)
	content, ok := got["content"].([]interface{})
	require.True(t, ok)
	assert.Len(t, content, 2)
}

func TestSendgridMailer_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	oldHost := sendgridHost
	sendgridHost = srv.URL
	t.Cleanup(func() { sendgridHost = oldHost })

	m := NewSendgridMailer(Config{SendgridAPIKey: "bad"}, zerolog.Nop())
	err := m.Send(context.Background(), Message{To: []string{"a@miu.ac.ug"}, Subject: "Hi", Text: "plain"})
	assert.ErrorContains(t, err, "401")
}
