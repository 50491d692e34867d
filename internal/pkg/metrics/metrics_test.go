package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.VoteCast("Guild President")
	m.VoteCast("Guild President")
	m.BallotRejected()
	m.EmailSent("voter_credentials", nil)
	m.EmailSent("voter_credentials", errors.New("down"))
	m.ObserveRequest("POST", "/vote/", 302, 0.02)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.votes.WithLabelValues("Guild President")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emails.WithLabelValues("voter_credentials", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emails.WithLabelValues("voter_credentials", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/vote/", "302")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.VoteCast("x")
		m.BallotRejected()
		m.EmailSent("x", nil)
		m.ObserveRequest("GET", "/", 200, 0)
		m.WatchClients(func() int { return 1 })
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.VoteCast("Treasurer")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `votes_cast_total{position="Treasurer"} 1`)
	assert.Contains(t, string(body), "go_goroutines")

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_WatchClients(t *testing.T) {
	m := New()
	clients := 2
	m.WatchClients(func() int { return clients })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "websocket_clients 2")

	clients = 0
	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "websocket_clients 0")
}
