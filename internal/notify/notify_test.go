package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashsense-ai/crashsense/internal/verdict"
)

type recordingGateway struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (g *recordingGateway) Send(_ context.Context, msg Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, msg)
	return nil
}

func (g *recordingGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

func mediumAccident() verdict.Verdict {
	return verdict.Verdict{IsAccident: true, Severity: verdict.SeverityMedium, Summary: "possible collision", Action: verdict.ActionNotifyContact}
}

func TestShouldNotifyGate(t *testing.T) {
	cases := []struct {
		name string
		v    verdict.Verdict
		want bool
	}{
		{"medium accident", mediumAccident(), true},
		{"critical accident", verdict.Verdict{IsAccident: true, Severity: verdict.SeverityCritical, Summary: "severe accident", Action: verdict.ActionDispatchAmbulance}, true},
		{"low accident", verdict.Verdict{IsAccident: true, Severity: verdict.SeverityLow, Summary: "scrape", Action: verdict.ActionLogEvent}, false},
		{"non-accident", verdict.Verdict{IsAccident: false, Severity: verdict.SeverityLow, Summary: "pothole", Action: verdict.ActionLogEvent}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldNotify(tc.v))
		})
	}
}

func TestMaybeNotifySyncSends(t *testing.T) {
	gw := &recordingGateway{}
	d := NewDispatcher(gw, Config{Destination: "+15550100"}, nil)

	out := d.MaybeNotify(context.Background(), mediumAccident(), "City Rd")
	assert.Equal(t, StatusSent, out.Status)
	require.Equal(t, 1, gw.count())
	msg := gw.sent[0]
	assert.Equal(t, "+15550100", msg.To)
	assert.Contains(t, msg.Body, "City Rd")
	assert.Contains(t, msg.Body, "MEDIUM")
	assert.NotEmpty(t, msg.ID)
}

func TestMaybeNotifyGateBlocksLow(t *testing.T) {
	gw := &recordingGateway{}
	d := NewDispatcher(gw, Config{Destination: "x"}, nil)

	out := d.MaybeNotify(context.Background(), verdict.Verdict{IsAccident: false, Severity: verdict.SeverityLow, Summary: "ok", Action: verdict.ActionIgnore}, "Home")
	assert.Equal(t, StatusNotAttempted, out.Status)
	assert.Equal(t, 0, gw.count())
}

func TestMaybeNotifySyncFailureIsSwallowed(t *testing.T) {
	gw := &recordingGateway{err: errors.New("gateway down")}
	d := NewDispatcher(gw, Config{Destination: "x"}, nil)

	out := d.MaybeNotify(context.Background(), mediumAccident(), "City Rd")
	assert.Equal(t, StatusFailed, out.Status)
	assert.Contains(t, out.Reason, "gateway down")

	m := d.Snapshot()
	assert.Equal(t, uint64(1), m.Failed)
}

func TestMaybeNotifyAsync(t *testing.T) {
	gw := &recordingGateway{}
	d := NewDispatcher(gw, Config{Destination: "x", Async: true, QueueSize: 8, Workers: 2}, nil)

	out := d.MaybeNotify(context.Background(), mediumAccident(), "City Rd")
	assert.Equal(t, StatusAttempted, out.Status)

	d.Close(context.Background())
	assert.Equal(t, 1, gw.count())
	m := d.Snapshot()
	assert.Equal(t, uint64(1), m.Enqueued)
	assert.Equal(t, uint64(1), m.Sent)
}

func TestMaybeNotifyAsyncAfterClose(t *testing.T) {
	gw := &recordingGateway{}
	d := NewDispatcher(gw, Config{Destination: "x", Async: true}, nil)
	d.Close(context.Background())

	out := d.MaybeNotify(context.Background(), mediumAccident(), "City Rd")
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, uint64(1), d.Snapshot().Dropped)
}

func TestWebhookGatewaySend(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		require.NoError(t, jsonDecode(r, &got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	gw := NewWebhookGateway(srv.URL, "secret", time.Second)
	err := gw.Send(context.Background(), Message{ID: "m1", To: "+1555", Body: "alert"})
	require.NoError(t, err)
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, "alert", got.Body)
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func TestWebhookGatewaySendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad destination", http.StatusBadRequest)
	}))
	defer srv.Close()

	gw := NewWebhookGateway(srv.URL, "", time.Second)
	err := gw.Send(context.Background(), Message{ID: "m1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
