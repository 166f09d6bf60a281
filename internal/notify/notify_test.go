package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/alexanderramin/stagegate/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func notification(recipient, title string) *domain.Notification {
	return &domain.Notification{
		ID:        "n-" + title,
		Recipient: recipient,
		Kind:      domain.NotifyMention,
		Title:     title,
		Body:      "body of " + title,
		CreatedAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}
}

func TestHub_RoutesByRecipient(t *testing.T) {
	hub := NewHub(4, nil)
	hod := hub.Subscribe("hod")
	officer := hub.Subscribe("officer")
	defer officer.Cancel()

	hub.Publish(context.Background(), notification("hod", "one"))

	msg := <-hod.C
	assert.Equal(t, "one", msg.Title)
	assert.Equal(t, "mention", msg.Kind)
	assert.Empty(t, officer.C)

	hod.Cancel()
	hod.Cancel()
	_, ok := <-hod.C
	assert.False(t, ok)
	assert.Zero(t, hub.Subscribers("hod"))
}

func TestHub_DropsSlowSubscribers(t *testing.T) {
	hub := NewHub(1, nil)
	sub := hub.Subscribe("hod")

	hub.Publish(context.Background(), notification("hod", "one"))
	hub.Publish(context.Background(), notification("hod", "two"))

	msg, ok := <-sub.C
	require.True(t, ok)
	assert.Equal(t, "one", msg.Title)
	_, ok = <-sub.C
	assert.False(t, ok, "second message overflowed the buffer")
	assert.Zero(t, hub.Subscribers("hod"))
}

func TestHub_CloseEndsSubscriptions(t *testing.T) {
	hub := NewHub(0, nil)
	sub := hub.Subscribe("hod")
	hub.Close()

	_, ok := <-sub.C
	assert.False(t, ok)

	late := hub.Subscribe("hod")
	_, ok = <-late.C
	assert.False(t, ok)
}

func TestServeWS_PushesFrames(t *testing.T) {
	hub := NewHub(4, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "hod")
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers("hod") == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish(context.Background(), notification("hod", "approved"))

	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "n-approved", msg.ID)
	assert.Equal(t, "body of approved", msg.Body)

	hub.Close()
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestNtfy_SendsToRecipientTopic(t *testing.T) {
	var (
		mu      sync.Mutex
		path    string
		headers http.Header
		body    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, headers, body = r.URL.Path, r.Header.Clone(), string(b)
		mu.Unlock()
	}))
	defer srv.Close()

	p := NewNtfy(srv.URL+"/", time.Second, nil)
	n := notification("a.rao", "RAD01 IPA due today")
	n.Kind = domain.NotifyDueSoon
	require.NoError(t, p.Send(context.Background(), n))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/a.rao", path)
	assert.Equal(t, "RAD01 IPA due today", headers.Get("Title"))
	assert.Equal(t, "stagegate,due_soon", headers.Get("Tags"))
	assert.Equal(t, "high", headers.Get("Priority"))
	assert.Equal(t, "body of RAD01 IPA due today", body)
}

func TestNtfy_ReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewNtfy(srv.URL, time.Second, nil).Send(context.Background(), notification("hod", "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403: topic forbidden")
}

type countingPublisher struct{ n int }

func (c *countingPublisher) Publish(context.Context, *domain.Notification) { c.n++ }

func TestFanout_SkipsDisabledPublishers(t *testing.T) {
	assert.Nil(t, NewNtfy("  ", 0, nil))

	var hub *Hub
	counter := &countingPublisher{}
	f := NewFanout(nil, NewNtfy("", 0, nil), hub, counter)
	require.Len(t, f, 1)

	f.Publish(context.Background(), notification("hod", "x"))
	assert.Equal(t, 1, counter.n)
}
