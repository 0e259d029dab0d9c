package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitline/internal/calendar"
	"github.com/julianstephens/habitline/internal/constants"
	"github.com/julianstephens/habitline/internal/draft"
	"github.com/julianstephens/habitline/internal/models"
	"github.com/julianstephens/habitline/internal/session"
	"github.com/julianstephens/habitline/internal/storage/sqlite"
)

func setupServer(t *testing.T) (*Server, *Client) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "habitline.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mgr := session.NewManager(session.Deps{
		Store:    store,
		Calendar: calendar.NewLocal(store, time.UTC),
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})
	srv := NewServer(mgr)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, NewClient(ts.URL)
}

func newScheduledSession(t *testing.T, c *Client) string {
	t.Helper()
	ctx := context.Background()
	info, err := c.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	res, err := c.CallTool(ctx, info.ID, "save_habit", map[string]any{
		"name": "Meditate", "cadence": "daily", "preferred_time": "morning", "duration_minutes": 20,
	})
	if err != nil || !res.OK {
		t.Fatalf("save_habit: %v %+v", err, res)
	}
	res, err = c.CallTool(ctx, info.ID, "generate_schedule", nil)
	if err != nil || !res.OK {
		t.Fatalf("generate_schedule: %v %+v", err, res)
	}
	return info.ID
}

func TestHealth(t *testing.T) {
	_, c := setupServer(t)
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health failed: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	_, c := setupServer(t)
	ctx := context.Background()

	info, err := c.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.Stage != string(models.StageGreeting) || info.Greeting == "" {
		t.Errorf("unexpected session info %+v", info)
	}

	if _, err := c.Draft(ctx, info.ID); err == nil || !strings.Contains(err.Error(), "no draft") {
		t.Errorf("Draft before generation: %v", err)
	}

	ids, err := c.Sessions(ctx)
	if err != nil || len(ids) != 1 || ids[0] != info.ID {
		t.Errorf("Sessions() = %v, %v", ids, err)
	}

	if _, err := c.Draft(ctx, "missing"); err == nil || !strings.Contains(err.Error(), "no such session") {
		t.Errorf("Draft for unknown session: %v", err)
	}
	if err := c.do(ctx, http.MethodDelete, "/sessions/"+info.ID, nil, nil); err != nil {
		t.Errorf("delete failed: %v", err)
	}
	if ids, _ := c.Sessions(ctx); len(ids) != 0 {
		t.Errorf("session survived delete: %v", ids)
	}
}

func TestToolsOverHTTP(t *testing.T) {
	_, c := setupServer(t)
	ctx := context.Background()
	id := newScheduledSession(t, c)

	d, err := c.Draft(ctx, id)
	if err != nil {
		t.Fatalf("Draft failed: %v", err)
	}
	if len(d.Items) != 1 || d.Items[0].ID != "draft-1" {
		t.Fatalf("unexpected draft %+v", d.Items)
	}
	if want := time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC); !d.Items[0].Start.Equal(want) {
		t.Errorf("start = %v, want %v", d.Items[0].Start, want)
	}

	res, err := c.CallTool(ctx, id, "remove_draft_item", map[string]string{"item_ref": "walk"})
	if err != nil {
		t.Fatal(err)
	}
	if res.OK || res.Kind != constants.KindNotFound {
		t.Errorf("remove unknown item = %+v", res)
	}

	res, err = c.CallTool(ctx, id, "no_such_tool", nil)
	if err != nil || res.Kind != constants.KindBadRequest {
		t.Errorf("unknown tool = %+v, %v", res, err)
	}
}

func TestInvalidToolBody(t *testing.T) {
	srv, _ := setupServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/sessions", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	ids := srv.sessions.IDs()

	resp, err = http.Post(ts.URL+"/sessions/"+ids[0]+"/tools/save_note", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func nextOfType(t *testing.T, conn *Conn, msgType string) Envelope {
	t.Helper()
	_ = conn.ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		env, err := conn.Next()
		if err != nil {
			t.Fatalf("waiting for %s message: %v", msgType, err)
		}
		if env.Type == msgType {
			return env
		}
	}
}

func TestWebsocketDisplay(t *testing.T) {
	srv, c := setupServer(t)
	ctx := context.Background()
	id := newScheduledSession(t, c)

	conn, err := c.Dial(ctx, id)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	// The current draft arrives on connect.
	d, err := nextOfType(t, conn, constants.MessageTypeDraft).Draft()
	if err != nil || len(d.Items) != 1 {
		t.Fatalf("initial draft = %+v, %v", d, err)
	}
	if srv.Hub().Subscribers(id) != 1 {
		t.Errorf("subscribers = %d, want 1", srv.Hub().Subscribers(id))
	}

	if err := conn.UpdateItem("draft-1", draft.UpdateRequest{Time: "08:15"}); err != nil {
		t.Fatal(err)
	}
	d, _ = nextOfType(t, conn, constants.MessageTypeDraft).Draft()
	if got := d.Items[0].Start.Format(constants.TimeFormat); got != "08:15" {
		t.Errorf("pushed start = %s, want 08:15", got)
	}
	if status := nextOfType(t, conn, constants.MessageTypeStatus); !strings.Contains(status.Message, "Meditate") {
		t.Errorf("status = %q", status.Message)
	}

	// A tool call from the model reaches the display too.
	if _, err := c.CallTool(ctx, id, "remove_draft_item", map[string]string{"item_ref": "draft-1"}); err != nil {
		t.Fatal(err)
	}
	d, _ = nextOfType(t, conn, constants.MessageTypeDraft).Draft()
	if len(d.Items) != 0 {
		t.Errorf("display still shows %d items", len(d.Items))
	}

	if err := conn.Confirm(); err != nil {
		t.Fatal(err)
	}
	d, _ = nextOfType(t, conn, constants.MessageTypeDraft).Draft()
	if d.Status != models.DraftStatusConfirmed {
		t.Errorf("status = %s, want confirmed", d.Status)
	}
}

func TestUnknownActionNotice(t *testing.T) {
	_, c := setupServer(t)
	ctx := context.Background()
	id := newScheduledSession(t, c)

	conn, err := c.Dial(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	nextOfType(t, conn, constants.MessageTypeDraft)

	err = c.do(ctx, http.MethodPost, "/sessions/"+id+"/actions", map[string]string{"action": "dance"}, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown action") {
		t.Errorf("POST unknown action: %v", err)
	}
	if status := nextOfType(t, conn, constants.MessageTypeStatus); !strings.HasPrefix(status.Message, "Error:") {
		t.Errorf("notice = %q", status.Message)
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	h := NewHub()
	c := h.subscribe("s1", nil)
	for i := 0; i < sendBuffer; i++ {
		h.Publish("s1", session.Message{Type: constants.MessageTypeStatus, Message: "tick"})
	}
	if h.Subscribers("s1") != 1 {
		t.Fatalf("subscriber dropped too early")
	}
	h.Publish("s1", session.Message{Type: constants.MessageTypeStatus, Message: "overflow"})
	if h.Subscribers("s1") != 0 {
		t.Errorf("slow subscriber should be dropped")
	}

	n := 0
	for range c.send {
		n++
	}
	if n != sendBuffer {
		t.Errorf("drained %d queued messages, want %d", n, sendBuffer)
	}
}
