package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/elevatebox/elevatebox/internal/config"
	"github.com/elevatebox/elevatebox/internal/contact"
	"github.com/elevatebox/elevatebox/internal/island"
	"github.com/elevatebox/elevatebox/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMdToPattern(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"index.md", "/"},
		{"contact.md", "/contact"},
		{"careers/apply.md", "/careers/apply"},
		{"careers/index.md", "/careers/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := mdToPattern(tt.input)
			if got != tt.want {
				t.Errorf("mdToPattern(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSortRoutes(t *testing.T) {
	routes := []*Route{{Pattern: "/b"}, {Pattern: "/a/"}, {Pattern: "/a"}, {Pattern: "/"}}
	sortRoutes(routes)
	var got []string
	for _, r := range routes {
		got = append(got, r.Pattern)
	}
	assert.Equal(t, []string{"/", "/a/", "/a", "/b"}, got)
}

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for path, content := range files {
		full := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

var testSite = map[string]string{
	"index.md": "---\ntitle: Home\nnav_order: 1\n---\n# Welcome\n",
	"contact.md": "---\ntitle: Contact\nnav_order: 3\n---\n# Contact us\n\n```island contact\n```\n",
	"apply.md": "---\ntitle: Apply\nnav_order: 2\n---\n# Apply\n\n```island onboarding start=1\n```\n",
	"_drafts/draft.md": "# Draft\n",
	"broken.md":        "# Broken\n\n```island weather\n```\n",
}

type testServer struct {
	srv  *Server
	ts   *httptest.Server
	sink *store.MemorySink
}

func newTestServer(t *testing.T, files map[string]string) *testServer {
	t.Helper()
	dir := writeSite(t, files)
	sink := store.NewMemorySink()
	reg, err := island.NewDefaultRegistry(island.Deps{Sink: sink})
	require.NoError(t, err)

	srv, err := New(dir, config.DefaultConfig(), reg)
	require.NoError(t, err)
	require.NoError(t, srv.Discover())

	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		require.NoError(t, srv.Close())
		ts.Close()
	})
	return &testServer{srv: srv, ts: ts, sink: sink}
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServerDiscover(t *testing.T) {
	s := newTestServer(t, testSite)

	var patterns []string
	for _, r := range s.srv.Routes() {
		patterns = append(patterns, r.Pattern)
	}
	// _drafts is skipped; broken.md fails to parse and is left out.
	assert.Equal(t, []string{"/", "/apply", "/contact"}, patterns)
}

func TestDiscoverPagesReportsParseErrors(t *testing.T) {
	dir := writeSite(t, testSite)
	routes, err := DiscoverPages(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown island "weather"`)
	assert.Len(t, routes, 3)
}

func TestServePage(t *testing.T) {
	s := newTestServer(t, testSite)

	resp, body := get(t, s.ts.URL+"/contact")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Contains(t, body, "<title>Contact | Elevate Box</title>")
	assert.Contains(t, body, `id="island-contact-0"`)
	assert.Contains(t, body, `data-island="contact"`)
	assert.Contains(t, body, `<a href="/contact" aria-current="page">Contact</a>`)

	// Navigation follows nav_order.
	home := strings.Index(body, ">Home<")
	apply := strings.Index(body, ">Apply<")
	contactLink := strings.Index(body, ">Contact<")
	assert.True(t, home < apply && apply < contactLink, "nav order")
}

func TestPageCache(t *testing.T) {
	s := newTestServer(t, testSite)

	_, first := get(t, s.ts.URL+"/contact")
	assert.Equal(t, 1, s.srv.pages.Len())
	_, second := get(t, s.ts.URL+"/contact")
	assert.Equal(t, first, second)

	get(t, s.ts.URL+"/nope")
	assert.Equal(t, 1, s.srv.pages.Len(), "404s are not cached")

	require.NoError(t, s.srv.Discover())
	assert.Equal(t, 0, s.srv.pages.Len())
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, testSite)
	resp, body := get(t, s.ts.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found")
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, testSite)
	resp, err := http.Post(s.ts.URL+"/contact", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, testSite)
	resp, body := get(t, s.ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(3), health["pages"])
}

func TestAssets(t *testing.T) {
	s := newTestServer(t, testSite)

	resp, body := get(t, s.ts.URL+"/assets/elevatebox.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "javascript")
	assert.Contains(t, body, "WebSocket")

	resp, _ = get(t, s.ts.URL+"/assets/missing.js")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func dial(t *testing.T, s *testServer) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, name, id, event string, payload map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(clientMessage{Island: name, ID: id, Event: event, Payload: payload}))
}

func readMessage(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg serverMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil reads messages until one contains want.
func readUntil(t *testing.T, conn *websocket.Conn, want string) serverMessage {
	t.Helper()
	for {
		msg := readMessage(t, conn)
		if strings.Contains(msg.HTML, want) || strings.Contains(msg.Error, want) {
			return msg
		}
	}
}

func TestIslandContactSession(t *testing.T) {
	s := newTestServer(t, testSite)
	conn := dial(t, s)
	const id = "island-contact-0"

	sendEvent(t, conn, "contact", id, "mount", map[string]any{"page": "/contact"})
	msg := readMessage(t, conn)
	assert.Equal(t, "contact", msg.Island)
	assert.Equal(t, id, msg.ID)
	assert.Contains(t, msg.HTML, contact.MessageDefault)

	for field, value := range map[string]string{"name": "Jane Doe", "email": "jane@example.com", "message": "Hello there"} {
		sendEvent(t, conn, "contact", id, "change", map[string]any{"field": field, "value": value})
		readMessage(t, conn)
	}
	sendEvent(t, conn, "contact", id, "submit", nil)
	readUntil(t, conn, contact.MessageSuccess)

	docs := s.sink.Documents(contact.DefaultCollection)
	require.Len(t, docs, 1)
	assert.Equal(t, "Jane Doe", docs[0]["name"])
}

func TestIslandOnboardingSession(t *testing.T) {
	s := newTestServer(t, testSite)
	conn := dial(t, s)
	const id = "island-onboarding-0"

	// The start=1 fence attribute comes from the page.
	sendEvent(t, conn, "onboarding", id, "mount", map[string]any{"page": "/apply"})
	assert.Contains(t, readMessage(t, conn).HTML, "Step 2 of 7")

	sendEvent(t, conn, "onboarding", id, "prev", nil)
	msg := readMessage(t, conn)
	assert.Contains(t, msg.HTML, "Step 1 of 7")

	sendEvent(t, conn, "onboarding", id, "change", map[string]any{"field": "firstName", "value": "Jo"})
	readMessage(t, conn)
	sendEvent(t, conn, "onboarding", id, "blur", map[string]any{"field": "firstName"})
	assert.Contains(t, readMessage(t, conn).HTML, "First Name should be at least 3 characters")
}

func TestIslandErrors(t *testing.T) {
	s := newTestServer(t, testSite)
	conn := dial(t, s)

	sendEvent(t, conn, "contact", "island-contact-0", "submit", nil)
	assert.Contains(t, readMessage(t, conn).Error, "not mounted")

	sendEvent(t, conn, "contact", "island-contact-0", "mount", map[string]any{"page": "/missing"})
	assert.Contains(t, readMessage(t, conn).Error, `unknown page "/missing"`)

	sendEvent(t, conn, "onboarding", "island-onboarding-0", "mount", map[string]any{"page": "/contact"})
	assert.Contains(t, readMessage(t, conn).Error, "has no island")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "malformed message", readMessage(t, conn).Error)

	sendEvent(t, conn, "contact", "island-contact-0", "mount", map[string]any{"page": "/contact"})
	readMessage(t, conn)
	sendEvent(t, conn, "contact", "island-contact-0", "dance", nil)
	assert.Contains(t, readMessage(t, conn).Error, "unknown event")
}

func TestSessionsTrackedAndClosed(t *testing.T) {
	s := newTestServer(t, testSite)
	conn := dial(t, s)
	sendEvent(t, conn, "contact", "island-contact-0", "mount", map[string]any{"page": "/contact"})
	readMessage(t, conn)
	assert.Equal(t, 1, s.srv.SessionCount())

	conn.Close()
	assert.Eventually(t, func() bool { return s.srv.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatchBroadcastsReload(t *testing.T) {
	s := newTestServer(t, testSite)
	require.NoError(t, s.srv.EnableWatch())
	conn := dial(t, s)

	assert.Eventually(t, func() bool { return s.srv.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	page := filepath.Join(s.srv.contentDir, "faq.md")
	require.NoError(t, os.WriteFile(page, []byte("---\ntitle: FAQ\n---\n# FAQ\n"), 0o644))

	msg := readMessage(t, conn)
	assert.Equal(t, "reload", msg.Type)
	assert.Eventually(t, func() bool { return s.srv.route("/faq") != nil }, 2*time.Second, 10*time.Millisecond)
}
