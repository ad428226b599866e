package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/elevatebox/elevatebox/internal/island"
	"github.com/elevatebox/elevatebox/internal/logging"
)

const (
	maxMessageSize = 64 << 10
	writeWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// clientMessage is an event sent by the browser:
//
//	{"island":"contact","id":"island-contact-0","event":"submit","payload":{}}
//
// The "mount" event carries the page path in payload.page.
type clientMessage struct {
	Island  string         `json:"island"`
	ID      string         `json:"id"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
}

// serverMessage is either a rendered island ({"island","id","html"}), an
// event error, or a reload notice.
type serverMessage struct {
	Type   string `json:"type,omitempty"`
	File   string `json:"file,omitempty"`
	Island string `json:"island,omitempty"`
	ID     string `json:"id,omitempty"`
	HTML   string `json:"html,omitempty"`
	Error  string `json:"error,omitempty"`
}

// mounted is one island instance of a session.
type mounted struct {
	name   string
	id     string
	mu     sync.Mutex
	island island.Island
}

// session holds the islands mounted over one websocket connection.
type session struct {
	srv    *Server
	conn   *websocket.Conn
	remote string
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex

	mu        sync.Mutex
	instances map[string]*mounted
	closed    bool
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	s.sessWG.Add(1)
	defer s.sessWG.Done()

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	sess := &session{
		srv:       s,
		conn:      conn,
		remote:    getClientIP(r),
		log:       s.log.Named("session"),
		ctx:       ctx,
		cancel:    cancel,
		instances: make(map[string]*mounted),
	}
	conn.SetReadLimit(maxMessageSize)

	s.register(sess)
	defer func() {
		s.unregister(sess)
		sess.close()
		sess.terminate()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				sess.log.Debug("unexpected close", zap.Error(err))
			}
			return
		}
		sess.handle(data)
	}
}

func (sess *session) handle(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		sess.log.Debug("malformed message", zap.Error(err))
		sess.send(serverMessage{Error: "malformed message"})
		return
	}
	if msg.Payload == nil {
		msg.Payload = map[string]any{}
	}
	logging.LogIslandEvent(sess.remote, msg.Island, msg.Event)

	if msg.Event == "mount" {
		if err := sess.mount(msg); err != nil {
			sess.sendError(msg, err)
			return
		}
		sess.render(msg.ID)
		return
	}

	sess.mu.Lock()
	m, ok := sess.instances[msg.ID]
	sess.mu.Unlock()
	if !ok || m.name != msg.Island {
		sess.sendError(msg, fmt.Errorf("island %q is not mounted", msg.ID))
		return
	}

	m.mu.Lock()
	err := m.island.HandleEvent(sess.ctx, msg.Event, msg.Payload)
	m.mu.Unlock()
	if err != nil {
		sess.sendError(msg, err)
		return
	}
	sess.render(msg.ID)
}

// mount creates the island declared on the page at payload.page with the
// given mount id. Fence attributes come from the parsed page, not the client.
func (sess *session) mount(msg clientMessage) error {
	path, _ := msg.Payload["page"].(string)
	route := sess.srv.route(path)
	if route == nil {
		return fmt.Errorf("unknown page %q", path)
	}

	var params map[string]string
	found := false
	for i, b := range route.Page.Islands {
		if b.MountID(i) == msg.ID && b.Name == msg.Island {
			params = b.Attrs
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("page %q has no island %q", path, msg.ID)
	}

	id := msg.ID
	isl, err := sess.srv.islands.New(msg.Island, func() { sess.render(id) })
	if err != nil {
		return err
	}
	if err := isl.Mount(sess.ctx, params); err != nil {
		return err
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		isl.Terminate()
		return errors.New("session closed")
	}
	old := sess.instances[id]
	sess.instances[id] = &mounted{name: msg.Island, id: id, island: isl}
	sess.mu.Unlock()

	if old != nil {
		old.island.Terminate()
	}
	return nil
}

// render sends the current HTML of an island. It is also the update
// callback handed to islands, so it may run on timer goroutines.
func (sess *session) render(id string) {
	sess.mu.Lock()
	m, ok := sess.instances[id]
	closed := sess.closed
	sess.mu.Unlock()
	if !ok || closed {
		return
	}

	var buf bytes.Buffer
	m.mu.Lock()
	err := m.island.Render(&buf)
	m.mu.Unlock()
	if err != nil {
		sess.log.Error("failed to render island", zap.String("id", id), zap.Error(err))
		sess.send(serverMessage{Island: m.name, ID: id, Error: "render failed"})
		return
	}
	sess.send(serverMessage{Island: m.name, ID: id, HTML: buf.String()})
}

func (sess *session) sendError(msg clientMessage, err error) {
	sess.log.Debug("island event failed",
		zap.String("island", msg.Island),
		zap.String("id", msg.ID),
		zap.String("event", msg.Event),
		zap.Error(err))
	sess.send(serverMessage{Island: msg.Island, ID: msg.ID, Error: err.Error()})
}

func (sess *session) send(msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		sess.log.Error("failed to marshal message", zap.Error(err))
		return
	}

	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := sess.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		sess.log.Debug("failed to send message", zap.Error(err))
	}
}

// close marks the session closed and closes the connection, which ends the
// read loop.
func (sess *session) close() {
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return
	}
	sess.closed = true
	sess.mu.Unlock()

	sess.writeMu.Lock()
	_ = sess.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	sess.writeMu.Unlock()
	_ = sess.conn.Close()
}

// terminate stops every island. Pending contact resets are discarded.
func (sess *session) terminate() {
	sess.cancel()
	sess.mu.Lock()
	instances := sess.instances
	sess.instances = map[string]*mounted{}
	sess.mu.Unlock()

	for _, m := range instances {
		m.island.Terminate()
	}
}
