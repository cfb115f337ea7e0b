// Package devserver implements spec.md §4.9/§6's dev-server HTTP/
// WebSocket layer: the many-goroutine side of the broker boundary. Every
// handler here either serves straight from disk or calls into a
// broker.Broker — it never touches an *engine.Engine directly.
package devserver

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pylon-ssg/pylon/broker"
)

// liveReloadScript is appended to every HTML response so the page can
// react to a broadcast without the dev server needing to track which
// clients are viewing which URI, grounded on danprince-sietch's
// livereload.JS.
const liveReloadScript = `<script>
(function() {
  var proto = location.protocol === "https:" ? "wss:" : "ws:";
  var ws = new WebSocket(proto + "//" + location.host + "/ws");
  ws.onmessage = function(ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type === "reload") location.reload();
    else if (msg.type === "notify") console.log("pylon:", msg.payload);
  };
})();
</script>`

type wsMessage struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// hub upgrades GET /ws requests and fans out broker broadcast messages
// to every connected socket, adapted from danprince-sietch's
// internal/livereload package: same sockets-map-plus-Upgrader shape,
// generalized to forward both of the broker's message kinds instead of
// a single hardcoded "hello" ping.
type hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	sockets map[*websocket.Conn]bool
}

func newHub() *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sockets: map[*websocket.Conn]bool{},
	}
}

func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("devserver: websocket upgrade: %v", err)
		return
	}
	h.mu.Lock()
	h.sockets[conn] = true
	h.mu.Unlock()
}

// pump reads broker broadcast messages until the channel closes and
// fans each one out to every live socket.
func (h *hub) pump(broadcast <-chan broker.BroadcastMessage) {
	for msg := range broadcast {
		var wm wsMessage
		switch m := msg.(type) {
		case broker.ReloadPageMsg:
			wm = wsMessage{Type: "reload"}
		case broker.NotifyMsg:
			wm = wsMessage{Type: "notify", Payload: m.Text}
		default:
			continue
		}
		h.broadcast(wm)
	}
}

func (h *hub) broadcast(wm wsMessage) {
	payload, err := json.Marshal(wm)
	if err != nil {
		log.Printf("devserver: marshaling websocket message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.sockets {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.sockets, conn)
			conn.Close()
		}
	}
}
