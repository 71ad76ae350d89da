package admin

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Event is one item on the admin live feed.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

// Feed pushes back-office events (settlements, alerts) to connected admin
// dashboards over websocket. Server push only; client frames are dropped.
type Feed struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

func NewFeed() *Feed {
	return &Feed{clients: make(map[*websocket.Conn]bool)}
}

func (f *Feed) Publish(evt Event) {
	payload, _ := json.Marshal(evt)
	f.mu.RLock()
	defer f.mu.RUnlock()
	for c := range f.clients {
		_ = c.WriteMessage(websocket.TextMessage, payload)
	}
}

func (f *Feed) register(c *websocket.Conn) {
	f.mu.Lock()
	f.clients[c] = true
	f.mu.Unlock()
}

func (f *Feed) unregister(c *websocket.Conn) {
	f.mu.Lock()
	delete(f.clients, c)
	f.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Stream - GET /admin/feed, websocket stream of back-office events.
// AdminGuard runs before this handler.
func (f *Feed) Stream(c echo.Context) error {
	adminID, ok := c.Get("user_id").(string)
	if !ok || adminID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	f.register(ws)
	f.Publish(Event{Type: "observer_join", Data: echo.Map{"admin_id": adminID}, At: time.Now()})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			f.unregister(ws)
			_ = ws.Close()
			break
		}
	}
	return nil
}
