package api

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/krishimitra/frontend/internal/models"
	"github.com/krishimitra/frontend/internal/ui"
	"github.com/labstack/echo/v4"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// WSHello is the first message on an events connection
type WSHello struct {
	Type      string            `json:"type"`
	Snapshot  models.UISnapshot `json:"snapshot"`
	Timestamp int64             `json:"timestamp"`
}

// WebSocketHandler streams UI events of the caller's session
type WebSocketHandler struct {
	sessions sessionResolver
	hub      *ui.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new events handler
func NewWebSocketHandler(sessions sessionResolver, hub *ui.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		sessions: sessions,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
	}
}

// HandleEvents upgrades the connection and forwards events until the client goes away
func (wsh *WebSocketHandler) HandleEvents(c echo.Context) error {
	ctrl, err := wsh.sessions.existing(c)
	if err != nil {
		return err
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	events, unsubscribe := wsh.hub.Subscribe(ctrl.ID())
	defer unsubscribe()

	slog.Debug("Events client connected", "session_id", ctrl.ID())

	if err := wsh.write(ws, WSHello{Type: "connected", Snapshot: ctrl.Snapshot(), Timestamp: time.Now().UnixMilli()}); err != nil {
		return nil
	}

	// the client never sends data; reading detects close and handles pongs
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		ws.SetReadDeadline(time.Now().Add(wsPongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("Events connection error", "session_id", ctrl.ID(), "err", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := wsh.write(ws, ev); err != nil {
				return nil
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

func (wsh *WebSocketHandler) write(ws *websocket.Conn, v interface{}) error {
	ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := ws.WriteJSON(v); err != nil {
		if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
			slog.Debug("Events write failed", "err", err)
		}
		return err
	}
	return nil
}

// compile-time check
var _ EventsHandler = (*WebSocketHandler)(nil)
