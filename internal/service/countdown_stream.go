package service

import (
	"net/http"
	"time"

	"studycollab_backend/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// 倒计时推送消息类型
const (
	MsgTick      = "TICK"
	MsgSubmitted = "SUBMITTED"
	MsgEnded     = "ENDED"
	MsgIdle      = "IDLE"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ServeCountdown streams the active session's status once per tick. The
// stream ends with SUBMITTED (carrying the result) or ENDED when the session
// it started on terminates, and with IDLE right away when nothing is active.
// Client messages are discarded.
func ServeCountdown(engine *AssessmentEngine, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.String("user_id", engine.userID))
		return
	}
	defer conn.Close()

	gone := make(chan struct{})
	go readPump(conn, gone, engine.userID)

	status := engine.Status()
	if !status.Active {
		writeFinal(conn, WSMessage{Type: MsgIdle})
		return
	}
	sessionID := status.SessionID
	if err := writeMessage(conn, WSMessage{Type: MsgTick, Data: status}); err != nil {
		return
	}

	interval := engine.deps.Tunables.Get().TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ticker.C:
			status := engine.Status()
			if status.Active && status.SessionID == sessionID {
				if err := writeMessage(conn, WSMessage{Type: MsgTick, Data: status}); err != nil {
					return
				}
				continue
			}

			final := WSMessage{Type: MsgEnded}
			if res := engine.LastResult(); res != nil && res.Session.ID == sessionID {
				final = WSMessage{Type: MsgSubmitted, Data: res}
			}
			writeFinal(conn, final)
			return
		}
	}
}

// readPump only keeps the read deadline fresh and notices the client leaving.
func readPump(conn *websocket.Conn, gone chan<- struct{}, userID string) {
	defer close(gone)
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Debug("Countdown stream closed", zap.String("user_id", userID), zap.Error(err))
			}
			return
		}
	}
}

func writeMessage(conn *websocket.Conn, msg WSMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func writeFinal(conn *websocket.Conn, msg WSMessage) {
	if err := writeMessage(conn, msg); err != nil {
		return
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
