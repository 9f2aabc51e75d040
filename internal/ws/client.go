package ws

import (
	"net/http"
	"slices"
	"time"

	"github.com/fruteira-pos/terminal/internal/auth"
	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the display
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the display
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Displays only send control frames
	maxMessageSize = 512

	sendBuffer = 64
)

// Client is one customer display attached to a terminal.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	terminalID uuid.UUID
	send       chan []byte
}

// readPump keeps the read side alive so pongs and close frames are processed,
// and unregisters the display once the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("display connection lost",
					zap.String("terminal_id", c.terminalID.String()),
					zap.Error(err),
				)
			}
			return
		}
	}
}

// writePump sends every event as its own text frame; displays parse one JSON
// document per frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub dropped the display or is shutting down
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// DisplayHandler serves WS /ws/terminals/{tid}/display?token=JWT.
// Browsers must come from one of origins ("*" allows any); clients that send
// no Origin header, such as kiosk displays, are accepted.
func DisplayHandler(hub *Hub, jwtSecret string, origins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		claims, err := auth.ValidateToken(jwtSecret, tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		terminalID, err := uuid.Parse(chi.URLParam(r, "tid"))
		if err != nil {
			http.Error(w, "invalid terminal id", http.StatusBadRequest)
			return
		}
		if !claims.CanUseTerminal(terminalID, enum.UserRoleAdmin) {
			http.Error(w, "terminal access denied", http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already answered the request
			hub.logger.Warn("display upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			hub:        hub,
			conn:       conn,
			terminalID: terminalID,
			send:       make(chan []byte, sendBuffer),
		}
		hub.Register(client)
		hub.logger.Info("display attached",
			zap.String("terminal_id", terminalID.String()),
			zap.String("operator", claims.Name),
		)

		go client.writePump()
		go client.readPump()
	}
}
