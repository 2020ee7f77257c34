package ws

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

const sessionLocal = "ws_session_id"

// SessionChecker reports whether a session is open.
type SessionChecker interface {
	Exists(id uuid.UUID) bool
}

func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		sessionID, ok := c.Locals(sessionLocal).(uuid.UUID)
		if !ok {
			_ = c.Close()
			return
		}

		client := &Client{
			hub:       hub,
			conn:      c,
			sessionID: sessionID,
			send:      make(chan []byte, 256),
		}

		if !hub.join(client) {
			_ = c.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// UpgradeMiddleware accepts websocket upgrades for open sessions named by
// the :id route parameter.
func UpgradeMiddleware(sessions SessionChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		id, err := uuid.Parse(c.Params("id"))
		if err != nil || !sessions.Exists(id) {
			return domain.ErrSessionNotFound
		}

		c.Locals(sessionLocal, id)
		return c.Next()
	}
}
