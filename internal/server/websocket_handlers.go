package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler returns the handler for GET /api/ws. The socket is
// one-way: the client listens for notification payloads pushed by the hub.
func (s *Server) WebsocketHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return websocket.New(func(conn *websocket.Conn) {
			userIDVal := conn.Locals("userID")
			if userIDVal == nil {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
				_ = conn.Close()
				return
			}
			userID := userIDVal.(uint)

			if s.hub == nil {
				// No Redis means no realtime delivery; clients fall back to polling.
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"realtime unavailable"}`))
				_ = conn.Close()
				return
			}

			client, err := s.hub.Register(userID, conn)
			if err != nil {
				log.Printf("websocket register failed for user %d: %v", userID, err)
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
				_ = conn.Close()
				return
			}

			go client.WritePump()
			client.ReadPump()
		})(c)
	}
}
