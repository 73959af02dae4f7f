package server

import (
	"context"
	"encoding/json"

	"netsocial/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Live feed event types.
const (
	EventPostCreated       = "post_created"
	EventPostDeleted       = "post_deleted"
	EventPostHeartsUpdated = "post_hearts_updated"
	EventCommentCreated    = "comment_created"
	EventReplyCreated      = "reply_created"
)

// Personal notifications, sent only to the author of the content acted on.
const (
	EventPostHearted    = "post_hearted"
	EventPostCommented  = "post_commented"
	EventCommentReplied = "comment_replied"
)

func encodeEvent(eventType string, payload map[string]interface{}) (string, bool) {
	eventJSON, err := json.Marshal(map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		middleware.Logger.Error("failed to marshal feed event", "type", eventType, "error", err)
		return "", false
	}
	return string(eventJSON), true
}

// publishUserEvent notifies recipientID about something actorID did. Acting
// on your own content sends nothing.
func (s *Server) publishUserEvent(recipientID, actorID uint, eventType string, payload map[string]interface{}) {
	if recipientID == 0 || recipientID == actorID {
		return
	}
	message, ok := encodeEvent(eventType, payload)
	if !ok {
		return
	}

	if s.notifier.Enabled() {
		err := s.notifier.PublishUser(context.Background(), recipientID, message)
		if err == nil {
			return
		}
		middleware.Logger.Warn("failed to publish user event", "type", eventType, "user_id", recipientID, "error", err)
	}
	s.hub.Broadcast(recipientID, message)
}

// publishBroadcastEvent sends an event to every live feed client. With Redis
// the event goes through pub/sub so clients of every instance receive it;
// otherwise, or if publishing fails, it is delivered to local clients only.
func (s *Server) publishBroadcastEvent(eventType string, payload map[string]interface{}) {
	message, ok := encodeEvent(eventType, payload)
	if !ok {
		return
	}

	if s.notifier.Enabled() {
		err := s.notifier.PublishBroadcast(context.Background(), message)
		if err == nil {
			return
		}
		middleware.Logger.Warn("failed to publish feed event", "type", eventType, "error", err)
	}
	s.hub.BroadcastAll(message)
}

// FeedWebsocketHandler streams live feed events to an authenticated client.
func (s *Server) FeedWebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		// Register connection with scaling guardrails
		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("feed websocket rejected", "user_id", uid, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
