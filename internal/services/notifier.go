package services

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/jairathnishant/MentorMe-AI/internal/clients/redis"
	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/sse"
)

// SessionNotifier fans session events out to connected clients. Local
// delivery goes through the in-process hub; when a redis bus is configured
// the event is also published so peer instances can forward it.
type SessionNotifier interface {
	Publish(sessionID uuid.UUID, event sse.SSEEvent, payload any)
	PlayUtterance(sessionID uuid.UUID, audio []byte, text string)
}

type sessionNotifier struct {
	log *logger.Logger
	hub *sse.SSEHub
	bus redis.SSEBus
}

func NewSessionNotifier(log *logger.Logger, hub *sse.SSEHub, bus redis.SSEBus) SessionNotifier {
	return &sessionNotifier{
		log: log.With("service", "SessionNotifier"),
		hub: hub,
		bus: bus,
	}
}

func (n *sessionNotifier) Publish(sessionID uuid.UUID, event sse.SSEEvent, payload any) {
	msg := sse.SSEMessage{
		Channel: sse.SessionChannel(sessionID),
		Event:   event,
		Data:    payload,
	}
	n.hub.Broadcast(msg)

	if n.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.bus.Publish(ctx, msg); err != nil {
		n.log.Warn("Failed to publish session event to redis (local delivery done)",
			"session", sessionID, "event", event, "error", err)
	}
}

// PlayUtterance ships synthesized audio to the client as a base64 payload
// on the session channel. This is the AudioSink the speech output uses.
func (n *sessionNotifier) PlayUtterance(sessionID uuid.UUID, audio []byte, text string) {
	n.Publish(sessionID, sse.SSEEventUtterance, map[string]any{
		"text":  text,
		"audio": base64.StdEncoding.EncodeToString(audio),
		"mime":  "audio/mpeg",
	})
}
