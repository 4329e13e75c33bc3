package service

import (
	"context"

	"github.com/sethkontny/aaventure/internal/domain"
)

// Delivery pushes events to live connections. Implemented by the hub;
// tests substitute a recorder. Send reports false when the connection
// is no longer attached. Both calls are non-blocking per recipient.
type Delivery interface {
	Send(connID string, v interface{}) bool
	SendAll(connIDs []string, v interface{})
}

// ChatService handles room membership and the persisted message stream.
type ChatService interface {
	HandleJoinRoom(ctx context.Context, connID, roomID, chatName string) error
	HandleLeaveRoom(ctx context.Context, connID string)
	HandleChatMessage(ctx context.Context, connID, body string) error
	HandleDisconnect(ctx context.Context, connID string)
	Publish(ctx context.Context, roomID string, msg *domain.Message) error
	History(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
}

// SignalService relays peer-session negotiation messages. The relay is
// stateless per call and never inspects payloads.
type SignalService interface {
	HandleSignal(ctx context.Context, kind, fromConnID, toConnID string, payload []byte) error
	HandleRequestConnections(ctx context.Context, fromConnID string) error
}

// EphemeralService fans out non-persisted, best-effort room events.
type EphemeralService interface {
	HandleTyping(ctx context.Context, connID string, typing bool) error
	HandleHand(ctx context.Context, connID string, raised bool) error
	HandleShareReading(ctx context.Context, connID, title, content string) error
	HandleToggleMedia(ctx context.Context, connID string, video, on bool) error
}

// ModerationService is the cross-room escalation channel: admin
// announcements and safety reports.
type ModerationService interface {
	HandleAnnounce(ctx context.Context, connID, body string) error
	HandleReport(ctx context.Context, connID, roomID, targetChatName, reason string) error
}
