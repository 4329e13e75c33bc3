package service

import (
	"time"

	"github.com/sethkontny/aaventure/internal/domain"
	"github.com/sethkontny/aaventure/internal/registry"
	"github.com/sethkontny/aaventure/pkg/log"
)

// PresencePublisher turns committed membership changes into presence
// traffic. Two signals per change: a count-only delta (user-joined /
// user-left) and the full active-users snapshot, kept separate so
// high-churn rooms do not force full-list re-renders on every change.
// A system chat message accompanies each change; it is broadcast only,
// never persisted.
type PresencePublisher struct {
	delivery Delivery
}

func NewPresencePublisher(delivery Delivery) *PresencePublisher {
	return &PresencePublisher{delivery: delivery}
}

var _ registry.MembershipListener = (*PresencePublisher)(nil)

func (p *PresencePublisher) MemberJoined(roomID string, member registry.Member, snapshot []registry.Member) {
	connIDs := connIDsOf(snapshot)

	p.delivery.SendAll(connIDs, &domain.UserJoinedEvent{
		Type:        domain.EvtUserJoined,
		UserID:      member.UserID,
		ChatName:    member.ChatName,
		ActiveCount: len(snapshot),
	})
	p.delivery.SendAll(connIDs, domain.NewMessageOut(systemMessage(roomID, member.ChatName+" joined the room")))
	p.delivery.SendAll(connIDs, activeUsers(snapshot))

	log.L().Info().
		Str(log.FieldRoomID, roomID).
		Str(log.FieldChatName, member.ChatName).
		Int("active_count", len(snapshot)).
		Msg("member joined room")
}

func (p *PresencePublisher) MemberLeft(roomID string, member registry.Member, snapshot []registry.Member) {
	connIDs := connIDsOf(snapshot)

	p.delivery.SendAll(connIDs, &domain.UserLeftEvent{
		Type:        domain.EvtUserLeft,
		ChatName:    member.ChatName,
		ActiveCount: len(snapshot),
	})
	p.delivery.SendAll(connIDs, domain.NewMessageOut(systemMessage(roomID, member.ChatName+" left the room")))
	p.delivery.SendAll(connIDs, activeUsers(snapshot))

	log.L().Info().
		Str(log.FieldRoomID, roomID).
		Str(log.FieldChatName, member.ChatName).
		Int("active_count", len(snapshot)).
		Msg("member left room")
}

func connIDsOf(members []registry.Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ConnID
	}
	return ids
}

func activeUsers(members []registry.Member) *domain.ActiveUsersEvent {
	users := make([]domain.PresenceEntry, len(members))
	for i, m := range members {
		users[i] = domain.PresenceEntry{UserID: m.UserID, ChatName: m.ChatName}
	}
	return &domain.ActiveUsersEvent{Type: domain.EvtActiveUsers, Users: users}
}

func systemMessage(roomID, body string) *domain.Message {
	return &domain.Message{
		RoomID:    roomID,
		UserID:    domain.SenderSystem,
		Username:  "System",
		ChatName:  "System",
		Body:      body,
		Kind:      domain.KindSystem,
		Timestamp: time.Now().UTC(),
	}
}
