package service

import (
	"context"

	"github.com/sethkontny/aaventure/internal/domain"
	"github.com/sethkontny/aaventure/internal/registry"
)

// ephemeralService fans out non-persisted room events: typing
// indicators, hand raises, shared readings and media toggles. Delivery
// is best-effort and carries no ordering guarantee relative to the
// message stream.
type ephemeralService struct {
	registry *registry.Registry
	delivery Delivery
}

func NewEphemeralService(reg *registry.Registry, delivery Delivery) EphemeralService {
	return &ephemeralService{registry: reg, delivery: delivery}
}

// HandleTyping tells the rest of the room the sender started or
// stopped typing. Clients self-clear after a timeout; nothing is
// enforced server-side.
func (s *ephemeralService) HandleTyping(ctx context.Context, connID string, typing bool) error {
	conn, others, err := s.roomPeers(connID)
	if err != nil {
		return err
	}

	evt := domain.EvtUserTyping
	if !typing {
		evt = domain.EvtUserStopTyping
	}
	s.delivery.SendAll(others, &domain.ChatNameEvent{Type: evt, ChatName: conn.ChatName})
	return nil
}

// HandleHand broadcasts a hand raise or lower to the whole room,
// sender included, so the sender's own UI confirms the state.
func (s *ephemeralService) HandleHand(ctx context.Context, connID string, raised bool) error {
	conn, err := s.registry.Lookup(connID)
	if err != nil {
		return domain.ErrNotRegistered
	}
	if conn.RoomID == "" {
		return domain.ErrNotInRoom
	}

	evt := domain.EvtHandRaised
	if !raised {
		evt = domain.EvtHandLowered
	}
	members := s.registry.MembersOf(conn.RoomID)
	s.delivery.SendAll(memberConnIDs(members), &domain.ChatNameEvent{Type: evt, ChatName: conn.ChatName})
	return nil
}

// HandleShareReading broadcasts a shared reading to the whole room.
func (s *ephemeralService) HandleShareReading(ctx context.Context, connID, title, content string) error {
	conn, err := s.registry.Lookup(connID)
	if err != nil {
		return domain.ErrNotRegistered
	}
	if conn.RoomID == "" {
		return domain.ErrNotInRoom
	}

	members := s.registry.MembersOf(conn.RoomID)
	s.delivery.SendAll(memberConnIDs(members), &domain.ReadingSharedEvent{
		Type:    domain.EvtReadingShared,
		Title:   title,
		Content: content,
	})
	return nil
}

// HandleToggleMedia tells the other members the sender switched its
// camera or microphone.
func (s *ephemeralService) HandleToggleMedia(ctx context.Context, connID string, video, on bool) error {
	_, others, err := s.roomPeers(connID)
	if err != nil {
		return err
	}

	evt := domain.EvtUserVideoToggled
	if !video {
		evt = domain.EvtUserAudioToggled
	}
	s.delivery.SendAll(others, &domain.MediaToggledEvent{
		Type:         evt,
		ConnectionID: connID,
		On:           on,
	})
	return nil
}

// roomPeers returns the sender and its room peers, excluding the
// sender itself.
func (s *ephemeralService) roomPeers(connID string) (registry.Connection, []string, error) {
	conn, err := s.registry.Lookup(connID)
	if err != nil {
		return registry.Connection{}, nil, domain.ErrNotRegistered
	}
	if conn.RoomID == "" {
		return registry.Connection{}, nil, domain.ErrNotInRoom
	}

	members := s.registry.MembersOf(conn.RoomID)
	others := make([]string, 0, len(members))
	for _, m := range members {
		if m.ConnID != connID {
			others = append(others, m.ConnID)
		}
	}
	return conn, others, nil
}
