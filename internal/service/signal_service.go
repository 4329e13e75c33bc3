package service

import (
	"context"
	"encoding/json"

	"github.com/sethkontny/aaventure/internal/domain"
	"github.com/sethkontny/aaventure/internal/registry"
	"github.com/sethkontny/aaventure/pkg/log"
)

// signalService relays peer-session negotiation envelopes. It is
// stateless per call: negotiation state (Idle -> OfferSent ->
// AnswerReceived -> Established -> Closed) is tracked by each
// participant pair, never here.
type signalService struct {
	registry *registry.Registry
	delivery Delivery
}

func NewSignalService(reg *registry.Registry, delivery Delivery) SignalService {
	return &signalService{registry: reg, delivery: delivery}
}

// HandleSignal forwards one envelope to exactly one recipient. Both
// ends must currently share a room or the payload is dropped with
// ErrNotInSameRoom. A recipient that vanished between lookup and
// delivery is logged and dropped; signaling is best-effort and never
// retried.
func (s *signalService) HandleSignal(ctx context.Context, kind, fromConnID, toConnID string, payload []byte) error {
	from, err := s.registry.Lookup(fromConnID)
	if err != nil {
		return domain.ErrNotRegistered
	}

	roomID, ok := s.registry.SameRoom(fromConnID, toConnID)
	if !ok {
		log.Ctx(ctx).Warn().
			Str(log.FieldConnID, fromConnID).
			Str("to_conn_id", toConnID).
			Str(log.FieldEvent, kind).
			Msg("signal rejected: peers not in the same room")
		return domain.ErrNotInSameRoom
	}

	out := &domain.SignalOutEvent{
		Type:    kind,
		From:    fromConnID,
		Payload: json.RawMessage(payload),
	}
	// Offers carry the caller's chat name so the callee can label the
	// incoming peer.
	if kind == domain.EvtConnectionOffer {
		out.ChatName = from.ChatName
	}

	if !s.delivery.Send(toConnID, out) {
		log.Ctx(ctx).Debug().
			Str("to_conn_id", toConnID).
			Str(log.FieldRoomID, roomID).
			Str(log.FieldEvent, kind).
			Msg("signal dropped: recipient unavailable")
	}
	return nil
}

// HandleRequestConnections broadcasts a connection-request to every
// other current member of the sender's room. Each recipient decides
// whether to answer by initiating its own offer.
func (s *signalService) HandleRequestConnections(ctx context.Context, fromConnID string) error {
	from, err := s.registry.Lookup(fromConnID)
	if err != nil {
		return domain.ErrNotRegistered
	}
	if from.RoomID == "" {
		return domain.ErrNotInRoom
	}

	members := s.registry.MembersOf(from.RoomID)
	targets := make([]string, 0, len(members))
	for _, m := range members {
		if m.ConnID != fromConnID {
			targets = append(targets, m.ConnID)
		}
	}

	s.delivery.SendAll(targets, &domain.ConnectionRequestEvent{
		Type:     domain.EvtConnectionRequest,
		From:     fromConnID,
		ChatName: from.ChatName,
	})
	return nil
}
