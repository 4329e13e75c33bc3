package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Client -> server event types.
const (
	EvtJoinRoom           = "join-room"
	EvtLeaveRoom          = "leave-room"
	EvtSendMessage        = "send-message"
	EvtTyping             = "typing"
	EvtStopTyping         = "stop-typing"
	EvtRaiseHand          = "raise-hand"
	EvtLowerHand          = "lower-hand"
	EvtShareReading       = "share-reading"
	EvtToggleVideo        = "toggle-video"
	EvtToggleAudio        = "toggle-audio"
	EvtConnectionOffer    = "connection-offer"
	EvtConnectionAnswer   = "connection-answer"
	EvtICECandidate       = "ice-candidate"
	EvtRequestConnections = "request-connections"
	EvtSendAnnouncement   = "send-announcement"
	EvtReportUser         = "report-user"
	EvtPing               = "ping"
)

// Server -> client event types.
const (
	EvtMessageHistory    = "message-history"
	EvtNewMessage        = "new-message"
	EvtUserJoined        = "user-joined"
	EvtUserLeft          = "user-left"
	EvtActiveUsers       = "active-users"
	EvtUserTyping        = "user-typing"
	EvtUserStopTyping    = "user-stop-typing"
	EvtHandRaised        = "hand-raised"
	EvtHandLowered       = "hand-lowered"
	EvtReadingShared     = "reading-shared"
	EvtUserVideoToggled  = "user-video-toggled"
	EvtUserAudioToggled  = "user-audio-toggled"
	EvtConnectionRequest = "connection-request"
	EvtNewAnnouncement   = "new-announcement"
	EvtAdminAlert        = "admin-alert"
	EvtReportSubmitted   = "report-submitted"
	EvtError             = "error"
	EvtPong              = "pong"
)

// Error codes carried on outbound error events.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeNotInRoom        = "NOT_IN_ROOM"
	ErrCodeNotInSameRoom    = "NOT_IN_SAME_ROOM"
	ErrCodePermissionDenied = "PERMISSION_DENIED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Envelope carries the discriminator shared by every frame.
type Envelope struct {
	Type string `json:"type"`
}

// Inbound events. One struct per protocol event; required fields are
// checked by Validate before the event reaches a service.

type JoinRoomEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	// UserID is accepted for wire compatibility but ignored; identity
	// comes from the verified handshake.
	UserID string `json:"userId,omitempty"`
	// ChatName optionally overrides the registered chat name for this
	// room (anonymous per-meeting names).
	ChatName string `json:"chatName,omitempty"`
}

func (e *JoinRoomEvent) Validate() error {
	if strings.TrimSpace(e.RoomID) == "" {
		return fmt.Errorf("%w: join-room requires roomId", ErrMalformedEvent)
	}
	return nil
}

type LeaveRoomEvent struct {
	Type string `json:"type"`
}

func (e *LeaveRoomEvent) Validate() error { return nil }

type SendMessageEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
	Body   string `json:"message"`
}

func (e *SendMessageEvent) Validate() error {
	if e.Body == "" {
		return fmt.Errorf("%w: send-message requires message", ErrMalformedEvent)
	}
	return nil
}

type TypingEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
}

func (e *TypingEvent) Validate() error { return nil }

type HandEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
}

func (e *HandEvent) Validate() error { return nil }

type ShareReadingEvent struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (e *ShareReadingEvent) Validate() error {
	if strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Content) == "" {
		return fmt.Errorf("%w: share-reading requires title or content", ErrMalformedEvent)
	}
	return nil
}

type ToggleVideoEvent struct {
	Type string `json:"type"`
	On   bool   `json:"isVideoOn"`
}

func (e *ToggleVideoEvent) Validate() error { return nil }

type ToggleAudioEvent struct {
	Type string `json:"type"`
	On   bool   `json:"isAudioOn"`
}

func (e *ToggleAudioEvent) Validate() error { return nil }

// SignalEvent covers connection-offer, connection-answer and
// ice-candidate. The payload is opaque to the relay.
type SignalEvent struct {
	Type    string          `json:"type"`
	To      string          `json:"to"`
	Payload json.RawMessage `json:"payload"`
}

func (e *SignalEvent) Validate() error {
	if e.To == "" {
		return fmt.Errorf("%w: %s requires to", ErrMalformedEvent, e.Type)
	}
	if len(e.Payload) == 0 {
		return fmt.Errorf("%w: %s requires payload", ErrMalformedEvent, e.Type)
	}
	return nil
}

type RequestConnectionsEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
}

func (e *RequestConnectionsEvent) Validate() error { return nil }

type SendAnnouncementEvent struct {
	Type string `json:"type"`
	Body string `json:"message"`
}

func (e *SendAnnouncementEvent) Validate() error {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Errorf("%w: send-announcement requires message", ErrMalformedEvent)
	}
	return nil
}

type ReportUserEvent struct {
	Type           string `json:"type"`
	RoomID         string `json:"roomId"`
	TargetChatName string `json:"targetChatName"`
	Reason         string `json:"reason"`
}

func (e *ReportUserEvent) Validate() error {
	if strings.TrimSpace(e.TargetChatName) == "" {
		return fmt.Errorf("%w: report-user requires targetChatName", ErrMalformedEvent)
	}
	return nil
}

type PingEvent struct {
	Type string `json:"type"`
}

func (e *PingEvent) Validate() error { return nil }

type validator interface {
	Validate() error
}

// ParseInbound decodes a raw frame into its typed event. The protocol is
// closed: unknown types fail with ErrUnknownEventType, payloads that do
// not decode or fail validation with ErrMalformedEvent.
func ParseInbound(data []byte) (interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	var evt validator
	switch env.Type {
	case EvtJoinRoom:
		evt = &JoinRoomEvent{}
	case EvtLeaveRoom:
		evt = &LeaveRoomEvent{}
	case EvtSendMessage:
		evt = &SendMessageEvent{}
	case EvtTyping, EvtStopTyping:
		evt = &TypingEvent{}
	case EvtRaiseHand, EvtLowerHand:
		evt = &HandEvent{}
	case EvtShareReading:
		evt = &ShareReadingEvent{}
	case EvtToggleVideo:
		evt = &ToggleVideoEvent{}
	case EvtToggleAudio:
		evt = &ToggleAudioEvent{}
	case EvtConnectionOffer, EvtConnectionAnswer, EvtICECandidate:
		evt = &SignalEvent{}
	case EvtRequestConnections:
		evt = &RequestConnectionsEvent{}
	case EvtSendAnnouncement:
		evt = &SendAnnouncementEvent{}
	case EvtReportUser:
		evt = &ReportUserEvent{}
	case EvtPing:
		evt = &PingEvent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}

	if err := json.Unmarshal(data, evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := evt.Validate(); err != nil {
		return nil, err
	}
	return evt, nil
}

// Outbound events.

// MessagePayload is the wire shape of a message, used by new-message
// and message-history.
type MessagePayload struct {
	RoomID          string    `json:"roomId"`
	UserID          string    `json:"userId"`
	Username        string    `json:"username"`
	ChatName        string    `json:"chatName"`
	Body            string    `json:"message"`
	Kind            string    `json:"kind"`
	Timestamp       time.Time `json:"timestamp"`
	IsSystemMessage bool      `json:"isSystemMessage"`
}

// NewMessagePayload converts a persisted or synthesized message to its
// wire shape.
func NewMessagePayload(m *Message) MessagePayload {
	return MessagePayload{
		RoomID:          m.RoomID,
		UserID:          m.UserID,
		Username:        m.Username,
		ChatName:        m.ChatName,
		Body:            m.Body,
		Kind:            m.Kind,
		Timestamp:       m.Timestamp,
		IsSystemMessage: m.IsSystem(),
	}
}

type MessageHistoryEvent struct {
	Type     string           `json:"type"`
	RoomID   string           `json:"roomId"`
	Messages []MessagePayload `json:"messages"`
}

type NewMessageEvent struct {
	Type string `json:"type"`
	MessagePayload
}

func NewMessageOut(m *Message) *NewMessageEvent {
	return &NewMessageEvent{Type: EvtNewMessage, MessagePayload: NewMessagePayload(m)}
}

type UserJoinedEvent struct {
	Type        string `json:"type"`
	UserID      string `json:"userId"`
	ChatName    string `json:"chatName"`
	ActiveCount int    `json:"activeCount"`
}

type UserLeftEvent struct {
	Type        string `json:"type"`
	ChatName    string `json:"chatName"`
	ActiveCount int    `json:"activeCount"`
}

type ActiveUsersEvent struct {
	Type  string          `json:"type"`
	Users []PresenceEntry `json:"users"`
}

type ChatNameEvent struct {
	Type     string `json:"type"`
	ChatName string `json:"chatName"`
}

type ReadingSharedEvent struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type MediaToggledEvent struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
	On           bool   `json:"on"`
}

// SignalOutEvent is a relayed negotiation message. ChatName is only set
// on offers so the callee can label the incoming peer.
type SignalOutEvent struct {
	Type     string          `json:"type"`
	From     string          `json:"from"`
	ChatName string          `json:"chatName,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type ConnectionRequestEvent struct {
	Type     string `json:"type"`
	From     string `json:"from"`
	ChatName string `json:"chatName"`
}

type NewAnnouncementEvent struct {
	Type      string    `json:"type"`
	Body      string    `json:"message"`
	ChatName  string    `json:"chatName"`
	Timestamp time.Time `json:"timestamp"`
}

type AdminAlertEvent struct {
	Type      string    `json:"type"`
	AlertType string    `json:"alertType"`
	Message   string    `json:"message"`
	RoomID    string    `json:"roomId"`
	Timestamp time.Time `json:"timestamp"`
}

type ReportSubmittedEvent struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorEvent(code, message string) *ErrorEvent {
	return &ErrorEvent{Type: EvtError, Code: code, Message: message}
}

type PongEvent struct {
	Type string `json:"type"`
}
