package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sethkontny/aaventure/internal/config"
	"github.com/sethkontny/aaventure/internal/domain"
	"github.com/sethkontny/aaventure/internal/hub"
	"github.com/sethkontny/aaventure/internal/identity"
	"github.com/sethkontny/aaventure/internal/registry"
	"github.com/sethkontny/aaventure/internal/service"
	"github.com/sethkontny/aaventure/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub        *hub.Hub
	registry   *registry.Registry
	resolver   identity.Resolver
	chat       service.ChatService
	signal     service.SignalService
	ephemeral  service.EphemeralService
	moderation service.ModerationService
	wsCfg      config.WebSocketConfig
}

func NewWSHandler(
	h *hub.Hub,
	reg *registry.Registry,
	resolver identity.Resolver,
	chat service.ChatService,
	signal service.SignalService,
	ephemeral service.EphemeralService,
	moderation service.ModerationService,
	wsCfg config.WebSocketConfig,
) *WSHandler {
	return &WSHandler{
		hub:        h,
		registry:   reg,
		resolver:   resolver,
		chat:       chat,
		signal:     signal,
		ephemeral:  ephemeral,
		moderation: moderation,
		wsCfg:      wsCfg,
	}
}

// HandleWebSocket authenticates the handshake, registers the
// connection and starts its pumps. Identity is resolved before the
// upgrade so a bad token costs a plain 401, not a socket.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := h.resolver.Resolve(ctx, c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)

	if err := h.registry.Register(client.ID, id.UserID, id.ChatName, id.IsAdmin); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str(log.FieldUserID, id.UserID).Msg("registration rejected")
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid identity"))
		conn.Close()
		return
	}

	// Disconnect is the only cancellation trigger: the read pump's
	// deferred close runs this exactly once however the link dies.
	client.SetOnClose(func() {
		h.chat.HandleDisconnect(h.connCtx(client.ID), client.ID)
	})

	h.hub.Add(client)
	log.L().Info().
		Str(log.FieldConnID, client.ID).
		Str(log.FieldUserID, id.UserID).
		Str(log.FieldChatName, id.ChatName).
		Msg("connection established")

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

// handleMessage dispatches one decoded frame. Events from the same
// connection run in arrival order because each connection has a single
// read pump.
func (h *WSHandler) handleMessage(client *hub.Client, raw []byte) {
	ctx := h.connCtx(client.ID)

	evt, err := domain.ParseInbound(raw)
	if err != nil {
		client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, err.Error()))
		return
	}

	switch e := evt.(type) {
	case *domain.JoinRoomEvent:
		h.reply(client, h.chat.HandleJoinRoom(ctx, client.ID, e.RoomID, e.ChatName))

	case *domain.LeaveRoomEvent:
		h.chat.HandleLeaveRoom(ctx, client.ID)

	case *domain.SendMessageEvent:
		h.reply(client, h.chat.HandleChatMessage(ctx, client.ID, e.Body))

	case *domain.TypingEvent:
		h.reply(client, h.ephemeral.HandleTyping(ctx, client.ID, e.Type == domain.EvtTyping))

	case *domain.HandEvent:
		h.reply(client, h.ephemeral.HandleHand(ctx, client.ID, e.Type == domain.EvtRaiseHand))

	case *domain.ShareReadingEvent:
		h.reply(client, h.ephemeral.HandleShareReading(ctx, client.ID, e.Title, e.Content))

	case *domain.ToggleVideoEvent:
		h.reply(client, h.ephemeral.HandleToggleMedia(ctx, client.ID, true, e.On))

	case *domain.ToggleAudioEvent:
		h.reply(client, h.ephemeral.HandleToggleMedia(ctx, client.ID, false, e.On))

	case *domain.SignalEvent:
		h.reply(client, h.signal.HandleSignal(ctx, e.Type, client.ID, e.To, e.Payload))

	case *domain.RequestConnectionsEvent:
		h.reply(client, h.signal.HandleRequestConnections(ctx, client.ID))

	case *domain.SendAnnouncementEvent:
		h.reply(client, h.moderation.HandleAnnounce(ctx, client.ID, e.Body))

	case *domain.ReportUserEvent:
		if err := h.moderation.HandleReport(ctx, client.ID, e.RoomID, e.TargetChatName, e.Reason); err != nil {
			h.reply(client, err)
			return
		}
		client.SendEvent(&domain.ReportSubmittedEvent{Type: domain.EvtReportSubmitted, Success: true})

	case *domain.PingEvent:
		client.SendEvent(&domain.PongEvent{Type: domain.EvtPong})
	}
}

// reply surfaces a handler error to the sender only. Failures are
// scoped to the triggering request; nothing here is fatal.
func (h *WSHandler) reply(client *hub.Client, err error) {
	if err == nil {
		return
	}

	var code string
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		code = domain.ErrCodePermissionDenied
	case errors.Is(err, domain.ErrNotInRoom):
		code = domain.ErrCodeNotInRoom
	case errors.Is(err, domain.ErrNotInSameRoom):
		code = domain.ErrCodeNotInSameRoom
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrMessageTooLong),
		errors.Is(err, domain.ErrInvalidIdentity),
		errors.Is(err, domain.ErrMalformedEvent),
		errors.Is(err, domain.ErrUnknownEventType):
		code = domain.ErrCodeBadRequest
	default:
		code = domain.ErrCodeInternalError
	}

	client.SendEvent(domain.NewErrorEvent(code, err.Error()))
}

func (h *WSHandler) connCtx(connID string) context.Context {
	logger := log.L().With().Str(log.FieldConnID, connID).Logger()
	return log.WithLogger(context.Background(), logger)
}
