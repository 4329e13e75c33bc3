package service

import (
	"context"
	"fmt"

	"github.com/sethkontny/aaventure/internal/audit"
	"github.com/sethkontny/aaventure/internal/domain"
	"github.com/sethkontny/aaventure/internal/registry"
	"github.com/sethkontny/aaventure/internal/store"
	"github.com/sethkontny/aaventure/pkg/log"
)

// moderationService is the cross-room escalation channel. Announcements
// reach every registered connection; safety reports reach every online
// admin regardless of room.
type moderationService struct {
	registry *registry.Registry
	delivery Delivery
	messages store.MessageStore
	reports  store.ReportStore
}

func NewModerationService(
	reg *registry.Registry,
	delivery Delivery,
	messages store.MessageStore,
	reports store.ReportStore,
) ModerationService {
	return &moderationService{
		registry: reg,
		delivery: delivery,
		messages: messages,
		reports:  reports,
	}
}

// HandleAnnounce persists an announcement and broadcasts it to every
// registered connection, in a room or not. Non-admins are rejected
// before anything is persisted or sent.
func (s *moderationService) HandleAnnounce(ctx context.Context, connID, body string) error {
	conn, err := s.registry.Lookup(connID)
	if err != nil {
		return domain.ErrNotRegistered
	}
	if !conn.IsAdmin {
		log.Ctx(ctx).Warn().
			Str(log.FieldConnID, connID).
			Str(log.FieldUserID, conn.UserID).
			Msg("announce rejected: not an admin")
		return domain.ErrPermissionDenied
	}

	msg := &domain.Message{
		RoomID:   domain.RoomGlobal,
		UserID:   conn.UserID,
		Username: conn.ChatName,
		ChatName: "ADMIN",
		Body:     body,
		Kind:     domain.KindAnnouncement,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return err
	}

	s.delivery.SendAll(s.registry.AllConnIDs(), &domain.NewAnnouncementEvent{
		Type:      domain.EvtNewAnnouncement,
		Body:      body,
		ChatName:  "System Announcement",
		Timestamp: msg.Timestamp,
	})

	audit.Log(ctx, audit.ActionAnnounce, conn.UserID, "announcement broadcast")
	return nil
}

// HandleReport persists a safety report and alerts every online admin.
// Only the reporter is acknowledged; the handler sends the ack after a
// nil return.
func (s *moderationService) HandleReport(ctx context.Context, connID, roomID, targetChatName, reason string) error {
	conn, err := s.registry.Lookup(connID)
	if err != nil {
		return domain.ErrNotRegistered
	}

	report := &domain.SafetyReport{
		ReporterChatName: conn.ChatName,
		TargetChatName:   targetChatName,
		RoomID:           roomID,
		Reason:           reason,
	}
	if err := s.reports.Append(ctx, report); err != nil {
		return err
	}

	alert := fmt.Sprintf("SAFETY REPORT: %s reported %s in %s. Reason: %s",
		conn.ChatName, targetChatName, roomID, reason)
	s.delivery.SendAll(s.registry.AdminConnIDs(), &domain.AdminAlertEvent{
		Type:      domain.EvtAdminAlert,
		AlertType: "safety_report",
		Message:   alert,
		RoomID:    roomID,
		Timestamp: report.Timestamp,
	})

	audit.LogWithDetail(ctx, audit.ActionReportUser, conn.UserID, targetChatName, "safety report filed")
	return nil
}
