package audit

import (
	"context"

	"github.com/sethkontny/aaventure/pkg/log"
)

// Audit actions for the realtime core.
const (
	ActionRegister    = "room.register"
	ActionJoinRoom    = "room.join"
	ActionLeaveRoom   = "room.leave"
	ActionSendMessage = "room.send_message"
	ActionAnnounce    = "room.announce"
	ActionReportUser  = "room.report_user"
	ActionDisconnect  = "room.disconnect"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, userID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with an extra detail field.
func LogWithDetail(ctx context.Context, action, userID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
