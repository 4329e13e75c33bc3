package domain

import "time"

// Message kinds. Persisted order is the authoritative delivery order.
const (
	KindChat         = "chat"
	KindSystem       = "system"
	KindAnnouncement = "announcement"
	KindReading      = "reading"
	KindAlert        = "alert"
)

// Sentinel sender identities for messages not authored by a user.
const (
	SenderSystem = "system"
	SenderAdmin  = "admin"
)

// Reserved room identifiers.
const (
	RoomGlobal      = "global"
	RoomAdminAlerts = "admin-alerts"
)

// Message is the persisted unit of room communication. The timestamp is
// assigned by the store at persistence time and is monotonically
// non-decreasing per room.
type Message struct {
	ID        string
	RoomID    string
	UserID    string
	Username  string
	ChatName  string
	Body      string
	Kind      string
	Timestamp time.Time
}

// IsSystem reports whether the message was synthesized by the server.
func (m *Message) IsSystem() bool {
	return m.Kind == KindSystem
}

// SafetyReport is a persisted escalation record created by report-user.
type SafetyReport struct {
	ID               string
	ReporterChatName string
	TargetChatName   string
	RoomID           string
	Reason           string
	Timestamp        time.Time
}

// User is the minimal slice of the account record the core consumes:
// the stored chat name and the admin flag.
type User struct {
	ID       string
	Username string
	ChatName string
	IsAdmin  bool
}

// PresenceEntry is one member in an active-users snapshot.
type PresenceEntry struct {
	UserID   string `json:"userId"`
	ChatName string `json:"chatName"`
}
