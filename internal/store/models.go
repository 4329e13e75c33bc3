package store

import (
	"time"

	"github.com/sethkontny/aaventure/internal/domain"
)

// MessageModel is the GORM persistence model for messages.
type MessageModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	RoomID    string    `gorm:"size:128;index:idx_messages_room_ts,priority:1"`
	UserID    string    `gorm:"size:64"`
	Username  string    `gorm:"size:128"`
	ChatName  string    `gorm:"size:128"`
	Body      string    `gorm:"size:1000"`
	Kind      string    `gorm:"size:16"`
	Timestamp time.Time `gorm:"index:idx_messages_room_ts,priority:2"`
}

func (MessageModel) TableName() string { return "messages" }

func (m *MessageModel) ToDomain() domain.Message {
	return domain.Message{
		ID:        m.ID,
		RoomID:    m.RoomID,
		UserID:    m.UserID,
		Username:  m.Username,
		ChatName:  m.ChatName,
		Body:      m.Body,
		Kind:      m.Kind,
		Timestamp: m.Timestamp,
	}
}

func messageToModel(m *domain.Message) *MessageModel {
	return &MessageModel{
		ID:        m.ID,
		RoomID:    m.RoomID,
		UserID:    m.UserID,
		Username:  m.Username,
		ChatName:  m.ChatName,
		Body:      m.Body,
		Kind:      m.Kind,
		Timestamp: m.Timestamp,
	}
}

// ReportModel is the GORM persistence model for safety reports.
type ReportModel struct {
	ID               string    `gorm:"primaryKey;size:36"`
	ReporterChatName string    `gorm:"size:128"`
	TargetChatName   string    `gorm:"size:128"`
	RoomID           string    `gorm:"size:128;index"`
	Reason           string    `gorm:"size:1000"`
	Timestamp        time.Time `gorm:"index"`
}

func (ReportModel) TableName() string { return "safety_reports" }

// UserModel mirrors the account table owned by the account subsystem;
// the core only reads it.
type UserModel struct {
	ID       string `gorm:"primaryKey;size:64"`
	Username string `gorm:"size:128;uniqueIndex"`
	ChatName string `gorm:"size:128"`
	IsAdmin  bool
}

func (UserModel) TableName() string { return "users" }

func (u *UserModel) ToDomain() *domain.User {
	return &domain.User{
		ID:       u.ID,
		Username: u.Username,
		ChatName: u.ChatName,
		IsAdmin:  u.IsAdmin,
	}
}
