// Package domain defines the persistence models for chat rooms, messages,
// and agents. These types are mapped with GORM and form the data layer of
// the translation relay backend.
package domain

import (
	"time"
)

// Room status values. A room is "waiting" until an agent connects, "active"
// while an agent is attached, and "ended" once the chat has been closed.
const (
	RoomStatusWaiting = "waiting"
	RoomStatusActive  = "active"
	RoomStatusEnded   = "ended"
)

// Sender types for messages.
const (
	SenderCustomer = "customer"
	SenderAgent    = "agent"
)

// ChatRoom represents one customer↔agent conversation. The live connection
// state for a room is held in the in-memory session registry; this row is the
// durable record used by dashboards and history queries.
//
// Fields:
//   - ID: opaque room identifier ("room_" + 12 hex chars).
//   - CustomerLanguage: ISO 639-1 code of the customer side (e.g. "vi").
//   - AgentID: identifier of the assigned agent, empty while waiting.
//   - Status: waiting | active | ended.
//   - CreatedAt: set on insert.
//   - EndedAt: set when the chat is closed.
type ChatRoom struct {
	ID               string     `json:"id"                 gorm:"type:varchar(50);primaryKey"`
	CustomerLanguage string     `json:"customer_language"  gorm:"type:varchar(10);not null"`
	AgentID          string     `json:"agent_id,omitempty" gorm:"type:varchar(50);index"`
	Status           string     `json:"status"             gorm:"type:varchar(20);not null;default:'waiting';check:status IN ('waiting','active','ended')"`
	CreatedAt        time.Time  `json:"created_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
}

// TableName returns the database table name for ChatRoom.
func (ChatRoom) TableName() string { return "chat_rooms" }

// Message represents a single relayed utterance, stored with both the
// original and the translated text so history can be replayed to either side
// without re-translating.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - RoomID: foreign key to the owning room (indexed with CreatedAt).
//   - SenderType: "customer" or "agent" (enforced by DB constraint).
//   - OriginalText / TranslatedText: the turn as sent and as delivered.
//   - SourceLang / TargetLang: translation direction for this turn.
//   - CreatedAt: insertion timestamp, part of the history ordering.
type Message struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	RoomID         string    `json:"room_id"         gorm:"type:varchar(50);not null;index:idx_room_msgs,priority:1"`
	SenderType     string    `json:"sender_type"     gorm:"type:varchar(20);not null;check:sender_type IN ('customer','agent')"`
	OriginalText   string    `json:"original_text"   gorm:"type:text;not null"`
	TranslatedText string    `json:"translated_text" gorm:"type:text"`
	SourceLang     string    `json:"source_lang"     gorm:"type:varchar(10);not null"`
	TargetLang     string    `json:"target_lang"     gorm:"type:varchar(10)"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index:idx_room_msgs,priority:2"`

	// Room is the parent conversation. Messages are cascade-deleted if
	// their room is removed.
	Room ChatRoom `json:"-" gorm:"foreignKey:RoomID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Agent represents an operator account that can pick up waiting rooms.
// Passwords are stored as bcrypt hashes; the auth service never keeps the
// plaintext.
type Agent struct {
	ID           string    `json:"id"           gorm:"type:varchar(50);primaryKey"`
	Username     string    `json:"username"     gorm:"type:varchar(64);not null;uniqueIndex"`
	PasswordHash string    `json:"-"            gorm:"type:varchar(128);not null"`
	DisplayName  string    `json:"display_name" gorm:"type:varchar(64)"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for Agent.
func (Agent) TableName() string { return "agents" }
