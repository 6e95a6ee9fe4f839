// Package relay implements the message relay protocol: the event-driven
// state machine that routes chat turns between a customer and an agent,
// translating each turn through the orchestrator.
//
// Wire format is a JSON envelope {event, data}. Inbound events are handled
// strictly in arrival order per connection (one read loop per socket);
// events for different rooms interleave freely.
package relay

import "encoding/json"

// Inbound event names.
const (
	EventJoinRoom        = "join_room"
	EventSendMessage     = "send_message"
	EventCustomerMessage = "customer_message"
	EventAgentMessage    = "agent_message"
	EventTyping          = "typing"
	EventStopTyping      = "stop_typing"
	EventEndChat         = "end_chat"
)

// Outbound event names.
const (
	EventConnected       = "connected"
	EventJoinedRoom      = "joined_room"
	EventCustomerOnline  = "customer_online"
	EventAgentOnline     = "agent_online"
	EventNewMessage      = "new_message"
	EventAgentReceive    = "agent_receive_message"
	EventCustomerReceive = "customer_receive_message"
	EventMessageSent     = "message_sent"
	EventChatEnded       = "chat_ended"
	EventError           = "error"
)

// Envelope frames every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutEnvelope is the outbound counterpart; Data is marshalled on send.
type OutEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// JoinRoomData is the payload of a join_room event.
type JoinRoomData struct {
	RoomID   string `json:"room_id"`
	UserType string `json:"user_type"`
	// Language and CustomerLanguage are aliases; clients have historically
	// sent either.
	Language         string `json:"language,omitempty"`
	CustomerLanguage string `json:"customer_language,omitempty"`
	AgentID          string `json:"agent_id,omitempty"`
}

// SendMessageData is the payload of the unified send_message event.
type SendMessageData struct {
	RoomID string `json:"room_id"`
	Text   string `json:"text"`
	// Language is accepted for wire compatibility but ignored: translation
	// direction comes from the sender's room slot, never the payload.
	Language string `json:"language,omitempty"`
}

// ChatMessageData is the payload of the role-specific customer_message and
// agent_message events.
type ChatMessageData struct {
	RoomID    string `json:"room_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// RoomRefData is the payload of typing, stop_typing, and end_chat events.
type RoomRefData struct {
	RoomID  string `json:"room_id"`
	EndedBy string `json:"ended_by,omitempty"`
}

// ConnectedData greets a freshly accepted connection.
type ConnectedData struct {
	ConnectionID string `json:"connection_id"`
}

// JoinedRoomData confirms a join to the joining side.
type JoinedRoomData struct {
	RoomID   string `json:"room_id"`
	UserType string `json:"user_type"`
}

// CustomerOnlineData announces customer presence to the agent side.
type CustomerOnlineData struct {
	Language string `json:"language"`
}

// NewMessageData fans a translated turn out to both sides of a room.
type NewMessageData struct {
	SenderType     string `json:"sender_type"`
	Text           string `json:"text"`
	TranslatedText string `json:"translated_text"`
	SourceLang     string `json:"source_lang"`
	TargetLang     string `json:"target_lang"`
}

// AgentReceiveData delivers a customer turn to the agent with both texts.
type AgentReceiveData struct {
	MessageID  string `json:"message_id"`
	Original   string `json:"original"`
	Translated string `json:"translated"`
	SourceLang string `json:"source_lang"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// CustomerReceiveData delivers an agent turn to the customer, translated
// only.
type CustomerReceiveData struct {
	MessageID string `json:"message_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// MessageSentData is the delivery echo to the sender of a role-specific
// message event.
type MessageSentData struct {
	MessageID  string `json:"message_id"`
	Message    string `json:"message,omitempty"`
	Original   string `json:"original,omitempty"`
	Translated string `json:"translated,omitempty"`
	TargetLang string `json:"target_lang,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// ChatEndedData is broadcast to all room participants on end_chat.
type ChatEndedData struct {
	RoomID  string `json:"room_id"`
	EndedBy string `json:"ended_by"`
}

// ErrorData is sent to the originating connection only, never broadcast.
type ErrorData struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
