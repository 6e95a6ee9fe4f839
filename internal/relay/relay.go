package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/captain-yun7/medtranslate-v1/internal/domain"
	"github.com/captain-yun7/medtranslate-v1/internal/session"
	"github.com/captain-yun7/medtranslate-v1/internal/translate"
)

// DefaultPivotLang is the agent-side language assumed when none is
// configured.
const DefaultPivotLang = "ko"

// Conn is one live transport connection as the relay sees it. Send must
// never block the caller; delivery to a stale or closing connection is a
// silent no-op.
type Conn interface {
	ID() string
	Send(event string, data any)
}

// MessageStore persists chat turns. Persistence is fire-and-forget: a
// store failure is logged and never blocks or fails delivery.
type MessageStore interface {
	Append(ctx context.Context, msg *domain.Message) error
}

// RoomStore persists room lifecycle transitions driven by the relay. Like
// MessageStore it is fire-and-forget; rooms that only ever existed in
// memory simply fail the update, which is logged and ignored.
type RoomStore interface {
	AssignAgent(ctx context.Context, roomID, agentID string) error
	EndRoom(ctx context.Context, roomID string) error
}

// Translator is the slice of the translation orchestrator the relay needs.
type Translator interface {
	Translate(ctx context.Context, req translate.Request) translate.Result
}

// Relay routes events between the two sides of a chat room.
type Relay struct {
	Registry   *session.Registry
	Translator Translator
	Store      MessageStore // optional
	Rooms      RoomStore    // optional
	PivotLang  string

	mu    sync.RWMutex
	conns map[string]Conn
}

// New returns a Relay with defaults applied.
func New(reg *session.Registry, tr Translator, store MessageStore) *Relay {
	return &Relay{
		Registry:   reg,
		Translator: tr,
		Store:      store,
		PivotLang:  DefaultPivotLang,
		conns:      make(map[string]Conn),
	}
}

// HandleConnect registers and greets a freshly accepted connection.
func (r *Relay) HandleConnect(conn Conn) {
	r.mu.Lock()
	r.conns[conn.ID()] = conn
	r.mu.Unlock()

	conn.Send(EventConnected, ConnectedData{ConnectionID: conn.ID()})
	log.Debug().Str("connection_id", conn.ID()).Msg("client connected")
}

// HandleDisconnect detaches the connection from its room, if any. An agent
// leaving an active room reverts it to waiting; the session survives for a
// later agent to pick up.
func (r *Relay) HandleDisconnect(conn Conn) {
	r.mu.Lock()
	delete(r.conns, conn.ID())
	r.mu.Unlock()

	roomID, role, ok := r.Registry.Leave(conn.ID())
	if !ok {
		log.Debug().Str("connection_id", conn.ID()).Msg("client disconnected")
		return
	}
	log.Info().
		Str("connection_id", conn.ID()).
		Str("room_id", roomID).
		Str("role", string(role)).
		Msg("participant disconnected")
}

// HandleEvent decodes and dispatches one inbound envelope. Unknown events
// and malformed payloads produce an error event on the originating
// connection only.
func (r *Relay) HandleEvent(ctx context.Context, conn Conn, env Envelope) {
	switch env.Event {
	case EventJoinRoom:
		var d JoinRoomData
		if !decode(conn, env.Data, &d) {
			return
		}
		r.JoinRoom(ctx, conn, d)
	case EventSendMessage:
		var d SendMessageData
		if !decode(conn, env.Data, &d) {
			return
		}
		r.SendMessage(ctx, conn, d)
	case EventCustomerMessage:
		var d ChatMessageData
		if !decode(conn, env.Data, &d) {
			return
		}
		r.CustomerMessage(ctx, conn, d)
	case EventAgentMessage:
		var d ChatMessageData
		if !decode(conn, env.Data, &d) {
			return
		}
		r.AgentMessage(ctx, conn, d)
	case EventTyping, EventStopTyping:
		var d RoomRefData
		if !decode(conn, env.Data, &d) {
			return
		}
		r.RelayTyping(conn, env.Event, d.RoomID)
	case EventEndChat:
		var d RoomRefData
		if !decode(conn, env.Data, &d) {
			return
		}
		r.EndChat(ctx, conn, d)
	default:
		conn.Send(EventError, ErrorData{Message: "unknown event", Detail: env.Event})
	}
}

func decode(conn Conn, raw json.RawMessage, dst any) bool {
	if len(raw) == 0 {
		conn.Send(EventError, ErrorData{Message: "missing event data"})
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		conn.Send(EventError, ErrorData{Message: "invalid event data", Detail: err.Error()})
		return false
	}
	return true
}

// JoinRoom attaches the connection to a room in the declared role. The
// joining side receives a joined_room confirmation; if the counterpart is
// already present, both sides receive a presence notice for the other.
func (r *Relay) JoinRoom(_ context.Context, conn Conn, d JoinRoomData) {
	if d.RoomID == "" {
		conn.Send(EventError, ErrorData{Message: "room_id is required"})
		return
	}
	lang := d.Language
	if lang == "" {
		lang = d.CustomerLanguage
	}

	var role session.Role
	switch d.UserType {
	case domain.SenderAgent:
		role = session.RoleAgent
	case domain.SenderCustomer, "":
		role = session.RoleCustomer
	default:
		conn.Send(EventError, ErrorData{Message: "unknown user_type", Detail: d.UserType})
		return
	}

	sess := r.Registry.Join(d.RoomID, conn.ID(), role, lang, d.AgentID)
	conn.Send(EventJoinedRoom, JoinedRoomData{RoomID: d.RoomID, UserType: string(role)})

	switch role {
	case session.RoleCustomer:
		if sess.AgentConn != "" {
			conn.Send(EventAgentOnline, struct{}{})
		}
	case session.RoleAgent:
		if sess.CustomerConn != "" {
			conn.Send(EventCustomerOnline, CustomerOnlineData{Language: sess.CustomerLanguage})
		}
	}
	if counterpart := r.counterpartOf(sess, role); counterpart != nil {
		switch role {
		case session.RoleCustomer:
			counterpart.Send(EventCustomerOnline, CustomerOnlineData{Language: sess.CustomerLanguage})
		case session.RoleAgent:
			counterpart.Send(EventAgentOnline, struct{}{})
		}
	}

	if role == session.RoleAgent && r.Rooms != nil {
		r.persistRoom(d.RoomID, "assign agent", func(ctx context.Context) error {
			return r.Rooms.AssignAgent(ctx, d.RoomID, d.AgentID)
		})
	}

	log.Info().
		Str("room_id", d.RoomID).
		Str("role", string(role)).
		Str("status", sess.Status).
		Msg("participant joined room")
}

// SendMessage handles the unified message event. Sender role comes from
// comparing the connection against the room's slots, never from the
// payload; translation direction follows from the role.
func (r *Relay) SendMessage(ctx context.Context, conn Conn, d SendMessageData) {
	sess, role, ok := r.resolve(conn, d.RoomID)
	if !ok {
		return
	}

	src, tgt := r.direction(sess, role)
	res := r.Translator.Translate(ctx, translate.Request{
		Text:       d.Text,
		SourceLang: src,
		TargetLang: tgt,
	})

	out := NewMessageData{
		SenderType:     string(role),
		Text:           d.Text,
		TranslatedText: res.Text,
		SourceLang:     src,
		TargetLang:     tgt,
	}
	if c := r.counterpartOf(sess, role); c != nil {
		// Counterpart reads in its own language.
		c.Send(EventNewMessage, NewMessageData{
			SenderType:     string(role),
			Text:           res.Text,
			TranslatedText: d.Text,
			SourceLang:     src,
			TargetLang:     tgt,
		})
	}
	conn.Send(EventNewMessage, out)

	r.persist(d.RoomID, string(role), d.Text, res.Text, src, tgt)
}

// CustomerMessage handles the legacy customer-side message event.
func (r *Relay) CustomerMessage(ctx context.Context, conn Conn, d ChatMessageData) {
	sess, role, ok := r.resolve(conn, d.RoomID)
	if !ok {
		return
	}
	if role != session.RoleCustomer {
		conn.Send(EventError, ErrorData{Message: "not the customer of this room"})
		return
	}

	src := sess.CustomerLanguage
	tgt := r.pivot()
	res := r.Translator.Translate(ctx, translate.Request{
		Text:       d.Message,
		SourceLang: src,
		TargetLang: tgt,
	})
	id := uuid.NewString()

	if c := r.counterpartOf(sess, role); c != nil {
		c.Send(EventAgentReceive, AgentReceiveData{
			MessageID:  id,
			Original:   d.Message,
			Translated: res.Text,
			SourceLang: src,
			Timestamp:  d.Timestamp,
		})
	}
	conn.Send(EventMessageSent, MessageSentData{
		MessageID: id,
		Message:   d.Message,
		Timestamp: d.Timestamp,
	})

	r.persist(d.RoomID, domain.SenderCustomer, d.Message, res.Text, src, tgt)
}

// AgentMessage handles the legacy agent-side message event. The customer
// receives the translated text only.
func (r *Relay) AgentMessage(ctx context.Context, conn Conn, d ChatMessageData) {
	sess, role, ok := r.resolve(conn, d.RoomID)
	if !ok {
		return
	}
	if role != session.RoleAgent {
		conn.Send(EventError, ErrorData{Message: "not the agent of this room"})
		return
	}

	src := r.pivot()
	tgt := sess.CustomerLanguage
	res := r.Translator.Translate(ctx, translate.Request{
		Text:       d.Message,
		SourceLang: src,
		TargetLang: tgt,
	})
	id := uuid.NewString()

	if c := r.counterpartOf(sess, role); c != nil {
		c.Send(EventCustomerReceive, CustomerReceiveData{
			MessageID: id,
			Message:   res.Text,
			Timestamp: d.Timestamp,
		})
	}
	conn.Send(EventMessageSent, MessageSentData{
		MessageID:  id,
		Original:   d.Message,
		Translated: res.Text,
		TargetLang: tgt,
		Timestamp:  d.Timestamp,
	})

	r.persist(d.RoomID, domain.SenderAgent, d.Message, res.Text, src, tgt)
}

// RelayTyping forwards typing and stop_typing to the counterpart only.
func (r *Relay) RelayTyping(conn Conn, event, roomID string) {
	sess, role, ok := r.resolve(conn, roomID)
	if !ok {
		return
	}
	if c := r.counterpartOf(sess, role); c != nil {
		c.Send(event, RoomRefData{RoomID: roomID})
	}
}

// EndChat terminates the session and notifies every participant still
// connected. Ending an unknown or already-ended room is a no-op error to
// the caller only.
func (r *Relay) EndChat(_ context.Context, conn Conn, d RoomRefData) {
	sess, role, ok := r.resolve(conn, d.RoomID)
	if !ok {
		return
	}

	endedBy := d.EndedBy
	if endedBy == "" {
		endedBy = string(role)
	}
	ended := ChatEndedData{RoomID: d.RoomID, EndedBy: endedBy}

	conns := r.participants(sess)
	r.Registry.End(d.RoomID)
	for _, c := range conns {
		c.Send(EventChatEnded, ended)
	}
	if r.Rooms != nil {
		r.persistRoom(d.RoomID, "end room", func(ctx context.Context) error {
			return r.Rooms.EndRoom(ctx, d.RoomID)
		})
	}

	log.Info().
		Str("room_id", d.RoomID).
		Str("ended_by", endedBy).
		Msg("chat ended")
}

// resolve looks up the session and determines the caller's role by slot
// membership. Unknown rooms and non-participants get an error event.
func (r *Relay) resolve(conn Conn, roomID string) (session.Session, session.Role, bool) {
	sess, ok := r.Registry.Get(roomID)
	if !ok {
		conn.Send(EventError, ErrorData{Message: "session not found", Detail: roomID})
		return session.Session{}, "", false
	}
	switch conn.ID() {
	case sess.CustomerConn:
		return sess, session.RoleCustomer, true
	case sess.AgentConn:
		return sess, session.RoleAgent, true
	}
	conn.Send(EventError, ErrorData{Message: "not a participant of this room", Detail: roomID})
	return session.Session{}, "", false
}

func (r *Relay) direction(sess session.Session, role session.Role) (src, tgt string) {
	if role == session.RoleAgent {
		return r.pivot(), sess.CustomerLanguage
	}
	return sess.CustomerLanguage, r.pivot()
}

func (r *Relay) pivot() string {
	if r.PivotLang != "" {
		return r.PivotLang
	}
	return DefaultPivotLang
}

func (r *Relay) counterpartOf(sess session.Session, role session.Role) Conn {
	var id string
	if role == session.RoleCustomer {
		id = sess.AgentConn
	} else {
		id = sess.CustomerConn
	}
	return r.connFor(id)
}

func (r *Relay) participants(sess session.Session) []Conn {
	var out []Conn
	if c := r.connFor(sess.CustomerConn); c != nil {
		out = append(out, c)
	}
	if c := r.connFor(sess.AgentConn); c != nil {
		out = append(out, c)
	}
	return out
}

func (r *Relay) connFor(id string) Conn {
	if id == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[id]
}

// persistRoom applies a room lifecycle update without blocking delivery.
// Rooms created purely in memory (no REST row) fail here; that is expected
// and only worth a debug line.
func (r *Relay) persistRoom(roomID, what string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Debug().Err(err).Str("room_id", roomID).Msgf("could not %s", what)
		}
	}()
}

// persist appends the turn to the store without blocking delivery.
func (r *Relay) persist(roomID, sender, original, translated, src, tgt string) {
	if r.Store == nil {
		return
	}
	msg := &domain.Message{
		RoomID:         roomID,
		SenderType:     sender,
		OriginalText:   original,
		TranslatedText: translated,
		SourceLang:     src,
		TargetLang:     tgt,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Store.Append(ctx, msg); err != nil {
			log.Error().Err(err).Str("room_id", roomID).Msg("failed to persist message")
		}
	}()
}
