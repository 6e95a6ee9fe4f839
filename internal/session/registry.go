// Package session implements the in-memory registry of live chat sessions:
// which connection belongs to which room, in what role, and whether an agent
// is attached. It is pure routing state — no translation, no persistence —
// and every transport event consults it, so operations never block beyond a
// short mutex hold.
//
// Each operation (Join, Leave, End) is a single atomic step: callers that
// also need to await something (persist a row, call a provider) must do so
// after the registry mutation has completed, never in the middle of one.
// Slots have last-write-wins semantics.
package session

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/captain-yun7/medtranslate-v1/internal/domain"
)

// Role identifies which side of a room a connection occupies.
type Role string

// The two roles a connection can hold in a room.
const (
	RoleCustomer Role = domain.SenderCustomer
	RoleAgent    Role = domain.SenderAgent
)

// liveRooms gauges registry occupancy by status for dashboards.
var liveRooms = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "chat_rooms_live",
		Help: "Number of rooms currently tracked by the session registry.",
	},
	[]string{"status"},
)

func init() {
	prometheus.MustRegister(liveRooms)
}

// Session is a snapshot of one room's live state. Connection handles are
// opaque identifiers owned by the transport layer; an empty string means the
// slot is vacant.
type Session struct {
	RoomID           string    `json:"room_id"`
	CustomerConn     string    `json:"-"`
	AgentConn        string    `json:"-"`
	CustomerLanguage string    `json:"customer_language"`
	AgentID          string    `json:"agent_id,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// Active reports whether an agent is attached. By invariant this always
// matches Status == "active".
func (s Session) Active() bool { return s.AgentConn != "" }

// WaitingRoom is the dashboard view of a room that has a customer but no
// agent yet.
type WaitingRoom struct {
	RoomID           string    `json:"room_id"`
	CustomerLanguage string    `json:"customer_language"`
	CreatedAt        time.Time `json:"created_at"`
}

// Registry tracks live sessions and the reverse index from connection handle
// to room. Safe for concurrent use; not persisted beyond process lifetime.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	connRoom map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		connRoom: make(map[string]string),
	}
}

// Join records conn under the role-appropriate slot of roomID, creating the
// session if absent. An agent join transitions the room to active. The
// reverse index is always refreshed, so a reconnecting client simply
// overwrites its stale slot.
func (r *Registry) Join(roomID, conn string, role Role, language, agentID string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[roomID]
	if !ok {
		s = &Session{
			RoomID:    roomID,
			Status:    domain.RoomStatusWaiting,
			CreatedAt: time.Now().UTC(),
		}
		r.sessions[roomID] = s
	}

	switch role {
	case RoleAgent:
		s.AgentConn = conn
		s.AgentID = agentID
		s.Status = domain.RoomStatusActive
	default:
		s.CustomerConn = conn
		if language != "" {
			s.CustomerLanguage = language
		}
	}
	r.connRoom[conn] = roomID
	r.updateGauges()
	return *s
}

// Leave clears whichever slot conn occupies and drops its reverse-index
// entry. Clearing the agent slot reverts the room to waiting — a customer
// left alone is not an ended chat. Unknown connections are a no-op: the
// peer may already have left through End.
func (r *Registry) Leave(conn string) (roomID string, role Role, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID, ok = r.connRoom[conn]
	if !ok {
		return "", "", false
	}
	delete(r.connRoom, conn)

	s, exists := r.sessions[roomID]
	if !exists {
		return roomID, "", true
	}
	switch conn {
	case s.AgentConn:
		s.AgentConn = ""
		s.AgentID = ""
		s.Status = domain.RoomStatusWaiting
		role = RoleAgent
	case s.CustomerConn:
		s.CustomerConn = ""
		role = RoleCustomer
	}
	r.updateGauges()
	return roomID, role, true
}

// Get returns a snapshot of the session for roomID.
func (r *Registry) Get(roomID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[roomID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// End removes the session and both of its reverse-index entries. Ending an
// unknown room is a no-op, so racing end requests are harmless.
func (r *Registry) End(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[roomID]
	if !ok {
		return
	}
	if s.CustomerConn != "" {
		delete(r.connRoom, s.CustomerConn)
	}
	if s.AgentConn != "" {
		delete(r.connRoom, s.AgentConn)
	}
	delete(r.sessions, roomID)
	r.updateGauges()
}

// ListWaiting returns rooms that have a present customer and no agent,
// for agent-facing dashboards.
func (r *Registry) ListWaiting() []WaitingRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]WaitingRoom, 0)
	for id, s := range r.sessions {
		if s.Status == domain.RoomStatusWaiting && s.CustomerConn != "" {
			out = append(out, WaitingRoom{
				RoomID:           id,
				CustomerLanguage: s.CustomerLanguage,
				CreatedAt:        s.CreatedAt,
			})
		}
	}
	return out
}

// RoomFor resolves the room a connection is currently joined to.
func (r *Registry) RoomFor(conn string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.connRoom[conn]
	return roomID, ok
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// updateGauges recounts room statuses; callers hold the write lock.
func (r *Registry) updateGauges() {
	var waiting, active float64
	for _, s := range r.sessions {
		if s.Status == domain.RoomStatusActive {
			active++
		} else {
			waiting++
		}
	}
	liveRooms.WithLabelValues(domain.RoomStatusWaiting).Set(waiting)
	liveRooms.WithLabelValues(domain.RoomStatusActive).Set(active)
}
