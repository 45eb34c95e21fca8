// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package realtime

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/chatlinknet/chatlink/backend/models"
)

func unmarshalEvent(env models.Envelope, v interface{}) error {
	if len(env.Data) == 0 {
		return errors.New("event has no payload")
	}
	return json.Unmarshal(env.Data, v)
}

// Session is one socket connection the hub can push envelopes to.
// UserID is empty for connections that supplied no user id at handshake;
// those are accepted but excluded from presence.
type Session interface {
	ID() string
	UserID() string
	// Send queues an envelope for delivery. Must not block: a session
	// that cannot keep up is disconnected upstream.
	Send(models.Envelope)
}

// Hub owns the presence map and relays transient events between
// connections. Events are never persisted: delivery to an offline user
// is a silent drop, and the recipient catches up via the next HTTP page
// fetch.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]Session // connID -> session, identified or not

	presence *Presence
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]Session),
		presence: NewPresence(),
	}
}

// Presence exposes the hub-owned presence map for inspection. No other
// component mutates it.
func (h *Hub) Presence() *Presence {
	return h.presence
}

// Attach registers a new connection. An identified connection enters the
// presence map, replacing any prior connection for the same user. Every
// attach re-broadcasts the full online snapshot to all connections.
func (h *Hub) Attach(s Session) {
	h.mu.Lock()
	h.sessions[s.ID()] = s
	h.mu.Unlock()

	if userID := s.UserID(); userID != "" {
		if replaced, ok := h.presence.Register(userID, s.ID()); ok {
			log.WithFields(log.Fields{"user_id": userID, "conn_id": replaced}).
				Info("Connection superseded by newer connection")
		}
	}

	h.broadcastOnlineUsers()
}

// Detach removes a connection. The presence entry is dropped only when
// this connection is still the user's current one, so a stale disconnect
// never evicts a newer connection.
func (h *Hub) Detach(s Session) {
	h.mu.Lock()
	delete(h.sessions, s.ID())
	h.mu.Unlock()

	if userID := s.UserID(); userID != "" {
		if h.presence.Unregister(userID, s.ID()) {
			h.broadcastOnlineUsers()
		}
	}
}

// HandleInbound dispatches a client-to-server event. Only typing events
// flow over the socket; messages themselves go over HTTP for durability.
func (h *Hub) HandleInbound(s Session, env models.Envelope) {
	switch env.Event {
	case models.EventTyping, models.EventStopTyping:
		var ev models.TypingEvent
		if err := unmarshalEvent(env, &ev); err != nil {
			log.WithField("event", env.Event).WithError(err).Warn("Dropping malformed typing event")
			return
		}
		// Relay to the receiver as {senderId} only. No debouncing, no
		// server-side timeout: the sender owns the typing lifecycle.
		h.Relay(env.Event, ev.ReceiverID, models.TypingEvent{SenderID: ev.SenderID})
	default:
		log.WithField("event", env.Event).Debug("Ignoring unknown inbound event")
	}
}

// Relay delivers an event to the target user's connection if one exists.
// An offline target is not an error; the event is silently dropped.
func (h *Hub) Relay(event, targetUserID string, payload interface{}) {
	connID, ok := h.presence.Lookup(targetUserID)
	if !ok {
		return
	}

	h.mu.RLock()
	s, ok := h.sessions[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	env, err := models.NewEnvelope(event, payload)
	if err != nil {
		log.WithField("event", event).WithError(err).Error("Failed to encode event")
		return
	}
	s.Send(env)
}

// RelayNewMessage notifies the receiver's connection of a freshly
// persisted message. The sender is never notified over the socket; its
// UI reflects the message from the HTTP response.
func (h *Hub) RelayNewMessage(msg *models.Message) {
	h.Relay(models.EventNewMessage, msg.ReceiverID, msg)
}

// RelayClearedChat notifies the other participant that the conversation
// was emptied.
func (h *Hub) RelayClearedChat(targetUserID string) {
	h.Relay(models.EventClearedChat, targetUserID, nil)
}

// BroadcastUserDeleted announces an account deletion to every
// connection.
func (h *Hub) BroadcastUserDeleted(userID string) {
	h.broadcast(models.EventUserDeleted, models.UserDeletedEvent{UserID: userID})
}

func (h *Hub) broadcastOnlineUsers() {
	h.broadcast(models.EventOnlineUsers, models.OnlineUsersEvent{UserIDs: h.presence.Snapshot()})
}

func (h *Hub) broadcast(event string, payload interface{}) {
	env, err := models.NewEnvelope(event, payload)
	if err != nil {
		log.WithField("event", event).WithError(err).Error("Failed to encode event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		s.Send(env)
	}
}
