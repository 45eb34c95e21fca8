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

package client

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/chatlinknet/chatlink/backend/models"
)

// Handlers receives server-pushed events. Nil fields are skipped.
// Handlers run on the Listen goroutine, one event at a time.
type Handlers struct {
	OnOnlineUsers func(userIDs []string)
	OnNewMessage  func(msg models.Message)
	OnTyping      func(senderID string)
	OnStopTyping  func(senderID string)
	OnClearedChat func()
	OnUserDeleted func(userID string)
}

// Socket is the persistent event channel: one connection per session,
// identified at handshake through the userId query value.
type Socket struct {
	userID   string
	ws       *websocket.Conn
	handlers Handlers

	writeMu sync.Mutex
}

// DialSocket opens the socket channel against wsURL (e.g.
// "ws://host:8080/ws"), identifying as userID.
func DialSocket(ctx context.Context, wsURL, userID string, handlers Handlers) (*Socket, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid socket URL")
	}
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial socket")
	}

	return &Socket{userID: userID, ws: ws, handlers: handlers}, nil
}

// Listen reads and dispatches events until the connection drops or ctx
// is cancelled. After Listen returns, the local view is stale and the
// caller must re-fetch history once reconnected.
func (s *Socket) Listen(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.ws.Close()
		case <-done:
		}
	}()

	for {
		var env models.Envelope
		if err := s.ws.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "socket read failed")
		}
		s.dispatch(env)
	}
}

func (s *Socket) dispatch(env models.Envelope) {
	switch env.Event {
	case models.EventOnlineUsers:
		var ev models.OnlineUsersEvent
		if s.decode(env, &ev) && s.handlers.OnOnlineUsers != nil {
			s.handlers.OnOnlineUsers(ev.UserIDs)
		}
	case models.EventNewMessage:
		var msg models.Message
		if s.decode(env, &msg) && s.handlers.OnNewMessage != nil {
			s.handlers.OnNewMessage(msg)
		}
	case models.EventTyping:
		var ev models.TypingEvent
		if s.decode(env, &ev) && s.handlers.OnTyping != nil {
			s.handlers.OnTyping(ev.SenderID)
		}
	case models.EventStopTyping:
		var ev models.TypingEvent
		if s.decode(env, &ev) && s.handlers.OnStopTyping != nil {
			s.handlers.OnStopTyping(ev.SenderID)
		}
	case models.EventClearedChat:
		if s.handlers.OnClearedChat != nil {
			s.handlers.OnClearedChat()
		}
	case models.EventUserDeleted:
		var ev models.UserDeletedEvent
		if s.decode(env, &ev) && s.handlers.OnUserDeleted != nil {
			s.handlers.OnUserDeleted(ev.UserID)
		}
	default:
		log.WithField("event", env.Event).Debug("Ignoring unknown event")
	}
}

func (s *Socket) decode(env models.Envelope, v interface{}) bool {
	if err := json.Unmarshal(env.Data, v); err != nil {
		log.WithField("event", env.Event).WithError(err).Warn("Dropping malformed event")
		return false
	}
	return true
}

// EmitTyping signals the receiver that this user is composing.
func (s *Socket) EmitTyping(receiverID string) error {
	return s.emit(models.EventTyping, receiverID)
}

// EmitStopTyping signals the end of the composing session.
func (s *Socket) EmitStopTyping(receiverID string) error {
	return s.emit(models.EventStopTyping, receiverID)
}

func (s *Socket) emit(event, receiverID string) error {
	env, err := models.NewEnvelope(event, models.TypingEvent{
		SenderID:   s.userID,
		ReceiverID: receiverID,
	})
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return errors.Wrap(s.ws.WriteJSON(env), "failed to emit event")
}

// Close tears down the connection.
func (s *Socket) Close() error {
	return s.ws.Close()
}
