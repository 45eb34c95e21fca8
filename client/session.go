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
	"sync"
	"time"

	"github.com/chatlinknet/chatlink/backend/models"
	"github.com/chatlinknet/chatlink/client/store"
)

// FetchPage adapts the HTTP API to store.Fetcher.
func (a *API) FetchPage(ctx context.Context, partnerID string, cursor *time.Time, limit int) (*models.MessagePage, error) {
	return a.GetMessages(ctx, partnerID, cursor, limit)
}

// Send adapts the HTTP API to store.Sender.
func (a *API) Send(ctx context.Context, receiverID, message, image, imageContentType string) (*models.Message, error) {
	res, err := a.SendMessage(ctx, receiverID, message, image, imageContentType)
	if err != nil {
		return nil, err
	}
	return &res.Message, nil
}

// Clear adapts the HTTP API to store.Sender.
func (a *API) Clear(ctx context.Context, partnerID string) error {
	return a.ClearChat(ctx, partnerID)
}

// Session is one authenticated client session: the HTTP API, the socket
// channel, the conversation controller driving the merged view, and the
// online-user set from presence snapshots.
type Session struct {
	api    *API
	socket *Socket
	ctrl   *store.Controller

	mu     sync.RWMutex
	online []string
}

// SessionConfig carries the knobs a Session needs; zero values pick the
// documented defaults.
type SessionConfig struct {
	BaseURL      string
	SocketURL    string
	Token        string
	UserID       string
	PageLimit    int
	TypingWindow time.Duration
}

// NewSession dials the socket, identified by UserID at handshake, and
// assembles the synchronization layer around it.
func NewSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 20
	}

	s := &Session{api: NewAPI(cfg.BaseURL, cfg.Token)}

	view := store.NewView()
	pager := store.NewPager(s.api, cfg.PageLimit)

	socket, err := DialSocket(ctx, cfg.SocketURL, cfg.UserID, Handlers{
		OnOnlineUsers: s.setOnline,
		OnNewMessage:  func(msg models.Message) { s.ctrl.HandleNewMessage(msg) },
		OnTyping:      func(senderID string) { s.ctrl.HandleTyping(senderID) },
		OnStopTyping:  func(senderID string) { s.ctrl.HandleStopTyping(senderID) },
		OnClearedChat: func() { s.ctrl.HandleClearedChat() },
		OnUserDeleted: s.dropOnline,
	})
	if err != nil {
		return nil, err
	}
	s.socket = socket

	typing := store.NewTypingSignaler(socket, cfg.TypingWindow)
	s.ctrl = store.NewController(view, pager, typing, s.api)

	return s, nil
}

// Controller exposes the conversation controller.
func (s *Session) Controller() *store.Controller {
	return s.ctrl
}

// Run pumps socket events until the connection drops or ctx is
// cancelled. After it returns the merged view is a stale local cache:
// reconnect and re-select the partner to re-fetch from the store.
func (s *Session) Run(ctx context.Context) error {
	return s.socket.Listen(ctx)
}

// Online returns the latest presence snapshot. Snapshots are not
// versioned; the most recently delivered one is authoritative.
func (s *Session) Online() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.online))
	copy(out, s.online)
	return out
}

// IsOnline reports whether userID appeared in the latest snapshot.
func (s *Session) IsOnline(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.online {
		if id == userID {
			return true
		}
	}
	return false
}

// Close tears the socket down.
func (s *Session) Close() error {
	return s.socket.Close()
}

func (s *Session) setOnline(userIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = userIDs
}

func (s *Session) dropOnline(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.online[:0]
	for _, id := range s.online {
		if id != userID {
			filtered = append(filtered, id)
		}
	}
	s.online = filtered
}
