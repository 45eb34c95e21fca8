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

package store

import (
	"sync"

	"github.com/chatlinknet/chatlink/backend/models"
)

// View holds the merged conversation view for the selected partner. It
// keeps two arenas with different lifetimes: historical pages, immutable
// once fetched and only ever prepended to, and the live list, appended
// in real time. They are concatenated only at render time; the boundary
// between them is the moment pagination for this conversation began.
//
// View is safe for concurrent use: socket events arrive on the listen
// goroutine while sends and pagination run on the caller's.
type View struct {
	mu sync.RWMutex

	partnerID string

	// pages is oldest page first; each page is oldest message first
	// (reversed from the server's newest-first wire order on arrival).
	pages [][]models.Message

	// live is append-only within a conversation session, reset on
	// partner switch and on clear.
	live []models.Message

	// seen guards the page/live boundary and the relay echo against
	// duplicates, keyed by message id.
	seen map[string]struct{}

	typing bool
}

func NewView() *View {
	return &View{seen: make(map[string]struct{})}
}

// SelectPartner switches the view to a different conversation,
// discarding both arenas and the typing indicator.
func (v *View) SelectPartner(partnerID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.partnerID = partnerID
	v.resetLocked()
}

// PartnerID returns the currently selected conversation partner.
func (v *View) PartnerID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.partnerID
}

// PrependPage inserts an older page fetched by backward pagination.
// page arrives newest first, as returned by the server, and is reversed
// here so the flattened order stays oldest first. Messages already
// rendered are dropped rather than duplicated.
func (v *View) PrependPage(page []models.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	reversed := make([]models.Message, 0, len(page))
	for i := len(page) - 1; i >= 0; i-- {
		msg := page[i]
		if _, dup := v.seen[msg.ID]; dup {
			continue
		}
		v.seen[msg.ID] = struct{}{}
		reversed = append(reversed, msg)
	}
	if len(reversed) == 0 {
		return
	}

	pages := make([][]models.Message, 0, len(v.pages)+1)
	pages = append(pages, reversed)
	v.pages = append(pages, v.pages...)
}

// AppendLive adds a message observed after the view was opened, either
// relayed by the server or echoed from a successful local send. Reports
// whether the message was actually added: duplicates and messages for a
// different conversation are ignored.
func (v *View) AppendLive(msg models.Message) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if msg.SenderID != v.partnerID && msg.ReceiverID != v.partnerID {
		return false
	}
	if _, dup := v.seen[msg.ID]; dup {
		return false
	}
	v.seen[msg.ID] = struct{}{}
	v.live = append(v.live, msg)
	return true
}

// Messages renders the merged sequence: all historical pages oldest
// first, then the live list.
func (v *View) Messages() []models.Message {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]models.Message, 0, v.lenLocked())
	for _, page := range v.pages {
		out = append(out, page...)
	}
	out = append(out, v.live...)
	return out
}

// Len is the number of rendered messages.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lenLocked()
}

func (v *View) lenLocked() int {
	n := len(v.live)
	for _, page := range v.pages {
		n += len(page)
	}
	return n
}

// Clear empties both arenas, for a local clear-chat or a remote
// clearedChat event. The partner selection survives.
func (v *View) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resetLocked()
}

// SetTyping records whether the selected partner is composing.
func (v *View) SetTyping(typing bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.typing = typing
}

// Typing reports whether the selected partner is composing.
func (v *View) Typing() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.typing
}

func (v *View) resetLocked() {
	v.pages = nil
	v.live = nil
	v.seen = make(map[string]struct{})
	v.typing = false
}
