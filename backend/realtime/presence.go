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
	"sort"
	"sync"
)

// Presence maps each identified user id to its single active connection
// id. A second connection from the same user replaces the mapping
// (last-connected-wins); there is no multi-device fan-out.
type Presence struct {
	mu    sync.RWMutex
	conns map[string]string // userID -> connID
}

func NewPresence() *Presence {
	return &Presence{conns: make(map[string]string)}
}

// Register maps userID to connID, overwriting any prior connection for
// that user. It returns the superseded connection id, if any.
func (p *Presence) Register(userID, connID string) (replaced string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	replaced, ok = p.conns[userID]
	p.conns[userID] = connID
	return replaced, ok
}

// Unregister removes the mapping for userID only while connID is still
// its current connection, so a superseded connection's late disconnect
// cannot evict its replacement. Reports whether the map changed.
func (p *Presence) Unregister(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conns[userID] != connID {
		return false
	}
	delete(p.conns, userID)
	return true
}

// Lookup returns the active connection id for userID.
func (p *Presence) Lookup(userID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	connID, ok := p.conns[userID]
	return connID, ok
}

// Snapshot returns the full set of online user ids, sorted for stable
// output. Every presence change re-broadcasts this complete set.
func (p *Presence) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	users := make([]string, 0, len(p.conns))
	for userID := range p.conns {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}
