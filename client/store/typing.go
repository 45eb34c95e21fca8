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
	"time"
)

// DefaultTypingWindow is the inactivity window after which a composing
// session ends on its own. The server enforces no timeout; the sender
// owns the whole lifecycle.
const DefaultTypingWindow = 3 * time.Second

// TypingEmitter sends typing lifecycle events over the socket channel.
// client.Socket satisfies it.
type TypingEmitter interface {
	EmitTyping(receiverID string) error
	EmitStopTyping(receiverID string) error
}

// TypingSignaler runs the sender side of the typing indicator: one
// typing on the first input of a session, stopTyping after the
// inactivity window or immediately on send. State is boolean,
// last-event-wins; there is no queuing of typing events.
type TypingSignaler struct {
	emitter TypingEmitter
	window  time.Duration

	// afterFunc is swapped out by tests for a deterministic trigger.
	afterFunc func(d time.Duration, f func()) *time.Timer

	mu         sync.Mutex
	receiverID string
	active     bool
	timer      *time.Timer
}

func NewTypingSignaler(emitter TypingEmitter, window time.Duration) *TypingSignaler {
	if window <= 0 {
		window = DefaultTypingWindow
	}
	return &TypingSignaler{
		emitter:   emitter,
		window:    window,
		afterFunc: time.AfterFunc,
	}
}

// SetPartner switches the composing target. An active session for the
// previous partner is ended with a stopTyping first.
func (t *TypingSignaler) SetPartner(receiverID string) {
	t.mu.Lock()
	prev := t.receiverID
	wasActive := t.active
	t.stopTimerLocked()
	t.active = false
	t.receiverID = receiverID
	t.mu.Unlock()

	if wasActive && prev != "" {
		t.emitter.EmitStopTyping(prev)
	}
}

// OnInput is called on every local input change. The first input of a
// session emits typing; every input restarts the inactivity timer.
func (t *TypingSignaler) OnInput() {
	t.mu.Lock()
	receiverID := t.receiverID
	if receiverID == "" {
		t.mu.Unlock()
		return
	}
	wasActive := t.active
	t.active = true
	t.stopTimerLocked()
	t.timer = t.afterFunc(t.window, t.expire)
	t.mu.Unlock()

	if !wasActive {
		t.emitter.EmitTyping(receiverID)
	}
}

// OnSend ends the composing session immediately, cancelling the timer
// whatever its state.
func (t *TypingSignaler) OnSend() {
	t.mu.Lock()
	receiverID := t.receiverID
	wasActive := t.active
	t.stopTimerLocked()
	t.active = false
	t.mu.Unlock()

	if wasActive && receiverID != "" {
		t.emitter.EmitStopTyping(receiverID)
	}
}

// Stop cancels any pending emission, for teardown.
func (t *TypingSignaler) Stop() {
	t.mu.Lock()
	t.stopTimerLocked()
	t.active = false
	t.mu.Unlock()
}

func (t *TypingSignaler) expire() {
	t.mu.Lock()
	receiverID := t.receiverID
	wasActive := t.active
	t.active = false
	t.timer = nil
	t.mu.Unlock()

	if wasActive && receiverID != "" {
		t.emitter.EmitStopTyping(receiverID)
	}
}

func (t *TypingSignaler) stopTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
