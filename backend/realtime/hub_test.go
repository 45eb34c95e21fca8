// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlinknet/chatlink/backend/models"
)

// fakeSession records everything the hub pushes at it.
type fakeSession struct {
	id     string
	userID string
	sent   []models.Envelope
}

func (s *fakeSession) ID() string               { return s.id }
func (s *fakeSession) UserID() string           { return s.userID }
func (s *fakeSession) Send(env models.Envelope) { s.sent = append(s.sent, env) }

func (s *fakeSession) events(name string) []models.Envelope {
	var out []models.Envelope
	for _, env := range s.sent {
		if env.Event == name {
			out = append(out, env)
		}
	}
	return out
}

func (s *fakeSession) lastOnlineUsers(t *testing.T) []string {
	t.Helper()
	envs := s.events(models.EventOnlineUsers)
	require.NotEmpty(t, envs)
	var ev models.OnlineUsersEvent
	require.NoError(t, json.Unmarshal(envs[len(envs)-1].Data, &ev))
	return ev.UserIDs
}

func TestHubAttachBroadcastsFullSnapshot(t *testing.T) {
	hub := NewHub()

	alice := &fakeSession{id: "c1", userID: "alice"}
	bob := &fakeSession{id: "c2", userID: "bob"}
	ghost := &fakeSession{id: "c3"} // no user id at handshake

	hub.Attach(alice)
	hub.Attach(bob)
	hub.Attach(ghost)

	// Everyone, identified or not, sees the full identified set.
	assert.Equal(t, []string{"alice", "bob"}, alice.lastOnlineUsers(t))
	assert.Equal(t, []string{"alice", "bob"}, bob.lastOnlineUsers(t))
	assert.Equal(t, []string{"alice", "bob"}, ghost.lastOnlineUsers(t))

	// The unidentified connection never appears online.
	_, ok := hub.Presence().Lookup("")
	assert.False(t, ok)
}

func TestHubDetachBroadcastsUpdatedSnapshot(t *testing.T) {
	hub := NewHub()

	alice := &fakeSession{id: "c1", userID: "alice"}
	bob := &fakeSession{id: "c2", userID: "bob"}
	hub.Attach(alice)
	hub.Attach(bob)

	hub.Detach(alice)
	assert.Equal(t, []string{"bob"}, bob.lastOnlineUsers(t))
}

func TestHubStaleDetachKeepsNewerConnectionOnline(t *testing.T) {
	hub := NewHub()

	old := &fakeSession{id: "c-old", userID: "alice"}
	hub.Attach(old)
	newer := &fakeSession{id: "c-new", userID: "alice"}
	hub.Attach(newer)

	watcher := &fakeSession{id: "c-w", userID: "bob"}
	hub.Attach(watcher)
	before := len(watcher.events(models.EventOnlineUsers))

	// The superseded connection's disconnect must neither evict the
	// newer one nor trigger a snapshot broadcast.
	hub.Detach(old)
	assert.Equal(t, []string{"alice", "bob"}, watcher.lastOnlineUsers(t))
	assert.Len(t, watcher.events(models.EventOnlineUsers), before)

	// Relay still reaches the surviving connection.
	hub.Relay(models.EventTyping, "alice", models.TypingEvent{SenderID: "bob"})
	assert.Len(t, newer.events(models.EventTyping), 1)
	assert.Empty(t, old.events(models.EventTyping))
}

func TestHubRelayNewMessageReceiverOnly(t *testing.T) {
	hub := NewHub()

	alice := &fakeSession{id: "c1", userID: "alice"}
	bob := &fakeSession{id: "c2", userID: "bob"}
	hub.Attach(alice)
	hub.Attach(bob)

	hub.RelayNewMessage(&models.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob", Body: "hi"})

	// Exactly one newMessage at the receiver, none echoed to the sender.
	envs := bob.events(models.EventNewMessage)
	require.Len(t, envs, 1)
	var msg models.Message
	require.NoError(t, json.Unmarshal(envs[0].Data, &msg))
	assert.Equal(t, "hi", msg.Body)

	assert.Empty(t, alice.events(models.EventNewMessage))
}

func TestHubRelayOfflineIsSilentDrop(t *testing.T) {
	hub := NewHub()

	alice := &fakeSession{id: "c1", userID: "alice"}
	hub.Attach(alice)

	// No connection for bob: nothing happens, nothing is queued.
	hub.RelayNewMessage(&models.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob", Body: "hi"})
	hub.RelayClearedChat("bob")

	assert.Empty(t, alice.events(models.EventNewMessage))
	assert.Empty(t, alice.events(models.EventClearedChat))
}

func TestHubInboundTypingRelayedAsSenderOnly(t *testing.T) {
	hub := NewHub()

	alice := &fakeSession{id: "c1", userID: "alice"}
	bob := &fakeSession{id: "c2", userID: "bob"}
	hub.Attach(alice)
	hub.Attach(bob)

	env, err := models.NewEnvelope(models.EventTyping, models.TypingEvent{SenderID: "alice", ReceiverID: "bob"})
	require.NoError(t, err)
	hub.HandleInbound(alice, env)

	env, err = models.NewEnvelope(models.EventStopTyping, models.TypingEvent{SenderID: "alice", ReceiverID: "bob"})
	require.NoError(t, err)
	hub.HandleInbound(alice, env)

	typing := bob.events(models.EventTyping)
	require.Len(t, typing, 1)
	var ev models.TypingEvent
	require.NoError(t, json.Unmarshal(typing[0].Data, &ev))
	assert.Equal(t, "alice", ev.SenderID)
	assert.Empty(t, ev.ReceiverID)

	assert.Len(t, bob.events(models.EventStopTyping), 1)
	assert.Empty(t, alice.events(models.EventTyping))
}

func TestHubBroadcastUserDeleted(t *testing.T) {
	hub := NewHub()

	alice := &fakeSession{id: "c1", userID: "alice"}
	ghost := &fakeSession{id: "c2"}
	hub.Attach(alice)
	hub.Attach(ghost)

	hub.BroadcastUserDeleted("carol")

	for _, s := range []*fakeSession{alice, ghost} {
		envs := s.events(models.EventUserDeleted)
		require.Len(t, envs, 1)
		var ev models.UserDeletedEvent
		require.NoError(t, json.Unmarshal(envs[0].Data, &ev))
		assert.Equal(t, "carol", ev.UserID)
	}
}

func TestHubClearedChatTargetsPartnerOnly(t *testing.T) {
	hub := NewHub()

	alice := &fakeSession{id: "c1", userID: "alice"}
	bob := &fakeSession{id: "c2", userID: "bob"}
	hub.Attach(alice)
	hub.Attach(bob)

	hub.RelayClearedChat("bob")

	assert.Len(t, bob.events(models.EventClearedChat), 1)
	assert.Empty(t, alice.events(models.EventClearedChat))
}
