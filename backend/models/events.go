// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import "encoding/json"

// Socket event names shared by the server relay and the client.
const (
	EventOnlineUsers = "onlineUsers"
	EventNewMessage  = "newMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
	EventClearedChat = "clearedChat"
	EventUserDeleted = "userDeleted"
)

// Envelope frames every event on the socket channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an Envelope. A nil payload produces
// an envelope with no data, used by payload-free events like clearedChat.
func NewEnvelope(event string, payload interface{}) (Envelope, error) {
	env := Envelope{Event: event}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	env.Data = data
	return env, nil
}

// TypingEvent is emitted by a client while composing. The relay strips
// ReceiverID before forwarding to the receiver's connection.
type TypingEvent struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId,omitempty"`
}

// OnlineUsersEvent is the full snapshot of identified user ids,
// re-broadcast in its entirety on every presence change.
type OnlineUsersEvent struct {
	UserIDs []string `json:"userIds"`
}

// UserDeletedEvent announces an account deletion to every connection.
type UserDeletedEvent struct {
	UserID string `json:"userId"`
}
