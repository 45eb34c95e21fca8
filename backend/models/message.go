// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import "time"

// Message is a single directed communication between two users.
// Immutable after creation; destroyed only by the clear-chat bulk delete.
type Message struct {
	ID             string `json:"id" db:"id"`
	ConversationID string `json:"conversationId" db:"conversation_id"`
	SenderID       string `json:"senderId" db:"sender_id"`
	ReceiverID     string `json:"receiverId" db:"receiver_id"`
	Body           string `json:"message,omitempty" db:"body"`
	ImageURL       string `json:"image,omitempty" db:"image_url"`
	// Seq is assigned by the store at persistence time and breaks ties
	// between messages sharing a timestamp.
	Seq       int64     `json:"-" db:"seq"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Conversation groups all messages between exactly two participants.
// At most one exists per unordered participant pair.
type Conversation struct {
	ID            string     `json:"id" db:"id"`
	UserLo        string     `json:"-" db:"user_lo"`
	UserHi        string     `json:"-" db:"user_hi"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty" db:"last_message_at"`
}

// Participants returns both participant ids of the conversation.
func (c *Conversation) Participants() (string, string) {
	return c.UserLo, c.UserHi
}

// NormalizePair orders an unordered participant pair so the same two
// users always map to the same (lo, hi) key.
func NormalizePair(a, b string) (lo, hi string) {
	if a < b {
		return a, b
	}
	return b, a
}

// MessagePage is one window of a conversation's history, newest first.
// NextCursor is the timestamp of the oldest returned message when more
// older messages may exist, nil when history is exhausted.
type MessagePage struct {
	Messages   []Message  `json:"messages"`
	NextCursor *time.Time `json:"nextCursor"`
}
