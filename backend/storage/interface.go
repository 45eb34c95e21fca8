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

package storage

import (
	"context"
	"time"

	"github.com/chatlinknet/chatlink/backend/models"
)

// ConversationStore owns durable conversation and message records.
type ConversationStore interface {
	// FindOrCreateConversation looks up the conversation for an unordered
	// participant pair, creating it if absent. Safe under two
	// near-simultaneous sends racing to create the same pair.
	FindOrCreateConversation(ctx context.Context, userA, userB string) (*models.Conversation, error)

	// FindConversation returns the conversation for the pair, or nil
	// (not an error) when none exists.
	FindConversation(ctx context.Context, userA, userB string) (*models.Conversation, error)

	// AppendMessage persists msg and records it against its conversation
	// in a single transaction. The store assigns ID, Seq and CreatedAt.
	AppendMessage(ctx context.Context, msg *models.Message) error

	// PageMessages returns up to limit messages of the conversation with
	// creation timestamp strictly before the cursor (unbounded when nil),
	// newest first. NextCursor is set when older messages may remain.
	PageMessages(ctx context.Context, conversationID string, before *time.Time, limit int) (*models.MessagePage, error)

	// ClearMessages deletes every message of the conversation atomically
	// with respect to concurrent readers.
	ClearMessages(ctx context.Context, conversationID string) error
}

// AttachmentStore accepts a raw image payload and returns a durable
// reference to it.
type AttachmentStore interface {
	SaveAttachment(ctx context.Context, data []byte, contentType string) (url string, err error)
	GetAttachment(ctx context.Context, id string) (data []byte, contentType string, err error)
}

// Store is the full persistence surface of the server.
type Store interface {
	ConversationStore
	AttachmentStore
}
