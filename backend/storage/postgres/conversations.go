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

package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/chatlinknet/chatlink/backend/models"
)

// FindOrCreateConversation resolves the conversation for an unordered
// participant pair, creating it if absent. The insert races against a
// concurrent creator through the (user_lo, user_hi) unique constraint:
// ON CONFLICT DO NOTHING followed by a re-select yields the winner's row.
func (s *Store) FindOrCreateConversation(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	lo, hi := models.NormalizePair(userA, userB)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_lo, user_hi, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_lo, user_hi) DO NOTHING`,
		uuid.New().String(), lo, hi, time.Now().UTC())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create conversation")
	}

	conv, err := s.FindConversation(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, errors.New("conversation missing after upsert")
	}
	return conv, nil
}

// FindConversation returns the conversation for the pair, or nil when
// none exists.
func (s *Store) FindConversation(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	lo, hi := models.NormalizePair(userA, userB)

	var conv models.Conversation
	var lastMessageAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_lo, user_hi, created_at, last_message_at
		FROM conversations
		WHERE user_lo = $1 AND user_hi = $2`,
		lo, hi).Scan(&conv.ID, &conv.UserLo, &conv.UserHi, &conv.CreatedAt, &lastMessageAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up conversation")
	}

	if lastMessageAt.Valid {
		conv.LastMessageAt = &lastMessageAt.Time
	}

	return &conv, nil
}

// AppendMessage persists the message and touches its conversation in one
// transaction, so a reader never observes the message without the
// conversation update or vice versa. The store assigns id, seq and the
// authoritative creation timestamp.
func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	msg.ID = uuid.New().String()
	msg.CreatedAt = time.Now().UTC()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, body, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.ReceiverID,
		msg.Body, msg.ImageURL, msg.CreatedAt).Scan(&msg.Seq)
	if err != nil {
		return errors.Wrap(err, "failed to insert message")
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE conversations SET last_message_at = $1 WHERE id = $2`,
		msg.CreatedAt, msg.ConversationID)
	if err != nil {
		return errors.Wrap(err, "failed to update conversation")
	}

	return errors.Wrap(tx.Commit(), "failed to commit message")
}

// PageMessages returns up to limit messages strictly older than the
// cursor, newest first. It fetches limit+1 rows to detect whether older
// messages remain; when they do, NextCursor is the creation timestamp of
// the oldest message returned.
func (s *Store) PageMessages(ctx context.Context, conversationID string, before *time.Time, limit int) (*models.MessagePage, error) {
	var rows *sql.Rows
	var err error

	if before != nil {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, conversation_id, sender_id, receiver_id, body, image_url, seq, created_at
			FROM messages
			WHERE conversation_id = $1 AND created_at < $2
			ORDER BY created_at DESC, seq DESC
			LIMIT $3`,
			conversationID, before.UTC(), limit+1)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, conversation_id, sender_id, receiver_id, body, image_url, seq, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC, seq DESC
			LIMIT $2`,
			conversationID, limit+1)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query messages")
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID,
			&m.Body, &m.ImageURL, &m.Seq, &m.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan message")
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read messages")
	}

	page := &models.MessagePage{}
	if len(messages) > limit {
		messages = messages[:limit]
		oldest := messages[len(messages)-1].CreatedAt
		page.NextCursor = &oldest
	}
	page.Messages = messages

	return page, nil
}

// ClearMessages deletes every message of the conversation. The delete
// and the conversation reset commit together, so a concurrent reader
// sees either the full history or none of it.
func (s *Store) ClearMessages(ctx context.Context, conversationID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM messages WHERE conversation_id = $1`, conversationID); err != nil {
		return errors.Wrap(err, "failed to delete messages")
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations SET last_message_at = NULL WHERE id = $1`, conversationID); err != nil {
		return errors.Wrap(err, "failed to reset conversation")
	}

	return errors.Wrap(tx.Commit(), "failed to commit clear")
}
