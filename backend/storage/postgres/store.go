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
	"database/sql"

	"github.com/redis/go-redis/v9"

	redisStore "github.com/chatlinknet/chatlink/backend/storage/redis"
)

// Store implements storage.Store: conversations and messages live in
// Postgres, attachment blobs are delegated to Redis.
type Store struct {
	db          *sql.DB
	attachments *redisStore.AttachmentStore
}

func NewStore(db *sql.DB, rdb *redis.Client, attachmentBaseURL string) *Store {
	return &Store{
		db:          db,
		attachments: redisStore.NewAttachmentStore(rdb, attachmentBaseURL),
	}
}
