// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package postgres

import "context"

// Attachment blobs are delegated to Redis.

func (s *Store) SaveAttachment(ctx context.Context, data []byte, contentType string) (string, error) {
	return s.attachments.SaveAttachment(ctx, data, contentType)
}

func (s *Store) GetAttachment(ctx context.Context, id string) ([]byte, string, error) {
	return s.attachments.GetAttachment(ctx, id)
}
