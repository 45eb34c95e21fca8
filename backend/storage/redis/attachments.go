// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package redis

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix: att:{attachmentId} - attachment content
	attachmentPrefix = "att:"
)

// ErrAttachmentNotFound is returned when an attachment id resolves to
// nothing, typically because the id is bogus.
var ErrAttachmentNotFound = errors.New("attachment not found")

type attachmentRecord struct {
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// AttachmentStore keeps uploaded image payloads in Redis and hands back
// durable URLs for them. A message send that fails to store its
// attachment is aborted before anything is persisted.
type AttachmentStore struct {
	rdb     *redis.Client
	baseURL string
}

func NewAttachmentStore(rdb *redis.Client, baseURL string) *AttachmentStore {
	return &AttachmentStore{rdb: rdb, baseURL: baseURL}
}

// SaveAttachment stores the payload and returns the URL it will be
// served from. No TTL: the URL must stay valid as long as the message
// referencing it exists.
func (s *AttachmentStore) SaveAttachment(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty attachment payload")
	}

	record, err := json.Marshal(attachmentRecord{ContentType: contentType, Data: data})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal attachment")
	}

	id := uuid.New().String()
	if err := s.rdb.Set(ctx, attachmentPrefix+id, record, 0).Err(); err != nil {
		return "", errors.Wrap(err, "failed to store attachment")
	}

	return s.baseURL + "/attachments/" + id, nil
}

// GetAttachment returns the stored payload and its content type.
func (s *AttachmentStore) GetAttachment(ctx context.Context, id string) ([]byte, string, error) {
	data, err := s.rdb.Get(ctx, attachmentPrefix+id).Result()
	if err == redis.Nil {
		return nil, "", ErrAttachmentNotFound
	}
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to get attachment")
	}

	var record attachmentRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, "", errors.Wrap(err, "failed to unmarshal attachment")
	}

	return record.Data, record.ContentType, nil
}
