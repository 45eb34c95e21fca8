// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/chatlinknet/chatlink/backend/storage"
	redisStore "github.com/chatlinknet/chatlink/backend/storage/redis"
)

type AttachmentHandler struct {
	store storage.AttachmentStore
}

func NewAttachmentHandler(store storage.AttachmentStore) *AttachmentHandler {
	return &AttachmentHandler{store: store}
}

// GetAttachment serves a stored image payload. Message rows reference
// attachments by the URL this handler answers on.
func (h *AttachmentHandler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	data, contentType, err := h.store.GetAttachment(r.Context(), id)
	if errors.Is(err, redisStore.ErrAttachmentNotFound) {
		http.Error(w, "Attachment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to load attachment")
		http.Error(w, "Failed to load attachment", http.StatusInternalServerError)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
