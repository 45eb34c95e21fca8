// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/chatlinknet/chatlink/backend/middleware"
	"github.com/chatlinknet/chatlink/backend/models"
	"github.com/chatlinknet/chatlink/backend/storage"
)

// Relay is the slice of the hub the message API needs: best-effort
// notification of online recipients after durable state changes.
type Relay interface {
	RelayNewMessage(msg *models.Message)
	RelayClearedChat(targetUserID string)
}

type MessageHandler struct {
	store        storage.Store
	relay        Relay
	maxPageLimit int
}

func NewMessageHandler(store storage.Store, relay Relay, maxPageLimit int) *MessageHandler {
	return &MessageHandler{store: store, relay: relay, maxPageLimit: maxPageLimit}
}

// SendMessage persists a message and relays it to the receiver if
// online. The created message is returned synchronously so the sender's
// UI reflects it without waiting for a socket round-trip.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID, _ := middleware.GetUserID(r)
	receiverID := mux.Vars(r)["receiverId"]

	var req struct {
		Message string `json:"message"`
		// Image is a base64-encoded payload; it is stored first and the
		// resulting URL is persisted in its place.
		Image            string `json:"image,omitempty"`
		ImageContentType string `json:"imageContentType,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.Validationf("invalid request body"))
		return
	}

	if senderID == "" || receiverID == "" || (req.Message == "" && req.Image == "") {
		writeError(w, models.Validationf("All fields are required"))
		return
	}

	ctx := r.Context()

	// Upload failure aborts the send: no message with a dangling
	// attachment reference is ever persisted.
	imageURL := ""
	if req.Image != "" {
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			writeError(w, models.Validationf("invalid image encoding"))
			return
		}
		imageURL, err = h.store.SaveAttachment(ctx, data, req.ImageContentType)
		if err != nil {
			log.WithError(err).Error("Failed to store attachment")
			writeError(w, err)
			return
		}
	}

	conv, err := h.store.FindOrCreateConversation(ctx, senderID, receiverID)
	if err != nil {
		log.WithError(err).Error("Failed to resolve conversation")
		writeError(w, err)
		return
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Body:           req.Message,
		ImageURL:       imageURL,
	}
	if err := h.store.AppendMessage(ctx, msg); err != nil {
		log.WithError(err).Error("Failed to persist message")
		writeError(w, err)
		return
	}

	h.relay.RelayNewMessage(msg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":        true,
		"message":        "Message sent successfully",
		"conversationId": conv.ID,
		"responseData":   msg,
	})
}

// GetMessages returns one cursor page of history with the requested
// partner, newest first. An absent conversation is an empty success.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	requesterID, _ := middleware.GetUserID(r)
	partnerID := mux.Vars(r)["receiverId"]

	if requesterID == "" || partnerID == "" {
		writeError(w, models.Validationf("All fields are required"))
		return
	}

	limit := h.maxPageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := parsePositiveInt(v)
		if err != nil {
			writeError(w, models.Validationf("invalid limit"))
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	var cursor *time.Time
	if v := r.URL.Query().Get("cursor"); v != "" {
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			writeError(w, models.Validationf("invalid cursor"))
			return
		}
		cursor = &ts
	}

	ctx := r.Context()

	conv, err := h.store.FindConversation(ctx, requesterID, partnerID)
	if err != nil {
		log.WithError(err).Error("Failed to look up conversation")
		writeError(w, err)
		return
	}
	if conv == nil {
		writePage(w, &models.MessagePage{Messages: []models.Message{}})
		return
	}

	page, err := h.store.PageMessages(ctx, conv.ID, cursor, limit)
	if err != nil {
		log.WithError(err).Error("Failed to page messages")
		writeError(w, err)
		return
	}
	if page.Messages == nil {
		page.Messages = []models.Message{}
	}
	writePage(w, page)
}

// ClearChat deletes every message of the conversation and notifies the
// partner's connection. An absent conversation is a no-op success.
func (h *MessageHandler) ClearChat(w http.ResponseWriter, r *http.Request) {
	requesterID, _ := middleware.GetUserID(r)
	partnerID := mux.Vars(r)["receiverId"]

	if requesterID == "" || partnerID == "" {
		writeError(w, models.Validationf("All fields are required"))
		return
	}

	ctx := r.Context()

	conv, err := h.store.FindConversation(ctx, requesterID, partnerID)
	if err != nil {
		log.WithError(err).Error("Failed to look up conversation")
		writeError(w, err)
		return
	}

	if conv != nil {
		if err := h.store.ClearMessages(ctx, conv.ID); err != nil {
			log.WithError(err).Error("Failed to clear chat")
			writeError(w, err)
			return
		}
		h.relay.RelayClearedChat(partnerID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Chat cleared successfully",
	})
}

func writePage(w http.ResponseWriter, page *models.MessagePage) {
	var cursor interface{}
	if page.NextCursor != nil {
		cursor = page.NextCursor.UTC().Format(time.RFC3339Nano)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    true,
		"messages":   page.Messages,
		"nextCursor": cursor,
	})
}

// writeError maps validation failures to 400 and everything else to
// 500, so the client can tell "never retry" from "retry by hand".
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if models.IsValidation(err) {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": err.Error(),
	})
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, models.Validationf("not a positive number: %q", s)
	}
	return n, nil
}
