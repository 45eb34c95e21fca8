// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/chatlinknet/chatlink/backend/realtime"
)

// WSHandler upgrades the persistent socket connection. Identity is
// carried by the handshake "userId" query value; connections without
// one are served but never appear in the online set.
type WSHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	conn := realtime.NewConn(ws, h.hub, userID)
	log.WithFields(log.Fields{"conn_id": conn.ID(), "user_id": userID}).Info("User connected")

	go func() {
		conn.Run()
		log.WithFields(log.Fields{"conn_id": conn.ID(), "user_id": userID}).Info("User disconnected")
	}()
}
