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

package main

import (
	"database/sql"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/chatlinknet/chatlink/backend/handlers"
	"github.com/chatlinknet/chatlink/backend/middleware"
	"github.com/chatlinknet/chatlink/backend/realtime"
	"github.com/chatlinknet/chatlink/backend/storage/postgres"
)

const defaultMaxPageLimit = 50

func main() {
	// Database connection
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://localhost/chatlink?sslmode=disable"
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Redis connection
	redisAddr := os.Getenv("REDIS_URL")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	// Get JWT configuration from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "chatlink"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	origins := strings.Split(os.Getenv("CLIENT_ORIGINS"), ",")
	if len(origins) == 1 && origins[0] == "" {
		origins = []string{"http://localhost:3000"}
	}

	maxPageLimit := defaultMaxPageLimit
	if v := os.Getenv("MAX_PAGE_LIMIT"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			log.Fatalf("Invalid MAX_PAGE_LIMIT: %q", v)
		}
		maxPageLimit = parsed
	}

	// Initialize storage
	store := postgres.NewStore(db, rdb, baseURL)

	// Run migrations
	if err := store.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Presence and relay hub
	hub := realtime.NewHub()

	// Initialize handlers
	messageHandler := handlers.NewMessageHandler(store, hub, maxPageLimit)
	attachmentHandler := handlers.NewAttachmentHandler(store)
	wsHandler := handlers.NewWSHandler(hub, origins)

	// Create auth middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtSecret, jwtIssuer)

	// Setup router
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(middleware.CORS(origins))

	// API routes
	api := r.PathPrefix("/api/chat").Subrouter()
	api.Use(authMiddleware)

	// Message endpoints
	api.HandleFunc("/message/send/{receiverId}", messageHandler.SendMessage).Methods("POST")
	api.HandleFunc("/message/get-messages/{receiverId}", messageHandler.GetMessages).Methods("GET")
	api.HandleFunc("/message/clear-chat/{receiverId}", messageHandler.ClearChat).Methods("DELETE")

	// Socket channel (identified via handshake query, not the JWT middleware)
	r.HandleFunc("/ws", wsHandler.Connect).Methods("GET")

	// Attachment serving (URLs embedded in persisted messages)
	r.HandleFunc("/attachments/{id}", attachmentHandler.GetAttachment).Methods("GET")

	// Health check (no auth required)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		// Check database connection
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Database unavailable"))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Chat server starting on port %s", port)
	log.Printf("JWT Issuer: %s", jwtIssuer)

	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
