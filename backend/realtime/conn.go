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

package realtime

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/chatlinknet/chatlink/backend/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// sendBuffer bounds queued outbound envelopes per connection. A
	// session that falls this far behind is disconnected.
	sendBuffer = 64
)

// Conn is one websocket connection. It implements Session and runs one
// reader and one writer goroutine; the hub never touches the websocket
// directly.
type Conn struct {
	id     string
	userID string
	ws     *websocket.Conn
	hub    *Hub
	send   chan models.Envelope
	closed chan struct{}
}

// NewConn wraps an upgraded websocket. userID comes from the handshake
// query and may be empty; such connections are served but never appear
// online.
func NewConn(ws *websocket.Conn, hub *Hub, userID string) *Conn {
	return &Conn{
		id:     uuid.New().String(),
		userID: userID,
		ws:     ws,
		hub:    hub,
		send:   make(chan models.Envelope, sendBuffer),
		closed: make(chan struct{}),
	}
}

func (c *Conn) ID() string     { return c.id }
func (c *Conn) UserID() string { return c.userID }

// Send queues an envelope without blocking. A full queue closes the
// connection; the client is expected to reconnect and re-sync over HTTP.
func (c *Conn) Send(env models.Envelope) {
	select {
	case c.send <- env:
	case <-c.closed:
	default:
		log.WithFields(log.Fields{"conn_id": c.id, "user_id": c.userID}).
			Warn("Send queue full, dropping connection")
		c.shutdown()
	}
}

// Run attaches the connection to the hub and pumps it until it drops.
// It returns after the reader sees a close or error.
func (c *Conn) Run() {
	c.hub.Attach(c)
	defer c.hub.Detach(c)

	go c.writePump()
	c.readPump()
}

func (c *Conn) shutdown() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
}

func (c *Conn) readPump() {
	defer func() {
		c.shutdown()
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env models.Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithField("conn_id", c.id).WithError(err).Debug("Websocket read failed")
			}
			return
		}
		c.hub.HandleInbound(c, env)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case env := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
