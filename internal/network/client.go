package network

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period, must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maximum inbound message size allowed from peer
	maxMessageSize = 512

	// outbound queue depth per watcher
	sendBuffer = 256
)

var newline = []byte{'\n'}

// Client is a middleman between one websocket watcher and the hub.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	userID    string
	match     Match
}

// readPump pumps commands from the websocket to the match. One per
// connection; it owns all reads. On exit the watcher leaves the roster.
func (c *Client) readPump() {
	defer func() {
		c.match.Leave(c.userID)
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("watcher %s read: %v", c.userID, err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(message []byte) {
	var cmd Command
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.hub.metrics.CommandErrors.Inc()
		c.sendError("", "malformed command")
		return
	}
	if err := c.apply(cmd); err != nil {
		c.hub.metrics.CommandErrors.Inc()
		c.sendError(cmd.Cmd, err.Error())
	}
}

func (c *Client) apply(cmd Command) error {
	switch cmd.Cmd {
	case CmdStart:
		return c.match.Start(c.userID)
	case CmdPause:
		return c.match.Pause(c.userID)
	case CmdResume:
		return c.match.Resume(c.userID)
	case CmdReset:
		return c.match.Reset(c.userID)
	case CmdSpend:
		return c.match.Spend(c.userID, cmd.Amount)
	}
	return fmt.Errorf("unknown command %q", cmd.Cmd)
}

// sendError pushes a private error frame to this watcher only. Dropped
// if the watcher's queue is full.
func (c *Client) sendError(cmd, message string) {
	data, err := json.Marshal(Frame{
		Kind:    "error",
		Payload: ErrorPayload{Cmd: cmd, Message: message},
	})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump pumps frames from the hub to the websocket. One per
// connection; it owns all writes, including pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// the hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// fold queued frames into the same write
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
