// Package hass talks to the Home Assistant websocket API and turns its
// entity states into completion candidates.
package hass

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	errs "github.com/home-assistant-blueprints/ha-config-lsp/internal/errors"
)

// Client multiplexes requests over one authenticated websocket.
type Client struct {
	conn      *websocket.Conn
	messageID atomic.Int32
	writeMu   sync.Mutex
	pendingMu sync.Mutex
	pending   map[int]chan *Message
	done      chan struct{}
	readErr   error
}

// NewClient starts the read loop on an authenticated connection.
func NewClient(conn *websocket.Conn) *Client {
	c := &Client{
		conn:    conn,
		pending: make(map[int]chan *Message),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// NextID generates the next unique message ID.
func (c *Client) NextID() int {
	return int(c.messageID.Add(1))
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.readErr = err
			c.pendingMu.Lock()
			for _, ch := range c.pending {
				close(ch)
			}
			c.pending = make(map[int]chan *Message)
			c.pendingMu.Unlock()
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		c.handleMessage(&msg)
	}
}

func (c *Client) handleMessage(msg *Message) {
	if msg.Type != "result" && msg.Type != "pong" {
		return
	}
	c.pendingMu.Lock()
	ch, ok := c.pending[msg.ID]
	if ok {
		delete(c.pending, msg.ID)
	}
	c.pendingMu.Unlock()
	if ok {
		ch <- msg
	}
}

// SendMessage sends a request and waits for its result or for ctx to end.
func (c *Client) SendMessage(ctx context.Context, msgType string, data map[string]any) (*Message, error) {
	id := c.NextID()

	msg := map[string]any{
		"id":   id,
		"type": msgType,
	}
	maps.Copy(msg, data)

	respCh := make(chan *Message, 1)
	c.pendingMu.Lock()
	c.pending[id] = respCh
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeInternal, err, "failed to marshal message")
	}

	c.writeMu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	}
	err = c.conn.WriteMessage(websocket.TextMessage, msgBytes)
	c.writeMu.Unlock()
	if err != nil {
		return nil, errs.ErrMessageSend(err)
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			return nil, errs.ErrConnectionClosed(c.readErr)
		}
		if resp.Success != nil && !*resp.Success {
			if resp.Error != nil {
				return nil, errs.ErrHAResult(resp.Error.Code, resp.Error.Message)
			}
			return nil, errs.ErrHAResult("", "")
		}
		return resp, nil
	case <-c.done:
		return nil, errs.ErrConnectionClosed(c.readErr)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendMessageTyped sends a request and decodes its result into T.
func SendMessageTyped[T any](ctx context.Context, c *Client, msgType string, data map[string]any) (T, error) {
	var result T
	resp, err := c.SendMessage(ctx, msgType, data)
	if err != nil {
		return result, err
	}

	resultBytes, err := json.Marshal(resp.Result)
	if err != nil {
		return result, fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		return result, errs.Wrap(errs.ErrorTypeProtocol, err, "unexpected "+msgType+" result")
	}
	return result, nil
}

// GetStates fetches every entity state.
func (c *Client) GetStates(ctx context.Context) ([]State, error) {
	return SendMessageTyped[[]State](ctx, c, "get_states", nil)
}

// Close closes the websocket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Done returns a channel that's closed when the read loop exits.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
