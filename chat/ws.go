/* Copyright 2019 The Patter Authors
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package chat

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/patterbot/patter/rule"
	"github.com/patterbot/patter/trace"

	"github.com/gorilla/websocket"
)

// WebSocket is a Coupling that dials a WebSocket server and exchanges
// messages as JSON text frames.
type WebSocket struct {
	// URL is the target, e.g. "ws://localhost:8080/chat".
	URL string

	Logger trace.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *WebSocket) logger() trace.Logger {
	if c.Logger == nil {
		return trace.Nop
	}
	return c.Logger
}

// Start dials the server and reads frames in a new goroutine.
func (c *WebSocket) Start(ctx context.Context, r Receiver) error {
	conn, _, err := websocket.DefaultDialer.Dial(c.URL, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.logger().Tracef(0, "ws connected %s", c.URL)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			_, bs, err := conn.ReadMessage()
			if err != nil {
				c.logger().Tracef(0, "ws read error %v", err)
				return
			}
			if len(bs) == 0 {
				continue
			}

			var m rule.Message
			if err = json.Unmarshal(bs, &m); err != nil {
				c.logger().Tracef(0, "ws unmarshal error %v on %s", err, bs)
				continue
			}
			if err = r.Receive(ctx, m); err != nil {
				c.logger().Tracef(0, "ws receive error %v", err)
			}
		}
	}()

	return nil
}

// Stop closes the connection, which ends the read loop.
func (c *WebSocket) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// SendMessage writes m as one JSON text frame.
func (c *WebSocket) SendMessage(ctx context.Context, m rule.Message) error {
	js, err := json.Marshal(&m)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotStarted
	}
	return c.conn.WriteMessage(websocket.TextMessage, js)
}
