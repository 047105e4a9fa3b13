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

package testutil

import (
	"context"
	"sync"

	"github.com/patterbot/patter/match"
	"github.com/patterbot/patter/rule"
)

// Capture is a chat.Messenger that just remembers what was sent, so a
// test can assert on outbound traffic.
type Capture struct {
	mu   sync.Mutex
	sent []rule.Message
}

// SendMessage records m.
func (c *Capture) SendMessage(ctx context.Context, m rule.Message) error {
	c.mu.Lock()
	c.sent = append(c.sent, m)
	c.mu.Unlock()
	return nil
}

// Sent returns a copy of the recorded messages, in send order.
func (c *Capture) Sent() []rule.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	acc := make([]rule.Message, len(c.sent))
	copy(acc, c.sent)
	return acc
}

// Last returns the most recently sent message (or nil).
func (c *Capture) Last() rule.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return nil
	}
	return c.sent[len(c.sent)-1]
}

// Reset forgets everything sent so far.
func (c *Capture) Reset() {
	c.mu.Lock()
	c.sent = nil
	c.mu.Unlock()
}

// AssertSent checks that some recorded message matches the given
// pattern (see package match).  Returns a MissingMessageError when
// nothing was sent at all, a MatchAssertionError when messages were
// sent but none matched.
func (c *Capture) AssertSent(pattern interface{}) error {
	sent := c.Sent()
	if len(sent) == 0 {
		return &MissingMessageError{Pattern: pattern}
	}
	for _, m := range sent {
		if _, ok := match.Match(pattern, map[string]interface{}(m), match.NewBindings()); ok {
			return nil
		}
	}
	return &MatchAssertionError{
		Expected: pattern,
		Actual:   sent,
	}
}
