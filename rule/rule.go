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

// Package rule provides the message-routing tree: matcher/transform
// nodes composed into a tree that turns an incoming message into an
// ordered list of executable action handlers.
package rule

import (
	"context"

	"github.com/patterbot/patter/trace"
)

// Message is a chat message: a map with at least "content", usually
// "author", and delivery metadata ("to" and friends) depending on
// direction.
//
// Matchers treat a Message as read-only.  A transform yields a new
// Message; nobody mutates one in place.
type Message map[string]interface{}

// Copy makes a shallow copy, which is what a transform should extend.
func (m Message) Copy() Message {
	acc := make(Message, len(m)+1)
	for k, v := range m {
		acc[k] = v
	}
	return acc
}

// Content returns the message's content string (or "").
func (m Message) Content() string {
	s, _ := m["content"].(string)
	return s
}

// Author returns the message's author (if any).
func (m Message) Author() interface{} {
	return m["author"]
}

// PreviewLimit is the maximum number of characters of content that
// Preview will include.
var PreviewLimit = 40

// Preview returns a truncated rendering of the message content for
// trace output.
func Preview(m Message) string {
	rs := []rune(m.Content())
	if len(rs) <= PreviewLimit {
		return string(rs)
	}
	return string(rs[:PreviewLimit]) + "..."
}

// Matcher is the capability every rule node implements: test a
// message and optionally rewrite it.
//
// Match reports no-match with ok == false.  With ok == true, the
// returned Message is the transformed message that this node's
// subtree (and its handlers) will see.  Returning the given message
// unchanged is fine.
//
// A Matcher must be a pure function of message content: re-testing an
// already-transformed message yields the same result.
type Matcher interface {
	Match(m Message) (Message, bool)
}

// MatcherFunc adapts a function to a Matcher.
type MatcherFunc func(Message) (Message, bool)

func (f MatcherFunc) Match(m Message) (Message, bool) {
	return f(m)
}

// Handler is an action produced by routing a message.  Handlers for
// one message run strictly sequentially, in the order the tree
// produced them.
type Handler func(ctx context.Context, m Message) (interface{}, error)

// Bound is a Handler paired with the (transformed) message its node
// saw.
type Bound struct {
	Rule    *Node
	Msg     Message
	Handler Handler
}

// Run invokes the handler with its bound message.
func (b *Bound) Run(ctx context.Context) (interface{}, error) {
	return b.Handler(ctx, b.Msg)
}

// Node is one rule in the tree.
type Node struct {
	// Name identifies the node in traces and rendered docs.
	Name string

	// Doc is optional commentary (Markdown) for rendered docs.
	Doc string

	// Matcher decides whether this node applies.  A nil Matcher
	// matches any message, unchanged.
	Matcher Matcher

	// Handlers are this node's own actions, bound to the
	// transformed message when the node matches.
	Handlers []Handler

	// Children are tested (depth-first) with the transformed
	// message.
	Children []*Node

	// First stops testing children after the first one that
	// produces anything.
	First bool

	// Debug turns on tracing for this node even when the caller
	// didn't ask for it.
	Debug bool

	// Mount optionally builds a subtree lazily, on the first
	// message this node matches.  A mounted subtree is a routing
	// boundary: its handlers run inside Test, and the node
	// reports nothing upward.
	Mount func() *Node

	mount   *Node
	mounted bool
}

// New makes a Node with the given name, matcher, and children.
func New(name string, m Matcher, children ...*Node) *Node {
	return &Node{
		Name:     name,
		Matcher:  m,
		Children: children,
	}
}

// On appends an action handler and returns the node for chaining.
func (n *Node) On(hs ...Handler) *Node {
	n.Handlers = append(n.Handlers, hs...)
	return n
}

// Add appends children and returns the node for chaining.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Test routes m through the tree rooted at n and returns the action
// handlers of matched nodes, each bound to the transformed message
// its node saw, in production order.
//
// No match anywhere just returns nil.  That's a normal outcome, not
// an error.
//
// The debug flag can be passed explicitly; a node's own Debug setting
// also turns tracing on for that node.  Tracing never affects the
// result.
func (n *Node) Test(ctx context.Context, logger trace.Logger, m Message, debug bool, level int) []*Bound {
	if logger == nil {
		logger = trace.Nop
	}

	t := m
	if n.Matcher != nil {
		var ok bool
		if t, ok = n.Matcher.Match(m); !ok {
			return nil
		}
	}

	if level == 0 {
		logger.Tracef(level, "test %q", Preview(t))
	} else if debug || n.Debug {
		logger.Tracef(level, "rule %s", n.Name)
	}

	if n.Mount != nil || n.mount != nil {
		// The mounted subtree consumes the message: run its
		// handlers here and report nothing to our caller.
		if _, err := n.Handle(ctx, logger, t, debug, level); err != nil {
			logger.Tracef(level, "rule %s mount error %v", n.Name, err)
		}
		return nil
	}

	acc := make([]*Bound, 0, len(n.Handlers))
	for _, h := range n.Handlers {
		acc = append(acc, &Bound{Rule: n, Msg: t, Handler: h})
	}

	for _, child := range n.Children {
		got := child.Test(ctx, logger, t, debug || n.Debug, level+1)
		if len(got) == 0 {
			continue
		}
		acc = append(acc, got...)
		if n.First {
			break
		}
	}

	if len(acc) == 0 {
		return nil
	}
	return acc
}

// Handle routes m through this node's mounted subtree and runs the
// resulting handlers in order, each one completing before the next
// starts.  The subtree is built on first use.
//
// Returns the collected handler results, or nil if nothing matched.
func (n *Node) Handle(ctx context.Context, logger trace.Logger, m Message, debug bool, level int) ([]interface{}, error) {
	if !n.mounted {
		if n.Mount != nil {
			n.mount = n.Mount()
		}
		n.mounted = true
	}
	if n.mount == nil {
		return nil, nil
	}

	bs := n.mount.Test(ctx, logger, m, debug, level+1)
	if len(bs) == 0 {
		return nil, nil
	}

	acc := make([]interface{}, 0, len(bs))
	for _, b := range bs {
		x, err := b.Run(ctx)
		if err != nil {
			return acc, err
		}
		acc = append(acc, x)
	}
	return acc, nil
}
