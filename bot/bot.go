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

// Package bot provides the serialized dispatch engine: reduce,
// ordered transition hooks, commit, and FIFO draining of dispatches
// queued while a transition is in flight.
package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/patterbot/patter/rule"
	"github.com/patterbot/patter/trace"
)

// Action is a tagged value describing an intended state change.
type Action struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Mutation is a reducer-emitted record describing one sub-step of a
// state transition.  Mutations are consumed once, in emission order,
// by the transition hook.
type Mutation struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Emit appends a mutation during a reducer call.  Without an explicit
// payload, the mutation gets the action's payload.
type Emit func(typ string, payload ...interface{})

// Reducer maps (state, action) to a next state.  A reducer must be
// synchronous and side-effect-free except through emit.
//
// Returning the identical state (by identity, not by value) makes the
// dispatch a no-op: no mutations run and nothing is committed.
type Reducer func(state interface{}, a Action, emit Emit) interface{}

// Transition is invoked once per emitted mutation, each call fully
// complete before the next mutation's call starts.  Side effects
// coupled to a specific state change go here.
type Transition func(ctx context.Context, a Action, prev, next interface{}, m Mutation) error

// queued is a dispatch deferred because another one was in flight.
type queued struct {
	ctx    context.Context
	action Action
	done   chan struct{}
	state  interface{}
	err    error
}

// Bot owns one application state and dispatches actions against it,
// one at a time.
type Bot struct {
	// Name identifies the bot in traces and errors.
	Name string

	// Reduce computes the candidate next state.
	Reduce Reducer

	// Transition is the per-mutation side-effect hook.  Nil means
	// no-op.
	Transition Transition

	// Init supplies the initial state, lazily, on first use.
	Init func() interface{}

	// Build supplies the bot's rule tree, lazily, on the first
	// message.
	Build func() *rule.Node

	// Logger receives trace output.  Nil means no tracing.
	Logger trace.Logger

	// Debug turns on trace output for dispatch and routing.
	Debug bool

	mu            sync.Mutex
	state         interface{}
	initialized   bool
	rules         *rule.Node
	transitioning bool
	queue         []*queued
	snapshots     []interface{}
}

func (b *Bot) logger() trace.Logger {
	if b.Logger == nil {
		return trace.Nop
	}
	return b.Logger
}

// State returns the bot's live state.
func (b *Bot) State() interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetState installs state directly, bypassing reduce and transition.
// Meant for initialization and checkpoint restore only.
func (b *Bot) SetState(state interface{}) {
	b.mu.Lock()
	b.state = state
	b.initialized = true
	b.mu.Unlock()
}

// Pending returns the number of queued dispatches.
func (b *Bot) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Dispatch builds an action from a type and payload and dispatches
// it.  See DispatchAction.
func (b *Bot) Dispatch(ctx context.Context, typ string, payload interface{}) (interface{}, error) {
	return b.DispatchAction(ctx, Action{Type: typ, Payload: payload})
}

// DispatchAction runs the dispatch pipeline for a: reduce, then the
// transition hook once per emitted mutation in emission order, then
// commit.
//
// Returns (nil, nil) when the reducer returned the identical state:
// no mutations run and nothing is committed.  Otherwise returns the
// committed state.
//
// At most one dispatch is in flight per bot.  A dispatch made while
// another is in flight is queued (strictly FIFO) and this call
// returns only when that queued action has fully completed.  There is
// no cancellation of a queued action.
func (b *Bot) DispatchAction(ctx context.Context, a Action) (interface{}, error) {
	b.mu.Lock()
	if b.transitioning {
		q := &queued{ctx: ctx, action: a, done: make(chan struct{})}
		b.queue = append(b.queue, q)
		b.mu.Unlock()
		<-q.done
		return q.state, q.err
	}
	b.transitioning = true
	b.mu.Unlock()

	return b.run(ctx, a)
}

// run owns the in-flight marker.  It processes a, then serves any
// dispatches that queued up meanwhile, and releases the marker on
// every path.
func (b *Bot) run(ctx context.Context, a Action) (interface{}, error) {
	state, err := b.once(ctx, a)

	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.transitioning = false
			b.mu.Unlock()
			return state, err
		}
		q := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()

		q.state, q.err = b.once(q.ctx, q.action)
		close(q.done)
	}
}

// once runs a single action's pipeline.  Panics from the reducer or
// the transition hook surface as a TransitionFailure so that run can
// still release the in-flight marker and drain the queue.
func (b *Bot) once(ctx context.Context, a Action) (committed interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			committed = nil
			err = &TransitionFailure{
				Bot:    b.Name,
				Action: a,
				Err:    fmt.Errorf("panic: %v", r),
			}
		}
	}()

	b.mu.Lock()
	cur := b.state
	b.mu.Unlock()

	muts := make([]Mutation, 0, 4)
	emit := func(typ string, payload ...interface{}) {
		p := a.Payload
		if 0 < len(payload) {
			p = payload[0]
		}
		muts = append(muts, Mutation{Type: typ, Payload: p})
	}

	next := cur
	if b.Reduce != nil {
		next = b.Reduce(cur, a, emit)
	}

	if identical(next, cur) {
		return nil, nil
	}

	for i := range muts {
		m := muts[i]
		if b.Debug {
			b.logger().Tracef(0, "transition: %s", m.Type)
		}
		if b.Transition != nil {
			if herr := b.Transition(ctx, a, cur, next, m); herr != nil {
				return nil, &TransitionFailure{
					Bot:      b.Name,
					Action:   a,
					Mutation: &m,
					Err:      herr,
				}
			}
		}
	}

	b.mu.Lock()
	b.state = next
	b.mu.Unlock()

	return next, nil
}

// HandleMessage is the entry the delivery side calls per inbound
// message: route m through the bot's rule tree and run the resulting
// action handlers sequentially, collecting their results.
//
// The state and the rule tree are initialized lazily on first use.
// Nothing matched means (nil, nil).
func (b *Bot) HandleMessage(ctx context.Context, m rule.Message, debug bool) ([]interface{}, error) {
	b.initialize()

	b.mu.Lock()
	root := b.rules
	b.mu.Unlock()
	if root == nil {
		return nil, nil
	}

	bound := root.Test(ctx, b.logger(), m, debug || b.Debug, 0)
	if len(bound) == 0 {
		return nil, nil
	}

	acc := make([]interface{}, 0, len(bound))
	for _, bd := range bound {
		x, err := bd.Run(ctx)
		if err != nil {
			return acc, err
		}
		acc = append(acc, x)
	}
	return acc, nil
}

func (b *Bot) initialize() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		b.initialized = true
		if b.Init != nil {
			b.state = b.Init()
		}
	}
	if b.rules == nil && b.Build != nil {
		b.rules = b.Build()
	}
}
