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

// Package timers provides a small in-memory facility that injects
// messages in the future: one-shot timers and recurring cron timers.
//
// At any point only one time.Timer exists to implement all managed
// timers.  A Timers instance is designed to manage a few hundred
// timers, not many thousands.  When a timer fires, its message is
// emitted in a new goroutine, so it's kinda okay for the emitter to
// block.
package timers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/patterbot/patter/rule"
	"github.com/patterbot/patter/trace"

	"github.com/gorhill/cronexpr"
)

var (
	NotFound = errors.New("not found")
	TooMany  = errors.New("too many")
	IdExists = errors.New("id exists")

	// DefaultMax is the default limit on pending timers.
	DefaultMax = 1024
)

// Emitter receives a fired timer's message.
type Emitter func(ctx context.Context, m rule.Message)

// Timer represents a message to inject in the future.
type Timer struct {
	// Id is unique across the timers managed by one Timers.
	Id string `json:"id"`

	// At gives the one-shot trigger time.  Ignored when Cron is
	// set.
	At time.Time `json:"at,omitempty"`

	// Cron, when not empty, makes the timer recurring.  Standard
	// cron syntax as understood by cronexpr.
	Cron string `json:"cron,omitempty"`

	// Message is what gets emitted.
	Message rule.Message `json:"message"`

	expr *cronexpr.Expression
	next time.Time
}

// Timers is a managed set of Timer instances.
//
// Run the Timers before (or after) calling Add; Add wakes the loop.
type Timers struct {
	// Emit receives fired messages.  Required.
	Emit Emitter

	// Max limits the pending set.  Zero means DefaultMax.
	Max int

	Logger trace.Logger

	mu      sync.Mutex
	pending map[string]*Timer
	wake    chan struct{}
}

// NewTimers makes a Timers that emits through the given emitter.
func NewTimers(emit Emitter) *Timers {
	return &Timers{
		Emit:    emit,
		pending: make(map[string]*Timer, 32),
		wake:    make(chan struct{}, 1),
	}
}

func (ts *Timers) logger() trace.Logger {
	if ts.Logger == nil {
		return trace.Nop
	}
	return ts.Logger
}

// Add registers t.  For a cron timer, the schedule is parsed here and
// the first trigger time computed.
func (ts *Timers) Add(ctx context.Context, t *Timer) error {
	if t.Cron != "" {
		expr, err := cronexpr.Parse(t.Cron)
		if err != nil {
			return err
		}
		t.expr = expr
		t.next = expr.Next(time.Now())
	} else {
		t.next = t.At
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	max := ts.Max
	if max <= 0 {
		max = DefaultMax
	}
	if max <= len(ts.pending) {
		return TooMany
	}
	if _, have := ts.pending[t.Id]; have {
		return IdExists
	}
	ts.pending[t.Id] = t
	ts.poke()
	return nil
}

// Rem cancels the timer with the given id.
func (ts *Timers) Rem(ctx context.Context, id string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, have := ts.pending[id]; !have {
		return NotFound
	}
	delete(ts.pending, id)
	ts.poke()
	return nil
}

// Pending returns the number of pending timers.
func (ts *Timers) Pending() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.pending)
}

func (ts *Timers) poke() {
	select {
	case ts.wake <- struct{}{}:
	default:
	}
}

// head returns the soonest pending timer (or nil).
func (ts *Timers) head() *Timer {
	var soonest *Timer
	for _, t := range ts.pending {
		if soonest == nil || t.next.Before(soonest.next) {
			soonest = t
		}
	}
	return soonest
}

// Run drives the timers until ctx is done.
func (ts *Timers) Run(ctx context.Context) error {
	for {
		ts.mu.Lock()
		now := time.Now()
		t := ts.head()
		var wait time.Duration
		if t == nil {
			wait = time.Hour
		} else if wait = t.next.Sub(now); wait <= 0 {
			// Fire now.
			if t.expr != nil {
				t.next = t.expr.Next(now)
				if t.next.IsZero() {
					delete(ts.pending, t.Id)
				}
			} else {
				delete(ts.pending, t.Id)
			}
			msg := t.Message
			ts.mu.Unlock()

			ts.logger().Tracef(0, "timer %s fired", t.Id)
			go ts.Emit(ctx, msg)
			continue
		}
		ts.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-ts.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}
