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

// Package script lets rule authors write matchers in ECMAScript,
// executed with Goja (a Go implementation of ECMAScript 5.1+).
//
// A script sees the incoming message as `msg` and evaluates to
// `false` for no-match, `true` for match-unchanged, or a message
// object that becomes the transform.
//
// See https://github.com/dop251/goja.
package script

import (
	"fmt"
	"time"

	"github.com/patterbot/patter/rule"
	"github.com/patterbot/patter/trace"

	"github.com/dop251/goja"
)

var (
	// InterruptedMessage is the string value used to interrupt a
	// script that ran too long.
	InterruptedMessage = "timeout"

	// DefaultTimeout limits a single script execution.
	DefaultTimeout = time.Second
)

// Matcher is a rule.Matcher backed by a compiled script.
type Matcher struct {
	// Name is used in compilation errors and traces.
	Name string

	// Source is the ECMAScript source.
	Source string

	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration

	// Logger receives notes about script errors, which surface as
	// no-match (routing failures are silent outcomes, so a broken
	// script can't be an error at match time).
	Logger trace.Logger

	prog *goja.Program
}

// NewMatcher compiles src.
func NewMatcher(name, src string) (*Matcher, error) {
	prog, err := goja.Compile(name, src, true)
	if err != nil {
		return nil, err
	}
	return &Matcher{
		Name:   name,
		Source: src,
		prog:   prog,
	}, nil
}

func (s *Matcher) logger() trace.Logger {
	if s.Logger == nil {
		return trace.Nop
	}
	return s.Logger
}

// Match runs the script against m.
//
// Each call gets a fresh VM, so scripts can't leak state into each
// other and the matcher stays a pure function of message content.
func (s *Matcher) Match(m rule.Message) (rule.Message, bool) {
	vm := goja.New()
	if err := vm.Set("msg", map[string]interface{}(m.Copy())); err != nil {
		s.logger().Tracef(0, "script %s set error %v", s.Name, err)
		return nil, false
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interrupt := time.AfterFunc(timeout, func() {
		vm.Interrupt(InterruptedMessage)
	})
	defer interrupt.Stop()

	v, err := vm.RunProgram(s.prog)
	if err != nil {
		s.logger().Tracef(0, "script %s error %v", s.Name, err)
		return nil, false
	}

	return s.transform(m, v)
}

// transform interprets the script's value per the matcher contract.
func (s *Matcher) transform(m rule.Message, v goja.Value) (rule.Message, bool) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, false
	}
	switch x := v.Export().(type) {
	case bool:
		if !x {
			return nil, false
		}
		return m, true
	case map[string]interface{}:
		return rule.Message(x), true
	default:
		s.logger().Tracef(0, "script %s returned %v (%T); treating as no-match",
			s.Name, x, x)
		return nil, false
	}
}

// MustMatcher is NewMatcher that panics on a compilation error.  For
// rule trees built at start-up.
func MustMatcher(name, src string) *Matcher {
	s, err := NewMatcher(name, src)
	if err != nil {
		panic(fmt.Errorf("script %s: %w", name, err))
	}
	return s
}
