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

// Package service hosts a set of bots behind a delivery transport and
// a small HTTP control surface.
package service

import (
	"context"
	"sort"
	"sync"

	"github.com/patterbot/patter/bot"
	"github.com/patterbot/patter/chat"
	"github.com/patterbot/patter/rule"
	"github.com/patterbot/patter/timers"
	"github.com/patterbot/patter/trace"
	"github.com/patterbot/patter/transcript"
)

// Service owns named bots, a Messenger for outbound delivery, and
// optional timers and transcript recording.
type Service struct {
	Name   string
	Logger trace.Logger
	Debug  bool

	// Messenger delivers outbound messages.  Required for Send.
	Messenger chat.Messenger

	// Recorder, if not nil, records traffic for the ops surface.
	Recorder *transcript.Recorder

	// Timers, if not nil, injects scheduled messages back into
	// Receive.
	Timers *timers.Timers

	mu   sync.Mutex
	bots map[string]*bot.Bot
	ops  map[string]opFunc
}

// NewService makes a Service.  The control-surface operation table is
// resolved here, once.
func NewService(name string) *Service {
	s := &Service{
		Name: name,
		bots: make(map[string]*bot.Bot, 4),
	}
	s.ops = map[string]opFunc{
		"process":    s.opProcess,
		"dispatch":   s.opDispatch,
		"state":      s.opState,
		"pushState":  s.opPushState,
		"popState":   s.opPopState,
		"transcript": s.opTranscript,
	}
	return s
}

func (s *Service) logger() trace.Logger {
	if s.Logger == nil {
		return trace.Nop
	}
	return s.Logger
}

// AddBot registers b under the given id.
func (s *Service) AddBot(id string, b *bot.Bot) {
	s.mu.Lock()
	s.bots[id] = b
	s.mu.Unlock()
}

// Bot returns the bot with the given id.
func (s *Service) Bot(id string) (*bot.Bot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, have := s.bots[id]
	return b, have
}

// botIds returns registered ids in stable order.
func (s *Service) botIds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.bots))
	for id := range s.bots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Process routes an inbound message to every bot, collecting each
// bot's handler results (if any) by bot id.
func (s *Service) Process(ctx context.Context, m rule.Message, debug bool) (map[string][]interface{}, error) {
	s.logger().Tracef(0, "Service.Process %q", rule.Preview(m))

	processed := make(map[string][]interface{})
	for _, id := range s.botIds() {
		b, have := s.Bot(id)
		if !have {
			continue
		}
		if s.Recorder != nil {
			if err := s.Recorder.Append(ctx, transcript.Entry{
				Bot:       id,
				Direction: "in",
				Msg:       m,
			}); err != nil {
				s.logger().Tracef(0, "Service.Process transcript error %v", err)
			}
		}
		got, err := b.HandleMessage(ctx, m, debug)
		if err != nil {
			return processed, err
		}
		if got != nil {
			processed[id] = got
		}
	}
	return processed, nil
}

// Receive implements chat.Receiver.
func (s *Service) Receive(ctx context.Context, m rule.Message) error {
	_, err := s.Process(ctx, m, s.Debug)
	return err
}

// Send delivers an outbound message through the Messenger, recording
// it when a Recorder is attached.  A "from" property (when a string)
// names the sending bot in the transcript.
func (s *Service) Send(ctx context.Context, m rule.Message) error {
	if s.Recorder != nil {
		from, _ := m["from"].(string)
		if err := s.Recorder.Append(ctx, transcript.Entry{
			Bot:       from,
			Direction: "out",
			Msg:       m,
		}); err != nil {
			s.logger().Tracef(0, "Service.Send transcript error %v", err)
		}
	}
	if s.Messenger == nil {
		return nil
	}
	return s.Messenger.SendMessage(ctx, m)
}
