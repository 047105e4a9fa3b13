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

package main

import (
	"context"
	"fmt"
	"regexp"

	"github.com/patterbot/patter/bot"
	"github.com/patterbot/patter/fetch"
	"github.com/patterbot/patter/match"
	"github.com/patterbot/patter/rule"
	"github.com/patterbot/patter/service"
)

// The demo bot waits for a Teamwork tasklist and then considers
// itself ready to plan.

var tasklistRe = regexp.MustCompile(`https?://\S*teamwork\.com\S*`)

// planBot builds the demo project-planning bot.
func planBot(_ context.Context, s *service.Service) *bot.Bot {
	b := &bot.Bot{
		Name:   "plan",
		Logger: s.Logger,
		Init: func() interface{} {
			return map[string]interface{}{
				"state": "waiting",
			}
		},
	}

	b.Reduce = func(state interface{}, a bot.Action, emit bot.Emit) interface{} {
		switch a.Type {
		case "PLAN":
			p, _ := a.Payload.(map[string]interface{})
			emit("PLANNED")
			return map[string]interface{}{
				"state":    "ready",
				"tasklist": p["tasklist"],
			}
		}
		return state
	}

	b.Transition = func(ctx context.Context, a bot.Action, prev, next interface{}, m bot.Mutation) error {
		switch m.Type {
		case "PLANNED":
			p, _ := m.Payload.(map[string]interface{})
			return s.Send(ctx, rule.Message{
				"from":    b.Name,
				"content": fmt.Sprintf("Planning against %v.", p["tasklist"]),
			})
		}
		return nil
	}

	b.Build = func() *rule.Node {
		return rule.New(
			"plan-root", nil,
			rule.New("plan", match.Prefix("plan")).On(planHandler(s, b)),
		)
	}

	return b
}

// planHandler recognizes a tasklist URL in the message and moves the
// bot to ready.  Anything else gets a gentle complaint instead of a
// dispatch.
func planHandler(s *service.Service, b *bot.Bot) rule.Handler {
	return func(ctx context.Context, m rule.Message) (interface{}, error) {
		url := tasklistRe.FindString(m.Content())
		if url == "" {
			return nil, s.Send(ctx, rule.Message{
				"from":    b.Name,
				"content": "Uh oh, I don't recognize that tasklist!",
				"to":      m.Author(),
			})
		}

		// Peek at the tasklist so the eventual reply can say
		// whether it was reachable.
		status := 0
		r := &fetch.Request{URL: url}
		if err := r.Do(ctx, func(_ context.Context, resp *fetch.Response) error {
			status = resp.StatusCode
			return nil
		}); err != nil {
			return nil, err
		}

		if _, err := b.Dispatch(ctx, "PLAN", map[string]interface{}{
			"tasklist": url,
			"status":   status,
		}); err != nil {
			return nil, err
		}
		return url, nil
	}
}
