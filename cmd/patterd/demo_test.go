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
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/patterbot/patter/rule"
	"github.com/patterbot/patter/service"
	"github.com/patterbot/patter/util/testutil"
)

func planService(t *testing.T) (*service.Service, *testutil.Capture) {
	t.Helper()
	ctx := context.Background()
	capture := &testutil.Capture{}
	s := service.NewService("test")
	s.Messenger = capture
	s.AddBot("plan", planBot(ctx, s))
	return s, capture
}

func TestPlanBotReady(t *testing.T) {
	ctx := context.Background()

	// The tasklist URL points at a local server; the path satisfies
	// the tasklist pattern.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer ts.Close()
	url := ts.URL + "/teamwork.com/tasklists/42"

	s, capture := planService(t)

	got, err := s.Process(ctx, rule.Message{
		"content": "plan " + url,
		"author":  "pm",
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got["plan"], []interface{}{url}) {
		t.Fatalf("got %#v", got)
	}

	b, _ := s.Bot("plan")
	state := b.State().(map[string]interface{})
	if state["state"] != "ready" || state["tasklist"] != url {
		t.Fatalf("state %#v", state)
	}

	err = capture.AssertSent(map[string]interface{}{
		"content": "Planning against " + url + ".",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestPlanBotUnrecognizedTasklist(t *testing.T) {
	ctx := context.Background()

	s, capture := planService(t)

	got, err := s.Process(ctx, rule.Message{
		"content": "plan the weekend",
		"author":  "pm",
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got["plan"], []interface{}{nil}) {
		t.Fatalf("got %#v", got)
	}

	// No dispatch happened: still waiting.
	b, _ := s.Bot("plan")
	if state := b.State().(map[string]interface{}); state["state"] != "waiting" {
		t.Fatalf("state %#v", state)
	}

	err = capture.AssertSent(map[string]interface{}{
		"content": "Uh oh, I don't recognize that tasklist!",
		"to":      "pm",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestPlanBotIgnoresOtherMessages(t *testing.T) {
	ctx := context.Background()

	s, capture := planService(t)

	got, err := s.Process(ctx, rule.Message{"content": "hello there"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %#v", got)
	}
	if len(capture.Sent()) != 0 {
		t.Fatalf("sent %v", capture.Sent())
	}
}
