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

package rule

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/patterbot/patter/trace"
)

func named(name string) Handler {
	return func(ctx context.Context, m Message) (interface{}, error) {
		return name, nil
	}
}

func names(bs []*Bound) []string {
	ctx := context.Background()
	acc := make([]string, 0, len(bs))
	for _, b := range bs {
		x, _ := b.Run(ctx)
		acc = append(acc, x.(string))
	}
	return acc
}

func contentHas(s string) Matcher {
	return MatcherFunc(func(m Message) (Message, bool) {
		if strings.Contains(m.Content(), s) {
			return m, true
		}
		return nil, false
	})
}

func TestTestNoMatch(t *testing.T) {
	ctx := context.Background()
	n := New("root", contentHas("nope")).On(named("a"))
	if got := n.Test(ctx, nil, Message{"content": "hello"}, false, 0); got != nil {
		t.Fatalf("got %v, wanted nil", got)
	}
}

func TestTestNilMatcherMatchesAll(t *testing.T) {
	ctx := context.Background()
	n := New("root", nil).On(named("a"))
	got := n.Test(ctx, nil, Message{"content": "anything"}, false, 0)
	if want := []string{"a"}; !reflect.DeepEqual(names(got), want) {
		t.Fatalf("got %v, wanted %v", names(got), want)
	}
}

func TestTestDepthFirstOrder(t *testing.T) {
	ctx := context.Background()
	n := New("root", nil,
		New("left", nil).On(named("left")).
			Add(New("left-kid", nil).On(named("left-kid"))),
		New("right", nil).On(named("right"))).
		On(named("root"))

	got := names(n.Test(ctx, nil, Message{"content": "x"}, false, 0))
	want := []string{"root", "left", "left-kid", "right"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, wanted %v", got, want)
	}
}

func TestTestTransformFlowsDown(t *testing.T) {
	ctx := context.Background()

	upper := MatcherFunc(func(m Message) (Message, bool) {
		acc := m.Copy()
		acc["content"] = strings.ToUpper(m.Content())
		return acc, true
	})

	var child Message
	n := New("root", upper,
		New("kid", nil).On(func(ctx context.Context, m Message) (interface{}, error) {
			child = m
			return nil, nil
		}))

	bs := n.Test(ctx, nil, Message{"content": "shout", "author": "al"}, false, 0)
	for _, b := range bs {
		b.Run(ctx)
	}

	if got := child.Content(); got != "SHOUT" {
		t.Fatalf(`child saw %q, wanted "SHOUT"`, got)
	}
	if got := child.Author(); got != "al" {
		t.Fatalf("transform dropped author: %v", got)
	}
}

func TestTestFirst(t *testing.T) {
	ctx := context.Background()
	n := New("root", nil,
		New("miss", contentHas("zzz")).On(named("miss")),
		New("one", nil).On(named("one")),
		New("two", nil).On(named("two")))
	n.First = true

	got := names(n.Test(ctx, nil, Message{"content": "x"}, false, 0))
	// "miss" doesn't match, so it doesn't stop the scan; "one" does.
	if want := []string{"one"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, wanted %v", got, want)
	}
}

func TestTestMount(t *testing.T) {
	ctx := context.Background()

	built := 0
	var ran []string
	sub := func() *Node {
		built++
		return New("sub", nil).On(func(ctx context.Context, m Message) (interface{}, error) {
			ran = append(ran, m.Content())
			return nil, nil
		})
	}

	n := New("root", nil).On(named("root"))
	mounted := New("mounted", contentHas("go"))
	mounted.Mount = sub
	n.Add(mounted)

	// The mounted node consumes matching messages: its handlers run
	// inside Test, and nothing from it is reported upward.
	got := names(n.Test(ctx, nil, Message{"content": "go now"}, false, 0))
	if want := []string{"root"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, wanted %v", got, want)
	}
	if !reflect.DeepEqual(ran, []string{"go now"}) {
		t.Fatalf("mounted handlers saw %v", ran)
	}

	// No match, no build.
	n.Test(ctx, nil, Message{"content": "go again"}, false, 0)
	if built != 1 {
		t.Fatalf("subtree built %d times, wanted 1", built)
	}
	if len(ran) != 2 {
		t.Fatalf("mounted handlers ran %d times, wanted 2", len(ran))
	}
}

func TestTestTracePreview(t *testing.T) {
	ctx := context.Background()

	var b trace.Buffer
	long := strings.Repeat("na", 40) + " batman"
	n := New("root", nil).On(named("a"))
	n.Test(ctx, &b, Message{"content": long}, false, 0)

	lines := b.Snapshot()
	if len(lines) == 0 {
		t.Fatal("no trace output at level 0")
	}
	want := string([]rune(long)[:PreviewLimit]) + "..."
	if !strings.Contains(lines[0], want) {
		t.Fatalf("trace %q missing preview %q", lines[0], want)
	}
	if strings.Contains(lines[0], "batman") {
		t.Fatalf("trace %q was not truncated", lines[0])
	}
}

func TestTestDebugDoesNotChangeResults(t *testing.T) {
	ctx := context.Background()

	mk := func() *Node {
		return New("root", nil,
			New("kid", contentHas("x")).On(named("kid"))).
			On(named("root"))
	}

	quiet := names(mk().Test(ctx, nil, Message{"content": "x"}, false, 0))
	var b trace.Buffer
	loud := names(mk().Test(ctx, &b, Message{"content": "x"}, true, 0))

	if !reflect.DeepEqual(quiet, loud) {
		t.Fatalf("debug changed results: %v vs %v", quiet, loud)
	}
	if len(b.Snapshot()) < 2 {
		t.Fatalf("debug produced %d trace lines", len(b.Snapshot()))
	}
}

func TestPreview(t *testing.T) {
	short := Message{"content": "hi"}
	if got := Preview(short); got != "hi" {
		t.Fatalf("got %q", got)
	}
	exact := Message{"content": strings.Repeat("a", PreviewLimit)}
	if got := Preview(exact); got != strings.Repeat("a", PreviewLimit) {
		t.Fatalf("exact-limit content should not be truncated: %q", got)
	}
	none := Message{}
	if got := Preview(none); got != "" {
		t.Fatalf("got %q", got)
	}
}
