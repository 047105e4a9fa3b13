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

package match

import (
	"reflect"
	"testing"

	"github.com/patterbot/patter/rule"
)

func TestRegexp(t *testing.T) {
	m := Regexp(`plan (\S+)`)

	got, ok := m.Match(rule.Message{"content": "plan http://x", "author": "al"})
	if !ok {
		t.Fatal("no match")
	}
	want := []string{"plan http://x", "http://x"}
	if !reflect.DeepEqual(got["matches"], want) {
		t.Fatalf("matches %v, wanted %v", got["matches"], want)
	}
	if got.Author() != "al" {
		t.Fatal("transform dropped author")
	}

	if _, ok = m.Match(rule.Message{"content": "nothing here"}); ok {
		t.Fatal("unexpected match")
	}
}

func TestRegexpIdempotent(t *testing.T) {
	m := Regexp(`hello`)
	first, ok := m.Match(rule.Message{"content": "hello there"})
	if !ok {
		t.Fatal("no match")
	}
	second, ok := m.Match(first)
	if !ok {
		t.Fatal("re-test of a transformed message should still match")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-test changed the transform: %v vs %v", first, second)
	}
}

func TestPrefix(t *testing.T) {
	m := Prefix("!echo")

	got, ok := m.Match(rule.Message{"content": "!echo  hi there"})
	if !ok {
		t.Fatal("no match")
	}
	if got.Content() != "hi there" {
		t.Fatalf("content %q", got.Content())
	}
	if got["raw"] != "!echo  hi there" {
		t.Fatalf("raw %v", got["raw"])
	}

	if _, ok = m.Match(rule.Message{"content": "echo hi"}); ok {
		t.Fatal("unexpected match")
	}
}

func TestPattern(t *testing.T) {
	m := Pattern(map[string]interface{}{"content": "?said"})

	got, ok := m.Match(rule.Message{"content": "tacos"})
	if !ok {
		t.Fatal("no match")
	}
	bs := got["bindings"].(map[string]interface{})
	if bs["?said"] != "tacos" {
		t.Fatalf("bindings %v", bs)
	}

	m = Pattern(map[string]interface{}{"kind": "order"})
	if _, ok = m.Match(rule.Message{"content": "tacos"}); ok {
		t.Fatal("unexpected match")
	}
}

func TestAndOrNot(t *testing.T) {
	msg := rule.Message{"content": "!plan http://x"}

	and := And(Prefix("!plan"), Regexp(`http://\S+`))
	got, ok := and.Match(msg)
	if !ok {
		t.Fatal("And should match")
	}
	// And threads transforms: Prefix stripped the command first.
	if got.Content() != "http://x" {
		t.Fatalf("content %q", got.Content())
	}
	if _, ok = And(Prefix("!plan"), Regexp(`zzz`)).Match(msg); ok {
		t.Fatal("And should fail when any member fails")
	}

	or := Or(Prefix("!nope"), Prefix("!plan"))
	if got, ok = or.Match(msg); !ok || got.Content() != "http://x" {
		t.Fatalf("Or got %v %v", got, ok)
	}
	if _, ok = Or(Prefix("!a"), Prefix("!b")).Match(msg); ok {
		t.Fatal("Or should fail when all members fail")
	}

	if _, ok = Not(Any()).Match(msg); ok {
		t.Fatal("Not(Any) should never match")
	}
	got, ok = Not(Prefix("!nope")).Match(msg)
	if !ok {
		t.Fatal("Not should match")
	}
	if !reflect.DeepEqual(got, msg) {
		t.Fatalf("Not should pass the message through unchanged: %v", got)
	}
}
