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
	"errors"
	"reflect"
	"testing"

	"github.com/patterbot/patter/rule"
)

func TestJS(t *testing.T) {
	if got := JS(map[string]interface{}{"likes": "tacos"}); got != `{"likes":"tacos"}` {
		t.Fatalf("got %q", got)
	}
}

func TestDwimjs(t *testing.T) {
	got := Dwimjs(`{"n":1}`)
	want := map[string]interface{}{"n": float64(1)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v", got)
	}
	if got = Dwimjs(42); got != 42 {
		t.Fatalf("got %#v", got)
	}
	if got = Dwimjs([]byte(`"hi"`)); got != "hi" {
		t.Fatalf("got %#v", got)
	}
}

func TestCopy(t *testing.T) {
	orig := map[string]interface{}{"a": []interface{}{float64(1)}}
	dup := Copy(orig).(map[string]interface{})
	if !reflect.DeepEqual(orig, dup) {
		t.Fatalf("copy differs: %#v", dup)
	}
	dup["a"].([]interface{})[0] = float64(2)
	if orig["a"].([]interface{})[0] != float64(1) {
		t.Fatal("copy aliased the original")
	}
}

func TestCapture(t *testing.T) {
	ctx := context.Background()
	c := &Capture{}

	if err := c.AssertSent(map[string]interface{}{"content": "?x"}); err == nil {
		t.Fatal("empty capture should fail the assertion")
	} else {
		var missing *MissingMessageError
		if !errors.As(err, &missing) {
			t.Fatalf("got %T, wanted MissingMessageError", err)
		}
	}

	c.SendMessage(ctx, rule.Message{"content": "hello", "to": "al"})
	c.SendMessage(ctx, rule.Message{"content": "bye", "to": "al"})

	if err := c.AssertSent(map[string]interface{}{"content": "bye"}); err != nil {
		t.Fatal(err)
	}

	err := c.AssertSent(map[string]interface{}{"content": "never said"})
	var mismatch *MatchAssertionError
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %T, wanted MatchAssertionError", err)
	}
	actual, is := mismatch.Actual.([]rule.Message)
	if !is || len(actual) != 2 {
		t.Fatalf("error should carry what was sent: %#v", mismatch.Actual)
	}

	if got := c.Last(); got.Content() != "bye" {
		t.Fatalf("last %v", got)
	}
	if got := c.Sent(); len(got) != 2 {
		t.Fatalf("sent %v", got)
	}

	c.Reset()
	if c.Last() != nil {
		t.Fatal("Reset didn't forget")
	}
}
