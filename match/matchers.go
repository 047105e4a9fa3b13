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
	"regexp"
	"strings"

	"github.com/patterbot/patter/rule"
)

// This file adapts the pattern matcher (and friends) to the
// rule.Matcher protocol.  All of these are pure functions of message
// content, so re-testing a transformed message is stable.

// Regexp matches the message content against the given expression.
// On a match, the transformed message carries the submatches under
// "matches".
func Regexp(expr string) rule.Matcher {
	re := regexp.MustCompile(expr)
	return rule.MatcherFunc(func(m rule.Message) (rule.Message, bool) {
		groups := re.FindStringSubmatch(m.Content())
		if groups == nil {
			return nil, false
		}
		t := m.Copy()
		t["matches"] = groups
		return t, true
	})
}

// Prefix matches content starting with the given prefix.  The
// transformed message's content is the remainder (trimmed), with the
// original content preserved under "raw".
func Prefix(prefix string) rule.Matcher {
	return rule.MatcherFunc(func(m rule.Message) (rule.Message, bool) {
		content := m.Content()
		if !strings.HasPrefix(content, prefix) {
			return nil, false
		}
		t := m.Copy()
		t["raw"] = content
		t["content"] = strings.TrimSpace(strings.TrimPrefix(content, prefix))
		return t, true
	})
}

// Pattern matches the whole message against a structured pattern.
// On a match, the bindings appear in the transformed message under
// "bindings".
func Pattern(pattern interface{}) rule.Matcher {
	return rule.MatcherFunc(func(m rule.Message) (rule.Message, bool) {
		bs, ok := Match(pattern, map[string]interface{}(m), NewBindings())
		if !ok {
			return nil, false
		}
		t := m.Copy()
		t["bindings"] = map[string]interface{}(bs)
		return t, true
	})
}

// Any matches every message, unchanged.
func Any() rule.Matcher {
	return rule.MatcherFunc(func(m rule.Message) (rule.Message, bool) {
		return m, true
	})
}

// And applies the given matchers in order, threading each transform
// into the next.  All must match.
func And(ms ...rule.Matcher) rule.Matcher {
	return rule.MatcherFunc(func(m rule.Message) (rule.Message, bool) {
		t := m
		for _, matcher := range ms {
			var ok bool
			if t, ok = matcher.Match(t); !ok {
				return nil, false
			}
		}
		return t, true
	})
}

// Or returns the first matcher's transform that succeeds.
func Or(ms ...rule.Matcher) rule.Matcher {
	return rule.MatcherFunc(func(m rule.Message) (rule.Message, bool) {
		for _, matcher := range ms {
			if t, ok := matcher.Match(m); ok {
				return t, true
			}
		}
		return nil, false
	})
}

// Not inverts a matcher.  A match yields no-match; a no-match yields
// the message unchanged.
func Not(matcher rule.Matcher) rule.Matcher {
	return rule.MatcherFunc(func(m rule.Message) (rule.Message, bool) {
		if _, ok := matcher.Match(m); ok {
			return nil, false
		}
		return m, true
	})
}
