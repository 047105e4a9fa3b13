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

// Package match provides structured pattern matching over messages.
//
// A pattern is a JSON-ish value.  A string starting with "?" is a
// variable, which binds to whatever it's matched against (and must
// match its previous binding if it has one).  Maps match maps
// property-wise; a property in the pattern must exist in the matched
// map.  Arrays match element-wise with equal lengths.  Everything
// else must be equal, with numeric types folded together the way JSON
// decoding mixes them.
package match

import (
	"reflect"
	"strings"
)

// Bindings maps pattern variables (with their "?" prefix) to matched
// values.
type Bindings map[string]interface{}

// NewBindings creates empty Bindings.
func NewBindings() Bindings {
	return make(Bindings, 4)
}

// Copy makes a shallow copy.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// IsVariable reports whether s is a pattern variable.
func IsVariable(s string) bool {
	return strings.HasPrefix(s, "?")
}

// Match matches pattern against x, extending bs.  bs is not
// modified; a successful match returns extended Bindings.
func Match(pattern, x interface{}, bs Bindings) (Bindings, bool) {
	if bs == nil {
		bs = NewBindings()
	}

	switch p := pattern.(type) {
	case string:
		if IsVariable(p) {
			if prev, have := bs[p]; have {
				if !equal(prev, x) {
					return nil, false
				}
				return bs, true
			}
			acc := bs.Copy()
			acc[p] = x
			return acc, true
		}
		s, is := x.(string)
		if !is || s != p {
			return nil, false
		}
		return bs, true

	case map[string]interface{}:
		m, is := mapify(x)
		if !is {
			return nil, false
		}
		acc := bs
		for k, sub := range p {
			v, have := m[k]
			if !have {
				return nil, false
			}
			var ok bool
			if acc, ok = Match(sub, v, acc); !ok {
				return nil, false
			}
		}
		return acc, true

	case []interface{}:
		xs, is := x.([]interface{})
		if !is || len(xs) != len(p) {
			return nil, false
		}
		acc := bs
		for i, sub := range p {
			var ok bool
			if acc, ok = Match(sub, xs[i], acc); !ok {
				return nil, false
			}
		}
		return acc, true

	default:
		if !equal(pattern, x) {
			return nil, false
		}
		return bs, true
	}
}

// mapify accepts the map types a pattern can be matched against.
func mapify(x interface{}) (map[string]interface{}, bool) {
	switch m := x.(type) {
	case map[string]interface{}:
		return m, true
	}
	// A named map type with string keys (rule.Message) also works.
	v := reflect.ValueOf(x)
	if v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String {
		acc := make(map[string]interface{}, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			acc[iter.Key().String()] = iter.Value().Interface()
		}
		return acc, true
	}
	return nil, false
}

// equal compares scalars, folding numeric types together.
func equal(x, y interface{}) bool {
	if fx, ok := asFloat(x); ok {
		fy, ok := asFloat(y)
		return ok && fx == fy
	}
	return reflect.DeepEqual(x, y)
}

func asFloat(x interface{}) (float64, bool) {
	switch n := x.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
