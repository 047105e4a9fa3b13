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

package bot

import "encoding/json"

// The snapshot stack enables speculative execution with rollback:
// push a checkpoint, dispatch away, pop to restore.  It's a
// first-class capability on the Bot, so tests and production code use
// the same thing.
//
// Not safe to use concurrently with an in-flight dispatch.  There is
// no guard; caller discipline required.

// PushState deep-copies the live state and pushes the copy onto the
// snapshot stack.  Later mutation of the live state does not affect
// the snapshot.
func (b *Bot) PushState() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshots = append(b.snapshots, deepCopy(b.state))
}

// PopState removes the most recent snapshot and installs it as the
// live state, bypassing reduce and transition hooks.
func (b *Bot) PopState() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.snapshots)
	if n == 0 {
		return NoSnapshot
	}
	b.state = b.snapshots[n-1]
	b.snapshots = b.snapshots[:n-1]
	return nil
}

// Snapshots returns the current snapshot stack depth.
func (b *Bot) Snapshots() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.snapshots)
}

// deepCopy copies via a JSON round trip, so state must be JSON-ish.
func deepCopy(x interface{}) interface{} { // Sorry
	if x == nil {
		return nil
	}
	js, err := json.Marshal(&x)
	if err != nil {
		panic(err)
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		panic(err)
	}
	return y
}
