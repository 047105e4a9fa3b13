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

// Package trace provides leveled, indent-aware trace logging for rule
// routing and dispatch.
//
// The Logger is a capability that's passed explicitly so that tests
// (and anybody else) can substitute their own.  Tracing must never
// affect matching or dispatch outcomes.
package trace

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// Logger receives trace output at a given tree depth.
type Logger interface {
	// Tracef logs one line.  The level gives the depth in the
	// rule tree (0 for the root), which an implementation can
	// render as indentation.
	Tracef(level int, format string, args ...interface{})
}

type nop struct{}

func (nop) Tracef(int, string, ...interface{}) {}

// Nop is a Logger that does nothing.  It's the default everywhere.
var Nop Logger = nop{}

// Writer is a Logger that writes via the standard log package with
// two spaces of indentation per level.
type Writer struct {
	// Log, if nil, means use the log package's default logger.
	Log *log.Logger
}

func (w *Writer) Tracef(level int, format string, args ...interface{}) {
	line := indent(level) + fmt.Sprintf(format, args...)
	if w.Log == nil {
		log.Print(line)
		return
	}
	w.Log.Print(line)
}

func indent(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat("  ", level)
}

// Buffer is a Logger that accumulates rendered lines.  Handy in
// tests.
type Buffer struct {
	sync.Mutex
	Lines []string
}

func (b *Buffer) Tracef(level int, format string, args ...interface{}) {
	b.Lock()
	b.Lines = append(b.Lines, indent(level)+fmt.Sprintf(format, args...))
	b.Unlock()
}

// Snapshot returns a copy of the accumulated lines.
func (b *Buffer) Snapshot() []string {
	b.Lock()
	acc := make([]string, len(b.Lines))
	copy(acc, b.Lines)
	b.Unlock()
	return acc
}
