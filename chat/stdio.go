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

package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/patterbot/patter/rule"
)

// Stdio is a fairly simple Coupling that uses stdin for input and
// stdout for output.
//
// An input line that parses as a JSON object becomes that message;
// any other line becomes {"content": line, "author": Author}.
type Stdio struct {
	// In is coupled to inbound messages.
	In io.Reader

	// Out is coupled to outbound messages.
	Out io.Writer

	// Author is attached to plain-text input lines.
	Author string

	// Tags prefixes output lines with "emit" (and echoes input
	// with "input").
	Tags bool

	// EchoInput writes input lines back to the output.
	EchoInput bool

	// InputEOF, if not nil, is closed on EOF from the input.
	InputEOF chan bool

	mu sync.Mutex
}

// NewStdio creates a Stdio coupled to os.Stdin and os.Stdout.
func NewStdio() *Stdio {
	return &Stdio{
		In:     os.Stdin,
		Out:    os.Stdout,
		Author: "stdin",
	}
}

// Start reads input lines in a new goroutine.
func (s *Stdio) Start(ctx context.Context, r Receiver) error {
	go func() {
		in := bufio.NewScanner(s.In)
		for in.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := strings.TrimSpace(in.Text())
			if line == "" {
				continue
			}
			if s.EchoInput {
				s.emit("input", line)
			}

			var m rule.Message
			if err := json.Unmarshal([]byte(line), &m); err != nil {
				m = rule.Message{
					"content": line,
					"author":  s.Author,
				}
			}
			if err := r.Receive(ctx, m); err != nil {
				s.emit("diag", fmt.Sprintf("receive error %v", err))
			}
		}
		if s.InputEOF != nil {
			close(s.InputEOF)
		}
	}()
	return nil
}

// Stop does nothing; the reader ends with its input or ctx.
func (s *Stdio) Stop(ctx context.Context) error {
	return nil
}

// SendMessage writes m as one JSON line.
func (s *Stdio) SendMessage(ctx context.Context, m rule.Message) error {
	js, err := json.Marshal(&m)
	if err != nil {
		return err
	}
	s.emit("emit", string(js))
	return nil
}

func (s *Stdio) emit(tag, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Tags {
		fmt.Fprintf(s.Out, "%s\t%s\n", tag, line)
		return
	}
	fmt.Fprintln(s.Out, line)
}
