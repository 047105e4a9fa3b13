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

package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
)

// ProtocolError is a malformed control request: wrong HTTP method,
// missing or unknown operation, bad arguments.  Rejected before any
// dispatch occurs.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// controlRequest is the body of a control POST.
type controlRequest struct {
	Method string        `json:"method"`
	Args   []interface{} `json:"args"`
}

type controlMeta struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

type controlFailure struct {
	Error bool        `json:"error"`
	Meta  controlMeta `json:"meta"`
}

// Handler returns the HTTP control surface: a single POST endpoint
// taking {"method": ..., "args": [...]} and answering {"data": ...}
// on success or a JSON error envelope (status 500) on any failure.
// A bad request never takes the listener down.
func (s *Service) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		defer func() {
			if x := recover(); x != nil {
				s.fail(w, fmt.Errorf("panic: %v", x))
			}
		}()

		if r.Method != http.MethodPost {
			s.fail(w, &ProtocolError{`method not allowed: "` + r.Method + `"`})
			return
		}

		var req controlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.fail(w, &ProtocolError{"bad request body: " + err.Error()})
			return
		}
		if req.Method == "" {
			s.fail(w, &ProtocolError{"no method"})
			return
		}

		op, have := s.ops[req.Method]
		if !have {
			s.fail(w, &ProtocolError{`unknown method "` + req.Method + `"`})
			return
		}

		result, err := op(ctx, req.Args)
		if err != nil {
			s.fail(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"data": result,
		}); err != nil {
			s.logger().Tracef(0, "control response encode error %v", err)
		}
	})
}

func (s *Service) fail(w http.ResponseWriter, err error) {
	s.logger().Tracef(0, "control error %v", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	enc := json.NewEncoder(w)
	if eerr := enc.Encode(&controlFailure{
		Error: true,
		Meta: controlMeta{
			Message: err.Error(),
			Stack:   string(debug.Stack()),
		},
	}); eerr != nil {
		s.logger().Tracef(0, "control failure encode error %v", eerr)
	}
}
