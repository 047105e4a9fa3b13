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
	"context"
	"fmt"

	"github.com/patterbot/patter/rule"
)

// The control surface delegates to this fixed set of operations.  The
// table in NewService is the allow-list; nothing else on the Service
// is reachable from the outside.

type opFunc func(ctx context.Context, args []interface{}) (interface{}, error)

func argMap(args []interface{}, i int) (map[string]interface{}, error) {
	if len(args) <= i {
		return nil, &ProtocolError{fmt.Sprintf("missing argument %d", i)}
	}
	m, is := args[i].(map[string]interface{})
	if !is {
		return nil, &ProtocolError{fmt.Sprintf("argument %d should be an object, not %T", i, args[i])}
	}
	return m, nil
}

func argString(args []interface{}, i int) (string, error) {
	if len(args) <= i {
		return "", &ProtocolError{fmt.Sprintf("missing argument %d", i)}
	}
	s, is := args[i].(string)
	if !is {
		return "", &ProtocolError{fmt.Sprintf("argument %d should be a string, not %T", i, args[i])}
	}
	return s, nil
}

// opProcess routes a message: args [message].
func (s *Service) opProcess(ctx context.Context, args []interface{}) (interface{}, error) {
	m, err := argMap(args, 0)
	if err != nil {
		return nil, err
	}
	return s.Process(ctx, rule.Message(m), s.Debug)
}

// opDispatch dispatches an action: args [bot, type, payload?].
func (s *Service) opDispatch(ctx context.Context, args []interface{}) (interface{}, error) {
	id, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	typ, err := argString(args, 1)
	if err != nil {
		return nil, err
	}
	var payload interface{}
	if 2 < len(args) {
		payload = args[2]
	}
	b, have := s.Bot(id)
	if !have {
		return nil, &ProtocolError{`unknown bot "` + id + `"`}
	}
	return b.Dispatch(ctx, typ, payload)
}

// opState returns a bot's live state: args [bot].
func (s *Service) opState(ctx context.Context, args []interface{}) (interface{}, error) {
	id, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	b, have := s.Bot(id)
	if !have {
		return nil, &ProtocolError{`unknown bot "` + id + `"`}
	}
	return b.State(), nil
}

// opPushState checkpoints a bot's state: args [bot].
func (s *Service) opPushState(ctx context.Context, args []interface{}) (interface{}, error) {
	id, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	b, have := s.Bot(id)
	if !have {
		return nil, &ProtocolError{`unknown bot "` + id + `"`}
	}
	b.PushState()
	return b.Snapshots(), nil
}

// opPopState restores a bot's last checkpoint: args [bot].
func (s *Service) opPopState(ctx context.Context, args []interface{}) (interface{}, error) {
	id, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	b, have := s.Bot(id)
	if !have {
		return nil, &ProtocolError{`unknown bot "` + id + `"`}
	}
	if err := b.PopState(); err != nil {
		return nil, err
	}
	return b.State(), nil
}

// opTranscript lists recorded traffic: args [bot, limit?].
func (s *Service) opTranscript(ctx context.Context, args []interface{}) (interface{}, error) {
	if s.Recorder == nil {
		return nil, &ProtocolError{"no transcript recorder"}
	}
	id, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	limit := 0
	if 1 < len(args) {
		n, is := args[1].(float64)
		if !is {
			return nil, &ProtocolError{fmt.Sprintf("argument 1 should be a number, not %T", args[1])}
		}
		limit = int(n)
	}
	return s.Recorder.List(ctx, id, limit)
}
