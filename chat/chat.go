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

// Package chat couples the runtime to concrete message transports.
//
// The core only consumes the Messenger contract; everything else here
// is delivery plumbing.
package chat

import (
	"context"

	"github.com/patterbot/patter/rule"
)

// Messenger is the delivery collaborator: it pushes an outbound
// message to wherever it goes.
type Messenger interface {
	SendMessage(ctx context.Context, m rule.Message) error
}

// Receiver consumes inbound messages.  A Service is a Receiver.
type Receiver interface {
	Receive(ctx context.Context, m rule.Message) error
}

// ReceiverFunc adapts a function to a Receiver.
type ReceiverFunc func(ctx context.Context, m rule.Message) error

func (f ReceiverFunc) Receive(ctx context.Context, m rule.Message) error {
	return f(ctx, m)
}

// Coupling is a transport that carries messages both ways.
type Coupling interface {
	Messenger

	// Start begins reading inbound messages, handing each one to
	// the Receiver.  Start returns once reading is underway.
	Start(ctx context.Context, r Receiver) error

	// Stop shuts the transport down.
	Stop(ctx context.Context) error
}
