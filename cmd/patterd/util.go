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

package main

import (
	"context"
	"log"

	"github.com/patterbot/patter/chat"
	"github.com/patterbot/patter/rule"
)

// multiMessenger fans an outbound message out to every coupling.
type multiMessenger []chat.Messenger

func (ms multiMessenger) SendMessage(ctx context.Context, m rule.Message) error {
	var first error
	for _, messenger := range ms {
		if err := messenger.SendMessage(ctx, m); err != nil {
			log.Printf("send error %v", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
