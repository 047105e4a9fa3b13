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
	"context"
	"encoding/json"
	"errors"

	"github.com/patterbot/patter/rule"
	"github.com/patterbot/patter/trace"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrNotStarted occurs when a coupling is used before Start.
var ErrNotStarted = errors.New("coupling not started")

// MQTT is a Coupling over an MQTT broker: inbound messages arrive on
// SubTopic; outbound ones are published to PubTopic (or to the
// message's own "topic" property).
type MQTT struct {
	// Broker is e.g. "tcp://localhost:1883".
	Broker   string
	ClientId string
	UserName string
	Password string

	// SubTopic is the subscription for inbound messages.
	SubTopic string

	// PubTopic is the default topic for outbound messages.
	PubTopic string

	// QoS for both directions.
	QoS byte

	// InjectTopic puts the inbound topic into the message map.
	InjectTopic bool

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint

	Logger trace.Logger

	client mqtt.Client
}

func (c *MQTT) logger() trace.Logger {
	if c.Logger == nil {
		return trace.Nop
	}
	return c.Logger
}

// Start connects to the broker and subscribes.
func (c *MQTT) Start(ctx context.Context, r Receiver) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.Broker)
	opts.SetClientID(c.ClientId)
	opts.Username = c.UserName
	opts.Password = c.Password

	client := mqtt.NewClient(opts)
	if t := client.Connect(); t.Wait() && t.Error() != nil {
		return t.Error()
	}
	c.client = client

	handler := func(_ mqtt.Client, in mqtt.Message) {
		var m rule.Message
		if err := json.Unmarshal(in.Payload(), &m); err != nil {
			c.logger().Tracef(0, "mqtt unmarshal error %v on %s", err, in.Payload())
			return
		}
		if c.InjectTopic {
			m = m.Copy()
			m["topic"] = in.Topic()
		}
		if err := r.Receive(ctx, m); err != nil {
			c.logger().Tracef(0, "mqtt receive error %v", err)
		}
	}

	if t := client.Subscribe(c.SubTopic, c.QoS, handler); t.Wait() && t.Error() != nil {
		client.Disconnect(c.Quiesce)
		return t.Error()
	}

	c.logger().Tracef(0, "mqtt connected %s %s", c.Broker, c.SubTopic)
	return nil
}

// Stop disconnects from the broker.
func (c *MQTT) Stop(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	c.client.Disconnect(c.Quiesce)
	c.client = nil
	return nil
}

// SendMessage publishes m as JSON.  A "topic" property on the message
// overrides PubTopic.
func (c *MQTT) SendMessage(ctx context.Context, m rule.Message) error {
	if c.client == nil {
		return ErrNotStarted
	}
	topic := c.PubTopic
	if s, is := m["topic"].(string); is && s != "" {
		topic = s
	}
	js, err := json.Marshal(&m)
	if err != nil {
		return err
	}
	t := c.client.Publish(topic, c.QoS, false, js)
	t.Wait()
	return t.Error()
}
