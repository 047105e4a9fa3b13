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

// patterd hosts bots behind stdin/stdout, a WebSocket, or an MQTT
// broker, with an HTTP control surface.
//
// Usage:
//
//	patterd -http-addr :8365
//	echo '{"content":"plan http://teamwork.com/p/1"}' | patterd
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/patterbot/patter/chat"
	"github.com/patterbot/patter/rule"
	"github.com/patterbot/patter/service"
	"github.com/patterbot/patter/timers"
	"github.com/patterbot/patter/trace"
	"github.com/patterbot/patter/transcript"

	"github.com/jsccast/yaml"
)

// Config is patterd's YAML configuration.  Command-line flags win
// over the file.
type Config struct {
	Name       string `yaml:"name"`
	HTTPAddr   string `yaml:"httpAddr"`
	Transcript string `yaml:"transcript"`
	Debug      bool   `yaml:"debug"`

	WS string `yaml:"ws"`

	MQTT struct {
		Broker   string `yaml:"broker"`
		ClientId string `yaml:"clientId"`
		SubTopic string `yaml:"subTopic"`
		PubTopic string `yaml:"pubTopic"`
	} `yaml:"mqtt"`
}

func loadConfig(filename string) (*Config, error) {
	cfg := &Config{
		Name:     "patterd",
		HTTPAddr: ":8365",
	}
	if filename == "" {
		return cfg, nil
	}
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(bs, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	var (
		configFile = flag.String("config", "", "Optional YAML config filename")
		httpAddr   = flag.String("http-addr", "", "HTTP control surface address (overrides config)")
		stdio      = flag.Bool("stdio", true, "Couple stdin/stdout")
		wsURL      = flag.String("ws", "", "WebSocket URL to couple (overrides config)")
		debug      = flag.Bool("debug", false, "Trace routing and dispatch")
	)
	flag.Parse()

	if err := run(*configFile, *httpAddr, *wsURL, *stdio, *debug); err != nil {
		log.Fatal(err)
	}
}

func run(configFile, httpAddr, wsURL string, stdio, debug bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if wsURL != "" {
		cfg.WS = wsURL
	}
	cfg.Debug = cfg.Debug || debug

	s := service.NewService(cfg.Name)
	s.Debug = cfg.Debug
	if cfg.Debug {
		s.Logger = &trace.Writer{}
	}

	if cfg.Transcript != "" {
		rec, err := transcript.NewRecorder(cfg.Transcript)
		if err != nil {
			return err
		}
		if err = rec.Open(ctx); err != nil {
			return err
		}
		defer rec.Close(ctx)
		s.Recorder = rec
	}

	// Outbound delivery fans out to every started coupling.
	var couplings multiMessenger

	if stdio {
		c := chat.NewStdio()
		if err := c.Start(ctx, s); err != nil {
			return err
		}
		couplings = append(couplings, c)
	}
	if cfg.WS != "" {
		c := &chat.WebSocket{URL: cfg.WS, Logger: s.Logger}
		if err := c.Start(ctx, s); err != nil {
			return err
		}
		defer c.Stop(ctx)
		couplings = append(couplings, c)
	}
	if cfg.MQTT.Broker != "" {
		c := &chat.MQTT{
			Broker:   cfg.MQTT.Broker,
			ClientId: cfg.MQTT.ClientId,
			SubTopic: cfg.MQTT.SubTopic,
			PubTopic: cfg.MQTT.PubTopic,
			Logger:   s.Logger,
		}
		if err := c.Start(ctx, s); err != nil {
			return err
		}
		defer c.Stop(ctx)
		couplings = append(couplings, c)
	}
	s.Messenger = couplings

	ts := timers.NewTimers(func(ctx context.Context, m rule.Message) {
		if err := s.Receive(ctx, m); err != nil {
			log.Printf("timer message error %v", err)
		}
	})
	ts.Logger = s.Logger
	s.Timers = ts
	go func() {
		if err := ts.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("timers error %v", err)
		}
	}()

	s.AddBot("plan", planBot(ctx, s))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.Handler(),
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Printf("%s listening on %s", cfg.Name, cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
