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

// Package transcript records delivered messages on disk so the ops
// surface can show what a bot heard and said.
//
// This is a debugging convenience, not engine state: dispatch state
// stays in memory, and a Service works fine with no Recorder at all.
package transcript

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"log"
	"time"

	"github.com/patterbot/patter/rule"

	bolt "go.etcd.io/bbolt"
)

// Entry is one recorded message.
type Entry struct {
	At        time.Time    `json:"at"`
	Bot       string       `json:"bot,omitempty"`
	Direction string       `json:"direction"` // "in" or "out"
	Msg       rule.Message `json:"msg"`
}

// Recorder appends entries to a bolt file, one bucket per bot (the
// empty bot name gets its own bucket).
type Recorder struct {
	Debug bool

	filename string
	db       *bolt.DB
}

// NewRecorder makes a Recorder for the given file.
func NewRecorder(filename string) (*Recorder, error) {
	return &Recorder{
		filename: filename,
	}, nil
}

// Open opens the underlying database.
func (r *Recorder) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}
	db, err := bolt.Open(r.filename, 0644, opts)
	if err != nil {
		return err
	}
	r.db = db
	return nil
}

// Close closes the underlying database.
func (r *Recorder) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *Recorder) logf(format string, args ...interface{}) {
	if r.Debug {
		log.Printf("transcript.Recorder."+format, args...)
	}
}

func key(seq uint64) []byte {
	bs := make([]byte, 8)
	binary.BigEndian.PutUint64(bs, seq)
	return bs
}

// Append records e.  A zero At gets the current time.
func (r *Recorder) Append(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	r.logf("Append %s %s", e.Bot, e.Direction)
	return r.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(e.Bot))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		js, err := json.Marshal(&e)
		if err != nil {
			return err
		}
		return b.Put(key(seq), js)
	})
}

// List returns up to limit of the most recent entries for the given
// bot, oldest first.  limit <= 0 means everything.
func (r *Recorder) List(ctx context.Context, bot string, limit int) ([]Entry, error) {
	r.logf("List %s %d", bot, limit)
	acc := make([]Entry, 0, 32)
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bot))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			acc = append(acc, e)
			if 0 < limit && limit <= len(acc) {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Reverse to oldest-first.
	for i, j := 0, len(acc)-1; i < j; i, j = i+1, j-1 {
		acc[i], acc[j] = acc[j], acc[i]
	}
	return acc, nil
}
