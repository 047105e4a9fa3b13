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

package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDo(t *testing.T) {
	ctx := context.Background()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("method %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("queso"))
	}))
	defer ts.Close()

	r := &Request{URL: ts.URL}
	err := r.Do(ctx, func(ctx context.Context, resp *Response) error {
		if resp.Error != nil {
			t.Fatal(resp.Error)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("status %d", resp.StatusCode)
		}
		if resp.Body != "queso" {
			t.Fatalf("body %q", resp.Body)
		}
		if resp.ContentType != "text/plain" {
			t.Fatalf("content type %q", resp.ContentType)
		}
		if resp.Request != r {
			t.Fatal("response should carry its request")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDoPostBody(t *testing.T) {
	ctx := context.Background()

	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bs, _ := io.ReadAll(r.Body)
		got = string(bs)
	}))
	defer ts.Close()

	r := &Request{Method: "POST", URL: ts.URL, Body: `{"likes":"tacos"}`}
	err := r.Do(ctx, func(ctx context.Context, resp *Response) error {
		return resp.Error
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"likes":"tacos"}` {
		t.Fatalf("server saw %q", got)
	}
}

func TestDoTestResponse(t *testing.T) {
	ctx := context.Background()

	r := &Request{
		URL: "http://nowhere.invalid",
		TestResponse: &Response{
			StatusCode: 200,
			Body:       "canned",
		},
	}
	err := r.Do(ctx, func(ctx context.Context, resp *Response) error {
		if resp.Body != "canned" {
			t.Fatalf("body %q", resp.Body)
		}
		if resp.Request != r {
			t.Fatal("canned response should carry its request")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDoTransportError(t *testing.T) {
	ctx := context.Background()

	r := &Request{URL: "http://127.0.0.1:1"} // Nobody's listening.
	called := false
	err := r.Do(ctx, func(ctx context.Context, resp *Response) error {
		called = true
		if resp.Error == nil {
			t.Fatal("wanted a transport error in the response")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("handler not called on transport error")
	}
}

func TestJarCookies(t *testing.T) {
	ctx := context.Background()

	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
			return
		}
		c, err := r.Cookie("session")
		if err != nil || c.Value != "abc" {
			t.Errorf("second request cookie: %v %v", c, err)
		}
	}))
	defer ts.Close()

	jar, err := NewJar()
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		r := &Request{URL: ts.URL, CookieJar: jar}
		err = r.Do(ctx, func(ctx context.Context, resp *Response) error {
			return resp.Error
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if len(jar.Kookies) == 0 {
		t.Fatal("jar recorded no cookies")
	}
}
