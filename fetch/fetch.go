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

// Package fetch is a small synchronous HTTP request helper for rule
// handlers that need to call out (checking a tasklist URL, say).
package fetch

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"
)

// Jar wraps a cookiejar so a request can carry cookies explicitly.
type Jar struct {
	*cookiejar.Jar
	Kookies []*http.Cookie `json:"cookies"`
}

// NewJar makes a Jar backed by the public suffix list.
func NewJar() (*Jar, error) {
	cookieJar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &Jar{Jar: cookieJar}, nil
}

func (j *Jar) AddCookies(cs []*http.Cookie) {
	if j.Kookies == nil {
		j.Kookies = make([]*http.Cookie, 0, 2*len(cs))
	}
	j.Kookies = append(j.Kookies, cs...)
}

// Request is something we should quit re-implementing over and over.
type Request struct {
	Id      string      `json:"id,omitempty"`
	Method  string      `json:"method,omitempty"`
	URL     string      `json:"url"`
	Body    string      `json:"body,omitempty"`
	Headers http.Header `json:"headers,omitempty"`

	CookieJar *Jar `json:"jar,omitempty"`

	Debug bool `json:"debug,omitempty"`

	// TestResponse, if there, will be returned instead of
	// attempting a real HTTP request.
	TestResponse *Response
}

// Response is what a Request's handler sees.
type Response struct {
	StatusCode  int         `json:"statusCode"`
	Status      string      `json:"status"`
	Error       error       `json:"error,omitempty"`
	Headers     http.Header `json:"headers,omitempty"`
	Body        string      `json:"body,omitempty"`
	ContentType string      `json:"contentType,omitempty"`
	Request     *Request    `json:"request,omitempty"`
}

func (r *Request) logf(format string, args ...interface{}) {
	if r.Debug {
		log.Printf(format, args...)
	}
}

// Do is the low-level, synchronous method to make the request and
// call the handler with the result.
//
// Transport-level failures go to the handler in Response.Error; the
// returned error is the handler's.
func (r *Request) Do(ctx context.Context, handler func(context.Context, *Response) error) error {
	if r.TestResponse != nil {
		r.TestResponse.Request = r
		return handler(ctx, r.TestResponse)
	}

	method := r.Method
	if method == "" {
		method = "GET"
	}

	var body io.Reader
	if r.Body != "" {
		body = bytes.NewReader([]byte(r.Body))
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return err
	}
	if r.Headers != nil {
		req.Header = r.Headers
	}

	// http.Request doesn't itself support CookieJars; http.Client
	// does, but http.Clients cache TCP connections, so we don't
	// want one per request.  So cookies are added manually here.
	if r.CookieJar != nil {
		for i, cookie := range r.CookieJar.Cookies(req.URL) {
			r.logf("adding cookie %d: %#v", i, cookie)
			req.AddCookie(cookie)
		}
	}

	result := &Response{
		Request: r,
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		r.logf("fetch.Request.Do error %v", err)
		result.Error = err
		return handler(ctx, result)
	}
	defer resp.Body.Close()

	result.Headers = resp.Header
	result.Status = resp.Status
	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		r.logf("fetch.Request.Do ReadAll error %v", err)
		result.Error = err
		return handler(ctx, result)
	}
	result.Body = string(bs)

	if r.CookieJar != nil {
		if cs := resp.Cookies(); 0 < len(cs) {
			r.CookieJar.SetCookies(req.URL, cs)
			r.CookieJar.AddCookies(cs)
		}
	}

	return handler(ctx, result)
}
