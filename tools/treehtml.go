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

// Package tools renders rule trees as documentation.
package tools

import (
	"fmt"
	"html"
	"io"

	"github.com/patterbot/patter/rule"

	md "github.com/russross/blackfriday/v2"
)

// RenderTreeHTML writes an HTML rendering of the tree rooted at n.
// Node Doc strings are treated as Markdown.
func RenderTreeHTML(n *rule.Node, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="ruleTree">`)
	renderNodeHTML(n, f)
	f(`</div>`)

	return nil
}

func renderNodeHTML(n *rule.Node, f func(string, ...interface{})) {
	f(`<div class="rule">`)
	f(`<span id="%s" class="ruleName">%s</span>`,
		html.EscapeString(n.Name), html.EscapeString(n.Name))

	if n.Doc != "" {
		f(`<div class="ruleDoc doc">%s</div>`, md.Run([]byte(n.Doc)))
	}
	if 0 < len(n.Handlers) {
		f(`<div class="ruleHandlers">%d handler(s)</div>`, len(n.Handlers))
	}
	if n.First {
		f(`<div class="ruleFirst">first match wins</div>`)
	}

	if 0 < len(n.Children) {
		f(`<div class="ruleChildren">`)
		for _, child := range n.Children {
			renderNodeHTML(child, f)
		}
		f(`</div>`)
	}

	f(`</div>`)
}
