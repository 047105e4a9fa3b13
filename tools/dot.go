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

package tools

import (
	"fmt"
	"io"
	"strconv"

	"github.com/patterbot/patter/rule"
)

// RenderDot writes a Graphviz rendering of the tree rooted at n.
//
// Try
//
//	dot -Tpng tree.dot > tree.png
func RenderDot(n *rule.Node, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`digraph rules {`)
	f(`  node [shape=box];`)
	next := 0
	renderNodeDot(n, f, &next)
	f(`}`)

	return nil
}

func renderNodeDot(n *rule.Node, f func(string, ...interface{}), next *int) int {
	id := *next
	*next++

	label := n.Name
	if label == "" {
		label = "rule" + strconv.Itoa(id)
	}
	shape := ""
	if 0 < len(n.Handlers) {
		shape = ` shape=ellipse`
	}
	f(`  n%d [label=%q%s];`, id, label, shape)

	for _, child := range n.Children {
		kid := renderNodeDot(child, f, next)
		f(`  n%d -> n%d;`, id, kid)
	}

	return id
}
