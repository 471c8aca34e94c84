// Copyright 2024 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package manifestmerge

// significantChildren returns e's child nodes with comments and
// whitespace-only text filtered out, in document order (spec §4.3.3).
func significantChildren(e *Element) []*Node {
	out := make([]*Node, 0, len(e.Children))
	for _, c := range e.Children {
		if c.Kind == NodeComment {
			continue
		}
		if c.Kind == NodeText && c.IsWhitespaceText() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// semanticallyEqual implements spec §4.3: two elements are equal iff their
// qualified names match, their attribute sets match as unordered sets, and
// their significant children match pairwise in order.
func semanticallyEqual(a, b *Element) bool {
	if a.Name != b.Name {
		return false
	}
	if !attributeSetsEqual(a.Attributes, b.Attributes) {
		return false
	}
	ac, bc := significantChildren(a), significantChildren(b)
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !nodesEqual(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

func attributeSetsEqual(a, b []*Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	bIndex := make(map[Name]string, len(b))
	for _, attr := range b {
		bIndex[attr.Name] = attr.Value
	}
	for _, attr := range a {
		v, ok := bIndex[attr.Name]
		if !ok || v != attr.Value {
			return false
		}
	}
	return true
}

func nodesEqual(a, b *Node) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case NodeElement:
		return semanticallyEqual(a.Element, b.Element)
	case NodeText:
		return a.Text == b.Text
	default:
		// Comments never survive significantChildren's filter, so they
		// cannot reach here; treat conservatively as unequal if they do.
		return false
	}
}
