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

import "strings"

// pathSegment is one step of a Path: a tag name plus, for keyed kinds, the
// value of the key attribute that distinguishes it from its siblings.
type pathSegment struct {
	Tag string
	Key string // empty when the element's kind has no key attribute
}

// Path is the canonical textual address of an element, e.g.
// "/manifest/application/activity[@name=com.example.X]". Paths are computed
// on demand (spec §3) and never stored on the element itself.
type Path struct {
	segments []pathSegment
}

// String renders the path in the form used throughout diagnostics.
func (p Path) String() string {
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		b.WriteString(s.Tag)
		if s.Key != "" {
			b.WriteString("[@name=")
			b.WriteString(s.Key)
			b.WriteByte(']')
		}
	}
	return b.String()
}

// elementPath walks up e's Parent chain to compute its full Path. The key
// segment, when the element's kind declares one, is read via the kind
// table's KeyAttr so the rendered path always uses the key attribute's
// value regardless of namespace prefix.
func elementPath(e *Element) Path {
	var segs []pathSegment
	for cur := e; cur != nil; cur = cur.Parent {
		seg := pathSegment{Tag: cur.Name.Local}
		if kind, ok := lookupKind(cur.Name.Local, cur.Parent); ok && kind.KeyAttr != "" {
			if a := cur.Attr(AndroidNS, kind.KeyAttr); a != nil {
				seg.Key = a.Value
			}
		}
		segs = append(segs, seg)
	}
	// reverse, since we walked root-ward
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return Path{segments: segs}
}
