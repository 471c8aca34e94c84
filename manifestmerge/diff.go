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

import (
	"fmt"
	"sort"
	"strings"
)

// attributeDiffBaseSpaces and childDiffBaseSpaces are the fixed-width
// margins (before any extra per-depth indentation) that follow the
// 2-character marker on an attribute line and a child-divergence line
// respectively, derived from the worked examples in spec §8 scenario 6
// (content starts at column 6 for attributes) and scenario 2 (column 4 for
// child divergence).
const (
	attributeDiffBaseSpaces = 4
	childDiffBaseSpaces     = 2
)

// diffMarker is "--", "++", or "  " (equal) depending on which side a
// diff line represents. Counter to the §2/§4.4 prose gloss ("-- present in
// primary only, ++ present in library only"), the worked examples in spec
// §8 (scenarios 2 and 6) consistently use "--" for the library's side of a
// divergence and "++" for the primary's side; this implementation follows
// the worked examples, since those are the fixture text the tests compare
// against. See DESIGN.md.
const (
	markerLibrary = "--"
	markerPrimary = "++"
	markerEqual   = "  "
)

func diffLine(marker string, baseSpaces, depth int, content string) string {
	return marker + strings.Repeat(" ", baseSpaces) + strings.Repeat("  ", depth) + content
}

// renderIncompatible builds the full multi-line diagnostic body for two
// elements sharing a key that are not semantically equal (spec §4.4): a
// header line, the attribute diff, and the first point of child-list
// divergence.
func renderIncompatible(primary, library *Element, keyValue string) []string {
	lines := []string{fmt.Sprintf("<%s android:name=%s>", primary.Name.Local, keyValue)}
	lines = append(lines, attributeDiff(primary, library)...)
	lines = append(lines, childDiff(significantChildren(primary), significantChildren(library), 0)...)
	return lines
}

// attributeDiff emits one line per attribute local name in the union of
// both elements' attributes, sorted by local name (spec §4.4). Attributes
// with equal values on both sides are still listed (unmarked), matching
// spec §8 scenario 6; attributes differing or present on only one side get
// a marked line using that side's value.
func attributeDiff(primary, library *Element) []string {
	names := map[Name]bool{}
	pVal := map[Name]string{}
	lVal := map[Name]string{}
	for _, a := range primary.Attributes {
		names[a.Name] = true
		pVal[a.Name] = a.Value
	}
	for _, a := range library.Attributes {
		names[a.Name] = true
		lVal[a.Name] = a.Value
	}
	sorted := make([]Name, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Local < sorted[j].Local })

	var out []string
	for _, n := range sorted {
		pv, pOK := pVal[n]
		lv, lOK := lVal[n]
		qualified := qualifiedAttrName(n)
		switch {
		case pOK && lOK && pv == lv:
			out = append(out, diffLine(markerEqual, attributeDiffBaseSpaces, 0, fmt.Sprintf("%s = %s", qualified, pv)))
		case pOK && lOK:
			// differ: show both sides.
			out = append(out, diffLine(markerLibrary, attributeDiffBaseSpaces, 0, fmt.Sprintf("%s = %s", qualified, lv)))
			out = append(out, diffLine(markerPrimary, attributeDiffBaseSpaces, 0, fmt.Sprintf("%s = %s", qualified, pv)))
		case lOK:
			out = append(out, diffLine(markerLibrary, attributeDiffBaseSpaces, 0, fmt.Sprintf("%s = %s", qualified, lv)))
		case pOK:
			out = append(out, diffLine(markerPrimary, attributeDiffBaseSpaces, 0, fmt.Sprintf("%s = %s", qualified, pv)))
		}
	}
	return out
}

func qualifiedAttrName(n Name) string {
	if n.URI == AndroidNS {
		return "@android:" + n.Local
	}
	if n.URI == "" {
		return "@" + n.Local
	}
	return "@" + n.Local
}

// childDiff walks primary's and library's significant children in
// lock-step, descending into matched same-tag element pairs depth-first,
// and emits the pair of lines (library side, primary side) for the first
// point where the two sequences diverge. It returns nil if the sequences
// are identical as far as they both go (callers only invoke this once
// semantic equality has already failed, so some divergence always exists
// unless it is purely in attributes of the top-level pair, already
// reported by attributeDiff).
func childDiff(primary, library []*Node, depth int) []string {
	n := len(primary)
	if len(library) > n {
		n = len(library)
	}
	for i := 0; i < n; i++ {
		var p, l *Node
		if i < len(primary) {
			p = primary[i]
		}
		if i < len(library) {
			l = library[i]
		}
		if p == nil && l == nil {
			break
		}
		if p != nil && l != nil && nodesEqual(p, l) {
			continue
		}
		if p != nil && l != nil && p.Kind == NodeElement && l.Kind == NodeElement && p.Element.Name == l.Element.Name {
			deeper := childDiff(significantChildren(p.Element), significantChildren(l.Element), depth+1)
			if len(deeper) > 0 {
				return deeper
			}
			// Children matched but the pair is still unequal: the
			// divergence must be in this pair's own attributes. Report
			// the pair itself as the divergence point.
		}
		return []string{
			diffLine(markerLibrary, childDiffBaseSpaces, depth, renderChildSlot(l)),
			diffLine(markerPrimary, childDiffBaseSpaces, depth, renderChildSlot(p)),
		}
	}
	return nil
}

func renderChildSlot(n *Node) string {
	if n == nil {
		return "(end reached)"
	}
	switch n.Kind {
	case NodeElement:
		return "<" + n.Element.Name.Local + ">"
	case NodeText:
		return fmt.Sprintf("%q", n.Text)
	default:
		return "(end reached)"
	}
}
