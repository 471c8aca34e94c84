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

package xmltree

import (
	"fmt"
	"io"
	"strings"

	"android/soong/manifestmerge"
)

// Write serializes tree back to w. The "<?xml ...?>" declaration,
// indentation, comments, attribute order and attribute formatting of the
// primary document round-trip unchanged (spec invariant I1). Besides
// engine-touched attribute values and newly migrated elements, the output
// differs from the source in two spellings it does not reproduce: an element with no
// children is always written self-closing ("<a></a>" becomes "<a/>"), and
// character data and attribute values are written with this package's own
// escaping of &, <, > and the delimiting quote, not with the entity
// references the source used.
func Write(w io.Writer, tree *manifestmerge.DocumentTree) error {
	bw := &writer{w: w}
	bw.printf("%s", tree.Preamble)
	bw.writeElement(tree.Root)
	bw.printf("%s", tree.Trailer)
	return bw.err
}

type writer struct {
	w   io.Writer
	err error
}

func (w *writer) printf(format string, args ...interface{}) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

func (w *writer) writeElement(e *manifestmerge.Element) {
	w.printf("<%s", qualifiedTag(e.Name))
	for _, a := range e.Attributes {
		prefix := a.RawPrefix
		if prefix == "" {
			prefix = " "
		}
		quote := a.Quote
		if quote == 0 {
			quote = '"'
		}
		w.printf("%s%s=%c%s%c", prefix, qualifiedAttr(a.Name), quote, escapeAttr(a.Value, quote), quote)
	}
	if len(e.Children) == 0 {
		w.printf("%s/>", e.RawTagTail)
		return
	}
	w.printf("%s>", e.RawTagTail)
	for _, c := range e.Children {
		w.writeNode(c)
	}
	w.printf("</%s>", qualifiedTag(e.Name))
}

func (w *writer) writeNode(n *manifestmerge.Node) {
	switch n.Kind {
	case manifestmerge.NodeElement:
		w.writeElement(n.Element)
	case manifestmerge.NodeComment:
		w.printf("<!--%s-->", n.Comment)
	case manifestmerge.NodeText:
		w.printf("%s", escapeText(n.Text))
	}
}

// qualifiedTag renders an element's tag as written in AndroidManifest.xml
// source, where only attributes (not element names) carry the android:
// prefix.
func qualifiedTag(n manifestmerge.Name) string {
	return n.Local
}

func qualifiedAttr(n manifestmerge.Name) string {
	switch n.URI {
	case manifestmerge.AndroidNS:
		return "android:" + n.Local
	case "xmlns":
		// A namespace declaration itself (e.g. xmlns:android="..."),
		// which encoding/xml surfaces as a regular attribute rather than
		// resolving away; reproduce its original "xmlns:prefix" spelling.
		return "xmlns:" + n.Local
	default:
		return n.Local
	}
}

// escapeAttr escapes s for use as an attribute value delimited by quote,
// escaping only the delimiter that is actually in play (plus the always-
// unsafe &, < and >) so a value containing the other quote character needs
// no escaping it didn't have in the source.
func escapeAttr(s string, quote byte) string {
	r := strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;")
	s = r.Replace(s)
	if quote == '\'' {
		return strings.ReplaceAll(s, `'`, "&apos;")
	}
	return strings.ReplaceAll(s, `"`, "&quot;")
}

func escapeText(s string) string {
	r := strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;")
	return r.Replace(s)
}
