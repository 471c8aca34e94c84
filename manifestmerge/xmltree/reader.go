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

// Package xmltree is the concrete provider for manifestmerge.DocumentTree:
// it reads an AndroidManifest.xml into the tree model and writes it back
// out, preserving comments, whitespace, the "<?xml ...?>" declaration,
// attribute order and each attribute's own source formatting (quote
// character, inter-attribute whitespace) exactly (spec invariant I1). No
// third-party XML tree library in the retrieved corpus preserves trivia the
// way a manifest merge needs; this package is built directly on
// encoding/xml's token stream instead.
package xmltree

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"android/soong/manifestmerge"
)

// lineTracker wraps an io.Reader and records, as bytes stream through it,
// the byte offset each newline occurred at. encoding/xml.Decoder exposes
// only a byte offset (InputOffset) for the current token, not a line
// number, so Read correlates the two itself. It also accumulates every
// byte it has seen, so Read can later hand back the exact source text
// spanning any two offsets the decoder reported -- the raw bytes of a
// start tag, for instance, which the decoder itself throws away once it
// has tokenized them.
type lineTracker struct {
	r          io.Reader
	offset     int64
	lineStarts []int64 // lineStarts[i] = byte offset where line i+1 begins
	buf        []byte
}

func newLineTracker(r io.Reader) *lineTracker {
	return &lineTracker{r: r, lineStarts: []int64{0}}
}

func (lt *lineTracker) Read(p []byte) (int, error) {
	n, err := lt.r.Read(p)
	for i := 0; i < n; i++ {
		lt.offset++
		if p[i] == '\n' {
			lt.lineStarts = append(lt.lineStarts, lt.offset)
		}
	}
	lt.buf = append(lt.buf, p[:n]...)
	return n, err
}

func (lt *lineTracker) lineAt(offset int64) int {
	lo, hi := 0, len(lt.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lt.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

// rawSpan returns the exact source bytes between two offsets the decoder
// has already reported via InputOffset, which by construction always lie
// within what Read has buffered.
func (lt *lineTracker) rawSpan(start, end int64) []byte {
	if start < 0 || end > int64(len(lt.buf)) || start > end {
		return nil
	}
	return lt.buf[start:end]
}

// Read parses r into a manifestmerge.DocumentTree identified by fileID. The
// root element must be well-formed XML; Read does not itself validate that
// the root is named "manifest" (manifestmerge.Merge does that).
func Read(fileID string, r io.Reader) (*manifestmerge.DocumentTree, error) {
	lt := newLineTracker(bufio.NewReader(r))
	dec := xml.NewDecoder(lt)

	var root *manifestmerge.Element
	var stack []*manifestmerge.Element
	var rootStartOffset int64 = -1
	var rootEndOffset int64 = -1

	for {
		startOffset := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fileID, err)
		}
		endOffset := dec.InputOffset()
		line := lt.lineAt(endOffset)

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				// This is the root element; everything before its opening
				// tag -- the "<?xml ...?>" declaration, any whitespace or
				// comments around it -- is replayed verbatim on write
				// rather than reconstructed token by token.
				rootStartOffset = startOffset
			}
			el := &manifestmerge.Element{
				Name: convertName(t.Name),
				File: fileID,
				Line: line,
			}
			raw := lt.rawSpan(startOffset, endOffset)
			prefixes, quotes, tail, ok := parseRawStartTag(raw, len(t.Attr))
			for i, a := range t.Attr {
				attr := &manifestmerge.Attribute{
					Name:  convertName(a.Name),
					Value: a.Value,
					Line:  line,
				}
				if ok {
					attr.RawPrefix = prefixes[i]
					attr.Quote = quotes[i]
				}
				el.Attributes = append(el.Attributes, attr)
			}
			if ok {
				el.RawTagTail = tail
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				el.Parent = parent
				parent.Children = append(parent.Children, &manifestmerge.Node{
					Kind:    manifestmerge.NodeElement,
					Element: el,
					File:    fileID,
					Line:    line,
				})
			} else {
				root = el
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				rootEndOffset = endOffset
			}

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &manifestmerge.Node{
				Kind: manifestmerge.NodeText,
				Text: string(t),
				File: fileID,
				Line: line,
			})

		case xml.Comment:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &manifestmerge.Node{
				Kind:    manifestmerge.NodeComment,
				Comment: string(t),
				File:    fileID,
				Line:    line,
			})

		// xml.ProcInst (the <?xml ...?> declaration) and xml.Directive
		// appearing before the root element are captured as part of the
		// tree's Preamble below rather than reconstructed here.
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%s: empty document", fileID)
	}

	tree := manifestmerge.NewDocumentTree(fileID, root)
	if rootStartOffset >= 0 {
		tree.Preamble = string(lt.rawSpan(0, rootStartOffset))
	}
	if rootEndOffset >= 0 {
		tree.Trailer = string(lt.rawSpan(rootEndOffset, lt.offset))
	}
	return tree, nil
}

func convertName(n xml.Name) manifestmerge.Name {
	return manifestmerge.Name{URI: n.Space, Local: n.Local}
}

// parseRawStartTag re-scans the verbatim source bytes of a start tag (e.g.
// `<application\n    android:name="x"\n    android:icon='y'\n    >`) to
// recover the formatting encoding/xml's tokenizer discards: the separator
// text before each attribute and the quote character its value used, plus
// any padding between the last attribute and the tag's closing bracket.
// wantAttrs is the attribute count the decoder already reported for this
// tag; parseRawStartTag returns ok=false if raw doesn't scan cleanly into
// exactly that many attributes, in which case the caller falls back to
// default formatting for the whole tag.
func parseRawStartTag(raw []byte, wantAttrs int) (prefixes []string, quotes []byte, tail string, ok bool) {
	if len(raw) == 0 || raw[0] != '<' {
		return nil, nil, "", false
	}
	i := 1
	for i < len(raw) && !isTagSpace(raw[i]) && raw[i] != '>' && raw[i] != '/' {
		i++
	}

	prefixes = make([]string, wantAttrs)
	quotes = make([]byte, wantAttrs)
	for a := 0; a < wantAttrs; a++ {
		start := i
		for i < len(raw) && isTagSpace(raw[i]) {
			i++
		}
		prefixes[a] = string(raw[start:i])

		for i < len(raw) && raw[i] != '=' {
			i++
		}
		if i >= len(raw) {
			return nil, nil, "", false
		}
		i++ // skip '='

		if i >= len(raw) || (raw[i] != '"' && raw[i] != '\'') {
			return nil, nil, "", false
		}
		q := raw[i]
		quotes[a] = q
		i++ // skip opening quote
		for i < len(raw) && raw[i] != q {
			i++
		}
		if i >= len(raw) {
			return nil, nil, "", false
		}
		i++ // skip closing quote
	}

	tail = strings.TrimSuffix(string(raw[i:]), "/>")
	tail = strings.TrimSuffix(tail, ">")
	return prefixes, quotes, tail, true
}

func isTagSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
