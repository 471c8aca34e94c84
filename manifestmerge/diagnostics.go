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
	"strings"
)

// Severity classifies a Diagnostic per spec §3 / §7.
type Severity int

const (
	Progress Severity = iota
	Warning
	Error
)

func (s Severity) letter() string {
	switch s {
	case Progress:
		return "P"
	case Warning:
		return "W"
	case Error:
		return "E"
	default:
		return "?"
	}
}

// FileRef is a (file identifier, optional source line) pair, as it appears
// in a diagnostic's location fields (spec §6).
type FileRef struct {
	FileID  string
	Line    int
	HasLine bool
}

func fileRef(fileID string) FileRef            { return FileRef{FileID: fileID} }
func fileRefLine(fileID string, line int) FileRef {
	if line <= 0 {
		return fileRef(fileID)
	}
	return FileRef{FileID: fileID, Line: line, HasLine: true}
}

func (r FileRef) String() string {
	if r.HasLine {
		return fmt.Sprintf("%s:%d", r.FileID, r.Line)
	}
	return r.FileID
}

// Diagnostic is a single structured record emitted by the engine: severity,
// one or more file references (primary first, per §6), a fully-expanded
// message, and — for incompatible-element diagnostics only — additional
// pre-rendered diff lines (spec §4.4).
type Diagnostic struct {
	Severity   Severity
	Refs       []FileRef
	Message    string
	ExtraLines []string
}

// String renders the diagnostic in the stable textual form spec §6
// defines, tests compare this exactly.
func (d *Diagnostic) String() string {
	var refStrs []string
	for _, r := range d.Refs {
		refStrs = append(refStrs, r.String())
	}
	header := fmt.Sprintf("%s [%s] %s", d.Severity.letter(), strings.Join(refStrs, ", "), d.Message)
	if len(d.ExtraLines) == 0 {
		return header
	}
	return header + "\n" + strings.Join(d.ExtraLines, "\n")
}

// Diagnostics is the ordered, append-only sink the engine writes to during
// a single Merge call (spec §5 "write-only from the engine's side").
type Diagnostics struct {
	records []*Diagnostic
}

// NewDiagnostics returns an empty sink.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

func (d *Diagnostics) add(diag *Diagnostic) {
	d.records = append(d.records, diag)
}

func (d *Diagnostics) progress(refs []FileRef, message string) {
	d.add(&Diagnostic{Severity: Progress, Refs: refs, Message: message})
}

func (d *Diagnostics) warning(refs []FileRef, message string) {
	d.add(&Diagnostic{Severity: Warning, Refs: refs, Message: message})
}

func (d *Diagnostics) error(refs []FileRef, message string) {
	d.add(&Diagnostic{Severity: Error, Refs: refs, Message: message})
}

func (d *Diagnostics) errorWithDiff(refs []FileRef, message string, diffLines []string) {
	d.add(&Diagnostic{Severity: Error, Refs: refs, Message: message, ExtraLines: diffLines})
}

// Records returns the diagnostics in emission order.
func (d *Diagnostics) Records() []*Diagnostic {
	return d.records
}

// Success reports spec §6's exit signal: true iff no Error was recorded.
func (d *Diagnostics) Success() bool {
	for _, r := range d.records {
		if r.Severity == Error {
			return false
		}
	}
	return true
}

// Render formats every diagnostic, in emission order, as stable text.
func (d *Diagnostics) Render() []string {
	out := make([]string, len(d.records))
	for i, r := range d.records {
		out[i] = r.String()
	}
	return out
}
