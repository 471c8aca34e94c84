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

import "fmt"

// options holds the knobs Merge accepts via the functional-option pattern
// (mirrored from the corpus's WithXxx option constructors, e.g.
// mtbmanifest's WithMaxConcurrent).
type options struct {
	markerStyle MarkerStyle
}

// Option configures a Merge call.
type Option func(*options)

// WithLibraryMarkerStyle overrides how the "from @<library-id>" marker
// (spec §4.1) is rendered; the default is CommentMarker.
func WithLibraryMarkerStyle(style MarkerStyle) Option {
	return func(o *options) { o.markerStyle = style }
}

// Merge implements spec §4.1/§6: it folds each library tree's recognized
// contributions into primary, in library input order, mutating primary in
// place and returning the accumulated diagnostics. Library trees are never
// modified. Merge is synchronous and not safe to call concurrently on the
// same primary (spec §5).
func Merge(primary *DocumentTree, libraries []*DocumentTree, opts ...Option) (*DocumentTree, *Diagnostics) {
	o := options{markerStyle: CommentMarker}
	for _, opt := range opts {
		opt(&o)
	}
	diag := NewDiagnostics()

	for _, lib := range libraries {
		mergeOneLibrary(primary, lib, &o, diag)
	}
	return primary, diag
}

func mergeOneLibrary(primary, lib *DocumentTree, o *options, diag *Diagnostics) {
	if lib.Root == nil || lib.Root.Name.Local != "manifest" {
		diag.error([]FileRef{fileRef(lib.FileID)}, "Library manifest root is not <manifest>")
		return
	}

	mergeTopLevel(primary, lib, diag)
	mergeApplication(primary, lib, o, diag)
}

// --- Top-level (/manifest children), spec §4.2.A ---

func mergeTopLevel(primary, lib *DocumentTree, diag *Diagnostics) {
	pRoot := primary.Root
	for _, libEl := range lib.Root.ChildElements() {
		kind, ok := lookupKind(libEl.Name.Local, lib.Root)
		if !ok {
			continue // unrecognized, ignored silently (§4.1 step 4)
		}
		switch kind.Category {
		case categoryUsesSDK:
			reconcileUsesSDK(primary, libEl, diag)
		case categoryUsesFeature:
			mergeUsesFeature(pRoot, libEl, primary.FileID, lib.FileID, diag)
		case categoryUsesPermission:
			mergeUsesPermission(pRoot, libEl, diag)
		case categoryIgnoredTop:
			// not merged
		}
	}
}

func reconcileUsesSDK(primary *DocumentTree, libEl *Element, diag *Diagnostics) {
	pRoot := primary.Root
	var primaryUsesSDK *Element
	if els := pRoot.ChildElementsNamed("uses-sdk"); len(els) > 0 {
		primaryUsesSDK = els[0]
	}

	primaryMinSdk := defaultMinSdkVersion
	primaryRef := fileRef(primary.FileID)
	if primaryUsesSDK != nil {
		primaryRef = fileRefLine(primary.FileID, primaryUsesSDK.Line)
		if a := primaryUsesSDK.AndroidAttr("minSdkVersion"); a != nil {
			v, err := parseSdkInt(a.Value)
			if err != nil {
				diag.error([]FileRef{fileRefLine(primary.FileID, a.Line)}, errNotAnInteger.Error())
				return
			}
			primaryMinSdk = v
			primaryRef = fileRefLine(primary.FileID, a.Line)
		}
	}

	libAttr := libEl.AndroidAttr("minSdkVersion")
	if libAttr == nil {
		return
	}
	libVal, err := parseSdkInt(libAttr.Value)
	if err != nil {
		diag.error([]FileRef{fileRefLine(libEl.File, libAttr.Line)}, errNotAnInteger.Error())
		return
	}
	if libVal > primaryMinSdk {
		diag.error(
			[]FileRef{primaryRef, fileRefLine(libEl.File, libAttr.Line)},
			fmt.Sprintf("Main manifest has <uses-sdk android:minSdkVersion='%d'> but library uses minSdkVersion='%d'", primaryMinSdk, libVal),
		)
	}
}

func mergeUsesFeature(pRoot *Element, libEl *Element, primaryFileID, libFileID string, diag *Diagnostics) {
	nameAttr := libEl.AndroidAttr("name")
	glAttr := libEl.AndroidAttr("glEsVersion")

	if glAttr != nil {
		reconcileGlEsVersion(pRoot, libEl, glAttr, primaryFileID, libFileID, diag)
	}

	if nameAttr == nil {
		return // glEsVersion-only uses-feature is never appended (§4.2.A)
	}

	for _, existing := range pRoot.ChildElementsNamed("uses-feature") {
		if a := existing.AndroidAttr("name"); a != nil && a.Value == nameAttr.Value {
			warnGlEsVersionCollision(existing, libEl, nameAttr.Value, primaryFileID, libFileID, diag)
			return // present: skip silently (beyond the open-question warning)
		}
	}

	clone := migrate(pRoot, libEl)
	// Any glEsVersion on an appended uses-feature is stripped (§4.2.A).
	stripAndroidAttr(clone, "glEsVersion")
}

func warnGlEsVersionCollision(existing, libEl *Element, name, primaryFileID, libFileID string, diag *Diagnostics) {
	ea := existing.AndroidAttr("glEsVersion")
	la := libEl.AndroidAttr("glEsVersion")
	if ea == nil || la == nil || ea.Value == la.Value {
		return
	}
	diag.warning(
		[]FileRef{fileRefLine(primaryFileID, existing.Line), fileRefLine(libFileID, libEl.Line)},
		fmt.Sprintf("Conflicting android:glEsVersion for uses-feature '%s': main manifest has '%s', library has '%s'", name, ea.Value, la.Value),
	)
}

// reconcileGlEsVersion applies spec §4.2.A's glEsVersion-only comparison
// rule to any uses-feature carrying a glEsVersion attribute (named or not).
// The name-union append logic in mergeUsesFeature runs independently of
// this function's outcome: a named uses-feature with a malformed or
// too-small glEsVersion is still unioned on its name.
func reconcileGlEsVersion(pRoot *Element, libEl *Element, glAttr *Attribute, primaryFileID, libFileID string, diag *Diagnostics) {
	libVal, err := parseGlEsVersion(glAttr.Value)
	if err != nil {
		diag.error([]FileRef{fileRefLine(libFileID, glAttr.Line)}, errNotGlEsHex.Error())
		return
	}
	if libVal < minGlEsVersion1_0 {
		diag.warning([]FileRef{fileRefLine(libFileID, glAttr.Line)}, "android:glEsVersion is smaller than 1.0")
		return
	}

	var primaryVal uint32 = defaultGlEsVersion
	var primaryHasExplicit bool
	var primaryRef = fileRef(primaryFileID)
	for _, existing := range pRoot.ChildElementsNamed("uses-feature") {
		if a := existing.AndroidAttr("glEsVersion"); a != nil {
			if v, err := parseGlEsVersion(a.Value); err == nil {
				primaryVal = v
				primaryHasExplicit = true
				primaryRef = fileRefLine(primaryFileID, a.Line)
			}
			break
		}
	}

	if libVal > primaryVal {
		var msg string
		if primaryHasExplicit {
			msg = fmt.Sprintf("Main manifest has <uses-feature android:glEsVersion='0x%08x'> but library uses glEsVersion='0x%08x'", primaryVal, libVal)
		} else {
			msg = fmt.Sprintf("Main manifest has no android:glEsVersion (assuming 0x%08x) but library uses glEsVersion='0x%08x'", primaryVal, libVal)
		}
		diag.warning([]FileRef{primaryRef, fileRefLine(libFileID, glAttr.Line)}, msg)
	}
}

func stripAndroidAttr(e *Element, local string) {
	out := e.Attributes[:0]
	for _, a := range e.Attributes {
		if a.Name.URI == AndroidNS && a.Name.Local == local {
			continue
		}
		out = append(out, a)
	}
	e.Attributes = out
}

func mergeUsesPermission(pRoot *Element, libEl *Element, diag *Diagnostics) {
	nameAttr := libEl.AndroidAttr("name")
	if nameAttr == nil {
		return
	}
	for _, existing := range pRoot.ChildElementsNamed("uses-permission") {
		if a := existing.AndroidAttr("name"); a != nil && a.Value == nameAttr.Value {
			return // already present: union, nothing to do
		}
	}
	migrate(pRoot, libEl)
}

// --- Application-level (/manifest/application children), spec §4.2.B ---

// appendQueue accumulates elements a single library contributes to
// /manifest/application, bucketed so the final splice can honor the fixed
// kind ordering spec §4.1 specifies (activity, activity-alias, service,
// receiver, provider), with any other newly-appendable kind (meta-data,
// uses-library) following in their original document order.
type appendQueue struct {
	buckets map[string][]*Element
	other   []*Element
}

func newAppendQueue() *appendQueue {
	b := make(map[string][]*Element, len(applicationInsertionOrder))
	for _, tag := range applicationInsertionOrder {
		b[tag] = nil
	}
	return &appendQueue{buckets: b}
}

func (q *appendQueue) add(tag string, el *Element) {
	if _, ok := q.buckets[tag]; ok {
		q.buckets[tag] = append(q.buckets[tag], el)
		return
	}
	q.other = append(q.other, el)
}

func (q *appendQueue) empty() bool {
	if len(q.other) > 0 {
		return false
	}
	for _, tag := range applicationInsertionOrder {
		if len(q.buckets[tag]) > 0 {
			return false
		}
	}
	return true
}

func (q *appendQueue) ordered() []*Element {
	var out []*Element
	for _, tag := range applicationInsertionOrder {
		out = append(out, q.buckets[tag]...)
	}
	out = append(out, q.other...)
	return out
}

func mergeApplication(primary, lib *DocumentTree, o *options, diag *Diagnostics) {
	pApp := primary.Application()
	libApp := lib.Root.ChildElementsNamed("application")
	if pApp == nil || len(libApp) == 0 {
		return
	}

	queue := newAppendQueue()
	for _, libEl := range libApp[0].ChildElements() {
		kind, ok := lookupKind(libEl.Name.Local, libApp[0])
		if !ok {
			continue
		}
		switch kind.Category {
		case categoryEqualityElement:
			mergeEqualityElement(pApp, libEl, kind, primary.FileID, lib.FileID, diag, queue)
		case categoryUsesLibrary:
			mergeUsesLibrary(pApp, libEl, primary.FileID, lib.FileID, diag, queue)
		}
	}

	if queue.empty() {
		return
	}
	insertLibraryMarker(pApp, lib.FileID, o.markerStyle)
	for _, el := range queue.ordered() {
		migrate(pApp, el)
	}
}

func mergeEqualityElement(pApp *Element, libEl *Element, kind ElementKind, primaryFileID, libFileID string, diag *Diagnostics, queue *appendQueue) {
	keyAttr := libEl.AndroidAttr(kind.KeyAttr)
	if keyAttr == nil {
		diag.error([]FileRef{fileRefLine(libFileID, libEl.Line)}, "Undefined 'name' attribute")
		return
	}

	existing := findByKey(pApp, kind, keyAttr.Value)
	if existing == nil {
		queue.add(kind.Tag, libEl)
		return
	}

	path := elementPath(existing)
	refs := []FileRef{fileRefLine(primaryFileID, existing.Line), fileRefLine(libFileID, libEl.Line)}
	if semanticallyEqual(existing, libEl) {
		diag.progress(refs, fmt.Sprintf("Skipping identical %s element.", path.String()))
		return
	}
	diag.errorWithDiff(refs, fmt.Sprintf("Trying to merge incompatible %s element:", path.String()),
		renderIncompatible(existing, libEl, keyAttr.Value))
}

func findByKey(pApp *Element, kind ElementKind, key string) *Element {
	for _, e := range pApp.ChildElementsNamed(kind.Tag) {
		if a := e.AndroidAttr(kind.KeyAttr); a != nil && a.Value == key {
			return e
		}
	}
	return nil
}

func findAllByKey(pApp *Element, tag, keyAttr, key string) []*Element {
	var out []*Element
	for _, e := range pApp.ChildElementsNamed(tag) {
		if a := e.AndroidAttr(keyAttr); a != nil && a.Value == key {
			out = append(out, e)
		}
	}
	return out
}

func mergeUsesLibrary(pApp *Element, libEl *Element, primaryFileID, libFileID string, diag *Diagnostics, queue *appendQueue) {
	nameAttr := libEl.AndroidAttr("name")
	if nameAttr == nil {
		diag.error([]FileRef{fileRefLine(libFileID, libEl.Line)}, "Undefined 'name' attribute")
		return
	}

	required := libEl.AndroidAttr("required")
	effectiveRequired := true
	if required != nil {
		v, valid := parseRequiredBool(required.Value)
		effectiveRequired = v
		if !valid {
			diag.warning(
				[]FileRef{fileRefLine(libFileID, required.Line)},
				fmt.Sprintf("Invalid attribute 'required' in <uses-library android:name=\"%s\"> element, expected 'true' or 'false' but found '%s'", nameAttr.Value, required.Value),
			)
		}
	}

	existing := findAllByKey(pApp, "uses-library", "name", nameAttr.Value)
	if len(existing) == 0 {
		queue.add("uses-library", libEl)
		return
	}
	if len(existing) > 1 {
		diag.warning(
			[]FileRef{fileRef(primaryFileID)},
			fmt.Sprintf("Main manifest declares <uses-library android:name=\"%s\"> more than once.", nameAttr.Value),
		)
	}
	if effectiveRequired {
		for _, e := range existing {
			e.SetAndroidAttr("required", "true")
		}
	}
}
