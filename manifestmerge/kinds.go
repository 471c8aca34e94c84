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

// scope identifies whether a kind is recognized as a direct child of
// /manifest or of /manifest/application (spec §4.2.A / §4.2.B).
type scope int

const (
	scopeTop scope = iota
	scopeApplication
)

// category selects which merge behavior in merge.go applies to a kind. The
// behavioral surface is small and closed (spec §9 "avoid class
// hierarchies"), so this is a plain tag dispatched by a switch rather than
// a table of function pointers.
type category int

const (
	categoryUsesSDK         category = iota // singleton, never overwritten
	categoryUsesFeature                     // name-keyed union, or glEsVersion-only comparison
	categoryUsesPermission                  // name-keyed union
	categoryIgnoredTop                      // recognized but never merged from libraries
	categoryEqualityElement                 // activity, service, receiver, provider, activity-alias, meta-data
	categoryUsesLibrary                     // required-escalation
)

// ElementKind is the static, process-wide description of one recognized
// element kind: its tag, scope, key attribute (if any), and which family of
// merge behavior applies. The table is built once at init and never
// mutated (spec §5 "element-kind policy table is process-wide, immutable").
type ElementKind struct {
	Tag     string
	Scope   scope
	KeyAttr string // android: local name used as the key, or "" if unkeyed
	Category category
}

var kindTable = map[string]ElementKind{
	// Top-level, §4.2.A
	"uses-sdk":           {Tag: "uses-sdk", Scope: scopeTop, Category: categoryUsesSDK},
	"uses-feature":       {Tag: "uses-feature", Scope: scopeTop, KeyAttr: "name", Category: categoryUsesFeature},
	"uses-permission":    {Tag: "uses-permission", Scope: scopeTop, KeyAttr: "name", Category: categoryUsesPermission},
	"supports-screens":   {Tag: "supports-screens", Scope: scopeTop, Category: categoryIgnoredTop},
	"uses-configuration": {Tag: "uses-configuration", Scope: scopeTop, Category: categoryIgnoredTop},
	"compatible-screens": {Tag: "compatible-screens", Scope: scopeTop, Category: categoryIgnoredTop},
	"supports-gl-texture": {Tag: "supports-gl-texture", Scope: scopeTop, Category: categoryIgnoredTop},

	// Application-level, §4.2.B
	"activity":       {Tag: "activity", Scope: scopeApplication, KeyAttr: "name", Category: categoryEqualityElement},
	"activity-alias": {Tag: "activity-alias", Scope: scopeApplication, KeyAttr: "name", Category: categoryEqualityElement},
	"service":        {Tag: "service", Scope: scopeApplication, KeyAttr: "name", Category: categoryEqualityElement},
	"receiver":       {Tag: "receiver", Scope: scopeApplication, KeyAttr: "name", Category: categoryEqualityElement},
	"provider":       {Tag: "provider", Scope: scopeApplication, KeyAttr: "name", Category: categoryEqualityElement},
	"meta-data":      {Tag: "meta-data", Scope: scopeApplication, KeyAttr: "name", Category: categoryEqualityElement},
	"uses-library":   {Tag: "uses-library", Scope: scopeApplication, KeyAttr: "name", Category: categoryUsesLibrary},
}

// applicationInsertionOrder is the fixed relative ordering (spec §4.1) in
// which newly-appended element kinds are grouped within a single library's
// contribution to /manifest/application.
var applicationInsertionOrder = []string{"activity", "activity-alias", "service", "receiver", "provider"}

// lookupKind resolves the static kind for a tag. parent disambiguates tags
// that could in principle be recognized in either scope; none of the
// current table's tags collide, but the parameter keeps the door open and
// matches the shape path.go needs.
func lookupKind(tag string, parent *Element) (ElementKind, bool) {
	k, ok := kindTable[tag]
	if !ok {
		return ElementKind{}, false
	}
	if parent == nil {
		return k, true
	}
	wantApplication := parent.Name.Local == "application"
	if (k.Scope == scopeApplication) != wantApplication {
		// A tag recognized at one scope appearing at the other is treated
		// as unrecognized; §4.1 step 4 ignores it silently.
		return ElementKind{}, false
	}
	return k, true
}
