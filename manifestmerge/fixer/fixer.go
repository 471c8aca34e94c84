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

// Package fixer injects build-supplied facts (minSdkVersion, targetSdkVersion,
// implicit uses-library entries, and a handful of application-level flags)
// into a primary manifest tree before it goes through manifestmerge.Merge.
//
// This mirrors manifest_fixer.py's job in the upstream tool — a distinct
// pass that runs before library merging, not a merge policy itself — but
// does it by mutating the in-memory tree directly rather than shelling out
// to a separate binary from a build rule.
package fixer

import (
	"fmt"

	"android/soong/manifestmerge"
)

// Params mirrors the original ManifestFixerParams field-for-field in intent:
// the facts a build system knows about a module that the manifest itself
// needs to reflect before merging starts.
type Params struct {
	// MinSdkVersion and TargetSdkVersion are written onto /manifest/uses-sdk,
	// creating the element if absent. Empty strings leave the corresponding
	// attribute untouched.
	MinSdkVersion    string
	TargetSdkVersion string

	// IsLibrary suppresses the SDK-version injection entirely: a library's
	// manifest contributes its minSdkVersion for reconciliation (spec
	// §4.2.A) but does not get one fixed in ahead of time.
	IsLibrary bool

	// UseEmbeddedNativeLibs and UseEmbeddedDex set the corresponding
	// android: attributes on /manifest/application.
	UseEmbeddedNativeLibs bool
	UseEmbeddedDex        bool

	// UsesNonSdkApis sets android:usesNonSdkApi on /manifest/application.
	UsesNonSdkApis bool

	// HasNoCode sets android:hasCode="false" on /manifest/application.
	HasNoCode bool

	// TestOnly sets android:testOnly="true" on /manifest/application.
	TestOnly bool

	// RequiredUsesLibs and OptionalUsesLibs are uses-library names the
	// build graph determined are implicitly linked in (the analog of
	// dexpreopt.ClassLoaderContextMap.ImplicitUsesLibs()); they are
	// injected as required="true"/"false" uses-library elements.
	RequiredUsesLibs []string
	OptionalUsesLibs []string
}

// Fix mutates tree in place and returns a Diagnostics sink, which Fix itself
// leaves empty: SDK version strings are written as given, without
// validation. A malformed fixed-in minSdkVersion is reported later, by
// Merge's own uses-sdk reconciliation, which parses it with spec §4.5's
// integer grammar.
func Fix(tree *manifestmerge.DocumentTree, params Params) *manifestmerge.Diagnostics {
	diag := manifestmerge.NewDiagnostics()
	if tree == nil || tree.Root == nil {
		return diag
	}

	if !params.IsLibrary {
		fixUsesSdk(tree, params, diag)
	}
	fixApplication(tree, params)
	injectUsesLibraries(tree, params.RequiredUsesLibs, true)
	injectUsesLibraries(tree, params.OptionalUsesLibs, false)

	return diag
}

func fixUsesSdk(tree *manifestmerge.DocumentTree, params Params, diag *manifestmerge.Diagnostics) {
	if params.MinSdkVersion == "" && params.TargetSdkVersion == "" {
		return
	}
	usesSdk := firstChildNamed(tree.Root, "uses-sdk")
	if usesSdk == nil {
		usesSdk = appendElement(tree.Root, "uses-sdk", tree.FileID)
	}
	if params.MinSdkVersion != "" {
		usesSdk.SetAndroidAttr("minSdkVersion", params.MinSdkVersion)
	}
	if params.TargetSdkVersion != "" {
		usesSdk.SetAndroidAttr("targetSdkVersion", params.TargetSdkVersion)
	}
}

func fixApplication(tree *manifestmerge.DocumentTree, params Params) {
	app := tree.Application()
	if app == nil {
		app = appendElement(tree.Root, "application", tree.FileID)
	}
	if params.UseEmbeddedNativeLibs {
		app.SetAndroidAttr("extractNativeLibs", "false")
	}
	if params.UseEmbeddedDex {
		app.SetAndroidAttr("useEmbeddedDex", "true")
	}
	if params.UsesNonSdkApis {
		app.SetAndroidAttr("usesNonSdkApi", "true")
	}
	if params.HasNoCode {
		app.SetAndroidAttr("hasCode", "false")
	}
	if params.TestOnly {
		app.SetAndroidAttr("testOnly", "true")
	}
}

func injectUsesLibraries(tree *manifestmerge.DocumentTree, names []string, required bool) {
	if len(names) == 0 {
		return
	}
	app := tree.Application()
	if app == nil {
		return
	}
	existing := map[string]bool{}
	for _, e := range app.ChildElementsNamed("uses-library") {
		if a := e.AndroidAttr("name"); a != nil {
			existing[a.Value] = true
		}
	}
	for _, name := range names {
		if existing[name] {
			continue
		}
		el := appendElement(app, "uses-library", tree.FileID)
		el.SetAndroidAttr("name", name)
		el.SetAndroidAttr("required", fmt.Sprintf("%t", required))
	}
}

func firstChildNamed(e *manifestmerge.Element, tag string) *manifestmerge.Element {
	els := e.ChildElementsNamed(tag)
	if len(els) == 0 {
		return nil
	}
	return els[0]
}

func appendElement(parent *manifestmerge.Element, tag, fileID string) *manifestmerge.Element {
	el := &manifestmerge.Element{
		Name:   manifestmerge.Name{Local: tag},
		Parent: parent,
		File:   fileID,
	}
	parent.Children = append(parent.Children, &manifestmerge.Node{
		Kind:    manifestmerge.NodeElement,
		Element: el,
		File:    fileID,
	})
	return el
}
