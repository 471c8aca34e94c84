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

package fixer_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"android/soong/manifestmerge/fixer"
	"android/soong/manifestmerge/xmltree"
)

func TestFixInjectsSdkVersions(t *testing.T) {
	tree, err := xmltree.Read("app", strings.NewReader(`<manifest xmlns:android="http://schemas.android.com/apk/res/android"><application/></manifest>`))
	require.NoError(t, err)

	diag := fixer.Fix(tree, fixer.Params{MinSdkVersion: "21", TargetSdkVersion: "34"})
	assert.True(t, diag.Success())

	usesSdk := tree.Root.ChildElementsNamed("uses-sdk")
	require.Len(t, usesSdk, 1)
	assert.Equal(t, "21", usesSdk[0].AndroidAttr("minSdkVersion").Value)
	assert.Equal(t, "34", usesSdk[0].AndroidAttr("targetSdkVersion").Value)
}

func TestFixSkipsSdkVersionsForLibraries(t *testing.T) {
	tree, err := xmltree.Read("lib", strings.NewReader(`<manifest xmlns:android="http://schemas.android.com/apk/res/android"><application/></manifest>`))
	require.NoError(t, err)

	fixer.Fix(tree, fixer.Params{IsLibrary: true, MinSdkVersion: "21"})
	assert.Empty(t, tree.Root.ChildElementsNamed("uses-sdk"))
}

func TestFixApplicationFlags(t *testing.T) {
	tree, err := xmltree.Read("app", strings.NewReader(`<manifest xmlns:android="http://schemas.android.com/apk/res/android"><application/></manifest>`))
	require.NoError(t, err)

	fixer.Fix(tree, fixer.Params{
		UseEmbeddedNativeLibs: true,
		UseEmbeddedDex:        true,
		UsesNonSdkApis:        true,
		HasNoCode:             true,
		TestOnly:              true,
	})

	app := tree.Application()
	require.NotNil(t, app)
	assert.Equal(t, "false", app.AndroidAttr("extractNativeLibs").Value)
	assert.Equal(t, "true", app.AndroidAttr("useEmbeddedDex").Value)
	assert.Equal(t, "true", app.AndroidAttr("usesNonSdkApi").Value)
	assert.Equal(t, "false", app.AndroidAttr("hasCode").Value)
	assert.Equal(t, "true", app.AndroidAttr("testOnly").Value)
}

func TestFixInjectsImplicitUsesLibraries(t *testing.T) {
	tree, err := xmltree.Read("app", strings.NewReader(`<manifest xmlns:android="http://schemas.android.com/apk/res/android"><application><uses-library android:name="already.present" android:required="true"/></application></manifest>`))
	require.NoError(t, err)

	fixer.Fix(tree, fixer.Params{
		RequiredUsesLibs: []string{"already.present", "implicit.required"},
		OptionalUsesLibs: []string{"implicit.optional"},
	})

	libs := tree.Application().ChildElementsNamed("uses-library")
	require.Len(t, libs, 3, "the already-present library must not be duplicated")

	byName := map[string]string{}
	for _, l := range libs {
		byName[l.AndroidAttr("name").Value] = l.AndroidAttr("required").Value
	}
	want := map[string]string{
		"already.present":   "true",
		"implicit.required": "true",
		"implicit.optional": "false",
	}
	if diff := cmp.Diff(want, byName); diff != "" {
		t.Errorf("uses-library required flags mismatch (-want +got):\n%s", diff)
	}
}
