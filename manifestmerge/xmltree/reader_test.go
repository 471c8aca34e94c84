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

package xmltree_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"android/soong/manifestmerge"
	"android/soong/manifestmerge/xmltree"
)

func TestReadPreservesAttributesAndOrder(t *testing.T) {
	src := `<manifest xmlns:android="http://schemas.android.com/apk/res/android">
  <uses-sdk android:minSdkVersion="21" android:targetSdkVersion="33"/>
</manifest>`

	tree, err := xmltree.Read("app", strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, "manifest", tree.Root.Name.Local)

	usesSdk := tree.Root.ChildElementsNamed("uses-sdk")
	require.Len(t, usesSdk, 1)
	require.Len(t, usesSdk[0].Attributes, 2)
	assert.Equal(t, "minSdkVersion", usesSdk[0].Attributes[0].Name.Local)
	assert.Equal(t, "targetSdkVersion", usesSdk[0].Attributes[1].Name.Local)
	assert.Equal(t, manifestmerge.AndroidNS, usesSdk[0].Attributes[0].Name.URI)
}

func TestReadTracksLineNumbers(t *testing.T) {
	src := "<manifest>\n  <application/>\n</manifest>"
	tree, err := xmltree.Read("app", strings.NewReader(src))
	require.NoError(t, err)

	app := tree.Application()
	require.NotNil(t, app)
	assert.Equal(t, 2, app.Line)
}

func TestReadPreservesCommentsAndWhitespace(t *testing.T) {
	src := `<manifest><application><!-- keep me --><activity android:name="x"/></application></manifest>`
	tree, err := xmltree.Read("app", strings.NewReader(src))
	require.NoError(t, err)

	app := tree.Application()
	var sawComment bool
	for _, c := range app.Children {
		if c.Kind == manifestmerge.NodeComment {
			sawComment = true
			assert.Equal(t, " keep me ", c.Comment)
		}
	}
	assert.True(t, sawComment, "expected the comment node to survive parsing")
}

func TestReadWriteRoundTrip(t *testing.T) {
	src := `<manifest xmlns:android="http://schemas.android.com/apk/res/android"><application android:name="com.example.App"/></manifest>`
	tree, err := xmltree.Read("app", strings.NewReader(src))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, xmltree.Write(&sb, tree))
	assert.Equal(t, src, sb.String())
}

// TestReadWriteRoundTripMultilineAttributes guards against the writer
// silently reflowing a real manifest's multi-line, mixed-quote attribute
// layout into a single-space-separated one-liner: every byte of the
// opening tags -- including the lone ">" on its own line -- must survive.
func TestReadWriteRoundTripMultilineAttributes(t *testing.T) {
	src := "<manifest xmlns:android=\"http://schemas.android.com/apk/res/android\">\n" +
		"  <application\n" +
		"      android:name=\"com.example.App\"\n" +
		"      android:icon='@mipmap/ic_launcher'\n" +
		"      android:label=\"App\"\n" +
		"      >\n" +
		"    <activity android:name=\".Main\"/>\n" +
		"  </application>\n" +
		"</manifest>"

	tree, err := xmltree.Read("app", strings.NewReader(src))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, xmltree.Write(&sb, tree))
	assert.Equal(t, src, sb.String(), "multi-line attribute formatting must round-trip byte for byte")
}

// TestReadWriteRoundTripWithProlog guards against the writer dropping the
// "<?xml ...?>" declaration (and the newline after it) that virtually
// every real AndroidManifest.xml opens with.
func TestReadWriteRoundTripWithProlog(t *testing.T) {
	src := "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n" +
		"<manifest xmlns:android=\"http://schemas.android.com/apk/res/android\">\n" +
		"  <application android:name=\"com.example.App\"/>\n" +
		"</manifest>\n"

	tree, err := xmltree.Read("app", strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n", tree.Preamble)
	assert.Equal(t, "\n", tree.Trailer)

	var sb strings.Builder
	require.NoError(t, xmltree.Write(&sb, tree))
	assert.Equal(t, src, sb.String())
}

func TestReadEmptyDocumentErrors(t *testing.T) {
	_, err := xmltree.Read("app", strings.NewReader(""))
	assert.Error(t, err)
}
