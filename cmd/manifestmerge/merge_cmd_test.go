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

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetMergeFlags clears the package-level flag variables cobra populates,
// since mergeCmd is registered once at package init and reused across tests.
func resetMergeFlags() {
	mainManifest = ""
	libManifests = nil
	outPath = ""
	configPath = ""
}

func TestRunMergeWritesOutputWithNoLibraries(t *testing.T) {
	resetMergeFlags()
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "AndroidManifest.xml")
	outFile := filepath.Join(dir, "out.xml")
	require.NoError(t, os.WriteFile(mainPath, []byte(`<manifest xmlns:android="http://schemas.android.com/apk/res/android"><application/></manifest>`), 0o644))

	rootCmd.SetArgs([]string{"merge", "--main", mainPath, "--out", outFile})
	require.NoError(t, rootCmd.Execute())

	got, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(got), "<application/>")
}

func TestRunMergeSkipsWhenFingerprintUnchanged(t *testing.T) {
	resetMergeFlags()
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "AndroidManifest.xml")
	outFile := filepath.Join(dir, "out.xml")
	require.NoError(t, os.WriteFile(mainPath, []byte(`<manifest xmlns:android="http://schemas.android.com/apk/res/android"><application/></manifest>`), 0o644))

	rootCmd.SetArgs([]string{"merge", "--main", mainPath, "--out", outFile})
	require.NoError(t, rootCmd.Execute())

	firstRun, err := os.ReadFile(outFile)
	require.NoError(t, err)

	// Remove the output so a re-run would be observable if it happened;
	// the fingerprint cache should make the second invocation a no-op.
	require.NoError(t, os.Remove(outFile))

	resetMergeFlags()
	rootCmd.SetArgs([]string{"merge", "--main", mainPath, "--out", outFile})
	require.NoError(t, rootCmd.Execute())

	_, err = os.Stat(outFile)
	assert.True(t, os.IsNotExist(err), "unchanged inputs should have skipped writing the output")
	_ = firstRun
}

func TestRunFingerprintClearRemovesCache(t *testing.T) {
	resetMergeFlags()
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "AndroidManifest.xml")
	outFile := filepath.Join(dir, "out.xml")
	require.NoError(t, os.WriteFile(mainPath, []byte(`<manifest xmlns:android="http://schemas.android.com/apk/res/android"><application/></manifest>`), 0o644))

	rootCmd.SetArgs([]string{"merge", "--main", mainPath, "--out", outFile})
	require.NoError(t, rootCmd.Execute())

	fpPath := filepath.Join(dir, ".manifestmerge-fingerprint")
	_, err := os.Stat(fpPath)
	require.NoError(t, err, "expected a fingerprint cache to have been written")

	rootCmd.SetArgs([]string{"fingerprint", "clear", "--out", outFile})
	require.NoError(t, rootCmd.Execute())

	_, err = os.Stat(fpPath)
	assert.True(t, os.IsNotExist(err))
}
