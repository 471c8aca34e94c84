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

package fingerprint_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"android/soong/internal/fingerprint"
)

func TestLoadMissingFileReturnsEmptyCache(t *testing.T) {
	dir := t.TempDir()
	c, err := fingerprint.Load(filepath.Join(dir, "nonexistent"))
	require.NoError(t, err)
	assert.Empty(t, c.Entries)
}

func TestRecordSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "AndroidManifest.xml")
	require.NoError(t, writeFile(inputPath, "<manifest/>"))

	cachePath := filepath.Join(dir, "fingerprint")
	c, err := fingerprint.Load(cachePath)
	require.NoError(t, err)

	require.True(t, c.Stale(inputPath), "an unrecorded input must be stale")
	require.NoError(t, c.Record(inputPath))
	require.False(t, c.Stale(inputPath), "an input just recorded must not be stale")

	require.NoError(t, c.Save(cachePath))

	reloaded, err := fingerprint.Load(cachePath)
	require.NoError(t, err)
	assert.False(t, reloaded.Stale(inputPath))
}

func TestStaleAfterModification(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "AndroidManifest.xml")
	require.NoError(t, writeFile(inputPath, "<manifest/>"))

	oldTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(inputPath, oldTime, oldTime))

	c := &fingerprint.Cache{Entries: map[string]string{}}
	require.NoError(t, c.Record(inputPath))
	assert.False(t, c.Stale(inputPath))

	// Back-date the mtime explicitly rather than relying on wall-clock
	// granularity between two quick writes, which can alias on coarser
	// filesystems.
	newTime := oldTime.Add(time.Hour)
	require.NoError(t, os.Chtimes(inputPath, newTime, newTime))
	assert.True(t, c.Stale(inputPath))
}

func TestClearRemovesCacheFile(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "fingerprint")
	c := &fingerprint.Cache{Entries: map[string]string{"x": "y"}}
	require.NoError(t, c.Save(cachePath))

	require.NoError(t, fingerprint.Clear(cachePath))

	reloaded, err := fingerprint.Load(cachePath)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Entries)
}

func TestClearMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, fingerprint.Clear(filepath.Join(dir, "nonexistent")))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
