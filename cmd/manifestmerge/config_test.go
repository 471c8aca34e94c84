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

func TestLoadConfigDefaultsWhenNoPathGiven(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "comment", cfg.MarkerStyle)
	assert.Empty(t, cfg.FingerprintPath)
}

func TestLoadConfigReadsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("markerStyle: hash\nfingerprintPath: /tmp/fp\n"), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "hash", cfg.MarkerStyle)
	assert.Equal(t, "/tmp/fp", cfg.FingerprintPath)
}

func TestLoadConfigMissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := loadConfig(filepath.Join(dir, "nonexistent.yaml"))
	assert.Error(t, err)
}
