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

// Package fingerprint persists the set of (path, modification time) pairs
// a merge run depended on, so a driver can skip re-running the engine when
// none of its inputs have changed since the last successful run. The cache
// is a single protobuf Struct, marshaled to a file; this is the same shape
// Soong itself leans on protobuf for build-metadata persistence, scaled
// down to the one piece of state this repository's driver needs to keep.
package fingerprint

import (
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Cache maps an input file path to the modification time it was observed
// at, as an RFC3339 string (structpb.Struct fields must be JSON-compatible
// scalars).
type Cache struct {
	Entries map[string]string
}

// Load reads a persisted Cache from path. A missing file is not an error:
// it is treated as an empty cache, since the very first run has nothing to
// compare against.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Cache{Entries: map[string]string{}}, nil
	}
	if err != nil {
		return nil, err
	}

	st := &structpb.Struct{}
	if err := proto.Unmarshal(data, st); err != nil {
		return nil, err
	}
	c := &Cache{Entries: map[string]string{}}
	for k, v := range st.GetFields() {
		c.Entries[k] = v.GetStringValue()
	}
	return c, nil
}

// Save marshals c to path, creating or truncating the file.
func (c *Cache) Save(path string) error {
	fields := make(map[string]*structpb.Value, len(c.Entries))
	for k, v := range c.Entries {
		fields[k] = structpb.NewStringValue(v)
	}
	st := &structpb.Struct{Fields: fields}
	data, err := proto.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Stale reports whether path's current modification time differs from (or
// is absent from) the cache, i.e. whether a merge run depending on path
// needs to be redone.
func (c *Cache) Stale(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	recorded, ok := c.Entries[path]
	if !ok {
		return true
	}
	return recorded != info.ModTime().UTC().Format(modTimeLayout)
}

// Record updates the cache entry for path to its current modification time.
func (c *Cache) Record(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if c.Entries == nil {
		c.Entries = map[string]string{}
	}
	c.Entries[path] = info.ModTime().UTC().Format(modTimeLayout)
	return nil
}

const modTimeLayout = "2006-01-02T15:04:05.000000000Z"

// Clear removes the persisted cache file at path, if present.
func Clear(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
