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

	"gopkg.in/yaml.v3"
)

// config is the driver's own settings, loaded from an optional YAML file.
// None of this is part of the engine's contract; it only shapes how this
// particular binary behaves.
type config struct {
	// MarkerStyle is "comment" (default) or "hash"; see
	// manifestmerge.MarkerStyle.
	MarkerStyle string `yaml:"markerStyle"`

	// FingerprintPath overrides where the incremental-build dependency
	// cache is persisted. Defaults to .manifestmerge-fingerprint in the
	// output directory.
	FingerprintPath string `yaml:"fingerprintPath"`
}

func loadConfig(path string) (config, error) {
	cfg := config{MarkerStyle: "comment"}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
