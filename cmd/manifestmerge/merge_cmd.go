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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"android/soong/internal/fingerprint"
	"android/soong/manifestmerge"
	"android/soong/manifestmerge/xmltree"
)

var (
	mainManifest string
	libManifests []string
	outPath      string
	configPath   string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge library manifests into the primary manifest",
	RunE:  runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mainManifest, "main", "", "path to the primary AndroidManifest.xml (required)")
	mergeCmd.Flags().StringArrayVar(&libManifests, "lib", nil, "path to a library AndroidManifest.xml (repeatable)")
	mergeCmd.Flags().StringVar(&outPath, "out", "", "path to write the merged manifest to (required)")
	mergeCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML driver config file")
	mergeCmd.MarkFlagRequired("main")
	mergeCmd.MarkFlagRequired("out")
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fpPath := cfg.FingerprintPath
	if fpPath == "" {
		fpPath = filepath.Join(filepath.Dir(outPath), ".manifestmerge-fingerprint")
	}
	cache, err := fingerprint.Load(fpPath)
	if err != nil {
		logger.Sugar().Warnf("could not load fingerprint cache, continuing without it: %v", err)
		cache = &fingerprint.Cache{Entries: map[string]string{}}
	}

	inputs := append([]string{mainManifest}, libManifests...)
	unchanged := true
	for _, p := range inputs {
		if cache.Stale(p) {
			unchanged = false
			break
		}
	}
	if unchanged {
		logger.Info("no inputs changed since last run, skipping merge")
		return nil
	}

	primaryTree, err := readManifest(mainManifest)
	if err != nil {
		return err
	}

	var libTrees []*manifestmerge.DocumentTree
	for _, p := range libManifests {
		t, err := readManifest(p)
		if err != nil {
			return err
		}
		libTrees = append(libTrees, t)
	}

	style := manifestmerge.CommentMarker
	if cfg.MarkerStyle == "hash" {
		style = manifestmerge.LiteralHashMarker
	}

	merged, diag := manifestmerge.Merge(primaryTree, libTrees, manifestmerge.WithLibraryMarkerStyle(style))

	for _, line := range diag.Render() {
		fmt.Println(line)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer out.Close()
	if err := xmltree.Write(out, merged); err != nil {
		return fmt.Errorf("writing merged manifest: %w", err)
	}

	if !diag.Success() {
		os.Exit(1)
	}

	for _, p := range inputs {
		_ = cache.Record(p)
	}
	if err := cache.Save(fpPath); err != nil {
		logger.Sugar().Warnf("could not persist fingerprint cache: %v", err)
	}
	return nil
}

func readManifest(path string) (*manifestmerge.DocumentTree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	tree, err := xmltree.Read(path, f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return tree, nil
}
