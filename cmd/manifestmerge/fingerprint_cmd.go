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
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"android/soong/internal/fingerprint"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Manage the persisted incremental-build dependency cache",
}

var fingerprintClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the persisted dependency fingerprint cache",
	RunE:  runFingerprintClear,
}

func init() {
	fingerprintClearCmd.Flags().StringVar(&outPath, "out", "", "output path the cache was associated with (required)")
	fingerprintClearCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML driver config file")
	fingerprintClearCmd.MarkFlagRequired("out")
	fingerprintCmd.AddCommand(fingerprintClearCmd)
}

func runFingerprintClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	fpPath := cfg.FingerprintPath
	if fpPath == "" {
		fpPath = filepath.Join(filepath.Dir(outPath), ".manifestmerge-fingerprint")
	}
	if err := fingerprint.Clear(fpPath); err != nil {
		return fmt.Errorf("clearing fingerprint cache: %w", err)
	}
	logger.Info("fingerprint cache cleared", zap.String("path", fpPath))
	return nil
}
