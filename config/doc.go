// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package config selects the storage engine's runtime policy: which
// cluster access strategy to use and which cache implementation, with
// what capacities, fronts clusters and directory entries.
//
// Policies load from a single YAML file with strict field checking —
// unknown keys are an error, not a silent no-op. The zero-config path
// uses Default().
package config
