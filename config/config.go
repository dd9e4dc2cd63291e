// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zimlib/zimstore/cache"
	"github.com/zimlib/zimstore/cluster"
)

// CachePolicy names a cache implementation.
type CachePolicy string

const (
	// CacheLastAccess selects the recency (LRU) cache.
	CacheLastAccess CachePolicy = "last-access"
	// CacheTopAccess selects the frequency cache.
	CacheTopAccess CachePolicy = "top-access"
	// CacheHybrid selects the frequency cache with a recency
	// admission buffer.
	CacheHybrid CachePolicy = "hybrid"
)

// CacheConfig selects and sizes one cache instance.
type CacheConfig struct {
	// Policy is the cache implementation to use.
	Policy CachePolicy `yaml:"policy"`

	// Capacity is the element capacity for the last-access and
	// top-access policies. Ignored for hybrid.
	Capacity int `yaml:"capacity,omitempty"`

	// TopCapacity and LastCapacity size the two halves of a hybrid
	// cache. Ignored for the other policies.
	TopCapacity  int `yaml:"top_capacity,omitempty"`
	LastCapacity int `yaml:"last_capacity,omitempty"`
}

// Validate checks the cache selection.
func (c CacheConfig) Validate() error {
	switch c.Policy {
	case CacheLastAccess, CacheTopAccess:
		if c.Capacity <= 0 {
			return fmt.Errorf("policy %q needs a positive capacity, got %d", c.Policy, c.Capacity)
		}
	case CacheHybrid:
		if c.TopCapacity <= 0 || c.LastCapacity <= 0 {
			return fmt.Errorf("policy %q needs positive top_capacity and last_capacity, got %d and %d",
				c.Policy, c.TopCapacity, c.LastCapacity)
		}
	default:
		return fmt.Errorf("unknown cache policy: %q", c.Policy)
	}
	return nil
}

// NewCache constructs the configured cache.
func NewCache[K comparable, V any](c CacheConfig, onLeave cache.OnLeave[K, V]) (cache.Cache[K, V], error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Policy {
	case CacheLastAccess:
		return cache.NewLastAccessCache[K, V](c.Capacity, onLeave)
	case CacheTopAccess:
		return cache.NewTopAccessCache[K, V](c.Capacity, onLeave)
	default:
		return cache.NewHybridCache[K, V](c.TopCapacity, c.LastCapacity, onLeave)
	}
}

// Policy is the storage engine's runtime policy.
type Policy struct {
	// ClusterStrategy selects how clusters memoize parsed state:
	// "direct", "offsets" or "materialized".
	ClusterStrategy string `yaml:"cluster_strategy"`

	// ClusterCache fronts parsed clusters keyed by file offset.
	ClusterCache CacheConfig `yaml:"cluster_cache"`

	// EntryCache fronts parsed directory entries keyed by file
	// offset.
	EntryCache CacheConfig `yaml:"entry_cache"`
}

// Default returns the policy used when no config file is given:
// offset-remembering clusters with hybrid caches. The cluster cache
// is small because each cached cluster can pin megabytes of state;
// directory entries are tiny, so their cache is deeper.
func Default() Policy {
	return Policy{
		ClusterStrategy: cluster.StrategyOffsets.String(),
		ClusterCache: CacheConfig{
			Policy:       CacheHybrid,
			TopCapacity:  8,
			LastCapacity: 24,
		},
		EntryCache: CacheConfig{
			Policy:       CacheHybrid,
			TopCapacity:  64,
			LastCapacity: 192,
		},
	}
}

// Validate checks the whole policy.
func (p Policy) Validate() error {
	if _, err := cluster.ParseStrategy(p.ClusterStrategy); err != nil {
		return err
	}
	if err := p.ClusterCache.Validate(); err != nil {
		return fmt.Errorf("cluster_cache: %w", err)
	}
	if err := p.EntryCache.Validate(); err != nil {
		return fmt.Errorf("entry_cache: %w", err)
	}
	return nil
}

// Strategy returns the parsed cluster strategy.
func (p Policy) Strategy() (cluster.Strategy, error) {
	return cluster.ParseStrategy(p.ClusterStrategy)
}

// Load reads a policy from a YAML file. Unknown fields are an error.
func Load(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a policy from YAML bytes.
func Parse(data []byte) (Policy, error) {
	p := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid policy: %w", err)
	}
	return p, nil
}
