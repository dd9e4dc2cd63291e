// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/zimlib/zimstore/allocator"
	"github.com/zimlib/zimstore/cache"
	"github.com/zimlib/zimstore/compression"
	"github.com/zimlib/zimstore/fsio"
)

// Store is the cache-fronted entry point for cluster access: the
// archive layer asks it for the cluster at a file offset, and the
// store either returns the cached parse or constructs a cluster bound
// to the file. With an allocator attached it also carries the write
// path: placing new clusters and releasing the extents of deleted
// ones.
type Store struct {
	file     *fsio.File
	registry *compression.Registry
	strategy Strategy
	clusters cache.Cache[int64, *Cluster]
	alloc    *allocator.SpaceAllocator
	logger   *slog.Logger
}

// StoreConfig wires a Store. Clusters may be nil (no caching), Alloc
// may be nil (read-only store), Logger nil means slog.Default().
type StoreConfig struct {
	File     *fsio.File
	Registry *compression.Registry
	Strategy Strategy
	Clusters cache.Cache[int64, *Cluster]
	Alloc    *allocator.SpaceAllocator
	Logger   *slog.Logger
}

// NewStore creates a cluster store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.File == nil {
		return nil, errors.New("cluster store needs a file")
	}
	if cfg.Registry == nil {
		return nil, errors.New("cluster store needs a codec registry")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		file:     cfg.File,
		registry: cfg.Registry,
		strategy: cfg.Strategy,
		clusters: cfg.Clusters,
		alloc:    cfg.Alloc,
		logger:   logger,
	}, nil
}

// EvictionLogger returns an eviction callback that logs departing
// cluster offsets at debug level, for wiring into the cluster cache.
func EvictionLogger(logger *slog.Logger) cache.OnLeave[int64, *Cluster] {
	if logger == nil {
		logger = slog.Default()
	}
	return func(offset int64, _ *Cluster) {
		logger.Debug("cluster evicted from cache", "offset", offset)
	}
}

// ClusterAt returns the cluster starting at the given file offset,
// from cache when possible. The header is validated before the
// cluster is cached, so a bad offset fails here and nothing partial
// is retained.
func (s *Store) ClusterAt(offset int64) (*Cluster, error) {
	if s.clusters != nil {
		if cl, err := s.clusters.Get(offset); err == nil {
			return cl, nil
		}
	}
	cl := New(s.registry, s.strategy)
	cl.Bind(s.file, offset)
	if _, err := cl.Compression(); err != nil {
		return nil, err
	}
	if s.clusters != nil {
		s.clusters.Push(offset, cl, true)
	}
	return cl, nil
}

// WriteCluster places a built cluster in the file, using free space
// when a fitting range exists and growing the file otherwise.
// Returns the cluster's offset.
func (s *Store) WriteCluster(b *Builder) (int64, error) {
	if s.alloc == nil {
		return 0, errors.New("cluster store is read-only (no allocator)")
	}
	var buf bytes.Buffer
	size, err := b.WriteTo(&buf)
	if err != nil {
		return 0, err
	}
	offset := s.alloc.Allocate(uint64(size))

	session := s.file.Acquire()
	defer session.Release()
	if _, err := session.Seek(int64(offset), io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek to cluster placement: %w", err)
	}
	if _, err := session.Write(buf.Bytes()); err != nil {
		return 0, fmt.Errorf("write cluster at offset %d: %w", offset, err)
	}
	s.logger.Debug("cluster written", "offset", offset, "size", size)
	return int64(offset), nil
}

// FreeCluster removes the cluster at offset from the cache and
// returns its on-disk extent to the allocator. The content itself is
// left in place; the space is simply reusable.
func (s *Store) FreeCluster(offset int64) error {
	if s.alloc == nil {
		return errors.New("cluster store is read-only (no allocator)")
	}
	cl, err := s.ClusterAt(offset)
	if err != nil {
		return err
	}
	size, err := cl.TotalCompressedSize()
	if err != nil {
		return err
	}
	if s.clusters != nil {
		if err := s.clusters.Remove(offset); err != nil && !errors.Is(err, cache.ErrNotCached) {
			return err
		}
	}
	s.alloc.MarkFree(uint64(offset), uint64(size))
	s.logger.Debug("cluster freed", "offset", offset, "size", size)
	return nil
}
