// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/zimlib/zimstore/allocator"
	"github.com/zimlib/zimstore/cache"
	"github.com/zimlib/zimstore/compression"
	"github.com/zimlib/zimstore/fsio"
)

func newTestStore(t *testing.T, cached bool) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.zim")
	f, err := fsio.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { f.Close() })

	var clusters cache.Cache[int64, *Cluster]
	if cached {
		c, err := cache.NewLastAccessCache[int64, *Cluster](16, nil)
		if err != nil {
			t.Fatalf("NewLastAccessCache: %v", err)
		}
		clusters = c
	}
	s, err := NewStore(StoreConfig{
		File:     f,
		Registry: testRegistry(),
		Strategy: StrategyOffsets,
		Clusters: clusters,
		Alloc:    allocator.New(0, nil),
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func builderWith(blobs ...[]byte) *Builder {
	b := NewBuilder(testRegistry(), compression.Zstd)
	for _, blob := range blobs {
		b.AddBlob(blob)
	}
	return b
}

func TestStoreWriteAndReadBack(t *testing.T) {
	s := newTestStore(t, true)

	offA, err := s.WriteCluster(builderWith([]byte("cluster A blob 0"), []byte("A1")))
	if err != nil {
		t.Fatalf("WriteCluster A: %v", err)
	}
	offB, err := s.WriteCluster(builderWith([]byte("cluster B blob 0")))
	if err != nil {
		t.Fatalf("WriteCluster B: %v", err)
	}
	if offA == offB {
		t.Fatalf("clusters share offset %d", offA)
	}

	a, err := s.ClusterAt(offA)
	if err != nil {
		t.Fatalf("ClusterAt(A): %v", err)
	}
	blob, err := a.ReadBlob(0)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if !bytes.Equal(blob, []byte("cluster A blob 0")) {
		t.Errorf("blob = %q", blob)
	}
	b, err := s.ClusterAt(offB)
	if err != nil {
		t.Fatalf("ClusterAt(B): %v", err)
	}
	if n, _ := b.NumBlobs(); n != 1 {
		t.Errorf("NumBlobs(B) = %d, want 1", n)
	}
}

func TestStoreClusterAtCaches(t *testing.T) {
	s := newTestStore(t, true)
	off, err := s.WriteCluster(builderWith([]byte("cached")))
	if err != nil {
		t.Fatalf("WriteCluster: %v", err)
	}
	first, err := s.ClusterAt(off)
	if err != nil {
		t.Fatalf("ClusterAt: %v", err)
	}
	second, err := s.ClusterAt(off)
	if err != nil {
		t.Fatalf("ClusterAt again: %v", err)
	}
	if first != second {
		t.Error("repeated ClusterAt should return the cached cluster")
	}
}

func TestStoreWithoutCache(t *testing.T) {
	s := newTestStore(t, false)
	off, err := s.WriteCluster(builderWith([]byte("uncached")))
	if err != nil {
		t.Fatalf("WriteCluster: %v", err)
	}
	first, err := s.ClusterAt(off)
	if err != nil {
		t.Fatalf("ClusterAt: %v", err)
	}
	second, err := s.ClusterAt(off)
	if err != nil {
		t.Fatalf("ClusterAt again: %v", err)
	}
	if first == second {
		t.Error("an uncached store should construct fresh clusters")
	}
	if blob, err := first.ReadBlob(0); err != nil || !bytes.Equal(blob, []byte("uncached")) {
		t.Errorf("ReadBlob = %q, %v", blob, err)
	}
}

func TestStoreClusterAtBadOffset(t *testing.T) {
	s := newTestStore(t, true)
	if _, err := s.WriteCluster(builderWith([]byte("x"))); err != nil {
		t.Fatalf("WriteCluster: %v", err)
	}
	// Nothing lives at offset 10_000; the header read fails and
	// nothing partial lands in the cache.
	if _, err := s.ClusterAt(10_000); err == nil {
		t.Error("ClusterAt past the file end should fail")
	}
	if s.clusters.Has(10_000) {
		t.Error("a failed lookup must not be cached")
	}
}

func TestStoreFreeClusterReusesSpace(t *testing.T) {
	s := newTestStore(t, true)
	payload := bytes.Repeat([]byte("reusable content "), 64)

	offA, err := s.WriteCluster(builderWith(payload))
	if err != nil {
		t.Fatalf("WriteCluster A: %v", err)
	}
	offB, err := s.WriteCluster(builderWith([]byte("keeper")))
	if err != nil {
		t.Fatalf("WriteCluster B: %v", err)
	}

	if err := s.FreeCluster(offA); err != nil {
		t.Fatalf("FreeCluster: %v", err)
	}
	if s.clusters.Has(offA) {
		t.Error("freed cluster must leave the cache")
	}

	// The same content fits exactly into the freed extent, so the
	// rewrite lands on the old offset instead of growing the file.
	offC, err := s.WriteCluster(builderWith(payload))
	if err != nil {
		t.Fatalf("WriteCluster C: %v", err)
	}
	if offC != offA {
		t.Errorf("rewrite landed at %d, want reuse of %d", offC, offA)
	}

	// The survivor is intact and the rewrite reads back.
	b, err := s.ClusterAt(offB)
	if err != nil {
		t.Fatalf("ClusterAt(B): %v", err)
	}
	if blob, err := b.ReadBlob(0); err != nil || !bytes.Equal(blob, []byte("keeper")) {
		t.Errorf("survivor blob = %q, %v", blob, err)
	}
	c, err := s.ClusterAt(offC)
	if err != nil {
		t.Fatalf("ClusterAt(C): %v", err)
	}
	if blob, err := c.ReadBlob(0); err != nil || !bytes.Equal(blob, payload) {
		t.Errorf("rewritten blob differs (%d bytes)", len(blob))
	}
}

func TestStoreReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.zim")
	f, err := fsio.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	s, err := NewStore(StoreConfig{File: f, Registry: testRegistry()})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := s.WriteCluster(builderWith([]byte("x"))); err == nil {
		t.Error("WriteCluster on a read-only store should fail")
	}
	if err := s.FreeCluster(0); err == nil {
		t.Error("FreeCluster on a read-only store should fail")
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore(StoreConfig{}); err == nil {
		t.Error("NewStore without a file should fail")
	}
	path := filepath.Join(t.TempDir(), "v.zim")
	f, err := fsio.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	if _, err := NewStore(StoreConfig{File: f}); err == nil {
		t.Error("NewStore without a registry should fail")
	}
}
