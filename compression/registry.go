// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps compression types to codecs. It is an explicit object
// passed to whatever constructs clusters; there is no process-wide
// registration state. A Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[Type]Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[Type]Codec)}
}

// DefaultRegistry returns a registry carrying the codecs the ZIM
// format defines: none, zlib, bzip2, xz and zstd.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(noneCodec{})
	r.Register(zlibCodec{})
	r.Register(bzip2Codec{})
	r.Register(xzCodec{})
	r.Register(zstdCodec{})
	return r
}

// Register adds a codec, replacing any codec previously registered
// for the same type.
func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[c.Type()] = c
}

// Get returns the codec for a compression type, or an error wrapping
// ErrUnsupportedType.
func (r *Registry) Get(t Type) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return c, nil
}

// Has reports whether a codec is registered for the type.
func (r *Registry) Has(t Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.codecs[t]
	return ok
}

// Types returns the registered compression types in ascending order.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]Type, 0, len(r.codecs))
	for t := range r.codecs {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
