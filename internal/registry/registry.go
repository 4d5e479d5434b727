// Package registry implements a single generic string-keyed factory,
// reused by the action and sink packages for
// registration-by-name: constructors keyed on string IDs drawn from
// configuration.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package registry

import (
	"sync"

	"github.com/tweska/multio/cmn"
)

// Factory is a string-keyed table of constructors producing a T from a
// raw configuration blob. Safe for concurrent registration and lookup.
type Factory[T any] struct {
	mu    sync.RWMutex
	ctors map[string]func(cfg map[string]any) (T, error)
}

func NewFactory[T any]() *Factory[T] {
	return &Factory[T]{ctors: make(map[string]func(map[string]any) (T, error))}
}

// Register binds name to a constructor. Registering the same name twice
// panics.
func (f *Factory[T]) Register(name string, ctor func(cfg map[string]any) (T, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.ctors[name]; dup {
		panic("registry: duplicate registration for " + name)
	}
	f.ctors[name] = ctor
}

// New constructs a T by name, or fails with a ConfigError for an
// unknown name.
func (f *Factory[T]) New(name string, cfg map[string]any) (T, error) {
	f.mu.RLock()
	ctor, ok := f.ctors[name]
	f.mu.RUnlock()
	if !ok {
		var zero T
		return zero, cmn.NewConfigError("unknown name %q", name)
	}
	return ctor(cfg)
}

func (f *Factory[T]) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.ctors))
	for n := range f.ctors {
		names = append(names, n)
	}
	return names
}
