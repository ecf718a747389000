package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// TableSpec names a table to register and its default list ordering
type TableSpec struct {
	Name     string
	OrderBy  string
	OrderAsc bool
}

// Registry holds one TableMapper per table. It is built once at startup and
// handed to the components that need mappers.
type Registry struct {
	mu      sync.RWMutex
	db      Executor
	specs   map[string]TableSpec
	mappers map[string]*TableMapper
}

// NewRegistry introspects every table in specs. Any table that cannot be
// introspected fails the whole registry.
func NewRegistry(ctx context.Context, db Executor, specs ...TableSpec) (*Registry, error) {
	r := &Registry{
		db:      db,
		specs:   make(map[string]TableSpec, len(specs)),
		mappers: make(map[string]*TableMapper, len(specs)),
	}

	for _, spec := range specs {
		mapper, err := NewTableMapper(ctx, db, spec.Name, spec.OrderBy, spec.OrderAsc)
		if err != nil {
			return nil, fmt.Errorf("failed to register table %s: %w", spec.Name, err)
		}
		r.specs[spec.Name] = spec
		r.mappers[spec.Name] = mapper
	}

	return r, nil
}

// Mapper returns the mapper for table
func (r *Registry) Mapper(table string) (*TableMapper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mapper, ok := r.mappers[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not registered", ErrTableNotFound, table)
	}
	return mapper, nil
}

// MustMapper is Mapper for tables registered by the application itself
func (r *Registry) MustMapper(table string) *TableMapper {
	mapper, err := r.Mapper(table)
	if err != nil {
		panic(err)
	}
	return mapper
}

// Refresh re-introspects a registered table, e.g. after a migration altered it
func (r *Registry) Refresh(ctx context.Context, table string) error {
	r.mu.RLock()
	spec, ok := r.specs[table]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s is not registered", ErrTableNotFound, table)
	}

	mapper, err := NewTableMapper(ctx, r.db, spec.Name, spec.OrderBy, spec.OrderAsc)
	if err != nil {
		return fmt.Errorf("failed to refresh table %s: %w", table, err)
	}

	r.mu.Lock()
	r.mappers[table] = mapper
	r.mu.Unlock()
	return nil
}

// Tables returns the registered table names in sorted order
func (r *Registry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tables := make([]string, 0, len(r.mappers))
	for table := range r.mappers {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables
}
