package store

import (
	"context"
	"fmt"
)

// StaticSource serves tables held in memory
type StaticSource struct {
	tables map[string]*RawTable
}

// NewStaticSource creates an empty in-memory source
func NewStaticSource() *StaticSource {
	return &StaticSource{tables: make(map[string]*RawTable)}
}

// Put registers a table. Call before the source is handed to a Store.
func (s *StaticSource) Put(table string, header []string, rows ...[]string) *StaticSource {
	s.tables[table] = NewRawTable(header, rows)
	return s
}

// Open returns the registered table
func (s *StaticSource) Open(ctx context.Context, table string) (*RawTable, error) {
	t, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return t, nil
}
