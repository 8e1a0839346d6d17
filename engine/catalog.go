package engine

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
)

const (
	// DefaultCatalog is the name of the only catalog.
	DefaultCatalog = "memory"

	// DefaultSchema is the name of the only schema.
	DefaultSchema = "main"
)

// IndexEntry is the catalog record of an index.
type IndexEntry struct {
	Catalog          string
	Schema           string
	Name             string
	Table            string
	IndexType        string
	Columns          []string
	Options          map[string]Value
	InitialIndexSize int64
}

// Catalog holds the tables and index entries of the single schema.
type Catalog struct {
	mu      sync.RWMutex
	tables  map[string]*Table
	indexes map[string]*IndexEntry
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tables:  make(map[string]*Table),
		indexes: make(map[string]*IndexEntry),
	}
}

func catalogKey(name string) string {
	return strings.ToLower(name)
}

// CreateTable adds a table.
func (c *Catalog) CreateTable(name string, columns []ColumnDefinition, onConflict OnConflict) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %s must have at least one column", ErrBinder, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tables[catalogKey(name)]; ok {
		if onConflict == OnConflictIgnore {
			return t, nil
		}
		return nil, fmt.Errorf("%w: table %s", ErrAlreadyExists, name)
	}
	t := newTable(name, columns)
	c.tables[catalogKey(name)] = t
	return t, nil
}

// GetTable returns the table called name.
func (c *Catalog) GetTable(name string) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[catalogKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: table %s", ErrNotFound, name)
	}
	return t, nil
}

// Tables returns every table sorted by name.
func (c *Catalog) Tables() []*Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := slices.Collect(maps.Values(c.tables))
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// CreateIndexEntry records a new index. With OnConflictIgnore an existing entry
// yields (nil, nil) so the caller can discard its index.
func (c *Catalog) CreateIndexEntry(info *CreateIndexInfo, initialSize int64) (*IndexEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.indexes[catalogKey(info.IndexName)]; ok {
		if info.OnConflict == OnConflictIgnore {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: index %s", ErrAlreadyExists, info.IndexName)
	}
	e := &IndexEntry{
		Catalog:          DefaultCatalog,
		Schema:           DefaultSchema,
		Name:             info.IndexName,
		Table:            info.TableName,
		IndexType:        info.IndexType,
		Columns:          slices.Clone(info.Columns),
		Options:          maps.Clone(info.Options),
		InitialIndexSize: initialSize,
	}
	c.indexes[catalogKey(info.IndexName)] = e
	return e, nil
}

// HasIndex reports whether an index entry called name exists.
func (c *Catalog) HasIndex(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.indexes[catalogKey(name)]
	return ok
}

// GetIndex returns the index entry called name.
func (c *Catalog) GetIndex(name string) (*IndexEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.indexes[catalogKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: index %s", ErrNotFound, name)
	}
	return e, nil
}

// DropIndexEntry removes the index entry called name.
func (c *Catalog) DropIndexEntry(name string) (*IndexEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.indexes[catalogKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: index %s", ErrNotFound, name)
	}
	delete(c.indexes, catalogKey(name))
	return e, nil
}

// Indexes returns every index entry sorted by name.
func (c *Catalog) Indexes() []*IndexEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := slices.Collect(maps.Values(c.indexes))
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
