// Package cache is the optional on-disk parse cache named in the spec's
// Incrementality note: per-file parse records keyed by content hash,
// persisted across invocations. It satisfies internal/workspace's
// ParseCache interface structurally; the Analyzer's contract is
// unchanged whether or not this cache is warm, attached, or absent.
package cache

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/aleutian-oss/trueaffected/internal/ast"
)

// Cache wraps a badger key-value store keyed by file content hash.
type Cache struct {
	db *badger.DB
}

// Open opens (creating if absent) a badger database at dir.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached parse result for contentHash, if present.
func (c *Cache) Get(contentHash string) (*ast.ParseResult, bool) {
	var result *ast.ParseResult
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(contentHash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			result = &ast.ParseResult{}
			return json.Unmarshal(val, result)
		})
	})
	if err != nil {
		return nil, false
	}
	return result, true
}

// Put stores the parse result for contentHash.
func (c *Cache) Put(contentHash string, result *ast.ParseResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache: marshaling parse result: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(contentHash), data)
	})
}
