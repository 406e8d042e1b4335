// Package enrichment implements the pool-metadata enrichment service that
// sits between a DEX adapter and a relay (spec §4.8): an on-disk cache
// keyed by pool address, an ordered-fallback JSON-RPC client for
// token0/token1/decimals discovery, and a drop-on-fail retry queue.
package enrichment

import (
	"encoding/json"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dawsh2/torq/pkg/torqerr"
)

// PoolRecord is the cached metadata spec §6.2 names: token0/token1
// addresses and each token's decimals, discovered once via RPC and then
// served from disk on every subsequent PoolSwapTLV for that pool.
type PoolRecord struct {
	Token0         common.Address `json:"token0_address"`
	Token1         common.Address `json:"token1_address"`
	Token0Decimals uint8          `json:"token0_decimals"`
	Token1Decimals uint8          `json:"token1_decimals"`
	DiscoveredAt   int64          `json:"discovered_at"`
}

// Cache is a badger-backed on-disk store of PoolRecord keyed by the
// pool's lowercased hex address (spec §6.2), grounded on
// blinklabs-io-shai's internal/storage.Storage use of badger v4 for its
// own chain-indexed KV store.
type Cache struct {
	db *badger.DB
}

// Open opens (creating if absent) a badger database at dir.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, torqerr.Wrap(torqerr.Configuration, "enrichment.Open", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying badger database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(pool common.Address) []byte {
	return []byte(strings.ToLower(pool.Hex()))
}

// Get returns the cached record for pool, and false if it isn't present.
func (c *Cache) Get(pool common.Address) (PoolRecord, bool, error) {
	var rec PoolRecord
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(pool))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &rec)
		})
	})
	if err != nil {
		return PoolRecord{}, false, torqerr.Wrap(torqerr.Configuration, "enrichment.Cache.Get", err)
	}
	return rec, found, nil
}

// Put persists rec for pool.
func (c *Cache) Put(pool common.Address, rec PoolRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return torqerr.Wrap(torqerr.Configuration, "enrichment.Cache.Put", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(pool), data)
	})
	if err != nil {
		return torqerr.Wrap(torqerr.Configuration, "enrichment.Cache.Put", err)
	}
	return nil
}
