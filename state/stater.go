// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/vechain/stakeledger/cache"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/thor"
)

const (
	storageBucket = kv.Bucket("s")

	defaultCacheSize = 4096
)

// Stater is the state creator. It owns the read cache shared by states
// created from it.
type Stater struct {
	db    kv.Store
	cache *cache.LRU
}

// NewStater creates a new stater over db.
func NewStater(db kv.Store) *Stater {
	c, _ := cache.NewLRU(defaultCacheSize)
	return &Stater{db: db, cache: c}
}

// NewState creates a new state object reading committed values.
func (s *Stater) NewState() *State {
	return newState(s)
}

// CacheStats returns the read cache hit/miss counts, and whether the hit rate moved since the last call.
func (s *Stater) CacheStats() (bool, int64, int64) {
	return s.cache.Stats()
}

func storageDBKey(addr thor.Address, key thor.Bytes32) []byte {
	k := make([]byte, 0, thor.AddressLength+32)
	return append(append(k, addr[:]...), key[:]...)
}

// loadStorage reads a committed value, an absent key gives an empty value.
func (s *Stater) loadStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	dbKey := storageDBKey(addr, key)
	v, err := s.cache.GetOrLoad(string(dbKey), func(any) (any, error) {
		metricStorageCache().AddWithLabel(1, map[string]string{"result": "miss"})
		val, err := storageBucket.NewGetter(s.db).Get(dbKey)
		if err != nil {
			if s.db.IsNotFound(err) {
				return rlp.RawValue(nil), nil
			}
			return nil, errors.Wrap(err, "load storage")
		}
		return rlp.RawValue(val), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(rlp.RawValue), nil
}

func (s *Stater) evict(addr thor.Address, key thor.Bytes32) {
	s.cache.Remove(string(storageDBKey(addr, key)))
}
