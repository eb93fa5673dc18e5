// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/thor"
)

// Stage holds the changes of a state to be written.
type Stage struct {
	stater  *Stater
	changes map[storageKey]rlp.RawValue
	events  []*Event
}

// Events returns all events emitted by the staged state.
func (s *Stage) Events() []*Event {
	return s.events
}

// Len returns the number of changed keys.
func (s *Stage) Len() int {
	return len(s.changes)
}

func (s *Stage) sortedKeys() []storageKey {
	keys := make([]storageKey, 0, len(s.changes))
	for k := range s.changes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := bytes.Compare(keys[i].addr[:], keys[j].addr[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(keys[i].key[:], keys[j].key[:]) < 0
	})
	return keys
}

// Hash chains the changes onto parent, giving the digest of the resulting state.
func (s *Stage) Hash(parent thor.Bytes32) thor.Bytes32 {
	return thor.Blake2bFn(func(w io.Writer) {
		w.Write(parent[:])
		for _, k := range s.sortedKeys() {
			w.Write(k.addr[:])
			w.Write(k.key[:])
			rlp.Encode(w, []byte(s.changes[k]))
		}
	})
}

// Commit puts all changes into the bulk. The bulk is written by the caller.
func (s *Stage) Commit(bulk kv.Putter) error {
	putter := storageBucket.NewPutter(bulk)
	for _, k := range s.sortedKeys() {
		s.stater.evict(k.addr, k.key)

		dbKey := storageDBKey(k.addr, k.key)
		var err error
		if v := s.changes[k]; len(v) == 0 {
			err = putter.Delete(dbKey)
		} else {
			err = putter.Put(dbKey, v)
		}
		if err != nil {
			return &Error{err}
		}
	}
	metricCommitKeys().Add(int64(len(s.changes)))
	return nil
}
