// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/vechain/stakeledger/stackedmap"
	"github.com/vechain/stakeledger/thor"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Event is a log record emitted by a contract.
type Event struct {
	Address thor.Address
	Topics  []thor.Bytes32
	Data    []byte
}

type (
	storageKey struct {
		addr thor.Address
		key  thor.Bytes32
	}
	eventKey      int
	eventCountKey struct{}
)

// State holds uncommitted contract storage and events.
type State struct {
	stater *Stater
	sm     *stackedmap.StackedMap[any, any]
}

func newState(stater *Stater) *State {
	s := &State{stater: stater}
	s.sm = stackedmap.New[any, any](s.cacheGetter)
	return s
}

func (s *State) cacheGetter(key any) (any, bool, error) {
	switch k := key.(type) {
	case storageKey:
		v, err := s.stater.loadStorage(k.addr, k.key)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	case eventCountKey:
		return 0, true, nil
	case eventKey:
		return (*Event)(nil), false, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	v, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return v.(rlp.RawValue), nil
}

// SetRawStorage sets storage value in rlp raw. An empty value deletes the key.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage sets storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage gets and decodes storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// AddEvent appends an event to the journal.
func (s *State) AddEvent(ev *Event) {
	n := s.EventCount()
	s.sm.Put(eventKey(n), ev)
	s.sm.Put(eventCountKey{}, n+1)
}

// EventCount returns the number of events emitted in this state.
func (s *State) EventCount() int {
	v, _, _ := s.sm.Get(eventCountKey{})
	return v.(int)
}

// EventsSince returns events emitted after the first n ones.
func (s *State) EventsSince(n int) []*Event {
	count := s.EventCount()
	if n >= count {
		return nil
	}
	events := make([]*Event, 0, count-n)
	for i := n; i < count; i++ {
		v, _, _ := s.sm.Get(eventKey(i))
		events = append(events, v.(*Event))
	}
	return events
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Stage collects the cumulative changes, ready to be committed.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(k, v any) bool {
		if key, ok := k.(storageKey); ok {
			changes[key] = v.(rlp.RawValue)
		}
		return true
	})
	return &Stage{
		stater:  s.stater,
		changes: changes,
		events:  s.EventsSince(0),
	}
}
