// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var eventNames sync.Map // topic => name

// EventTopic returns the first topic of events with the given name.
func EventTopic(name string) thor.Bytes32 {
	topic := thor.Keccak256([]byte(name))
	eventNames.LoadOrStore(topic, name)
	return topic
}

// EventName resolves the name of an event from its first topic.
// Only names used by this process are known.
func EventName(topic thor.Bytes32) (string, bool) {
	v, ok := eventNames.Load(topic)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// AddressTopic left pads an address into a topic.
func AddressTopic(addr thor.Address) thor.Bytes32 {
	return thor.BytesToBytes32(addr.Bytes())
}

// Emit records an event of the contract. Indexed values go to topics,
// data is rlp encoded.
func (c *Context) Emit(name string, data any, indexed ...thor.Bytes32) error {
	enc, err := rlp.EncodeToBytes(data)
	if err != nil {
		return err
	}
	c.state.AddEvent(&state.Event{
		Address: c.address,
		Topics:  append([]thor.Bytes32{EventTopic(name)}, indexed...),
		Data:    enc,
	})
	return nil
}
