// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

// Event represents state.Event that can be stored in db.
type Event struct {
	Seq     uint64 // sequence number of the operation
	Index   uint32
	Time    uint64
	Caller  thor.Address
	Address thor.Address // always a contract address
	Topics  [5]*thor.Bytes32
	Data    []byte
}

// newEvent converts state.Event to Event.
func newEvent(seq uint64, index uint32, time uint64, caller thor.Address, ev *state.Event) *Event {
	e := &Event{
		Seq:     seq,
		Index:   index,
		Time:    time,
		Caller:  caller,
		Address: ev.Address,
		Data:    ev.Data,
	}
	for i := 0; i < len(ev.Topics) && i < len(e.Topics); i++ {
		topic := ev.Topics[i]
		e.Topics[i] = &topic
	}
	return e
}

type RangeType string

const (
	Seq  RangeType = "seq"
	Time RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is inclusive. A To below From leaves the range open ended.
type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events, nil fields match anything.
type EventCriteria struct {
	Address *thor.Address
	Caller  *thor.Address
	Topics  [5]*thor.Bytes32
}

// EventFilter criteria sets are ORed.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order
}
