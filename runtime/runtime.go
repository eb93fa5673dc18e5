// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes ledger operations atomically over a state.
package runtime

import (
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var logger = log.WithContext("pkg", "runtime")

// Operation is a mutation of the builtin contracts made on behalf of a caller.
type Operation struct {
	Contract string
	Name     string
	Caller   thor.Address
	Run      func(c *builtin.Contracts) error
}

// Receipt describes the outcome of an operation.
type Receipt struct {
	Seq      uint64 // set once committed
	Contract string
	Name     string
	Caller   thor.Address
	Time     uint64
	Reverted bool
	Reason   string
	Category reverts.Category
	Events   []*state.Event
}

// Runtime is to support operation execution.
type Runtime struct {
	state     *state.State
	contracts *builtin.Contracts
	clock     thor.Clock
}

// New create a Runtime object.
func New(contracts *builtin.Contracts, clock thor.Clock) *Runtime {
	return &Runtime{
		state:     contracts.State,
		contracts: contracts,
		clock:     clock,
	}
}

func (rt *Runtime) State() *state.State            { return rt.state }
func (rt *Runtime) Contracts() *builtin.Contracts { return rt.contracts }

// Exec runs op. Either all of its effects are applied or none.
// A rejected operation gives a reverted receipt, the returned error is only
// for failures of the underlying state.
func (rt *Runtime) Exec(op *Operation) (*Receipt, error) {
	if op == nil || op.Run == nil {
		return nil, errors.New("empty operation")
	}
	start := time.Now()

	checkpoint := rt.state.NewCheckpoint()
	events := rt.state.EventCount()

	receipt := &Receipt{
		Contract: op.Contract,
		Name:     op.Name,
		Caller:   op.Caller,
		Time:     rt.clock.Now(),
	}

	err := op.Run(rt.contracts)
	observe(op, err, time.Since(start))
	if err != nil {
		rt.state.RevertTo(checkpoint)
		if !reverts.IsRevertErr(err) {
			return nil, errors.Wrapf(err, "exec %v.%v", op.Contract, op.Name)
		}
		logger.Debug("operation reverted", "contract", op.Contract, "op", op.Name, "caller", op.Caller, "err", err)
		receipt.Reverted = true
		receipt.Reason = err.Error()
		receipt.Category = reverts.CategoryOf(err)
		return receipt, nil
	}

	receipt.Events = rt.state.EventsSince(events)
	return receipt, nil
}
