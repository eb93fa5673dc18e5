// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
)

type TestFunc func(t *testing.T)

type TestSequence struct {
	ts *LedgerTest

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(ts *LedgerTest) *TestSequence {
	return &TestSequence{funcs: make([]TestFunc, 0), ts: ts}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.funcs = append(st.funcs, f)
	return st
}

func (st *TestSequence) Delegate(op thor.Address, amount *big.Int) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.ts.Delegate(op, amount)
		t.Logf("delegated %v to %s", amount, op)
	})
}

func (st *TestSequence) Advance(d uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.ts.Advance(d)
	})
}

func (st *TestSequence) Undelegate(caller, op thor.Address) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		require.NoError(t, st.ts.Undelegate(caller, op), "failed to undelegate %s", op)
		t.Logf("undelegated %s", op)
	})
}

func (st *TestSequence) Recover(op thor.Address) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		require.NoError(t, st.ts.RecoverStake(op, op), "failed to recover %s", op)
		t.Logf("recovered %s", op)
	})
}

func (st *TestSequence) ExpectError(target *reverts.ErrRevert, f func() error) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		assert.ErrorIs(t, f(), target)
	})
}

func (st *TestSequence) AssertStatus(op thor.Address, expected Status) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.ts.AssertStatus(op, expected)
	})
}

func (st *TestSequence) Run(t *testing.T) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, f := range st.funcs {
		f(t)
	}
}

func TestSequence_FullLifecycle(t *testing.T) {
	ts := newTest(t)
	amount := units(500)

	NewSequence(ts).
		AssertStatus(operator, StatusAbsent).
		Delegate(operator, amount).
		AssertStatus(operator, StatusInitializing).
		ExpectError(reverts.ErrOperatorInUse, func() error {
			return ts.CreateDelegation(owner, operator, ts.mustOwner(operator), owner, authorizer, amount)
		}).
		Advance(ts.InitializationPeriod()+1).
		AssertStatus(operator, StatusActive).
		Undelegate(owner, operator).
		AssertStatus(operator, StatusUndelegating).
		ExpectError(reverts.ErrStillUndelegating, func() error { return ts.RecoverStake(operator, operator) }).
		Advance(thor.ShortUndelegationPeriod).
		AssertStatus(operator, StatusRecoverable).
		Recover(operator).
		AssertStatus(operator, StatusAbsent).
		Recover(operator).
		Delegate(operator, amount).
		AssertStatus(operator, StatusInitializing).
		Run(t)

	ts.AssertBalance(owner, amount).AssertTotalStaked()
}
