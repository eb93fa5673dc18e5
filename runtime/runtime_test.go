// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var (
	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
)

func newRuntime(t *testing.T) *Runtime {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := thor.NewManualClock(1_700_000_000)
	c := builtin.New(state.NewStater(db).NewState(), clock, builtin.Deployment{DeployedAt: clock.Now()})
	require.NoError(t, c.Token.Mint(alice, big.NewInt(100)))
	return New(c, clock)
}

func transfer(from, to thor.Address, amount int64) *Operation {
	return &Operation{
		Contract: "token",
		Name:     "transfer",
		Caller:   from,
		Run: func(c *builtin.Contracts) error {
			return c.Token.Transfer(from, to, big.NewInt(amount))
		},
	}
}

func balance(t *testing.T, rt *Runtime, addr thor.Address) int64 {
	bal, err := rt.Contracts().Token.BalanceOf(addr)
	require.NoError(t, err)
	return bal.Int64()
}

func TestExec(t *testing.T) {
	rt := newRuntime(t)

	receipt, err := rt.Exec(transfer(alice, bob, 40))
	require.NoError(t, err)
	assert.False(t, receipt.Reverted)
	assert.Equal(t, uint64(1_700_000_000), receipt.Time)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, builtin.TokenAddress, receipt.Events[0].Address)

	assert.Equal(t, int64(60), balance(t, rt, alice))
	assert.Equal(t, int64(40), balance(t, rt, bob))
}

func TestExec_Reverted(t *testing.T) {
	rt := newRuntime(t)

	receipt, err := rt.Exec(transfer(bob, alice, 1))
	require.NoError(t, err)
	assert.True(t, receipt.Reverted)
	assert.Equal(t, reverts.Resource, receipt.Category)
	assert.Empty(t, receipt.Events)
}

func TestExec_RevertsPartialEffects(t *testing.T) {
	rt := newRuntime(t)
	before := rt.State().EventCount()

	receipt, err := rt.Exec(&Operation{
		Contract: "token",
		Name:     "batch",
		Caller:   alice,
		Run: func(c *builtin.Contracts) error {
			if err := c.Token.Transfer(alice, bob, big.NewInt(30)); err != nil {
				return err
			}
			return c.Token.Transfer(alice, bob, big.NewInt(300))
		},
	})
	require.NoError(t, err)
	assert.True(t, receipt.Reverted)
	assert.Equal(t, int64(100), balance(t, rt, alice))
	assert.Equal(t, int64(0), balance(t, rt, bob))
	assert.Equal(t, before, rt.State().EventCount())
}

func TestExec_Fault(t *testing.T) {
	rt := newRuntime(t)

	_, err := rt.Exec(&Operation{
		Contract: "token",
		Name:     "broken",
		Run: func(c *builtin.Contracts) error {
			if err := c.Token.Mint(bob, big.NewInt(5)); err != nil {
				return err
			}
			return errors.New("disk failure")
		},
	})
	assert.Error(t, err)
	assert.False(t, reverts.IsRevertErr(err))
	assert.Equal(t, int64(0), balance(t, rt, bob))

	_, err = rt.Exec(nil)
	assert.Error(t, err)
}
