// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/grant"
	"github.com/vechain/stakeledger/builtin/minstake"
	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

const genesis uint64 = 1_700_000_000

var (
	minimumStake = units(100)

	ledgerAddr    = thor.BytesToAddress([]byte("Staking"))
	successorAddr = thor.BytesToAddress([]byte("StakingV2"))
	bridgeAddr    = thor.BytesToAddress([]byte("GrantBridge"))
	escrowAddr    = thor.BytesToAddress([]byte("Escrow"))
	targetAddr    = thor.BytesToAddress([]byte("EscrowV2"))

	admin      = thor.BytesToAddress([]byte("admin"))
	manager    = thor.BytesToAddress([]byte("manager"))
	grantee    = thor.BytesToAddress([]byte("grantee"))
	operator   = thor.BytesToAddress([]byte("operator"))
	operator2  = thor.BytesToAddress([]byte("operator2"))
	operator3  = thor.BytesToAddress([]byte("operator3"))
	authorizer = thor.BytesToAddress([]byte("authorizer"))
	stranger   = thor.BytesToAddress([]byte("stranger"))

	schedule = grant.Unlocking{Start: genesis, Cliff: genesis + thor.Year, Duration: 4 * thor.Year}
)

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), thor.Unit)
}

type EscrowTest struct {
	*Escrow
	t         *testing.T
	state     *state.State
	clock     *thor.ManualClock
	token     *token.Token
	ledger    *staking.Ledger
	successor *staking.Ledger
	bridge    *grant.Bridge
	target    *Escrow // owned by the successor ledger
}

func newTest(t *testing.T) *EscrowTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.NewStater(db).NewState()
	clock := thor.NewManualClock(genesis)
	tok := token.New(thor.BytesToAddress([]byte("Token")), st)
	reg := registry.New(thor.BytesToAddress([]byte("Registry")), st)
	require.NoError(t, reg.Initialize(admin, admin, admin))

	floor := minstake.New(minimumStake, 1, genesis, thor.Year)
	ledger := staking.New(ledgerAddr, st, clock, genesis, floor, reg, tok, bridgeAddr)
	successor := staking.New(successorAddr, st, clock, genesis, floor, reg, tok, bridgeAddr)
	bridge := grant.New(bridgeAddr, st, clock, tok, ledger, successor)

	escrow := New(escrowAddr, st, clock, bridge, tok, ledger, successor)
	require.NoError(t, escrow.Initialize(admin, ledgerAddr))
	target := New(targetAddr, st, clock, bridge, tok, ledger, successor)
	require.NoError(t, target.Initialize(admin, successorAddr))
	ledger.SetDepositors(escrow, target)
	successor.SetDepositors(target, escrow)

	return &EscrowTest{
		Escrow:    escrow,
		t:         t,
		state:     st,
		clock:     clock,
		token:     tok,
		ledger:    ledger,
		successor: successor,
		bridge:    bridge,
		target:    target,
	}
}

func (ts *EscrowTest) Advance(d uint64) *EscrowTest {
	ts.clock.Advance(d)
	return ts
}

func (ts *EscrowTest) AdvanceTo(d uint64) *EscrowTest {
	ts.clock.Set(genesis + d)
	return ts
}

func (ts *EscrowTest) Grant(amount *big.Int) uint64 {
	require.NoError(ts.t, ts.token.Mint(manager, amount))
	id, err := ts.bridge.CreateGrant(manager, grant.Params{
		Grantee:   grantee,
		Amount:    amount,
		Unlocking: schedule,
		Revocable: true,
	})
	require.NoError(ts.t, err)
	return id
}

// StakeAndRecover stakes amount of grant id on op and recovers it into the escrow.
func (ts *EscrowTest) StakeAndRecover(id uint64, op thor.Address, amount *big.Int) *EscrowTest {
	require.NoError(ts.t, ts.bridge.Stake(grantee, id, op, grantee, authorizer, amount))
	return ts.Recover(op, grantee)
}

// Recover undelegates op as caller, waits and recovers it through the bridge.
func (ts *EscrowTest) Recover(op, caller thor.Address) *EscrowTest {
	ts.Advance(ts.ledger.InitializationPeriod() + 1)
	require.NoError(ts.t, ts.bridge.Undelegate(caller, op))
	ts.Advance(ts.ledger.UndelegationPeriod() + 1)
	require.NoError(ts.t, ts.bridge.RecoverStake(caller, op))
	return ts
}

func (ts *EscrowTest) AssertBalance(addr thor.Address, expected *big.Int) *EscrowTest {
	bal, err := ts.token.BalanceOf(addr)
	require.NoError(ts.t, err)
	assert.Equal(ts.t, 0, expected.Cmp(bal), "balance of %v: got %v, expected %v", addr, bal, expected)
	return ts
}

func (ts *EscrowTest) AssertWithdrawable(op thor.Address, expected *big.Int) *EscrowTest {
	w, err := ts.Withdrawable(op)
	require.NoError(ts.t, err)
	assert.Equal(ts.t, 0, expected.Cmp(w), "withdrawable of %v: got %v, expected %v", op, w, expected)
	return ts
}

// AssertHeld checks the escrow balance matches its accounting.
func (ts *EscrowTest) AssertHeld() *EscrowTest {
	total, err := ts.TotalHeld()
	require.NoError(ts.t, err)
	return ts.AssertBalance(ts.Address(), total)
}
