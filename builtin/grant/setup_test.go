// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package grant

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

	bridgeAddr = thor.BytesToAddress([]byte("GrantBridge"))
	escrowAddr = thor.BytesToAddress([]byte("Escrow"))

	manager    = thor.BytesToAddress([]byte("manager"))
	grantee    = thor.BytesToAddress([]byte("grantee"))
	grantee2   = thor.BytesToAddress([]byte("grantee2"))
	operator   = thor.BytesToAddress([]byte("operator"))
	operator2  = thor.BytesToAddress([]byte("operator2"))
	authorizer = thor.BytesToAddress([]byte("authorizer"))
	stranger   = thor.BytesToAddress([]byte("stranger"))

	schedule = Unlocking{Start: genesis, Cliff: genesis + thor.Year, Duration: 4 * thor.Year}
)

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), thor.Unit)
}

type fakeEscrow struct {
	owner    thor.Address
	deposits map[thor.Address]*big.Int
}

func (e *fakeEscrow) Address() thor.Address { return escrowAddr }

func (e *fakeEscrow) Owner() (thor.Address, error) { return e.owner, nil }

func (e *fakeEscrow) Deposit(_, operator thor.Address, _ uint64, amount *big.Int) error {
	if e.deposits[operator] == nil {
		e.deposits[operator] = new(big.Int)
	}
	e.deposits[operator].Add(e.deposits[operator], amount)
	return nil
}

type BridgeTest struct {
	*Bridge
	t      *testing.T
	clock  *thor.ManualClock
	token  *token.Token
	ledger *staking.Ledger
	escrow *fakeEscrow
}

func newTest(t *testing.T) *BridgeTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.NewStater(db).NewState()
	clock := thor.NewManualClock(genesis)
	tok := token.New(thor.BytesToAddress([]byte("Token")), st)
	reg := registry.New(thor.BytesToAddress([]byte("Registry")), st)
	require.NoError(t, reg.Initialize(manager, manager, manager))

	floor := minstake.New(minimumStake, 1, genesis, thor.Year)
	ledger := staking.New(thor.BytesToAddress([]byte("Staking")), st, clock, genesis, floor, reg, tok, bridgeAddr)
	escrow := &fakeEscrow{owner: ledger.Address(), deposits: make(map[thor.Address]*big.Int)}
	ledger.SetDepositors(escrow)

	return &BridgeTest{
		Bridge: New(bridgeAddr, st, clock, tok, ledger),
		t:      t,
		clock:  clock,
		token:  tok,
		ledger: ledger,
		escrow: escrow,
	}
}

func (ts *BridgeTest) Advance(d uint64) *BridgeTest {
	ts.clock.Advance(d)
	return ts
}

// AdvanceTo moves the clock to genesis + d.
func (ts *BridgeTest) AdvanceTo(d uint64) *BridgeTest {
	ts.clock.Set(genesis + d)
	return ts
}

// Grant funds the manager and creates a grant of amount for grantee.
func (ts *BridgeTest) Grant(amount *big.Int, revocable bool, policy PolicyParams) uint64 {
	require.NoError(ts.t, ts.token.Mint(manager, amount))
	id, err := ts.CreateGrant(manager, Params{
		Grantee:   grantee,
		Amount:    amount,
		Unlocking: schedule,
		Revocable: revocable,
		Policy:    policy,
	})
	require.NoError(ts.t, err)
	return id
}

func (ts *BridgeTest) ManagedGrant(amount *big.Int) uint64 {
	require.NoError(ts.t, ts.token.Mint(manager, amount))
	id, err := ts.CreateManagedGrant(manager, Params{
		Grantee:   grantee,
		Amount:    amount,
		Unlocking: schedule,
		Revocable: true,
	})
	require.NoError(ts.t, err)
	return id
}

// UndelegateAndWait undelegates op as caller and moves past the undelegation period.
func (ts *BridgeTest) UndelegateAndWait(caller, op thor.Address) *BridgeTest {
	require.NoError(ts.t, ts.Undelegate(caller, op))
	ts.Advance(ts.ledger.UndelegationPeriod() + 1)
	return ts
}

func (ts *BridgeTest) MustGrant(id uint64) *Grant {
	g, err := ts.GetGrant(id)
	require.NoError(ts.t, err)
	require.NotNil(ts.t, g)
	return g
}

func (ts *BridgeTest) AssertBalance(addr thor.Address, expected *big.Int) *BridgeTest {
	bal, err := ts.token.BalanceOf(addr)
	require.NoError(ts.t, err)
	assert.Equal(ts.t, 0, expected.Cmp(bal), "balance of %v: got %v, expected %v", addr, bal, expected)
	return ts
}

func (ts *BridgeTest) AssertWithdrawable(id uint64, expected *big.Int) *BridgeTest {
	w, err := ts.Withdrawable(id)
	require.NoError(ts.t, err)
	assert.Equal(ts.t, 0, expected.Cmp(w), "withdrawable of %d: got %v, expected %v", id, w, expected)
	return ts
}

// AssertHeld checks the bridge balance matches the value held across the given grants.
func (ts *BridgeTest) AssertHeld(ids ...uint64) *BridgeTest {
	total := new(big.Int)
	for _, id := range ids {
		total.Add(total, ts.MustGrant(id).Held())
	}
	return ts.AssertBalance(ts.Address(), total)
}
