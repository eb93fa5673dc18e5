// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/minstake"
	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/staking/delegation"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

const genesis uint64 = 1_700_000_000

var (
	minimumStake = units(100)

	governance  = thor.BytesToAddress([]byte("governance"))
	keeper      = thor.BytesToAddress([]byte("keeper"))
	panicButton = thor.BytesToAddress([]byte("panic"))
	bridgeAddr  = thor.BytesToAddress([]byte("GrantBridge"))
	escrowAddr  = thor.BytesToAddress([]byte("Escrow"))

	owner      = thor.BytesToAddress([]byte("owner"))
	operator   = thor.BytesToAddress([]byte("operator"))
	operator2  = thor.BytesToAddress([]byte("operator2"))
	authorizer = thor.BytesToAddress([]byte("authorizer"))
	contract   = thor.BytesToAddress([]byte("contract"))
	contract2  = thor.BytesToAddress([]byte("contract2"))
	reporter   = thor.BytesToAddress([]byte("reporter"))
	stranger   = thor.BytesToAddress([]byte("stranger"))
)

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), thor.Unit)
}

// fakeEscrow records deposits instead of applying vesting.
type fakeEscrow struct {
	owner    thor.Address
	deposits map[thor.Address]*big.Int
	grants   map[thor.Address]uint64
}

func (e *fakeEscrow) Address() thor.Address { return escrowAddr }

func (e *fakeEscrow) Owner() (thor.Address, error) { return e.owner, nil }

func (e *fakeEscrow) Deposit(caller, operator thor.Address, grantID uint64, amount *big.Int) error {
	if e.deposits[operator] == nil {
		e.deposits[operator] = new(big.Int)
	}
	e.deposits[operator].Add(e.deposits[operator], amount)
	e.grants[operator] = grantID
	return nil
}

type LedgerTest struct {
	*Ledger
	t        *testing.T
	state    *state.State
	clock    *thor.ManualClock
	token    *token.Token
	registry *registry.Registry
	escrow   *fakeEscrow
}

func newTest(t *testing.T) *LedgerTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.NewStater(db).NewState()
	clock := thor.NewManualClock(genesis)
	tok := token.New(thor.BytesToAddress([]byte("Token")), st)
	reg := registry.New(thor.BytesToAddress([]byte("Registry")), st)
	require.NoError(t, reg.Initialize(governance, keeper, panicButton))

	floor := minstake.New(minimumStake, 1, genesis, thor.Year)
	ledger := New(thor.BytesToAddress([]byte("Staking")), st, clock, genesis, floor, reg, tok, bridgeAddr)
	escrow := &fakeEscrow{owner: ledger.Address(), deposits: make(map[thor.Address]*big.Int), grants: make(map[thor.Address]uint64)}
	ledger.SetDepositors(escrow)

	return &LedgerTest{
		Ledger:   ledger,
		t:        t,
		state:    st,
		clock:    clock,
		token:    tok,
		registry: reg,
		escrow:   escrow,
	}
}

// Fund mints amount to addr.
func (ts *LedgerTest) Fund(addr thor.Address, amount *big.Int) *LedgerTest {
	require.NoError(ts.t, ts.token.Mint(addr, amount))
	return ts
}

// Advance moves the clock forward by d seconds.
func (ts *LedgerTest) Advance(d uint64) *LedgerTest {
	ts.clock.Advance(d)
	return ts
}

// PastInitialization moves the clock just past the initialization period of a delegation created now.
func (ts *LedgerTest) PastInitialization() *LedgerTest {
	return ts.Advance(ts.InitializationPeriod() + 1)
}

// Delegate funds owner and delegates amount from it to op.
func (ts *LedgerTest) Delegate(op thor.Address, amount *big.Int) *LedgerTest {
	ts.Fund(owner, amount)
	require.NoError(ts.t, ts.CreateDelegation(owner, op, delegation.AccountOwner(owner), owner, authorizer, amount))
	return ts
}

// DelegateFromGrant funds the bridge and delegates amount on behalf of grant id.
func (ts *LedgerTest) DelegateFromGrant(op thor.Address, id uint64, amount *big.Int) *LedgerTest {
	ts.Fund(bridgeAddr, amount)
	ref := delegation.GrantOwner(delegation.Grant, bridgeAddr, id)
	require.NoError(ts.t, ts.CreateDelegation(bridgeAddr, op, ref, owner, authorizer, amount))
	return ts
}

func (ts *LedgerTest) mustOwner(op thor.Address) delegation.OwnerRef {
	ref, err := ts.OwnerOf(op)
	require.NoError(ts.t, err)
	return ref
}

// Approve approves c in the registry.
func (ts *LedgerTest) Approve(c thor.Address) *LedgerTest {
	require.NoError(ts.t, ts.registry.Approve(keeper, c))
	return ts
}

// Authorize approves c and authorizes it for op.
func (ts *LedgerTest) Authorize(op, c thor.Address) *LedgerTest {
	status, err := ts.registry.Status(c)
	require.NoError(ts.t, err)
	if status == registry.StatusNew {
		ts.Approve(c)
	}
	require.NoError(ts.t, ts.AuthorizeOperatorContract(authorizer, op, c))
	return ts
}

func (ts *LedgerTest) AssertBalance(addr thor.Address, expected *big.Int) *LedgerTest {
	bal, err := ts.token.BalanceOf(addr)
	require.NoError(ts.t, err)
	assert.Equal(ts.t, 0, expected.Cmp(bal), "balance of %v: got %v, expected %v", addr, bal, expected)
	return ts
}

func (ts *LedgerTest) AssertStatus(op thor.Address, expected Status) *LedgerTest {
	status, err := ts.StatusOf(op)
	require.NoError(ts.t, err)
	assert.Equal(ts.t, expected, status, "status of %v: got %v, expected %v", op, status, expected)
	return ts
}

func (ts *LedgerTest) AssertTotalStaked() *LedgerTest {
	total, err := ts.TotalStaked()
	require.NoError(ts.t, err)
	held, err := ts.token.BalanceOf(ts.Address())
	require.NoError(ts.t, err)
	assert.Equal(ts.t, 0, total.Cmp(held), "ledger holds %v, accounted %v", held, total)
	return ts
}

// DelegationAssertions checks fields of one delegation, dumping the record on mismatch.
type DelegationAssertions struct {
	ts       *LedgerTest
	operator thor.Address
	del      *delegation.Delegation
	checks   []func(t *testing.T) bool
}

func (ts *LedgerTest) AssertDelegation(op thor.Address) *DelegationAssertions {
	del, err := ts.GetDelegation(op)
	require.NoError(ts.t, err)
	require.NotNil(ts.t, del, "no delegation for %v", op)
	return &DelegationAssertions{ts: ts, operator: op, del: del}
}

func (a *DelegationAssertions) Amount(expected *big.Int) *DelegationAssertions {
	a.checks = append(a.checks, func(t *testing.T) bool {
		return assert.Equal(t, 0, expected.Cmp(a.del.Amount), "amount: got %v, expected %v", a.del.Amount, expected)
	})
	return a
}

func (a *DelegationAssertions) TopUp(expected *big.Int) *DelegationAssertions {
	a.checks = append(a.checks, func(t *testing.T) bool {
		return assert.Equal(t, 0, expected.Cmp(a.del.TopUp.Amount), "top-up: got %v, expected %v", a.del.TopUp.Amount, expected)
	})
	return a
}

func (a *DelegationAssertions) CreatedAt(expected uint64) *DelegationAssertions {
	a.checks = append(a.checks, func(t *testing.T) bool {
		return assert.Equal(t, expected, a.del.CreatedAt, "createdAt")
	})
	return a
}

func (a *DelegationAssertions) UndelegatedAt(expected uint64) *DelegationAssertions {
	a.checks = append(a.checks, func(t *testing.T) bool {
		return assert.Equal(t, expected, a.del.UndelegatedAt, "undelegatedAt")
	})
	return a
}

func (a *DelegationAssertions) Owner(expected delegation.OwnerRef) *DelegationAssertions {
	a.checks = append(a.checks, func(t *testing.T) bool {
		return assert.Equal(t, expected, a.del.Owner, "owner")
	})
	return a
}

func (a *DelegationAssertions) Settled(expected bool) *DelegationAssertions {
	a.checks = append(a.checks, func(t *testing.T) bool {
		return assert.Equal(t, expected, a.del.Settled, "settled")
	})
	return a
}

func (a *DelegationAssertions) Assert() *LedgerTest {
	ok := true
	for _, check := range a.checks {
		ok = check(a.ts.t) && ok
	}
	if !ok {
		a.ts.t.Logf("delegation of %v:\n%s", a.operator, spew.Sdump(a.del))
	}
	return a.ts
}
