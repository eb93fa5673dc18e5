// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package portbacker

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/grant"
	"github.com/vechain/stakeledger/builtin/minstake"
	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/builtin/staking/delegation"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

const genesis uint64 = 1_700_000_000

var (
	minimumStake = units(100)

	backerAddr = thor.BytesToAddress([]byte("PortBacker"))
	bridgeAddr = thor.BytesToAddress([]byte("GrantBridge"))

	backerOwner = thor.BytesToAddress([]byte("backerOwner"))
	owner       = thor.BytesToAddress([]byte("owner"))
	manager     = thor.BytesToAddress([]byte("manager"))
	grantee     = thor.BytesToAddress([]byte("grantee"))
	operator    = thor.BytesToAddress([]byte("operator"))
	operator2   = thor.BytesToAddress([]byte("operator2"))
	beneficiary = thor.BytesToAddress([]byte("beneficiary"))
	authorizer  = thor.BytesToAddress([]byte("authorizer"))
	stranger    = thor.BytesToAddress([]byte("stranger"))
)

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), thor.Unit)
}

type backerTest struct {
	*Backer
	t         *testing.T
	clock     *thor.ManualClock
	token     *token.Token
	registry  *registry.Registry
	old       *staking.Ledger
	successor *staking.Ledger
	bridge    *grant.Bridge
}

func newTest(t *testing.T) *backerTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.NewStater(db).NewState()
	clock := thor.NewManualClock(genesis)
	tok := token.New(thor.BytesToAddress([]byte("Token")), st)
	reg := registry.New(thor.BytesToAddress([]byte("Registry")), st)
	require.NoError(t, reg.Initialize(manager, manager, manager))

	floor := minstake.New(minimumStake, 1, genesis, thor.Year)
	old := staking.New(thor.BytesToAddress([]byte("Staking")), st, clock, genesis, floor, reg, tok, bridgeAddr)
	successor := staking.New(thor.BytesToAddress([]byte("StakingV2")), st, clock, genesis, floor, reg, tok, bridgeAddr)
	bridge := grant.New(bridgeAddr, st, clock, tok, old, successor)

	backer := New(backerAddr, st, clock, old, successor, bridge, tok)
	require.NoError(t, backer.Initialize(backerOwner))
	require.NoError(t, tok.Mint(backerAddr, units(10_000)))

	return &backerTest{
		Backer:    backer,
		t:         t,
		clock:     clock,
		token:     tok,
		registry:  reg,
		old:       old,
		successor: successor,
		bridge:    bridge,
	}
}

func (ts *backerTest) delegateOld(op thor.Address, amount *big.Int) {
	require.NoError(ts.t, ts.token.Mint(owner, amount))
	require.NoError(ts.t, ts.old.CreateDelegation(owner, op, delegation.AccountOwner(owner), beneficiary, authorizer, amount))
}

func (ts *backerTest) assertBalance(addr thor.Address, expected *big.Int) {
	bal, err := ts.token.BalanceOf(addr)
	require.NoError(ts.t, err)
	assert.Equal(ts.t, 0, expected.Cmp(bal), "balance of %v: got %v, expected %v", addr, bal, expected)
}

func TestAllowOperators(t *testing.T) {
	ts := newTest(t)

	assert.True(t, errors.Is(ts.AllowOperator(stranger, operator), reverts.ErrNotAuthorized))
	require.NoError(t, ts.AllowOperators(backerOwner, []thor.Address{operator, operator2}))

	for _, op := range []thor.Address{operator, operator2} {
		ok, err := ts.IsAllowed(op)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := ts.IsAllowed(stranger)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, ts.Initialize(stranger), "second initialization")
}

func TestCopyStake(t *testing.T) {
	ts := newTest(t)
	ts.delegateOld(operator, units(300))

	assert.True(t, errors.Is(ts.CopyStake(owner, operator), reverts.ErrOperatorNotAllowed))
	require.NoError(t, ts.AllowOperators(backerOwner, []thor.Address{operator, operator2}))

	assert.True(t, errors.Is(ts.CopyStake(owner, operator2), reverts.ErrNotDelegated))
	assert.True(t, errors.Is(ts.CopyStake(stranger, operator), reverts.ErrNotAuthorized))
	require.NoError(t, ts.CopyStake(owner, operator))

	d, err := ts.successor.GetDelegation(operator)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, delegation.AccountOwner(backerAddr), d.Owner)
	assert.Equal(t, beneficiary, d.Beneficiary)
	assert.Equal(t, authorizer, d.Authorizer)
	assert.Equal(t, 0, units(300).Cmp(d.Amount))
	ts.assertBalance(backerAddr, units(9_700))

	c, err := ts.GetCopy(operator)
	require.NoError(t, err)
	assert.Equal(t, owner, c.Owner)
	assert.Equal(t, genesis, c.CopiedAt)

	assert.True(t, errors.Is(ts.CopyStake(owner, operator), reverts.ErrAlreadyCopied))
}

func TestCopyStake_OnceEvenAfterRecovery(t *testing.T) {
	ts := newTest(t)
	ts.delegateOld(operator, units(300))
	require.NoError(t, ts.AllowOperator(backerOwner, operator))
	require.NoError(t, ts.CopyStake(owner, operator))

	ts.clock.Advance(ts.old.InitializationPeriod() + 1)
	require.NoError(t, ts.old.Undelegate(owner, operator))
	ts.clock.Advance(ts.old.UndelegationPeriod() + 1)
	require.NoError(t, ts.old.RecoverStake(owner, operator))

	ts.delegateOld(operator, units(300))
	assert.True(t, errors.Is(ts.CopyStake(owner, operator), reverts.ErrAlreadyCopied))
}

func TestCopyStake_GrantOwned(t *testing.T) {
	ts := newTest(t)
	require.NoError(t, ts.token.Mint(manager, units(1000)))
	id, err := ts.bridge.CreateGrant(manager, grant.Params{
		Grantee:   grantee,
		Amount:    units(1000),
		Unlocking: grant.Unlocking{Start: genesis, Cliff: genesis, Duration: thor.Year},
	})
	require.NoError(t, err)
	require.NoError(t, ts.bridge.Stake(grantee, id, operator, beneficiary, authorizer, units(500)))
	require.NoError(t, ts.AllowOperator(backerOwner, operator))

	assert.True(t, errors.Is(ts.CopyStake(bridgeAddr, operator), reverts.ErrNotAuthorized), "the bridge is only the owner of record")
	assert.True(t, errors.Is(ts.CopyStake(manager, operator), reverts.ErrNotAuthorized))
	require.NoError(t, ts.CopyStake(grantee, operator))

	c, err := ts.GetCopy(operator)
	require.NoError(t, err)
	assert.Equal(t, grantee, c.Owner)
}

func TestPayBack(t *testing.T) {
	ts := newTest(t)
	ts.delegateOld(operator, units(300))
	require.NoError(t, ts.AllowOperator(backerOwner, operator))

	assert.True(t, errors.Is(ts.PayBack(owner, operator, units(300)), reverts.ErrNotCopied))
	require.NoError(t, ts.CopyStake(owner, operator))
	require.NoError(t, ts.token.Mint(owner, units(300)))

	assert.True(t, errors.Is(ts.PayBack(stranger, operator, units(300)), reverts.ErrNotAuthorized))
	assert.True(t, errors.Is(ts.PayBack(owner, operator, units(299)), reverts.ErrUnexpectedAmount))
	require.NoError(t, ts.PayBack(owner, operator, units(300)))

	ref, err := ts.successor.OwnerOf(operator)
	require.NoError(t, err)
	assert.Equal(t, delegation.AccountOwner(owner), ref)
	ts.assertBalance(backerAddr, units(10_000))
	ts.assertBalance(owner, new(big.Int))

	assert.True(t, errors.Is(ts.PayBack(owner, operator, units(300)), reverts.ErrAlreadyPaidBack))
	assert.True(t, errors.Is(ts.Undelegate(owner, operator), reverts.ErrAlreadyPaidBack))
}

func TestPayBack_FullAmountAfterSlash(t *testing.T) {
	ts := newTest(t)
	ts.delegateOld(operator, units(300))
	require.NoError(t, ts.AllowOperator(backerOwner, operator))
	require.NoError(t, ts.CopyStake(owner, operator))

	// the successor stake is slashed
	slasher := thor.BytesToAddress([]byte("slasher"))
	require.NoError(t, ts.registry.Approve(manager, slasher))
	require.NoError(t, ts.successor.AuthorizeOperatorContract(authorizer, operator, slasher))
	ts.clock.Advance(ts.successor.InitializationPeriod() + 1)
	require.NoError(t, ts.successor.Slash(slasher, units(100), []thor.Address{operator}))

	require.NoError(t, ts.token.Mint(owner, units(300)))
	assert.True(t, errors.Is(ts.PayBack(owner, operator, units(200)), reverts.ErrUnexpectedAmount))
	require.NoError(t, ts.PayBack(owner, operator, units(300)))

	balance, err := ts.successor.BalanceOf(operator)
	require.NoError(t, err)
	assert.Equal(t, 0, units(200).Cmp(balance))
}

func TestUndelegateAndRecover(t *testing.T) {
	ts := newTest(t)
	ts.delegateOld(operator, units(300))
	ts.delegateOld(operator2, units(300))
	require.NoError(t, ts.AllowOperators(backerOwner, []thor.Address{operator, operator2}))
	require.NoError(t, ts.CopyStake(owner, operator))
	require.NoError(t, ts.CopyStake(owner, operator2))

	ts.clock.Advance(ts.successor.InitializationPeriod() + 1)
	assert.True(t, errors.Is(ts.Undelegate(stranger, operator), reverts.ErrNotAuthorized))
	require.NoError(t, ts.Undelegate(operator, operator))

	ts.clock.Advance(ts.successor.UndelegationPeriod() + 1)
	assert.True(t, errors.Is(ts.RecoverStake(owner, operator), reverts.ErrNotAuthorized))
	require.NoError(t, ts.RecoverStake(backerOwner, operator))
	ts.assertBalance(backerAddr, units(9_700))

	assert.True(t, errors.Is(ts.ForceUndelegate(owner, operator2), reverts.ErrNotAuthorized))
	assert.True(t, errors.Is(ts.ForceUndelegate(backerOwner, operator2), reverts.ErrBackingNotExpired))
	ts.clock.Set(genesis + thor.MaxBackingDuration)
	require.NoError(t, ts.ForceUndelegate(backerOwner, operator2))

	assert.True(t, errors.Is(ts.Withdraw(stranger, units(1)), reverts.ErrNotAuthorized))
	require.NoError(t, ts.Withdraw(backerOwner, units(9_700)))
	ts.assertBalance(backerOwner, units(9_700))
	ts.assertBalance(backerAddr, new(big.Int))
}
