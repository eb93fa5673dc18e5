// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/grant"
	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/builtin/staking/delegation"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

const genesis uint64 = 1_700_000_000

var (
	governance = thor.BytesToAddress([]byte("governance"))
	keeper     = thor.BytesToAddress([]byte("keeper"))
	panicBtn   = thor.BytesToAddress([]byte("panic"))
	admin      = thor.BytesToAddress([]byte("admin"))
	manager    = thor.BytesToAddress([]byte("manager"))
	grantee    = thor.BytesToAddress([]byte("grantee"))
	operator   = thor.BytesToAddress([]byte("operator"))
	authorizer = thor.BytesToAddress([]byte("authorizer"))
)

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), thor.Unit)
}

var roles = Roles{
	Governance:     governance,
	RegistryKeeper: keeper,
	PanicButton:    panicBtn,
	EscrowAdmin:    admin,
	BackerOwner:    admin,
}

func newContracts(t *testing.T) (*Contracts, *thor.ManualClock) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := thor.NewManualClock(genesis)
	c := New(state.NewStater(db).NewState(), clock, Deployment{DeployedAt: genesis})
	require.NoError(t, c.Initialize(&Genesis{
		Roles: roles,
		Alloc: map[thor.Address]*big.Int{
			manager: units(1_000_000),
			grantee: units(50_000),
		},
	}))
	return c, clock
}

func TestInitialize(t *testing.T) {
	c, _ := newContracts(t)

	ok, err := c.IsInitialized()
	require.NoError(t, err)
	assert.True(t, ok)

	owner, err := c.Escrow.Owner()
	require.NoError(t, err)
	assert.Equal(t, StakingAddress, owner)
	owner, err = c.EscrowV2.Owner()
	require.NoError(t, err)
	assert.Equal(t, StakingV2Address, owner)

	supply, err := c.Token.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, 0, units(1_050_000).Cmp(supply))

	assert.Error(t, c.Initialize(&Genesis{Roles: Roles{Governance: governance}}))
}

func TestInitialize_Params(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	c := New(state.NewStater(db).NewState(), thor.NewManualClock(genesis), Deployment{DeployedAt: genesis})
	require.NoError(t, c.Initialize(&Genesis{
		Roles:  roles,
		Params: map[string]uint64{staking.InitializationPeriod.Name(): thor.Hour},
	}))
	assert.Equal(t, thor.Hour, c.Staking.InitializationPeriod())
	assert.Equal(t, thor.Hour, c.StakingV2.InitializationPeriod())
	assert.Equal(t, thor.MaximumLockDuration, c.Staking.MaximumLockDuration())

	c = New(state.NewStater(db).NewState(), thor.NewManualClock(genesis), Deployment{DeployedAt: genesis})
	assert.Error(t, c.Initialize(&Genesis{
		Roles:  roles,
		Params: map[string]uint64{"no-such-param": 1},
	}))
}

func TestLookups(t *testing.T) {
	c, _ := newContracts(t)

	assert.Equal(t, c.Escrow, c.EscrowAt(EscrowAddress))
	assert.Equal(t, c.EscrowV2, c.EscrowAt(EscrowV2Address))
	assert.Nil(t, c.EscrowAt(StakingAddress))
	assert.Equal(t, c.StakingV2, c.LedgerAt(StakingV2Address))
	assert.Nil(t, c.LedgerAt(EscrowAddress))

	names := SortedNames()
	assert.Len(t, names, len(Names))
	assert.Equal(t, "escrow", names[0])
}

func TestGrantStakeRecoveredToEscrow(t *testing.T) {
	c, clock := newContracts(t)
	floor := c.Staking.MinimumStake()

	id, err := c.Grants.CreateGrant(manager, grant.Params{
		Grantee:   grantee,
		Amount:    new(big.Int).Mul(floor, big.NewInt(2)),
		Unlocking: grant.Unlocking{Start: genesis, Cliff: genesis, Duration: 4 * thor.Year},
	})
	require.NoError(t, err)
	require.NoError(t, c.Grants.Stake(grantee, id, operator, grantee, authorizer, floor))

	ref, err := c.Staking.OwnerOf(operator)
	require.NoError(t, err)
	assert.Equal(t, delegation.Grant, ref.Kind)

	clock.Advance(c.Staking.InitializationPeriod() + 1)
	require.NoError(t, c.Grants.Undelegate(grantee, operator))
	clock.Advance(c.Staking.UndelegationPeriod() + 1)
	require.NoError(t, c.Grants.RecoverStake(grantee, operator))

	deposited, err := c.Escrow.DepositedAmount(operator)
	require.NoError(t, err)
	assert.Equal(t, 0, floor.Cmp(deposited))

	held, err := c.Token.BalanceOf(EscrowAddress)
	require.NoError(t, err)
	assert.Equal(t, 0, floor.Cmp(held))
}

func TestGrantStakeOnSuccessor(t *testing.T) {
	c, clock := newContracts(t)
	floor := c.Staking.MinimumStake()
	var (
		operator2 = thor.BytesToAddress([]byte("operator2"))
		operator3 = thor.BytesToAddress([]byte("operator3"))
		operator4 = thor.BytesToAddress([]byte("operator4"))
	)

	id, err := c.Grants.CreateGrant(manager, grant.Params{
		Grantee:   grantee,
		Amount:    new(big.Int).Mul(floor, big.NewInt(4)),
		Unlocking: grant.Unlocking{Start: genesis, Cliff: genesis, Duration: 4 * thor.Year},
	})
	require.NoError(t, err)

	cycle := func(ledger *staking.Ledger, op thor.Address) {
		clock.Advance(ledger.InitializationPeriod() + 1)
		require.NoError(t, c.Grants.Undelegate(grantee, op))
		clock.Advance(thor.LongUndelegationPeriod + 1)
		require.NoError(t, c.Grants.RecoverStake(grantee, op))
	}
	assertBalance := func(addr thor.Address, expected *big.Int) {
		bal, err := c.Token.BalanceOf(addr)
		require.NoError(t, err)
		assert.Equal(t, 0, expected.Cmp(bal), "balance of %v: got %v, expected %v", addr, bal, expected)
	}

	// migrated value is redelegated by the successor escrow and comes back to it
	require.NoError(t, c.Grants.Stake(grantee, id, operator, grantee, authorizer, floor))
	cycle(c.Staking, operator)
	require.NoError(t, c.Escrow.AuthorizeEscrow(manager, EscrowV2Address))
	require.NoError(t, c.Escrow.Migrate(grantee, operator, c.EscrowV2))
	require.NoError(t, c.EscrowV2.Redelegate(grantee, operator, floor, operator2, grantee, authorizer))

	ref, err := c.StakingV2.OwnerOf(operator2)
	require.NoError(t, err)
	assert.Equal(t, delegation.GrantOwner(delegation.Grant, GrantBridgeAddr, id), ref)
	cycle(c.StakingV2, operator2)

	deposited, err := c.EscrowV2.DepositedAmount(operator2)
	require.NoError(t, err)
	assert.Equal(t, 0, floor.Cmp(deposited))
	assertBalance(StakingV2Address, new(big.Int))
	assertBalance(EscrowV2Address, floor)

	// once moved to the successor, the old escrow redelegates there and is paid back
	require.NoError(t, c.Grants.Stake(grantee, id, operator3, grantee, authorizer, floor))
	cycle(c.Staking, operator3)
	require.NoError(t, c.Escrow.TransferOwnership(admin, StakingV2Address))
	require.NoError(t, c.Escrow.Redelegate(grantee, operator3, floor, operator4, grantee, authorizer))
	assertBalance(EscrowAddress, new(big.Int))
	cycle(c.StakingV2, operator4)

	deposited, err = c.Escrow.DepositedAmount(operator4)
	require.NoError(t, err)
	assert.Equal(t, 0, floor.Cmp(deposited))
	assertBalance(StakingV2Address, new(big.Int))
	assertBalance(EscrowAddress, floor)

	// nothing is stranded: everything vests back to the grantee
	clock.Set(genesis + 4*thor.Year)
	for _, op := range []thor.Address{operator, operator2} {
		require.NoError(t, c.EscrowV2.Withdraw(grantee, op))
	}
	for _, op := range []thor.Address{operator3, operator4} {
		require.NoError(t, c.Escrow.Withdraw(grantee, op))
	}
	require.NoError(t, c.Grants.Withdraw(grantee, id))
	assertBalance(grantee, new(big.Int).Add(units(50_000), new(big.Int).Mul(floor, big.NewInt(4))))
	assertBalance(GrantBridgeAddr, new(big.Int))
	assertBalance(EscrowAddress, new(big.Int))
	assertBalance(EscrowV2Address, new(big.Int))
}
