// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package grant

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
)

func TestUnlocking_Unlocked(t *testing.T) {
	u := Unlocking{Start: 1000, Cliff: 1100, Duration: 400}
	amount := big.NewInt(1000)

	tests := []struct {
		at       uint64
		expected int64
	}{
		{0, 0},
		{1000, 0},
		{1099, 0},
		{1100, 250},
		{1200, 500},
		{1399, 997},
		{1400, 1000},
		{5000, 1000},
	}
	for _, tt := range tests {
		got := u.Unlocked(amount, tt.at)
		assert.Equal(t, tt.expected, got.Int64(), "unlocked at %d", tt.at)
	}

	instant := Unlocking{Start: 1000, Cliff: 1000}
	assert.Equal(t, int64(0), instant.Unlocked(amount, 999).Int64())
	assert.Equal(t, int64(1000), instant.Unlocked(amount, 1000).Int64())
}

func TestCreateGrant(t *testing.T) {
	ts := newTest(t)

	id := ts.Grant(units(1000), true, PolicyParams{})
	assert.Equal(t, uint64(1), id)
	id2 := ts.Grant(units(500), false, PolicyParams{Kind: GuaranteedMinimum})
	assert.Equal(t, uint64(2), id2)

	g := ts.MustGrant(id)
	assert.Equal(t, manager, g.Manager)
	assert.Equal(t, grantee, g.Grantee)
	assert.Equal(t, 0, units(1000).Cmp(g.Amount))
	assert.Equal(t, schedule, g.Unlocking)
	assert.True(t, g.Revocable)
	assert.False(t, g.Managed)
	assert.Equal(t, 0, g.Withdrawn.Sign())

	ts.AssertBalance(manager, new(big.Int)).
		AssertBalance(ts.Address(), units(1500)).
		AssertHeld(id, id2)

	missing, err := ts.GetGrant(42)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateGrant_Errors(t *testing.T) {
	ts := newTest(t)
	require.NoError(t, ts.token.Mint(manager, units(10)))

	tests := []struct {
		name     string
		params   Params
		expected error
	}{
		{"zero grantee", Params{Amount: units(1), Unlocking: schedule}, reverts.ErrInvalidGrantee},
		{"zero amount", Params{Grantee: grantee, Amount: new(big.Int), Unlocking: schedule}, reverts.ErrInvalidArgument},
		{"cliff before start", Params{Grantee: grantee, Amount: units(1), Unlocking: Unlocking{Start: 10, Cliff: 5, Duration: 10}}, reverts.ErrInvalidArgument},
		{"cliff after end", Params{Grantee: grantee, Amount: units(1), Unlocking: Unlocking{Start: 10, Cliff: 30, Duration: 10}}, reverts.ErrInvalidArgument},
		{"unknown policy", Params{Grantee: grantee, Amount: units(1), Unlocking: schedule, Policy: PolicyParams{Kind: 7}}, reverts.ErrInvalidArgument},
		{"unfunded", Params{Grantee: grantee, Amount: units(11), Unlocking: schedule}, reverts.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.CreateGrant(manager, tt.params)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
		})
	}
}

func TestWithdraw(t *testing.T) {
	ts := newTest(t)
	id := ts.Grant(units(1000), false, PolicyParams{})

	assert.True(t, errors.Is(ts.Withdraw(grantee, id), reverts.ErrNothingToWithdraw), "before the cliff")
	ts.AssertWithdrawable(id, new(big.Int))

	ts.AdvanceTo(thor.Year)
	ts.AssertWithdrawable(id, units(250))
	assert.True(t, errors.Is(ts.Withdraw(stranger, id), reverts.ErrNotAuthorized))
	assert.True(t, errors.Is(ts.Withdraw(manager, id), reverts.ErrNotAuthorized))

	require.NoError(t, ts.Withdraw(grantee, id))
	ts.AssertBalance(grantee, units(250)).AssertWithdrawable(id, new(big.Int))
	assert.True(t, errors.Is(ts.Withdraw(grantee, id), reverts.ErrNothingToWithdraw), "nothing new unlocked")

	ts.AdvanceTo(2 * thor.Year)
	ts.AssertWithdrawable(id, units(250))

	ts.AdvanceTo(10 * thor.Year)
	require.NoError(t, ts.Withdraw(grantee, id))
	ts.AssertBalance(grantee, units(1000)).AssertBalance(ts.Address(), new(big.Int)).AssertHeld(id)
}

func TestRevoke_Errors(t *testing.T) {
	ts := newTest(t)
	id := ts.Grant(units(1000), true, PolicyParams{})
	fixed := ts.Grant(units(1000), false, PolicyParams{})

	assert.True(t, errors.Is(ts.Revoke(grantee, id), reverts.ErrNotAuthorized))
	assert.True(t, errors.Is(ts.Revoke(manager, fixed), reverts.ErrNotRevocable))
	require.NoError(t, ts.Revoke(manager, id))
	assert.True(t, errors.Is(ts.Revoke(manager, id), reverts.ErrAlreadyRevoked))
	assert.True(t, errors.Is(ts.Revoke(manager, 99), reverts.ErrInvalidArgument))
}

func TestRevoke_RefundCorrectness(t *testing.T) {
	amount := units(1000)
	duration := schedule.Duration

	tests := []struct {
		name     string
		elapsed  uint64
		unlocked *big.Int
	}{
		{"at start", 0, new(big.Int)},
		{"before cliff", thor.Year / 2, new(big.Int)},
		{"at cliff", thor.Year, units(250)},
		{"half way", duration / 2, units(500)},
		{"three quarters", duration * 3 / 4, units(750)},
		{"odd fraction", duration / 3, new(big.Int).Div(new(big.Int).Mul(amount, new(big.Int).SetUint64(duration/3)), new(big.Int).SetUint64(duration))},
		{"after end", duration + 1, amount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTest(t)
			id := ts.Grant(amount, true, PolicyParams{})
			ts.AdvanceTo(tt.elapsed)

			require.NoError(t, ts.Revoke(manager, id))
			refund := new(big.Int).Sub(amount, tt.unlocked)

			g := ts.MustGrant(id)
			assert.Equal(t, 0, refund.Cmp(g.RevokedAmount), "refund: got %v, expected %v", g.RevokedAmount, refund)
			ts.AssertBalance(manager, refund)

			// unlocking stays frozen
			ts.AdvanceTo(10 * duration)
			w, err := ts.Withdrawable(id)
			require.NoError(t, err)
			assert.True(t, w.Cmp(new(big.Int).Sub(amount, refund)) <= 0)
			assert.Equal(t, 0, tt.unlocked.Cmp(w))

			if tt.unlocked.Sign() > 0 {
				require.NoError(t, ts.Withdraw(grantee, id))
			}
			ts.AssertBalance(grantee, tt.unlocked).AssertBalance(ts.Address(), new(big.Int))
			assert.True(t, errors.Is(ts.WithdrawRevoked(manager, id), reverts.ErrNothingToWithdraw))
		})
	}
}

func TestRevoke_WithStake(t *testing.T) {
	ts := newTest(t)
	id := ts.Grant(units(1000), true, PolicyParams{})

	ts.AdvanceTo(2 * thor.Year)
	require.NoError(t, ts.Stake(grantee, id, operator, grantee, authorizer, units(600)))
	require.NoError(t, ts.Revoke(manager, id))

	g := ts.MustGrant(id)
	assert.Equal(t, 0, units(500).Cmp(g.RevokedAmount))

	// only the retained part is settled while the stake is out
	ts.AssertBalance(manager, units(200)).AssertWithdrawable(id, units(200)).AssertHeld(id)
	assert.True(t, errors.Is(ts.WithdrawRevoked(manager, id), reverts.ErrNothingToWithdraw))

	// the manager may act on the stake of a revoked grant
	require.NoError(t, ts.CancelStake(manager, operator))
	ts.AssertWithdrawable(id, units(500)).AssertHeld(id)

	assert.True(t, errors.Is(ts.WithdrawRevoked(grantee, id), reverts.ErrNotAuthorized))
	require.NoError(t, ts.WithdrawRevoked(manager, id))
	ts.AssertBalance(manager, units(500))
	assert.True(t, errors.Is(ts.WithdrawRevoked(manager, id), reverts.ErrNothingToWithdraw))

	require.NoError(t, ts.Withdraw(grantee, id))
	ts.AssertBalance(grantee, units(500)).AssertBalance(ts.Address(), new(big.Int))
}

func TestStakeableAmount_Policies(t *testing.T) {
	ts := newTest(t)
	permissive := ts.Grant(units(1000), false, PolicyParams{Kind: Permissive})
	guaranteed := ts.Grant(units(1000), false, PolicyParams{Kind: GuaranteedMinimum})
	adaptive := ts.Grant(units(1000), false, PolicyParams{Kind: Adaptive, StakeAhead: thor.Year, Multiplier: 3})

	tests := []struct {
		name     string
		at       uint64
		id       uint64
		expected *big.Int
	}{
		{"permissive at start", 0, permissive, units(1000)},
		{"guaranteed before cliff", 0, guaranteed, minimumStake},
		{"adaptive before cliff", 0, adaptive, units(300)},
		{"guaranteed half way", 2 * thor.Year, guaranteed, units(500)},
		{"adaptive half way", 2 * thor.Year, adaptive, units(750)},
		{"adaptive near end", 4*thor.Year - 1, adaptive, units(1000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.AdvanceTo(tt.at)
			got, err := ts.StakeableAmount(tt.id)
			require.NoError(t, err)
			assert.Equal(t, 0, tt.expected.Cmp(got), "got %v, expected %v", got, tt.expected)
		})
	}
}

func TestPolicies_Direct(t *testing.T) {
	g := &Grant{Amount: big.NewInt(1000), Withdrawn: big.NewInt(600), Unlocking: Unlocking{Start: 0, Cliff: 0, Duration: 100}}
	g.normalize()

	assert.Equal(t, int64(400), PermissivePolicy{}.StakeableAmount(50, g, big.NewInt(10)).Int64())
	// unlocked 500 minus withdrawn 600 falls back to the minimum
	assert.Equal(t, int64(10), GuaranteedMinimumPolicy{}.StakeableAmount(50, g, big.NewInt(10)).Int64())
	// capped by what remains
	assert.Equal(t, int64(400), GuaranteedMinimumPolicy{}.StakeableAmount(50, g, big.NewInt(1000)).Int64())
	assert.Equal(t, int64(300), AdaptivePolicy{StakeAhead: 40, Multiplier: 2}.StakeableAmount(50, g, big.NewInt(10)).Int64())
}
