// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package grant

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

// Unlocking is a linear unlock schedule with a cliff. Cliff is a timestamp, not a duration.
type Unlocking struct {
	Start    uint64
	Cliff    uint64
	Duration uint64
}

// Unlocked returns the part of amount unlocked at the given time.
func (u Unlocking) Unlocked(amount *big.Int, at uint64) *big.Int {
	switch {
	case at < u.Cliff || at < u.Start:
		return new(big.Int)
	case u.Duration == 0 || at >= u.Start+u.Duration:
		return new(big.Int).Set(amount)
	}
	unlocked := new(big.Int).Mul(amount, new(big.Int).SetUint64(at-u.Start))
	return unlocked.Div(unlocked, new(big.Int).SetUint64(u.Duration))
}

// Stake is the bridge's record of value it delegated to an operator.
type Stake struct {
	GrantID                 uint64
	Amount                  *big.Int
	UndelegationInitiatedAt uint64
}

type Grant struct {
	ID        uint64
	Manager   thor.Address
	Grantee   thor.Address
	Amount    *big.Int
	Withdrawn *big.Int
	Staked    *big.Int // delegated through the bridge and not returned
	Escrowed  *big.Int // delegated through the bridge and recovered into the escrow

	RevokedAt        uint64
	RevokedAmount    *big.Int
	RevokedWithdrawn *big.Int

	Unlocking Unlocking
	Revocable bool
	Policy    PolicyParams

	Managed             bool
	RequestedNewGrantee thor.Address
	PreviousGrantee     thor.Address
	ReassignedAt        uint64
}

func (g *Grant) IsRevoked() bool {
	return g.RevokedAt != 0
}

// UnlockedAmount returns the unlocked part of the grant, frozen once revoked.
func (g *Grant) UnlockedAmount(now uint64) *big.Int {
	if g.IsRevoked() {
		return new(big.Int).Sub(g.Amount, g.RevokedAmount)
	}
	return g.Unlocking.Unlocked(g.Amount, now)
}

// Remaining returns everything not withdrawn yet.
func (g *Grant) Remaining() *big.Int {
	return new(big.Int).Sub(g.Amount, g.Withdrawn)
}

// Held returns the grant's value the bridge holds right now.
func (g *Grant) Held() *big.Int {
	held := g.Remaining()
	held.Sub(held, g.Staked)
	held.Sub(held, g.Escrowed)
	held.Sub(held, g.RevokedWithdrawn)
	if held.Sign() < 0 {
		return new(big.Int)
	}
	return held
}

// retained returns the value of the grant that is neither staked nor escrowed.
// After revocation it never decreases, as stake only leaves the ledger for the
// bridge or the escrow.
func (g *Grant) retained() *big.Int {
	r := new(big.Int).Sub(g.Amount, g.Staked)
	return r.Sub(r, g.Escrowed)
}

// Withdrawable returns what the grantee may withdraw now. Once revoked, the
// frozen schedule applies to the retained value only, as the escrow settles
// the escrowed value itself.
func (g *Grant) Withdrawable(now uint64) *big.Int {
	var w *big.Int
	if g.IsRevoked() {
		w = g.Unlocking.Unlocked(g.retained(), g.RevokedAt)
		w.Sub(w, g.Withdrawn)
	} else {
		w = g.Unlocking.Unlocked(g.Amount, now)
		w.Sub(w, g.Withdrawn)
		w.Sub(w, g.Staked)
		w.Sub(w, g.Escrowed)
	}
	if w.Sign() < 0 {
		return new(big.Int)
	}
	if held := g.Held(); w.Cmp(held) > 0 {
		return held
	}
	return w
}

// RevokedWithdrawable returns what the manager may take back from the bridge
// after revocation. The grantee's withdrawable part is never touched.
func (g *Grant) RevokedWithdrawable(now uint64) *big.Int {
	if !g.IsRevoked() {
		return new(big.Int)
	}
	retained := g.retained()
	owed := new(big.Int).Sub(retained, g.Unlocking.Unlocked(retained, g.RevokedAt))
	owed.Sub(owed, g.RevokedWithdrawn)
	free := new(big.Int).Sub(g.Held(), g.Withdrawable(now))
	if owed.Cmp(free) > 0 {
		owed = free
	}
	if owed.Sign() < 0 {
		return new(big.Int)
	}
	return owed
}

func (g *Grant) normalize() {
	for _, p := range []**big.Int{&g.Amount, &g.Withdrawn, &g.Staked, &g.Escrowed, &g.RevokedAmount, &g.RevokedWithdrawn} {
		if *p == nil {
			*p = new(big.Int)
		}
	}
}
