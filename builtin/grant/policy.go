// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package grant

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
)

// Policy bounds how much of a grant may be delegated.
type Policy interface {
	StakeableAmount(now uint64, g *Grant, minimumStake *big.Int) *big.Int
}

type PolicyKind uint8

const (
	Permissive PolicyKind = iota
	GuaranteedMinimum
	Adaptive
)

// PolicyParams is the stored form of a policy.
type PolicyParams struct {
	Kind       PolicyKind
	StakeAhead uint64 // seconds, adaptive only
	Multiplier uint64 // of the minimum stake, adaptive only
}

// Policy returns the policy described by the params.
func (p PolicyParams) Policy() (Policy, error) {
	switch p.Kind {
	case Permissive:
		return PermissivePolicy{}, nil
	case GuaranteedMinimum:
		return GuaranteedMinimumPolicy{}, nil
	case Adaptive:
		return AdaptivePolicy{StakeAhead: p.StakeAhead, Multiplier: p.Multiplier}, nil
	default:
		return nil, errors.Wrapf(reverts.ErrInvalidArgument, "unknown policy %d", p.Kind)
	}
}

// PermissivePolicy lets everything not withdrawn be staked.
type PermissivePolicy struct{}

func (PermissivePolicy) StakeableAmount(_ uint64, g *Grant, _ *big.Int) *big.Int {
	return g.Remaining()
}

// GuaranteedMinimumPolicy allows the unlocked part, and at least the minimum stake.
type GuaranteedMinimumPolicy struct{}

func (GuaranteedMinimumPolicy) StakeableAmount(now uint64, g *Grant, minimumStake *big.Int) *big.Int {
	unlocked := g.UnlockedAmount(now)
	unlocked.Sub(unlocked, g.Withdrawn)
	return minBig(g.Remaining(), maxBig(unlocked, minimumStake))
}

// AdaptivePolicy allows what will be unlocked StakeAhead from now, and at
// least Multiplier times the minimum stake.
type AdaptivePolicy struct {
	StakeAhead uint64
	Multiplier uint64
}

func (p AdaptivePolicy) StakeableAmount(now uint64, g *Grant, minimumStake *big.Int) *big.Int {
	ahead := g.UnlockedAmount(now + p.StakeAhead)
	ahead.Sub(ahead, g.Withdrawn)
	floor := new(big.Int).Mul(minimumStake, new(big.Int).SetUint64(p.Multiplier))
	return minBig(g.Remaining(), maxBig(ahead, floor))
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

func maxBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
