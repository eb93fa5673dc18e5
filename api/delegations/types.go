// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegations

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/builtin/staking/delegation"
	"github.com/vechain/stakeledger/builtin/staking/locks"
	"github.com/vechain/stakeledger/thor"
)

type Owner struct {
	Kind    string       `json:"kind"`
	Address thor.Address `json:"address"`
	GrantID uint64       `json:"grantID,omitempty"`
}

type TopUp struct {
	Amount      *math.HexOrDecimal256 `json:"amount"`
	InitiatedAt uint64                `json:"initiatedAt"`
}

type Delegation struct {
	Operator      thor.Address          `json:"operator"`
	Status        string                `json:"status"`
	Amount        *math.HexOrDecimal256 `json:"amount"`
	Owner         Owner                 `json:"owner"`
	Beneficiary   thor.Address          `json:"beneficiary"`
	Authorizer    thor.Address          `json:"authorizer"`
	Funder        thor.Address          `json:"funder"`
	Escrow        *thor.Address         `json:"escrow,omitempty"`
	Escrowed      *math.HexOrDecimal256 `json:"escrowed,omitempty"`
	CreatedAt     uint64                `json:"createdAt"`
	UndelegatedAt uint64                `json:"undelegatedAt"`
	TopUp         *TopUp                `json:"topUp,omitempty"`
	Locked        bool                  `json:"locked"`
}

func amount(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(v)
}

func convertDelegation(operator thor.Address, d *delegation.Delegation, status staking.Status, locked bool) *Delegation {
	res := &Delegation{
		Operator: operator,
		Status:   status.String(),
		Amount:   amount(d.Amount),
		Owner: Owner{
			Kind:    d.Owner.Kind.String(),
			Address: d.Owner.Address,
			GrantID: d.Owner.GrantID,
		},
		Beneficiary:   d.Beneficiary,
		Authorizer:    d.Authorizer,
		Funder:        d.Funder,
		CreatedAt:     d.CreatedAt,
		UndelegatedAt: d.UndelegatedAt,
		Locked:        locked,
	}
	if !d.Escrow.IsZero() {
		escrow := d.Escrow
		res.Escrow = &escrow
		res.Escrowed = amount(d.Escrowed)
	}
	if d.TopUp.IsPending() {
		res.TopUp = &TopUp{Amount: amount(d.TopUp.Amount), InitiatedAt: d.TopUp.InitiatedAt}
	}
	return res
}

type Lock struct {
	Creator thor.Address `json:"creator"`
	Expiry  uint64       `json:"expiry"`
	Expired bool         `json:"expired"`
}

func convertLocks(ls []locks.Lock, now uint64) []*Lock {
	res := make([]*Lock, 0, len(ls))
	for _, l := range ls {
		res = append(res, &Lock{Creator: l.Creator, Expiry: l.Expiry, Expired: l.IsExpired(now)})
	}
	return res
}

type Stake struct {
	Contract   thor.Address          `json:"contract"`
	Active     *math.HexOrDecimal256 `json:"active"`
	Eligible   *math.HexOrDecimal256 `json:"eligible"`
	HasMinimum bool                  `json:"hasMinimumStake"`
	Authorized bool                  `json:"authorized"`
}

type Schedule struct {
	Now                  uint64                `json:"now"`
	MinimumStake         *math.HexOrDecimal256 `json:"minimumStake"`
	InitializationPeriod uint64                `json:"initializationPeriod"`
	UndelegationPeriod   uint64                `json:"undelegationPeriod"`
	MaximumLockDuration  uint64                `json:"maximumLockDuration"`
	TotalStaked          *math.HexOrDecimal256 `json:"totalStaked"`
	Burned               *math.HexOrDecimal256 `json:"burned"`
}
