// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ops

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakeledger/builtin/grant"
	"github.com/vechain/stakeledger/thor"
)

type (
	addressArgs struct {
		Address thor.Address `json:"address"`
	}
	contractArgs struct {
		Contract thor.Address `json:"contract"`
	}
	claimantArgs struct {
		Claimant thor.Address `json:"claimant"`
	}
	transferArgs struct {
		To     thor.Address          `json:"to"`
		Amount *math.HexOrDecimal256 `json:"amount"`
	}
	operatorArgs struct {
		Operator thor.Address `json:"operator"`
	}
	delegateArgs struct {
		Operator    thor.Address          `json:"operator"`
		Beneficiary thor.Address          `json:"beneficiary"`
		Authorizer  thor.Address          `json:"authorizer"`
		Amount      *math.HexOrDecimal256 `json:"amount"`
	}
	topUpArgs struct {
		Operator thor.Address          `json:"operator"`
		Amount   *math.HexOrDecimal256 `json:"amount"`
	}
	undelegateAtArgs struct {
		Operator thor.Address `json:"operator"`
		At       uint64       `json:"at"`
	}
	newOwnerArgs struct {
		Operator thor.Address `json:"operator"`
		NewOwner thor.Address `json:"newOwner"`
	}
	lockArgs struct {
		Operator thor.Address `json:"operator"`
		Duration uint64       `json:"duration"`
	}
	releaseLockArgs struct {
		Operator thor.Address `json:"operator"`
		Contract thor.Address `json:"contract"`
	}
	authorizeArgs struct {
		Operator thor.Address `json:"operator"`
		Contract thor.Address `json:"contract"`
	}
	sourceArgs struct {
		Source thor.Address `json:"source"`
	}
	slashArgs struct {
		Amount    *math.HexOrDecimal256 `json:"amount"`
		Operators []thor.Address        `json:"operators"`
	}
	seizeArgs struct {
		Amount           *math.HexOrDecimal256 `json:"amount"`
		RewardMultiplier uint64                `json:"rewardMultiplier"`
		Reporter         thor.Address          `json:"reporter"`
		Operators        []thor.Address        `json:"operators"`
	}

	policyArgs struct {
		Kind       uint8  `json:"kind"`
		StakeAhead uint64 `json:"stakeAhead"`
		Multiplier uint64 `json:"multiplier"`
	}
	createGrantArgs struct {
		Grantee   thor.Address          `json:"grantee"`
		Amount    *math.HexOrDecimal256 `json:"amount"`
		Start     uint64                `json:"start"`
		Cliff     uint64                `json:"cliff"`
		Duration  uint64                `json:"duration"`
		Revocable bool                  `json:"revocable"`
		Policy    policyArgs            `json:"policy"`
	}
	grantArgs struct {
		ID uint64 `json:"id"`
	}
	reassignArgs struct {
		ID         uint64       `json:"id"`
		NewGrantee thor.Address `json:"newGrantee"`
	}
	grantStakeArgs struct {
		ID          uint64                `json:"id"`
		Operator    thor.Address          `json:"operator"`
		Beneficiary thor.Address          `json:"beneficiary"`
		Authorizer  thor.Address          `json:"authorizer"`
		Amount      *math.HexOrDecimal256 `json:"amount"`
	}
	grantTopUpArgs struct {
		ID       uint64                `json:"id"`
		Operator thor.Address          `json:"operator"`
		Amount   *math.HexOrDecimal256 `json:"amount"`
	}

	redelegateArgs struct {
		Operator    thor.Address          `json:"operator"`
		Amount      *math.HexOrDecimal256 `json:"amount"`
		NewOperator thor.Address          `json:"newOperator"`
		Beneficiary thor.Address          `json:"beneficiary"`
		Authorizer  thor.Address          `json:"authorizer"`
	}
	targetArgs struct {
		Target thor.Address `json:"target"`
	}
	migrateArgs struct {
		Operator thor.Address `json:"operator"`
		Target   thor.Address `json:"target"`
	}
	ledgerArgs struct {
		Ledger thor.Address `json:"ledger"`
	}

	operatorsArgs struct {
		Operators []thor.Address `json:"operators"`
	}
	payBackArgs struct {
		Operator thor.Address          `json:"operator"`
		Amount   *math.HexOrDecimal256 `json:"amount"`
	}
	amountArgs struct {
		Amount *math.HexOrDecimal256 `json:"amount"`
	}
)

// bigOf returns nil for a missing amount, which the contracts reject.
func bigOf(v *math.HexOrDecimal256) *big.Int {
	return (*big.Int)(v)
}

func (a *createGrantArgs) params() grant.Params {
	return grant.Params{
		Grantee: a.Grantee,
		Amount:  bigOf(a.Amount),
		Unlocking: grant.Unlocking{
			Start:    a.Start,
			Cliff:    a.Cliff,
			Duration: a.Duration,
		},
		Revocable: a.Revocable,
		Policy: grant.PolicyParams{
			Kind:       grant.PolicyKind(a.Policy.Kind),
			StakeAhead: a.Policy.StakeAhead,
			Multiplier: a.Policy.Multiplier,
		},
	}
}
