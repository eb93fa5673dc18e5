// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotDelegations = thor.BytesToBytes32([]byte(("delegations")))
	slotTotalStaked = thor.BytesToBytes32([]byte(("delegations-total-staked")))
)

type Service struct {
	delegations *solidity.Mapping[thor.Address, *Delegation]
	totalStaked *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		delegations: solidity.NewMapping[thor.Address, *Delegation](sctx, slotDelegations),
		totalStaked: solidity.NewUint256(sctx, slotTotalStaked),
	}
}

// GetDelegation returns the record of an operator, nil if it never had one.
func (s *Service) GetDelegation(operator thor.Address) (*Delegation, error) {
	d, err := s.delegations.Get(operator)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delegation")
	}
	if d == nil {
		return nil, nil
	}
	if d.Amount == nil {
		d.Amount = new(big.Int)
	}
	if d.TopUp.Amount == nil {
		d.TopUp.Amount = new(big.Int)
	}
	if d.Escrowed == nil {
		d.Escrowed = new(big.Int)
	}
	return d, nil
}

// Add stores a fresh delegation, replacing a settled one.
func (s *Service) Add(operator thor.Address, del *Delegation) error {
	if err := s.delegations.Upsert(operator, del); err != nil {
		return errors.Wrap(err, "failed to set delegation")
	}
	return s.totalStaked.Add(del.Total())
}

func (s *Service) Update(operator thor.Address, del *Delegation) error {
	if err := s.delegations.Update(operator, del); err != nil {
		return errors.Wrap(err, "failed to update delegation")
	}
	return nil
}

// AddStake accounts value entering the ledger.
func (s *Service) AddStake(amount *big.Int) error {
	return s.totalStaked.Add(amount)
}

// SubStake accounts value leaving the ledger.
func (s *Service) SubStake(amount *big.Int) error {
	return s.totalStaked.Sub(amount)
}

// TotalStaked returns the value held for all operators, pending top-ups included.
func (s *Service) TotalStaked() (*big.Int, error) {
	return s.totalStaked.Get()
}
