// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package authority keeps per-operator contract authorizations and
// delegated authority chains.
//
// A claimant contract may inherit the authority of a source contract.
// Chains are resolved by following parent pointers to a root, and
// every contract met on the way is checked against the registry.
package authority

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotAuthorizations = thor.BytesToBytes32([]byte(("operator-authorizations")))
	slotParents        = thor.BytesToBytes32([]byte(("delegated-authority")))
)

// maxChainLength bounds chain walks. Cycles are refused on claim, this only
// guards against corrupt state.
const maxChainLength = 32

// StatusReader reports the registry status of contracts.
type StatusReader interface {
	Status(contract thor.Address) (registry.Status, error)
}

type Service struct {
	authorizations *solidity.Mapping[solidity.BytesKey, bool]
	parents        *solidity.Mapping[thor.Address, thor.Address]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		authorizations: solidity.NewMapping[solidity.BytesKey, bool](sctx, slotAuthorizations),
		parents:        solidity.NewMapping[thor.Address, thor.Address](sctx, slotParents),
	}
}

func (s *Service) Authorize(operator, contract thor.Address) error {
	if err := s.authorizations.Upsert(solidity.CompositeKey(operator, contract), true); err != nil {
		return errors.Wrap(err, "failed to set authorization")
	}
	return nil
}

// IsAuthorized reports whether contract itself is in the operator's set.
func (s *Service) IsAuthorized(operator, contract thor.Address) (bool, error) {
	ok, err := s.authorizations.Get(solidity.CompositeKey(operator, contract))
	if err != nil {
		return false, errors.Wrap(err, "failed to get authorization")
	}
	return ok, nil
}

// Parent returns the source the claimant inherits from, zero if none.
func (s *Service) Parent(claimant thor.Address) (thor.Address, error) {
	parent, err := s.parents.Get(claimant)
	if err != nil {
		return thor.Address{}, errors.Wrap(err, "failed to get delegated authority")
	}
	return parent, nil
}

func (s *Service) HasParent(claimant thor.Address) (bool, error) {
	parent, err := s.Parent(claimant)
	return !parent.IsZero(), err
}

func (s *Service) SetParent(claimant, source thor.Address) error {
	if err := s.parents.Upsert(claimant, source); err != nil {
		return errors.Wrap(err, "failed to set delegated authority")
	}
	return nil
}

// Chain returns the contracts from contract up to its root, both included.
func (s *Service) Chain(contract thor.Address) ([]thor.Address, error) {
	chain := []thor.Address{contract}
	current := contract
	for i := 0; i < maxChainLength; i++ {
		parent, err := s.Parent(current)
		if err != nil {
			return nil, err
		}
		if parent.IsZero() {
			return chain, nil
		}
		chain = append(chain, parent)
		current = parent
	}
	return nil, errors.Errorf("delegated authority chain of %v too long", contract)
}

// Root returns the authority source of contract.
func (s *Service) Root(contract thor.Address) (thor.Address, error) {
	chain, err := s.Chain(contract)
	if err != nil {
		return thor.Address{}, err
	}
	return chain[len(chain)-1], nil
}

// InChain reports whether target is met walking up from contract.
func (s *Service) InChain(contract, target thor.Address) (bool, error) {
	chain, err := s.Chain(contract)
	if err != nil {
		return false, err
	}
	for _, c := range chain {
		if c == target {
			return true, nil
		}
	}
	return false, nil
}

// IsValid reports whether no contract in the chain is disabled and the root is approved.
func (s *Service) IsValid(statuses StatusReader, contract thor.Address) (bool, error) {
	chain, err := s.Chain(contract)
	if err != nil {
		return false, err
	}
	for i, c := range chain {
		status, err := statuses.Status(c)
		if err != nil {
			return false, err
		}
		if status == registry.StatusDisabled {
			return false, nil
		}
		if i == len(chain)-1 && status != registry.StatusApproved {
			return false, nil
		}
	}
	return true, nil
}

// IsAuthorizedForOperator reports whether contract has valid authority and
// its root is authorized by the operator.
func (s *Service) IsAuthorizedForOperator(statuses StatusReader, operator, contract thor.Address) (bool, error) {
	valid, err := s.IsValid(statuses, contract)
	if err != nil || !valid {
		return false, err
	}
	root, err := s.Root(contract)
	if err != nil {
		return false, err
	}
	return s.IsAuthorized(operator, root)
}
