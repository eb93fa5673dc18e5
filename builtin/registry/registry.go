// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry tracks which external contracts may act on delegations.
package registry

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var (
	logger = log.WithContext("pkg", "registry")

	slotGovernance     = thor.BytesToBytes32([]byte("governance"))
	slotRegistryKeeper = thor.BytesToBytes32([]byte("registry-keeper"))
	slotPanicButton    = thor.BytesToBytes32([]byte("panic-button"))
	slotStatuses       = thor.BytesToBytes32([]byte("contract-statuses"))
	slotRecognized     = thor.BytesToBytes32([]byte("recognized-claimants"))
)

// Status of an external contract. It only moves forward.
type Status uint8

const (
	StatusNew Status = iota
	StatusApproved
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusApproved:
		return "approved"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

type Registry struct {
	sctx           *solidity.Context
	governance     *solidity.Raw[thor.Address]
	registryKeeper *solidity.Raw[thor.Address]
	panicButton    *solidity.Raw[thor.Address]
	statuses       *solidity.Mapping[thor.Address, Status]
	recognized     *solidity.Mapping[solidity.BytesKey, bool]
}

func New(addr thor.Address, state *state.State) *Registry {
	sctx := solidity.NewContext(addr, state)
	return &Registry{
		sctx:           sctx,
		governance:     solidity.NewRaw[thor.Address](sctx, slotGovernance),
		registryKeeper: solidity.NewRaw[thor.Address](sctx, slotRegistryKeeper),
		panicButton:    solidity.NewRaw[thor.Address](sctx, slotPanicButton),
		statuses:       solidity.NewMapping[thor.Address, Status](sctx, slotStatuses),
		recognized:     solidity.NewMapping[solidity.BytesKey, bool](sctx, slotRecognized),
	}
}

type roleEvent struct {
	Role string
}

type statusEvent struct {
	Status uint8
}

// Initialize sets the roles, once.
func (r *Registry) Initialize(governance, registryKeeper, panicButton thor.Address) error {
	current, err := r.governance.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return errors.New("registry already initialized")
	}
	for _, role := range []struct {
		raw  *solidity.Raw[thor.Address]
		addr thor.Address
	}{
		{r.governance, governance},
		{r.registryKeeper, registryKeeper},
		{r.panicButton, panicButton},
	} {
		if role.addr.IsZero() {
			return errors.Wrap(reverts.ErrInvalidArgument, "zero role address")
		}
		if err := role.raw.Upsert(role.addr); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Governance() (thor.Address, error)     { return r.governance.Get() }
func (r *Registry) RegistryKeeper() (thor.Address, error) { return r.registryKeeper.Get() }
func (r *Registry) PanicButton() (thor.Address, error)    { return r.panicButton.Get() }

func (r *Registry) setRole(caller thor.Address, role *solidity.Raw[thor.Address], name string, addr thor.Address) error {
	gov, err := r.governance.Get()
	if err != nil {
		return err
	}
	if caller != gov {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not governance", caller)
	}
	if addr.IsZero() {
		return errors.Wrap(reverts.ErrInvalidArgument, "zero role address")
	}
	if err := role.Upsert(addr); err != nil {
		return err
	}
	logger.Info("role updated", "role", name, "address", addr)
	return r.sctx.Emit("RoleUpdated", roleEvent{name}, solidity.AddressTopic(addr))
}

func (r *Registry) SetRegistryKeeper(caller, keeper thor.Address) error {
	return r.setRole(caller, r.registryKeeper, "registryKeeper", keeper)
}

func (r *Registry) SetPanicButton(caller, panicButton thor.Address) error {
	return r.setRole(caller, r.panicButton, "panicButton", panicButton)
}

func (r *Registry) TransferGovernance(caller, governance thor.Address) error {
	return r.setRole(caller, r.governance, "governance", governance)
}

func (r *Registry) Status(contract thor.Address) (Status, error) {
	s, err := r.statuses.Get(contract)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get contract status")
	}
	return s, nil
}

func (r *Registry) IsNew(contract thor.Address) (bool, error) {
	s, err := r.Status(contract)
	return s == StatusNew, err
}

func (r *Registry) IsApproved(contract thor.Address) (bool, error) {
	s, err := r.Status(contract)
	return s == StatusApproved, err
}

func (r *Registry) IsDisabled(contract thor.Address) (bool, error) {
	s, err := r.Status(contract)
	return s == StatusDisabled, err
}

// Approve moves a New contract to Approved. Registry keeper only.
func (r *Registry) Approve(caller, contract thor.Address) error {
	keeper, err := r.registryKeeper.Get()
	if err != nil {
		return err
	}
	if caller != keeper {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the registry keeper", caller)
	}
	return r.transition(contract, StatusNew, StatusApproved, reverts.ErrContractNotNew)
}

// Disable moves an Approved contract to Disabled, for good. Panic button only.
func (r *Registry) Disable(caller, contract thor.Address) error {
	panicButton, err := r.panicButton.Get()
	if err != nil {
		return err
	}
	if caller != panicButton {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the panic button", caller)
	}
	return r.transition(contract, StatusApproved, StatusDisabled, reverts.ErrNotApproved)
}

func (r *Registry) transition(contract thor.Address, from, to Status, errWrongStatus error) error {
	s, err := r.Status(contract)
	if err != nil {
		return err
	}
	if s != from {
		return errors.Wrapf(errWrongStatus, "contract %v is %v", contract, s)
	}
	if err := r.statuses.Upsert(contract, to); err != nil {
		return errors.Wrap(err, "failed to set contract status")
	}
	logger.Info("contract status changed", "contract", contract, "status", to)
	return r.sctx.Emit("ContractStatusChanged", statusEvent{uint8(to)}, solidity.AddressTopic(contract))
}

// Recognize records that source accepts claimant to claim its authority.
func (r *Registry) Recognize(source, claimant thor.Address) error {
	if claimant.IsZero() || claimant == source {
		return errors.Wrap(reverts.ErrInvalidArgument, "invalid claimant")
	}
	if err := r.recognized.Upsert(solidity.CompositeKey(source, claimant), true); err != nil {
		return err
	}
	return r.sctx.Emit("ClaimantRecognized", struct{}{}, solidity.AddressTopic(source), solidity.AddressTopic(claimant))
}

func (r *Registry) Unrecognize(source, claimant thor.Address) error {
	r.recognized.Delete(solidity.CompositeKey(source, claimant))
	return r.sctx.Emit("ClaimantUnrecognized", struct{}{}, solidity.AddressTopic(source), solidity.AddressTopic(claimant))
}

func (r *Registry) IsRecognized(source, claimant thor.Address) (bool, error) {
	return r.recognized.Get(solidity.CompositeKey(source, claimant))
}
