// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staking/delegation"
	"github.com/vechain/stakeledger/thor"
)

type delegatedEvent struct {
	OwnerKind   uint8
	GrantID     uint64
	Beneficiary thor.Address
	Authorizer  thor.Address
	Amount      *big.Int
}

type amountEvent struct {
	Amount *big.Int
}

type undelegatedEvent struct {
	UndelegatedAt uint64
}

type ownershipEvent struct {
	NewOwner thor.Address
}

// CreateDelegation pulls amount from caller and opens a delegation for operator.
func (l *Ledger) CreateDelegation(
	caller thor.Address,
	operator thor.Address,
	owner delegation.OwnerRef,
	beneficiary thor.Address,
	authorizer thor.Address,
	amount *big.Int,
) error {
	logger.Debug("creating delegation", "operator", operator, "owner", owner, "amount", amount)

	if amount == nil || amount.Sign() < 0 {
		return errors.Wrap(reverts.ErrInvalidArgument, "invalid amount")
	}
	if operator.IsZero() || beneficiary.IsZero() || authorizer.IsZero() {
		return errors.Wrap(reverts.ErrInvalidArgument, "zero operator, beneficiary or authorizer")
	}
	now := l.now()
	if floor := l.floor.Current(now); amount.Cmp(floor) < 0 {
		return errors.Wrapf(reverts.ErrBelowMinimumStake, "%v below %v", amount, floor)
	}
	existing, err := l.delegationService.GetDelegation(operator)
	if err != nil {
		return err
	}
	if !existing.IsAbsent() {
		return errors.Wrapf(reverts.ErrOperatorInUse, "operator %v", operator)
	}
	if err := l.checkSource(caller, owner); err != nil {
		return err
	}
	if err := l.token.Transfer(caller, l.Address(), amount); err != nil {
		return err
	}

	del := &delegation.Delegation{
		Amount:      new(big.Int).Set(amount),
		Owner:       owner,
		Beneficiary: beneficiary,
		Authorizer:  authorizer,
		Funder:      caller,
		Escrowed:    new(big.Int),
		CreatedAt:   now,
		TopUp:       delegation.TopUp{Amount: new(big.Int)},
	}
	if l.fundedByEscrow(caller, owner) {
		del.Escrow = caller
		del.Escrowed.Set(amount)
	}
	if err := l.delegationService.Add(operator, del); err != nil {
		return err
	}
	l.lockService.Clear(operator)

	logger.Info("delegation created", "operator", operator, "owner", owner, "amount", amount)
	return l.sctx.Emit("StakeDelegated", delegatedEvent{
		OwnerKind:   uint8(owner.Kind),
		GrantID:     owner.GrantID,
		Beneficiary: beneficiary,
		Authorizer:  authorizer,
		Amount:      amount,
	}, solidity.AddressTopic(operator), solidity.AddressTopic(owner.Address))
}

// CancelStake returns the value of a delegation still initializing to its owner of record.
func (l *Ledger) CancelStake(caller, operator thor.Address) error {
	logger.Debug("cancelling stake", "operator", operator, "caller", caller)

	d, err := l.getExisting(operator)
	if err != nil {
		return err
	}
	if caller != operator && caller != d.Owner.Address {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v may not cancel %v", caller, operator)
	}
	if !d.IsInitializing(l.now(), l.InitializationPeriod()) {
		return errors.Wrapf(reverts.ErrInitializationOver, "operator %v", operator)
	}
	// each funder gets its own contribution back
	escrowed := d.EscrowShare()
	var escrow Depositor
	if escrowed.Sign() > 0 {
		if escrow, err = l.depositorFor(d.Escrow); err != nil {
			return err
		}
	}
	amount, err := l.settle(operator, d)
	if err != nil {
		return err
	}
	if escrow != nil {
		if err := l.depositTo(escrow, operator, d.Owner.GrantID, escrowed); err != nil {
			return err
		}
	}
	if rest := new(big.Int).Sub(amount, escrowed); rest.Sign() > 0 {
		if err := l.token.Transfer(l.Address(), d.Owner.Address, rest); err != nil {
			return err
		}
	}

	logger.Info("stake cancelled", "operator", operator, "amount", amount)
	return l.sctx.Emit("StakeCancelled", amountEvent{amount}, solidity.AddressTopic(operator))
}

// Undelegate starts the undelegation of operator now.
func (l *Ledger) Undelegate(caller, operator thor.Address) error {
	return l.UndelegateAt(caller, operator, l.now())
}

// UndelegateAt sets the undelegation time of operator. An already set time may
// be moved earlier by the operator or the owner, and later by the owner only.
func (l *Ledger) UndelegateAt(caller, operator thor.Address, at uint64) error {
	logger.Debug("undelegating", "operator", operator, "caller", caller, "at", at)

	d, err := l.getExisting(operator)
	if err != nil {
		return err
	}
	isOwner := caller == d.Owner.Address
	if caller != operator && !isOwner {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v may not undelegate %v", caller, operator)
	}
	now := l.now()
	if at < now {
		return errors.Wrapf(reverts.ErrTimeInPast, "%d before %d", at, now)
	}
	if at <= d.CreatedAt+l.InitializationPeriod() {
		return errors.Wrapf(reverts.ErrStillInitializing, "operator %v", operator)
	}
	if d.IsUndelegated() {
		if d.IsReleased(now) {
			return errors.Wrapf(reverts.ErrAlreadyUndelegated, "operator %v undelegated at %d", operator, d.UndelegatedAt)
		}
		if at > d.UndelegatedAt && !isOwner {
			return errors.Wrap(reverts.ErrNotAuthorized, "only the owner may postpone undelegation")
		}
	}

	d.UndelegatedAt = at
	if err := l.delegationService.Update(operator, d); err != nil {
		return err
	}

	logger.Info("undelegated", "operator", operator, "at", at)
	return l.sctx.Emit("Undelegated", undelegatedEvent{at}, solidity.AddressTopic(operator))
}

// RecoverStake pays the value of a fully undelegated stake back. Grant-owned
// value goes to the escrow. Recovering a settled record does nothing.
func (l *Ledger) RecoverStake(caller, operator thor.Address) error {
	logger.Debug("recovering stake", "operator", operator, "caller", caller)

	d, err := l.delegationService.GetDelegation(operator)
	if err != nil {
		return err
	}
	if d == nil {
		return errors.Wrapf(reverts.ErrNotDelegated, "operator %v", operator)
	}
	if d.Settled {
		return nil
	}
	if d.Owner.Kind.IsGrant() && caller != d.Owner.Address {
		return errors.Wrap(reverts.ErrNotAuthorized, "grant stake must be recovered through the grant bridge")
	}
	if !d.IsUndelegated() {
		return errors.Wrapf(reverts.ErrNotUndelegated, "operator %v", operator)
	}
	now := l.now()
	if !d.IsRecoverable(now, l.UndelegationPeriod()) {
		return errors.Wrapf(reverts.ErrStillUndelegating, "operator %v", operator)
	}
	locked, err := l.isLocked(operator, now)
	if err != nil {
		return err
	}
	if locked {
		return errors.Wrapf(reverts.ErrLockedStake, "operator %v", operator)
	}

	var escrow Depositor
	if d.Owner.Kind.IsGrant() && d.Total().Sign() > 0 {
		if escrow, err = l.depositorFor(d.Escrow); err != nil {
			return err
		}
	}
	amount, err := l.settle(operator, d)
	if err != nil {
		return err
	}
	if amount.Sign() > 0 {
		if escrow != nil {
			err = l.depositTo(escrow, operator, d.Owner.GrantID, amount)
		} else {
			err = l.token.Transfer(l.Address(), d.Owner.Address, amount)
		}
		if err != nil {
			return err
		}
	}

	logger.Info("stake recovered", "operator", operator, "owner", d.Owner, "amount", amount)
	return l.sctx.Emit("StakeRecovered", amountEvent{amount}, solidity.AddressTopic(operator), solidity.AddressTopic(d.Owner.Address))
}

// InitiateTopUp adds value to a delegation. While initializing it applies at
// once and restarts initialization, otherwise it waits for CommitTopUp.
func (l *Ledger) InitiateTopUp(caller, operator thor.Address, owner delegation.OwnerRef, amount *big.Int) error {
	logger.Debug("initiating top-up", "operator", operator, "owner", owner, "amount", amount)

	if amount == nil || amount.Sign() == 0 {
		return errors.Wrapf(reverts.ErrZeroTopUp, "operator %v", operator)
	}
	if amount.Sign() < 0 {
		return errors.Wrap(reverts.ErrInvalidArgument, "negative top-up")
	}
	d, err := l.getExisting(operator)
	if err != nil {
		return err
	}
	if d.IsUndelegated() {
		return errors.Wrapf(reverts.ErrAlreadyUndelegated, "operator %v", operator)
	}
	if !d.Owner.SameSource(owner) {
		return errors.Wrapf(reverts.ErrWrongSource, "top-up from %v to stake of %v", owner, d.Owner)
	}
	if err := l.checkSource(caller, owner); err != nil {
		return err
	}
	escrowed := l.fundedByEscrow(caller, owner)
	if escrowed && !d.Escrow.IsZero() && d.Escrow != caller {
		return errors.Wrapf(reverts.ErrWrongSource, "operator %v is funded by escrow %v", operator, d.Escrow)
	}
	if err := l.token.Transfer(caller, l.Address(), amount); err != nil {
		return err
	}

	now := l.now()
	event := "TopUpInitiated"
	if d.IsInitializing(now, l.InitializationPeriod()) {
		d.Amount.Add(d.Amount, amount)
		d.CreatedAt = now
		event = "TopUpCompleted"
	} else {
		d.TopUp.Amount.Add(d.TopUp.Amount, amount)
		d.TopUp.InitiatedAt = now
	}
	if escrowed {
		d.Escrow = caller
		d.Escrowed.Add(d.Escrowed, amount)
	}
	if err := l.delegationService.Update(operator, d); err != nil {
		return err
	}
	if err := l.delegationService.AddStake(amount); err != nil {
		return err
	}

	logger.Info("top-up initiated", "operator", operator, "amount", amount, "immediate", event == "TopUpCompleted")
	return l.sctx.Emit(event, amountEvent{amount}, solidity.AddressTopic(operator))
}

// CommitTopUp adds the pending top-up to the stake once it has initialized.
func (l *Ledger) CommitTopUp(caller, operator thor.Address) error {
	logger.Debug("committing top-up", "operator", operator, "caller", caller)

	d, err := l.getExisting(operator)
	if err != nil {
		return err
	}
	if !d.TopUp.IsPending() {
		return errors.Wrapf(reverts.ErrNoTopUp, "operator %v", operator)
	}
	if l.now() < d.TopUp.InitiatedAt+l.InitializationPeriod() {
		return errors.Wrapf(reverts.ErrStillInitializing, "top-up of operator %v", operator)
	}

	amount := d.TopUp.Amount
	d.Amount.Add(d.Amount, amount)
	d.TopUp = delegation.TopUp{Amount: new(big.Int)}
	if err := l.delegationService.Update(operator, d); err != nil {
		return err
	}

	logger.Info("top-up committed", "operator", operator, "amount", amount)
	return l.sctx.Emit("TopUpCompleted", amountEvent{amount}, solidity.AddressTopic(operator))
}

// TransferStakeOwnership hands an account-owned delegation to another account.
func (l *Ledger) TransferStakeOwnership(caller, operator, newOwner thor.Address) error {
	logger.Debug("transferring stake ownership", "operator", operator, "newOwner", newOwner)

	d, err := l.getExisting(operator)
	if err != nil {
		return err
	}
	if caller != d.Owner.Address {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the owner of %v", caller, operator)
	}
	if d.Owner.Kind.IsGrant() {
		return errors.Wrap(reverts.ErrWrongSource, "grant stake can not change owner")
	}
	if newOwner.IsZero() {
		return errors.Wrap(reverts.ErrInvalidArgument, "zero new owner")
	}

	d.Owner = delegation.AccountOwner(newOwner)
	if err := l.delegationService.Update(operator, d); err != nil {
		return err
	}

	logger.Info("stake ownership transferred", "operator", operator, "newOwner", newOwner)
	return l.sctx.Emit("StakeOwnershipTransferred", ownershipEvent{newOwner}, solidity.AddressTopic(operator), solidity.AddressTopic(caller))
}
