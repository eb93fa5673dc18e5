// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

type lockEvent struct {
	Expiry uint64
}

type seizedEvent struct {
	Amount   *big.Int
	Reporter thor.Address
}

type rewardEvent struct {
	Total  *big.Int
	Reward *big.Int
	Burned *big.Int
}

// LockStake prevents recovery of operator's stake for duration seconds. A
// contract holds at most one lock per operator, locking again overwrites it.
func (l *Ledger) LockStake(caller, operator thor.Address, duration uint64) error {
	logger.Debug("locking stake", "operator", operator, "contract", caller, "duration", duration)

	if err := l.requireAuthorized(caller, operator); err != nil {
		return err
	}
	d, err := l.getExisting(operator)
	if err != nil {
		return err
	}
	now := l.now()
	if d.IsInitializing(now, l.InitializationPeriod()) {
		return errors.Wrapf(reverts.ErrStillInitializing, "operator %v", operator)
	}
	if d.IsUndelegated() {
		return errors.Wrapf(reverts.ErrAlreadyUndelegated, "operator %v", operator)
	}
	if maxDuration := l.MaximumLockDuration(); duration > maxDuration {
		return errors.Wrapf(reverts.ErrLockTooLong, "%d above %d", duration, maxDuration)
	}

	expiry := now + duration
	if err := l.lockService.Set(operator, caller, expiry); err != nil {
		return err
	}

	logger.Info("stake locked", "operator", operator, "contract", caller, "expiry", expiry)
	return l.sctx.Emit("StakeLocked", lockEvent{expiry}, solidity.AddressTopic(operator), solidity.AddressTopic(caller))
}

// UnlockStake drops the caller's lock on operator.
func (l *Ledger) UnlockStake(caller, operator thor.Address) error {
	logger.Debug("unlocking stake", "operator", operator, "contract", caller)

	valid, err := l.authorityService.IsValid(l.registry, caller)
	if err != nil {
		return err
	}
	if !valid {
		return errors.Wrapf(reverts.ErrNotApproved, "contract %v", caller)
	}
	removed, err := l.lockService.Remove(operator, caller)
	if err != nil || !removed {
		return err
	}

	logger.Info("stake unlocked", "operator", operator, "contract", caller)
	return l.sctx.Emit("LockReleased", struct{}{}, solidity.AddressTopic(operator), solidity.AddressTopic(caller))
}

// ReleaseExpiredLock lets anyone drop a lock which expired or whose creator lost its authority.
func (l *Ledger) ReleaseExpiredLock(caller, operator, contract thor.Address) error {
	logger.Debug("releasing expired lock", "operator", operator, "contract", contract, "caller", caller)

	lock, ok, err := l.lockService.Get(operator, contract)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(reverts.ErrInvalidArgument, "no lock of %v on %v", contract, operator)
	}
	valid, err := l.isLockValid(lock, l.now())
	if err != nil {
		return err
	}
	if valid {
		return errors.Wrapf(reverts.ErrLockedStake, "lock of %v still active", contract)
	}
	if _, err := l.lockService.Remove(operator, contract); err != nil {
		return err
	}

	logger.Info("expired lock released", "operator", operator, "contract", contract)
	return l.sctx.Emit("ExpiredLockReleased", struct{}{}, solidity.AddressTopic(operator), solidity.AddressTopic(contract))
}

// checkPunishable verifies caller may slash every operator. Nothing is
// changed unless all of them pass.
func (l *Ledger) checkPunishable(caller thor.Address, amount *big.Int, operators []thor.Address) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.Wrap(reverts.ErrInvalidArgument, "invalid amount")
	}
	now := l.now()
	for _, operator := range operators {
		if err := l.requireAuthorized(caller, operator); err != nil {
			return err
		}
		d, err := l.getExisting(operator)
		if err != nil {
			return err
		}
		if d.IsInitializing(now, l.InitializationPeriod()) {
			return errors.Wrapf(reverts.ErrStillInitializing, "operator %v", operator)
		}
		if d.IsReleased(now) {
			lockedBy, err := l.isLockedBy(operator, caller, now)
			if err != nil {
				return err
			}
			if !lockedBy {
				return errors.Wrapf(reverts.ErrStakeReleased, "operator %v", operator)
			}
		}
	}
	return nil
}

// punish takes up to amount from each operator and returns the total taken.
func (l *Ledger) punish(amount *big.Int, operators []thor.Address, event string, data func(applied *big.Int) any) (*big.Int, error) {
	total := new(big.Int)
	for _, operator := range operators {
		d, err := l.getExisting(operator)
		if err != nil {
			return nil, err
		}
		applied := new(big.Int).Set(amount)
		if applied.Cmp(d.Amount) > 0 {
			applied.Set(d.Amount)
		}
		d.Amount.Sub(d.Amount, applied)
		if err := l.delegationService.Update(operator, d); err != nil {
			return nil, err
		}
		total.Add(total, applied)

		if err := l.sctx.Emit(event, data(applied), solidity.AddressTopic(operator)); err != nil {
			return nil, err
		}
	}
	if err := l.delegationService.SubStake(total); err != nil {
		return nil, err
	}
	return total, nil
}

// Slash removes amount from each operator's stake, capped at its balance, and burns it.
func (l *Ledger) Slash(caller thor.Address, amount *big.Int, operators []thor.Address) error {
	logger.Debug("slashing", "contract", caller, "amount", amount, "operators", len(operators))

	if err := l.checkPunishable(caller, amount, operators); err != nil {
		return err
	}
	total, err := l.punish(amount, operators, "TokensSlashed", func(applied *big.Int) any {
		return amountEvent{applied}
	})
	if err != nil {
		return err
	}
	if err := l.burn(total); err != nil {
		return err
	}

	logger.Info("slashed", "contract", caller, "total", total)
	return nil
}

// Seize removes amount from each operator's stake like Slash, pays the
// reporter a reward out of the total and burns the rest.
func (l *Ledger) Seize(
	caller thor.Address,
	amount *big.Int,
	rewardMultiplier uint64,
	reporter thor.Address,
	operators []thor.Address,
) error {
	logger.Debug("seizing", "contract", caller, "amount", amount, "operators", len(operators), "reporter", reporter)

	if rewardMultiplier > 100 {
		return errors.Wrapf(reverts.ErrInvalidArgument, "reward multiplier %d above 100", rewardMultiplier)
	}
	if reporter.IsZero() {
		return errors.Wrap(reverts.ErrInvalidArgument, "zero reporter")
	}
	if err := l.checkPunishable(caller, amount, operators); err != nil {
		return err
	}
	total, err := l.punish(amount, operators, "TokensSeized", func(applied *big.Int) any {
		return seizedEvent{applied, reporter}
	})
	if err != nil {
		return err
	}

	reward := SeizeReward(total, SeizureRewardBps.Get(l.sctx), rewardMultiplier)
	if err := l.token.Transfer(l.Address(), reporter, reward); err != nil {
		return err
	}
	burned := new(big.Int).Sub(total, reward)
	if err := l.burn(burned); err != nil {
		return err
	}

	logger.Info("seized", "contract", caller, "total", total, "reward", reward, "burned", burned)
	return l.sctx.Emit("TokensSeizedReward", rewardEvent{total, reward, burned}, solidity.AddressTopic(reporter))
}

// SeizeReward returns total*bps/10000*multiplier/100.
func SeizeReward(total *big.Int, bps, multiplier uint64) *big.Int {
	reward := new(big.Int).Mul(total, new(big.Int).SetUint64(bps))
	reward.Div(reward, big.NewInt(10000))
	reward.Mul(reward, new(big.Int).SetUint64(multiplier))
	return reward.Div(reward, big.NewInt(100))
}

// AuthorizeOperatorContract lets contract act on operator. Only the operator's authorizer may call it.
func (l *Ledger) AuthorizeOperatorContract(caller, operator, contract thor.Address) error {
	logger.Debug("authorizing operator contract", "operator", operator, "contract", contract)

	d, err := l.getExisting(operator)
	if err != nil {
		return err
	}
	if caller != d.Authorizer {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the authorizer of %v", caller, operator)
	}
	status, err := l.registry.Status(contract)
	if err != nil {
		return err
	}
	if status != registry.StatusApproved {
		return errors.Wrapf(reverts.ErrNotApproved, "contract %v is %v", contract, status)
	}
	delegated, err := l.authorityService.HasParent(contract)
	if err != nil {
		return err
	}
	if delegated {
		return errors.Wrapf(reverts.ErrNotAuthorized, "contract %v uses delegated authority", contract)
	}
	if err := l.authorityService.Authorize(operator, contract); err != nil {
		return err
	}

	logger.Info("operator contract authorized", "operator", operator, "contract", contract)
	return l.sctx.Emit("OperatorContractAuthorized", struct{}{}, solidity.AddressTopic(operator), solidity.AddressTopic(contract))
}

// ClaimDelegatedAuthority makes caller inherit the authority of source, which must recognize it.
func (l *Ledger) ClaimDelegatedAuthority(caller, source thor.Address) error {
	logger.Debug("claiming delegated authority", "claimant", caller, "source", source)

	if caller == source {
		return errors.Wrap(reverts.ErrUnrecognizedClaimant, "self claim")
	}
	valid, err := l.authorityService.IsValid(l.registry, source)
	if err != nil {
		return err
	}
	if !valid {
		return errors.Wrapf(reverts.ErrNotApproved, "source %v", source)
	}
	recognized, err := l.registry.IsRecognized(source, caller)
	if err != nil {
		return err
	}
	if !recognized {
		return errors.Wrapf(reverts.ErrUnrecognizedClaimant, "%v does not recognize %v", source, caller)
	}
	cycle, err := l.authorityService.InChain(source, caller)
	if err != nil {
		return err
	}
	if cycle {
		return errors.Wrapf(reverts.ErrUnrecognizedClaimant, "%v already in the chain of %v", caller, source)
	}
	if err := l.authorityService.SetParent(caller, source); err != nil {
		return err
	}

	logger.Info("delegated authority claimed", "claimant", caller, "source", source)
	return l.sctx.Emit("DelegatedAuthorityClaimed", struct{}{}, solidity.AddressTopic(caller), solidity.AddressTopic(source))
}
