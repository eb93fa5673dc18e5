// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package grant

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/builtin/staking/delegation"
	"github.com/vechain/stakeledger/thor"
)

type stakeEvent struct {
	ID     uint64
	Amount *big.Int
}

// OwnerRef returns the owner of record of delegations funded from g.
func (b *Bridge) OwnerRef(g *Grant) delegation.OwnerRef {
	kind := delegation.Grant
	if g.Managed {
		kind = delegation.ManagedGrant
	}
	return delegation.GrantOwner(kind, b.Address(), g.ID)
}

func stakeKey(ledger, operator thor.Address) solidity.BytesKey {
	return solidity.CompositeKey(ledger, operator)
}

// StakeOf returns the value the bridge itself delegated to operator and has not got back.
func (b *Bridge) StakeOf(operator thor.Address) (*big.Int, error) {
	s, err := b.stakes.Get(stakeKey(b.Ledger().Address(), operator))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stake")
	}
	if s == nil || s.Amount == nil {
		return new(big.Int), nil
	}
	return s.Amount, nil
}

// locate returns the ledger holding the grant delegation of operator. A live
// delegation wins over a settled one, and earlier ledgers win ties.
func (b *Bridge) locate(operator thor.Address) (*staking.Ledger, *delegation.Delegation, error) {
	var (
		found    *staking.Ledger
		record   *delegation.Delegation
		existing bool
	)
	for _, l := range b.ledgers {
		d, err := l.GetDelegation(operator)
		if err != nil {
			return nil, nil, err
		}
		if d == nil {
			continue
		}
		existing = true
		if !d.Owner.Kind.IsGrant() || d.Owner.Address != b.Address() {
			continue
		}
		if !d.IsAbsent() {
			return l, d, nil
		}
		if found == nil {
			found, record = l, d
		}
	}
	if found != nil {
		return found, record, nil
	}
	if !existing {
		return nil, nil, errors.Wrapf(reverts.ErrNotDelegated, "operator %v", operator)
	}
	return nil, nil, errors.Wrapf(reverts.ErrNotAuthorized, "operator %v is not grant staked", operator)
}

// GrantOf returns the id of the grant owning the delegation of operator, 0 if none does.
func (b *Bridge) GrantOf(operator thor.Address) (uint64, error) {
	_, d, err := b.locate(operator)
	if err != nil {
		if reverts.IsRevertErr(err) {
			return 0, nil
		}
		return 0, err
	}
	return d.Owner.GrantID, nil
}

func (b *Bridge) GranteeOf(operator thor.Address) (thor.Address, error) {
	id, err := b.GrantOf(operator)
	if err != nil || id == 0 {
		return thor.Address{}, err
	}
	g, err := b.GetGrant(id)
	if err != nil || g == nil {
		return thor.Address{}, err
	}
	return g.Grantee, nil
}

// checkStake validates a new contribution of amount from the grant.
func (b *Bridge) checkStake(caller thor.Address, g *Grant, amount *big.Int) error {
	if caller != g.Grantee {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the grantee of %d", caller, g.ID)
	}
	if g.IsRevoked() {
		return errors.Wrapf(reverts.ErrGrantRevoked, "grant %d", g.ID)
	}
	if amount == nil || amount.Sign() <= 0 {
		return errors.Wrap(reverts.ErrInvalidArgument, "stake amount must be positive")
	}
	available, err := b.stakeable(g)
	if err != nil {
		return err
	}
	if amount.Cmp(available) > 0 {
		return errors.Wrapf(reverts.ErrInsufficientFunds, "%v above stakeable %v", amount, available)
	}
	return nil
}

func (b *Bridge) addStake(g *Grant, operator thor.Address, amount *big.Int) error {
	key := stakeKey(b.Ledger().Address(), operator)
	s, err := b.stakes.Get(key)
	if err != nil {
		return err
	}
	if s == nil {
		s = &Stake{GrantID: g.ID, Amount: new(big.Int)}
	}
	s.Amount.Add(s.Amount, amount)
	if err := b.stakes.Upsert(key, s); err != nil {
		return err
	}
	g.Staked.Add(g.Staked, amount)
	return b.save(g)
}

// Stake delegates grant value to operator, with the bridge as owner of record.
func (b *Bridge) Stake(caller thor.Address, id uint64, operator, beneficiary, authorizer thor.Address, amount *big.Int) error {
	logger.Debug("staking grant", "id", id, "operator", operator, "amount", amount)

	g, err := b.getExisting(id)
	if err != nil {
		return err
	}
	if err := b.checkStake(caller, g, amount); err != nil {
		return err
	}
	if err := b.Ledger().CreateDelegation(b.Address(), operator, b.OwnerRef(g), beneficiary, authorizer, amount); err != nil {
		return err
	}
	if err := b.addStake(g, operator, amount); err != nil {
		return err
	}

	logger.Info("grant staked", "id", id, "operator", operator, "amount", amount)
	return b.sctx.Emit("GrantStaked", stakeEvent{id, amount}, solidity.AddressTopic(operator))
}

// TopUp adds grant value to an existing delegation of the same grant.
func (b *Bridge) TopUp(caller thor.Address, id uint64, operator thor.Address, amount *big.Int) error {
	logger.Debug("topping up grant stake", "id", id, "operator", operator, "amount", amount)

	g, err := b.getExisting(id)
	if err != nil {
		return err
	}
	if err := b.checkStake(caller, g, amount); err != nil {
		return err
	}
	if err := b.Ledger().InitiateTopUp(b.Address(), operator, b.OwnerRef(g), amount); err != nil {
		return err
	}
	if err := b.addStake(g, operator, amount); err != nil {
		return err
	}

	logger.Info("grant stake topped up", "id", id, "operator", operator, "amount", amount)
	return b.sctx.Emit("GrantToppedUp", stakeEvent{id, amount}, solidity.AddressTopic(operator))
}

// grantStake is a grant delegation resolved for a caller.
type grantStake struct {
	ledger *staking.Ledger
	grant  *Grant
	stake  *Stake // the bridge's own contribution, nil if it made none
	key    solidity.BytesKey
}

// resolve finds the grant behind the delegation of operator and checks caller
// may act on it: the grantee, the operator, or the manager of a revoked grant.
// With recovery set, the previous grantee of a managed grant may act as well if
// the undelegation started before the reassignment.
func (b *Bridge) resolve(caller, operator thor.Address, recovery bool) (*grantStake, error) {
	l, d, err := b.locate(operator)
	if err != nil {
		return nil, err
	}
	g, err := b.getExisting(d.Owner.GrantID)
	if err != nil {
		return nil, err
	}
	key := stakeKey(l.Address(), operator)
	s, err := b.stakes.Get(key)
	if err != nil {
		return nil, err
	}

	switch {
	case caller == g.Grantee, caller == operator:
	case g.IsRevoked() && caller == g.Manager:
	case recovery && g.Managed && !g.PreviousGrantee.IsZero() && caller == g.PreviousGrantee &&
		s != nil && s.UndelegationInitiatedAt != 0 && s.UndelegationInitiatedAt <= g.ReassignedAt:
	default:
		return nil, errors.Wrapf(reverts.ErrNotAuthorized, "%v may not act on operator %v", caller, operator)
	}
	return &grantStake{ledger: l, grant: g, stake: s, key: key}, nil
}

// CancelStake cancels a grant delegation still initializing. The bridge gets
// back its own contribution, escrow-funded value goes back to the escrow.
func (b *Bridge) CancelStake(caller, operator thor.Address) error {
	logger.Debug("cancelling grant stake", "operator", operator, "caller", caller)

	gs, err := b.resolve(caller, operator, false)
	if err != nil {
		return err
	}
	if err := gs.ledger.CancelStake(b.Address(), operator); err != nil {
		return err
	}
	g, s := gs.grant, gs.stake
	if s != nil && s.Amount.Sign() > 0 {
		g.Staked.Sub(g.Staked, s.Amount)
		if err := b.save(g); err != nil {
			return err
		}
	}
	b.stakes.Delete(gs.key)

	logger.Info("grant stake cancelled", "id", g.ID, "operator", operator, "ledger", gs.ledger.Address())
	return nil
}

// Undelegate starts undelegating a grant delegation now.
func (b *Bridge) Undelegate(caller, operator thor.Address) error {
	return b.UndelegateAt(caller, operator, b.clock.Now())
}

func (b *Bridge) UndelegateAt(caller, operator thor.Address, at uint64) error {
	logger.Debug("undelegating grant stake", "operator", operator, "caller", caller, "at", at)

	gs, err := b.resolve(caller, operator, false)
	if err != nil {
		return err
	}
	if err := gs.ledger.UndelegateAt(b.Address(), operator, at); err != nil {
		return err
	}
	s := gs.stake
	if s == nil {
		s = &Stake{GrantID: gs.grant.ID, Amount: new(big.Int)}
	}
	if s.UndelegationInitiatedAt == 0 {
		s.UndelegationInitiatedAt = b.clock.Now()
		if err := b.stakes.Upsert(gs.key, s); err != nil {
			return err
		}
	}

	logger.Info("grant stake undelegated", "id", gs.grant.ID, "operator", operator, "at", at)
	return nil
}

// RecoverStake recovers a grant delegation into the escrow.
func (b *Bridge) RecoverStake(caller, operator thor.Address) error {
	logger.Debug("recovering grant stake", "operator", operator, "caller", caller)

	gs, err := b.resolve(caller, operator, true)
	if err != nil {
		return err
	}
	if err := gs.ledger.RecoverStake(b.Address(), operator); err != nil {
		return err
	}
	g, s := gs.grant, gs.stake
	if s == nil {
		return nil
	}
	if s.Amount.Sign() > 0 {
		g.Staked.Sub(g.Staked, s.Amount)
		g.Escrowed.Add(g.Escrowed, s.Amount)
		if err := b.save(g); err != nil {
			return err
		}
	}
	b.stakes.Delete(gs.key)

	logger.Info("grant stake recovered", "id", g.ID, "operator", operator, "amount", s.Amount)
	return nil
}
