// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package portbacker backs delegations of a ledger on its successor until
// their eventual owners pay the copied stake back.
package portbacker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/grant"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/builtin/staking/delegation"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var (
	logger = log.WithContext("pkg", "portbacker")

	slotOwner   = thor.BytesToBytes32([]byte("backer-owner"))
	slotAllowed = thor.BytesToBytes32([]byte("backer-allowed"))
	slotCopies  = thor.BytesToBytes32([]byte("backer-copies"))
)

// Copy records a stake copied to the successor ledger.
type Copy struct {
	Amount   *big.Int
	CopiedAt uint64
	Owner    thor.Address // eventual owner, who may pay it back
	PaidBack bool
}

type copyEvent struct {
	Owner  thor.Address
	Amount *big.Int
}

type amountEvent struct {
	Amount *big.Int
}

type Backer struct {
	sctx      *solidity.Context
	clock     thor.Clock
	old       *staking.Ledger
	successor *staking.Ledger
	bridge    *grant.Bridge
	token     *token.Token

	owner   *solidity.Raw[thor.Address]
	allowed *solidity.Mapping[thor.Address, bool]
	copies  *solidity.Mapping[thor.Address, *Copy]
}

// New creates the backer. bridge resolves the grantees of grant-owned delegations on old.
func New(
	addr thor.Address,
	state *state.State,
	clock thor.Clock,
	old *staking.Ledger,
	successor *staking.Ledger,
	bridge *grant.Bridge,
	token *token.Token,
) *Backer {
	sctx := solidity.NewContext(addr, state)
	return &Backer{
		sctx:      sctx,
		clock:     clock,
		old:       old,
		successor: successor,
		bridge:    bridge,
		token:     token,
		owner:     solidity.NewRaw[thor.Address](sctx, slotOwner),
		allowed:   solidity.NewMapping[thor.Address, bool](sctx, slotAllowed),
		copies:    solidity.NewMapping[thor.Address, *Copy](sctx, slotCopies),
	}
}

func (b *Backer) Address() thor.Address {
	return b.sctx.Address()
}

// Initialize sets the owner, once.
func (b *Backer) Initialize(owner thor.Address) error {
	current, err := b.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return errors.New("port backer already initialized")
	}
	if owner.IsZero() {
		return errors.Wrap(reverts.ErrInvalidArgument, "zero owner")
	}
	return b.owner.Upsert(owner)
}

func (b *Backer) Owner() (thor.Address, error) {
	return b.owner.Get()
}

func (b *Backer) onlyOwner(caller thor.Address) error {
	owner, err := b.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the backer owner", caller)
	}
	return nil
}

func (b *Backer) IsAllowed(operator thor.Address) (bool, error) {
	return b.allowed.Get(operator)
}

// GetCopy returns the copy of operator's stake, nil if there is none.
func (b *Backer) GetCopy(operator thor.Address) (*Copy, error) {
	c, err := b.copies.Get(operator)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get copy")
	}
	if c != nil && c.Amount == nil {
		c.Amount = new(big.Int)
	}
	return c, nil
}

func (b *Backer) AllowOperator(caller, operator thor.Address) error {
	return b.AllowOperators(caller, []thor.Address{operator})
}

func (b *Backer) AllowOperators(caller thor.Address, operators []thor.Address) error {
	if err := b.onlyOwner(caller); err != nil {
		return err
	}
	for _, op := range operators {
		if err := b.allowed.Upsert(op, true); err != nil {
			return err
		}
		if err := b.sctx.Emit("OperatorAllowed", struct{}{}, solidity.AddressTopic(op)); err != nil {
			return err
		}
	}
	logger.Info("operators allowed", "count", len(operators))
	return nil
}

// eventualOwner returns who ends up owning a delegation of the old ledger.
func (b *Backer) eventualOwner(d *delegation.Delegation) (thor.Address, error) {
	if !d.Owner.Kind.IsGrant() {
		return d.Owner.Address, nil
	}
	g, err := b.bridge.GetGrant(d.Owner.GrantID)
	if err != nil {
		return thor.Address{}, err
	}
	if g == nil {
		return thor.Address{}, errors.Errorf("delegation refers to missing grant %d", d.Owner.GrantID)
	}
	return g.Grantee, nil
}

// CopyStake funds a delegation on the successor ledger mirroring the stake of
// operator on the old ledger. The backer owns it until it is paid back.
func (b *Backer) CopyStake(caller, operator thor.Address) error {
	logger.Debug("copying stake", "operator", operator, "caller", caller)

	allowed, err := b.allowed.Get(operator)
	if err != nil {
		return err
	}
	if !allowed {
		return errors.Wrapf(reverts.ErrOperatorNotAllowed, "operator %v", operator)
	}
	existing, err := b.GetCopy(operator)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.Wrapf(reverts.ErrAlreadyCopied, "operator %v", operator)
	}
	d, err := b.old.GetDelegation(operator)
	if err != nil {
		return err
	}
	if d.IsAbsent() || d.Amount.Sign() == 0 {
		return errors.Wrapf(reverts.ErrNotDelegated, "no stake on the old ledger for %v", operator)
	}
	owner, err := b.eventualOwner(d)
	if err != nil {
		return err
	}
	if caller != owner {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the owner of %v", caller, operator)
	}

	if err := b.successor.CreateDelegation(
		b.Address(),
		operator,
		delegation.AccountOwner(b.Address()),
		d.Beneficiary,
		d.Authorizer,
		d.Amount,
	); err != nil {
		return err
	}
	c := &Copy{Amount: new(big.Int).Set(d.Amount), CopiedAt: b.clock.Now(), Owner: owner}
	if err := b.copies.Upsert(operator, c); err != nil {
		return err
	}

	logger.Info("stake copied", "operator", operator, "owner", owner, "amount", d.Amount)
	return b.sctx.Emit("StakeCopied", copyEvent{owner, d.Amount}, solidity.AddressTopic(operator))
}

func (b *Backer) getUnpaid(operator thor.Address) (*Copy, error) {
	c, err := b.GetCopy(operator)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.Wrapf(reverts.ErrNotCopied, "operator %v", operator)
	}
	if c.PaidBack {
		return nil, errors.Wrapf(reverts.ErrAlreadyPaidBack, "operator %v", operator)
	}
	return c, nil
}

// PayBack takes the copied amount from the eventual owner and hands the
// successor delegation over. Slashing since the copy does not lower the amount.
func (b *Backer) PayBack(caller, operator thor.Address, amount *big.Int) error {
	logger.Debug("paying back", "operator", operator, "caller", caller, "amount", amount)

	c, err := b.getUnpaid(operator)
	if err != nil {
		return err
	}
	if caller != c.Owner {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the owner of %v", caller, operator)
	}
	if amount == nil || amount.Cmp(c.Amount) != 0 {
		return errors.Wrapf(reverts.ErrUnexpectedAmount, "got %v, expected %v", amount, c.Amount)
	}
	if err := b.token.Transfer(caller, b.Address(), amount); err != nil {
		return err
	}
	if err := b.successor.TransferStakeOwnership(b.Address(), operator, caller); err != nil {
		return err
	}
	c.PaidBack = true
	if err := b.copies.Update(operator, c); err != nil {
		return err
	}

	logger.Info("stake paid back", "operator", operator, "owner", caller, "amount", amount)
	return b.sctx.Emit("StakePaidBack", amountEvent{amount}, solidity.AddressTopic(operator), solidity.AddressTopic(caller))
}

// Undelegate undelegates a backed stake. The eventual owner or the operator may call it.
func (b *Backer) Undelegate(caller, operator thor.Address) error {
	c, err := b.getUnpaid(operator)
	if err != nil {
		return err
	}
	if caller != c.Owner && caller != operator {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v may not undelegate %v", caller, operator)
	}
	logger.Debug("undelegating backed stake", "operator", operator, "caller", caller)
	return b.successor.Undelegate(b.Address(), operator)
}

// ForceUndelegate lets the owner undelegate a stake not paid back within the backing period.
func (b *Backer) ForceUndelegate(caller, operator thor.Address) error {
	if err := b.onlyOwner(caller); err != nil {
		return err
	}
	c, err := b.getUnpaid(operator)
	if err != nil {
		return err
	}
	if now, deadline := b.clock.Now(), c.CopiedAt+thor.MaxBackingDuration; now < deadline {
		return errors.Wrapf(reverts.ErrBackingNotExpired, "operator %v backed until %d", operator, deadline)
	}
	logger.Info("force undelegating", "operator", operator)
	return b.successor.Undelegate(b.Address(), operator)
}

// RecoverStake recovers a backed stake to the backer.
func (b *Backer) RecoverStake(caller, operator thor.Address) error {
	if err := b.onlyOwner(caller); err != nil {
		return err
	}
	return b.successor.RecoverStake(b.Address(), operator)
}

// Withdraw pays amount of the backer's funds to its owner.
func (b *Backer) Withdraw(caller thor.Address, amount *big.Int) error {
	if err := b.onlyOwner(caller); err != nil {
		return err
	}
	if err := b.token.Transfer(b.Address(), caller, amount); err != nil {
		return err
	}
	logger.Info("backer funds withdrawn", "amount", amount)
	return b.sctx.Emit("Withdrawn", amountEvent{amount}, solidity.AddressTopic(caller))
}
