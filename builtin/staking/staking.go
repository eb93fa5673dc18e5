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
	"github.com/vechain/stakeledger/builtin/staking/authority"
	"github.com/vechain/stakeledger/builtin/staking/delegation"
	"github.com/vechain/stakeledger/builtin/staking/locks"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var (
	logger = log.WithContext("pkg", "staking")

	slotBurned = thor.BytesToBytes32([]byte("burned-total"))
)

func SetLogger(l log.Logger) {
	logger = l
}

// Registry is the view of the authorization registry the ledger needs.
type Registry interface {
	authority.StatusReader
	IsRecognized(source, claimant thor.Address) (bool, error)
}

// Floor provides the minimum stake at a given time.
type Floor interface {
	Current(now uint64) *big.Int
}

// Depositor is an escrow holding grant value. It funds grant-owned delegations
// of the ledger owning it and receives their value back.
type Depositor interface {
	Address() thor.Address
	Owner() (thor.Address, error)
	Deposit(caller, operator thor.Address, grantID uint64, amount *big.Int) error
}

// Status is the lifecycle state of an operator's delegation, derived from its record and the time.
type Status uint8

const (
	StatusAbsent Status = iota
	StatusInitializing
	StatusActive
	StatusUndelegating
	StatusRecoverable
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusInitializing:
		return "initializing"
	case StatusActive:
		return "active"
	case StatusUndelegating:
		return "undelegating"
	case StatusRecoverable:
		return "recoverable"
	default:
		return "unknown"
	}
}

// Ledger implements the delegation ledger contract.
type Ledger struct {
	sctx        *solidity.Context
	clock       thor.Clock
	floor       Floor
	registry    Registry
	token       *token.Token
	grantBridge thor.Address
	deployedAt  uint64
	depositors  []Depositor

	delegationService *delegation.Service
	authorityService  *authority.Service
	lockService       *locks.Service
	burned            *solidity.Uint256
}

// New creates a ledger. Grant-owned delegations must name grantBridge as their owner address.
func New(
	addr thor.Address,
	state *state.State,
	clock thor.Clock,
	deployedAt uint64,
	floor Floor,
	registry Registry,
	token *token.Token,
	grantBridge thor.Address,
) *Ledger {
	sctx := solidity.NewContext(addr, state)
	return &Ledger{
		sctx:        sctx,
		clock:       clock,
		floor:       floor,
		registry:    registry,
		token:       token,
		grantBridge: grantBridge,
		deployedAt:  deployedAt,

		delegationService: delegation.New(sctx),
		authorityService:  authority.New(sctx),
		lockService:       locks.New(sctx),
		burned:            solidity.NewUint256(sctx, slotBurned),
	}
}

// SetDepositors sets the escrows that may fund grant-owned delegations, in
// the order recovered value is offered to them.
func (l *Ledger) SetDepositors(ds ...Depositor) {
	l.depositors = ds
}

func (l *Ledger) Address() thor.Address {
	return l.sctx.Address()
}

func (l *Ledger) GrantBridge() thor.Address {
	return l.grantBridge
}

func (l *Ledger) Context() *solidity.Context {
	return l.sctx
}

func (l *Ledger) now() uint64 {
	return l.clock.Now()
}

//
// Getters - no state change
//

// InitializationPeriod returns how long a delegation or top-up waits before it counts.
func (l *Ledger) InitializationPeriod() uint64 {
	return InitializationPeriod.Get(l.sctx)
}

// UndelegationPeriod returns the current undelegation period. It is short
// during the first weeks after deployment.
func (l *Ledger) UndelegationPeriod() uint64 {
	if l.now() < l.deployedAt+UndelegationPeriodSwitch.Get(l.sctx) {
		return ShortUndelegationPeriod.Get(l.sctx)
	}
	return LongUndelegationPeriod.Get(l.sctx)
}

func (l *Ledger) MaximumLockDuration() uint64 {
	return MaximumLockDuration.Get(l.sctx)
}

// MinimumStake returns the current floor for new delegations.
func (l *Ledger) MinimumStake() *big.Int {
	return l.floor.Current(l.now())
}

// GetDelegation returns a copy of the operator's record, nil if it never had one.
func (l *Ledger) GetDelegation(operator thor.Address) (*delegation.Delegation, error) {
	d, err := l.delegationService.GetDelegation(operator)
	if err != nil || d == nil {
		return nil, err
	}
	return d.Copy(), nil
}

func (l *Ledger) BalanceOf(operator thor.Address) (*big.Int, error) {
	d, err := l.delegationService.GetDelegation(operator)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return new(big.Int), nil
	}
	return d.Amount, nil
}

func (l *Ledger) OwnerOf(operator thor.Address) (delegation.OwnerRef, error) {
	d, err := l.delegationService.GetDelegation(operator)
	if err != nil || d == nil {
		return delegation.OwnerRef{}, err
	}
	return d.Owner, nil
}

func (l *Ledger) BeneficiaryOf(operator thor.Address) (thor.Address, error) {
	d, err := l.delegationService.GetDelegation(operator)
	if err != nil || d == nil {
		return thor.Address{}, err
	}
	return d.Beneficiary, nil
}

func (l *Ledger) AuthorizerOf(operator thor.Address) (thor.Address, error) {
	d, err := l.delegationService.GetDelegation(operator)
	if err != nil || d == nil {
		return thor.Address{}, err
	}
	return d.Authorizer, nil
}

// GetDelegationInfo returns the amount, creation and undelegation times of a delegation.
func (l *Ledger) GetDelegationInfo(operator thor.Address) (*big.Int, uint64, uint64, error) {
	d, err := l.delegationService.GetDelegation(operator)
	if err != nil {
		return nil, 0, 0, err
	}
	if d == nil {
		return new(big.Int), 0, 0, nil
	}
	return d.Amount, d.CreatedAt, d.UndelegatedAt, nil
}

func (l *Ledger) StatusOf(operator thor.Address) (Status, error) {
	d, err := l.delegationService.GetDelegation(operator)
	if err != nil {
		return StatusAbsent, err
	}
	return l.status(d), nil
}

func (l *Ledger) status(d *delegation.Delegation) Status {
	now := l.now()
	switch {
	case d.IsAbsent():
		return StatusAbsent
	case d.IsInitializing(now, l.InitializationPeriod()):
		return StatusInitializing
	case !d.IsUndelegated():
		return StatusActive
	case !d.IsRecoverable(now, l.UndelegationPeriod()):
		return StatusUndelegating
	default:
		return StatusRecoverable
	}
}

// ActiveStake returns the stake contract may act upon. Uncommitted top-ups are excluded.
func (l *Ledger) ActiveStake(operator, contract thor.Address) (*big.Int, error) {
	d, err := l.delegationService.GetDelegation(operator)
	if err != nil {
		return nil, err
	}
	if d.IsAbsent() {
		return new(big.Int), nil
	}
	authorized, err := l.authorityService.IsAuthorizedForOperator(l.registry, operator, contract)
	if err != nil {
		return nil, err
	}
	now := l.now()
	if !authorized || d.IsInitializing(now, l.InitializationPeriod()) {
		return new(big.Int), nil
	}
	if d.IsReleased(now) {
		lockedBy, err := l.isLockedBy(operator, contract, now)
		if err != nil {
			return nil, err
		}
		if !lockedBy {
			return new(big.Int), nil
		}
	}
	return d.Amount, nil
}

// EligibleStake is like ActiveStake, but drops to zero as soon as the undelegation time is reached.
func (l *Ledger) EligibleStake(operator, contract thor.Address) (*big.Int, error) {
	d, err := l.delegationService.GetDelegation(operator)
	if err != nil {
		return nil, err
	}
	if d.IsAbsent() {
		return new(big.Int), nil
	}
	authorized, err := l.authorityService.IsAuthorizedForOperator(l.registry, operator, contract)
	if err != nil {
		return nil, err
	}
	now := l.now()
	if !authorized || d.IsInitializing(now, l.InitializationPeriod()) {
		return new(big.Int), nil
	}
	if d.IsUndelegated() && now >= d.UndelegatedAt {
		return new(big.Int), nil
	}
	return d.Amount, nil
}

func (l *Ledger) HasMinimumStake(operator, contract thor.Address) (bool, error) {
	active, err := l.ActiveStake(operator, contract)
	if err != nil {
		return false, err
	}
	return active.Cmp(l.MinimumStake()) >= 0, nil
}

// IsStakeLocked reports whether any lock still blocks recovery.
func (l *Ledger) IsStakeLocked(operator thor.Address) (bool, error) {
	return l.isLocked(operator, l.now())
}

func (l *Ledger) GetLocks(operator thor.Address) ([]locks.Lock, error) {
	return l.lockService.Locks(operator)
}

// BurnedTotal returns everything slashed or seized and not rewarded.
func (l *Ledger) BurnedTotal() (*big.Int, error) {
	return l.burned.Get()
}

// TotalStaked returns the value held for all operators.
func (l *Ledger) TotalStaked() (*big.Int, error) {
	return l.delegationService.TotalStaked()
}

func (l *Ledger) IsAuthorizedForOperator(operator, contract thor.Address) (bool, error) {
	return l.authorityService.IsAuthorizedForOperator(l.registry, operator, contract)
}

// AuthoritySource returns the root of the contract's delegated authority chain.
func (l *Ledger) AuthoritySource(contract thor.Address) (thor.Address, error) {
	return l.authorityService.Root(contract)
}

//
// Internal helpers
//

// getExisting returns the record of operator, failing if it is absent.
func (l *Ledger) getExisting(operator thor.Address) (*delegation.Delegation, error) {
	d, err := l.delegationService.GetDelegation(operator)
	if err != nil {
		return nil, err
	}
	if d.IsAbsent() {
		return nil, errors.Wrapf(reverts.ErrNotDelegated, "operator %v", operator)
	}
	return d, nil
}

// checkSource verifies the owner class of a contribution against the caller.
func (l *Ledger) checkSource(caller thor.Address, owner delegation.OwnerRef) error {
	switch {
	case owner.Kind == delegation.Account:
		if owner.Address != caller {
			return errors.Wrapf(reverts.ErrWrongSource, "account owner %v is not the caller", owner.Address)
		}
	case owner.Kind.IsGrant():
		if owner.Address != l.grantBridge {
			return errors.Wrapf(reverts.ErrWrongSource, "grant owner %v is not the grant bridge", owner.Address)
		}
		if caller == l.grantBridge {
			return nil
		}
		d, err := l.ownedDepositor(caller)
		if err != nil {
			return err
		}
		if d == nil {
			return errors.Wrapf(reverts.ErrWrongSource, "grant stake from %v", caller)
		}
	default:
		return errors.Wrapf(reverts.ErrInvalidArgument, "unknown owner kind %v", owner.Kind)
	}
	return nil
}

func (l *Ledger) isLocked(operator thor.Address, now uint64) (bool, error) {
	all, err := l.lockService.Locks(operator)
	if err != nil {
		return false, err
	}
	for _, lock := range all {
		valid, err := l.isLockValid(lock, now)
		if err != nil {
			return false, err
		}
		if valid {
			return true, nil
		}
	}
	return false, nil
}

func (l *Ledger) isLockValid(lock locks.Lock, now uint64) (bool, error) {
	if lock.IsExpired(now) {
		return false, nil
	}
	return l.authorityService.IsValid(l.registry, lock.Creator)
}

// isLockedBy reports whether contract holds an unexpired lock on operator.
func (l *Ledger) isLockedBy(operator, contract thor.Address, now uint64) (bool, error) {
	lock, ok, err := l.lockService.Get(operator, contract)
	if err != nil || !ok {
		return false, err
	}
	return !lock.IsExpired(now), nil
}

// requireAuthorized checks the caller has valid authority and may act for operator.
func (l *Ledger) requireAuthorized(caller, operator thor.Address) error {
	valid, err := l.authorityService.IsValid(l.registry, caller)
	if err != nil {
		return err
	}
	if !valid {
		return errors.Wrapf(reverts.ErrNotApproved, "contract %v", caller)
	}
	authorized, err := l.authorityService.IsAuthorizedForOperator(l.registry, operator, caller)
	if err != nil {
		return err
	}
	if !authorized {
		return errors.Wrapf(reverts.ErrNotAuthorized, "contract %v for operator %v", caller, operator)
	}
	return nil
}

// settle closes a record and takes its value out of the ledger's accounting.
func (l *Ledger) settle(operator thor.Address, d *delegation.Delegation) (*big.Int, error) {
	amount := d.Total()
	d.Amount = new(big.Int)
	d.TopUp = delegation.TopUp{Amount: new(big.Int)}
	d.Settled = true
	if err := l.delegationService.Update(operator, d); err != nil {
		return nil, err
	}
	if err := l.delegationService.SubStake(amount); err != nil {
		return nil, err
	}
	l.lockService.Clear(operator)
	return amount, nil
}

// ownedDepositor returns the escrow at addr if this ledger owns it, nil otherwise.
func (l *Ledger) ownedDepositor(addr thor.Address) (Depositor, error) {
	for _, d := range l.depositors {
		if d.Address() != addr {
			continue
		}
		owner, err := d.Owner()
		if err != nil {
			return nil, err
		}
		if owner == l.Address() {
			return d, nil
		}
	}
	return nil, nil
}

// depositorFor returns the escrow grant value funded by preferred goes back to.
// Any escrow this ledger owns takes it when preferred is zero or no longer owned.
func (l *Ledger) depositorFor(preferred thor.Address) (Depositor, error) {
	if !preferred.IsZero() {
		d, err := l.ownedDepositor(preferred)
		if err != nil || d != nil {
			return d, err
		}
	}
	for _, d := range l.depositors {
		owner, err := d.Owner()
		if err != nil {
			return nil, err
		}
		if owner == l.Address() {
			return d, nil
		}
	}
	return nil, errors.Wrapf(reverts.ErrNotAuthorized, "no escrow takes deposits from %v", l.Address())
}

// depositTo moves grant value into the escrow d.
func (l *Ledger) depositTo(d Depositor, operator thor.Address, grantID uint64, amount *big.Int) error {
	if err := l.token.Transfer(l.Address(), d.Address(), amount); err != nil {
		return err
	}
	return d.Deposit(l.Address(), operator, grantID, amount)
}

// fundedByEscrow reports whether a grant contribution of caller comes from an escrow.
func (l *Ledger) fundedByEscrow(caller thor.Address, owner delegation.OwnerRef) bool {
	return owner.Kind.IsGrant() && caller != l.grantBridge
}

func (l *Ledger) burn(amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := l.token.Burn(l.Address(), amount); err != nil {
		return err
	}
	return l.burned.Add(amount)
}
