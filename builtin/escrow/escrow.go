// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package escrow holds value recovered from grant delegations and releases it
// on the unlock schedule of the originating grant.
package escrow

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/grant"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var (
	logger = log.WithContext("pkg", "escrow")

	slotAdmin      = thor.BytesToBytes32([]byte("escrow-admin"))
	slotOwner      = thor.BytesToBytes32([]byte("escrow-owner"))
	slotDeposits   = thor.BytesToBytes32([]byte("escrow-deposits"))
	slotAuthorized = thor.BytesToBytes32([]byte("escrow-authorized"))
	slotTotal      = thor.BytesToBytes32([]byte("escrow-total"))
)

// Deposit is the escrowed value recovered from one operator.
type Deposit struct {
	GrantID          uint64
	Deposited        *big.Int
	Withdrawn        *big.Int // includes redelegated and migrated value
	Redelegated      *big.Int
	RevokedWithdrawn *big.Int
}

// Remaining returns the value still held for the deposit.
func (d *Deposit) Remaining() *big.Int {
	r := new(big.Int).Sub(d.Deposited, d.Withdrawn)
	return r.Sub(r, d.RevokedWithdrawn)
}

func (d *Deposit) normalize() {
	for _, p := range []**big.Int{&d.Deposited, &d.Withdrawn, &d.Redelegated, &d.RevokedWithdrawn} {
		if *p == nil {
			*p = new(big.Int)
		}
	}
}

// Target receives deposits migrated from another escrow.
type Target interface {
	Address() thor.Address
	ReceiveMigration(caller, operator thor.Address, grantID uint64, amount *big.Int) error
}

type depositEvent struct {
	GrantID uint64
	Amount  *big.Int
}

type amountEvent struct {
	Amount *big.Int
}

type redelegatedEvent struct {
	NewOperator thor.Address
	Amount      *big.Int
}

type Escrow struct {
	sctx    *solidity.Context
	clock   thor.Clock
	bridge  *grant.Bridge
	token   *token.Token
	ledgers []*staking.Ledger

	admin      *solidity.Raw[thor.Address]
	owner      *solidity.Raw[thor.Address]
	deposits   *solidity.Mapping[thor.Address, *Deposit]
	authorized *solidity.Mapping[solidity.BytesKey, bool]
	total      *solidity.Uint256
}

// New creates the escrow. ledgers are the ledgers ownership may be transferred to.
func New(
	addr thor.Address,
	state *state.State,
	clock thor.Clock,
	bridge *grant.Bridge,
	token *token.Token,
	ledgers ...*staking.Ledger,
) *Escrow {
	sctx := solidity.NewContext(addr, state)
	return &Escrow{
		sctx:    sctx,
		clock:   clock,
		bridge:  bridge,
		token:   token,
		ledgers: ledgers,

		admin:      solidity.NewRaw[thor.Address](sctx, slotAdmin),
		owner:      solidity.NewRaw[thor.Address](sctx, slotOwner),
		deposits:   solidity.NewMapping[thor.Address, *Deposit](sctx, slotDeposits),
		authorized: solidity.NewMapping[solidity.BytesKey, bool](sctx, slotAuthorized),
		total:      solidity.NewUint256(sctx, slotTotal),
	}
}

func (e *Escrow) Address() thor.Address {
	return e.sctx.Address()
}

// Initialize sets the admin and the owning ledger. It can only be done once.
func (e *Escrow) Initialize(admin, ledger thor.Address) error {
	current, err := e.admin.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return errors.New("escrow already initialized")
	}
	if admin.IsZero() || ledger.IsZero() {
		return errors.Wrap(reverts.ErrInvalidArgument, "zero admin or ledger")
	}
	if err := e.admin.Upsert(admin); err != nil {
		return err
	}
	return e.owner.Upsert(ledger)
}

func (e *Escrow) Admin() (thor.Address, error) {
	return e.admin.Get()
}

// Owner returns the ledger allowed to deposit.
func (e *Escrow) Owner() (thor.Address, error) {
	return e.owner.Get()
}

// TotalHeld returns the value currently held across all deposits.
func (e *Escrow) TotalHeld() (*big.Int, error) {
	return e.total.Get()
}

func (e *Escrow) ledger() (*staking.Ledger, error) {
	owner, err := e.owner.Get()
	if err != nil {
		return nil, err
	}
	for _, l := range e.ledgers {
		if l.Address() == owner {
			return l, nil
		}
	}
	return nil, errors.Errorf("unknown ledger %v", owner)
}

// GetDeposit returns the deposit recovered from operator, nil if there is none.
func (e *Escrow) GetDeposit(operator thor.Address) (*Deposit, error) {
	d, err := e.deposits.Get(operator)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get deposit")
	}
	if d != nil {
		d.normalize()
	}
	return d, nil
}

func (e *Escrow) getExisting(operator thor.Address) (*Deposit, *grant.Grant, error) {
	d, err := e.GetDeposit(operator)
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, errors.Wrapf(reverts.ErrNothingToWithdraw, "no deposit for %v", operator)
	}
	g, err := e.bridge.GetGrant(d.GrantID)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, errors.Errorf("deposit of %v refers to missing grant %d", operator, d.GrantID)
	}
	return d, g, nil
}

func (e *Escrow) amountOf(operator thor.Address, field func(*Deposit) *big.Int) (*big.Int, error) {
	d, err := e.GetDeposit(operator)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return new(big.Int), nil
	}
	return field(d), nil
}

func (e *Escrow) DepositedAmount(operator thor.Address) (*big.Int, error) {
	return e.amountOf(operator, func(d *Deposit) *big.Int { return d.Deposited })
}

func (e *Escrow) DepositWithdrawnAmount(operator thor.Address) (*big.Int, error) {
	return e.amountOf(operator, func(d *Deposit) *big.Int { return d.Withdrawn })
}

func (e *Escrow) DepositRedelegatedAmount(operator thor.Address) (*big.Int, error) {
	return e.amountOf(operator, func(d *Deposit) *big.Int { return d.Redelegated })
}

// Deposit records value the owning ledger recovered from operator. The value
// must have been transferred to the escrow already.
func (e *Escrow) Deposit(caller, operator thor.Address, grantID uint64, amount *big.Int) error {
	logger.Debug("depositing", "operator", operator, "grant", grantID, "amount", amount)

	owner, err := e.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the owning ledger", caller)
	}
	if err := e.credit(operator, grantID, amount); err != nil {
		return err
	}

	logger.Info("deposited", "operator", operator, "grant", grantID, "amount", amount)
	return e.sctx.Emit("Deposited", depositEvent{grantID, amount}, solidity.AddressTopic(operator))
}

func (e *Escrow) credit(operator thor.Address, grantID uint64, amount *big.Int) error {
	g, err := e.bridge.GetGrant(grantID)
	if err != nil {
		return err
	}
	if g == nil {
		return errors.Wrapf(reverts.ErrInvalidArgument, "no grant %d", grantID)
	}
	d, err := e.GetDeposit(operator)
	if err != nil {
		return err
	}
	if d == nil {
		d = &Deposit{GrantID: grantID}
		d.normalize()
	} else if d.GrantID != grantID {
		return errors.Wrapf(reverts.ErrInvalidArgument, "operator %v holds a deposit of grant %d", operator, d.GrantID)
	}
	d.Deposited.Add(d.Deposited, amount)
	if err := e.deposits.Upsert(operator, d); err != nil {
		return err
	}
	return e.total.Add(amount)
}

// vested returns the part of the deposit released by the grant's schedule.
// Revocation freezes the schedule at the revocation time.
func (e *Escrow) vested(d *Deposit, g *grant.Grant) *big.Int {
	at := e.clock.Now()
	// a revoked grant stops unlocking at RevokedAt; what vested by then stays with the grantee
	if g.IsRevoked() {
		at = g.RevokedAt
	}
	return g.Unlocking.Unlocked(d.Deposited, at)
}

// Withdrawable returns what the grantee may withdraw from the deposit of operator.
func (e *Escrow) Withdrawable(operator thor.Address) (*big.Int, error) {
	d, err := e.GetDeposit(operator)
	if err != nil || d == nil {
		return new(big.Int), err
	}
	g, err := e.bridge.GetGrant(d.GrantID)
	if err != nil || g == nil {
		return new(big.Int), err
	}
	return e.withdrawable(d, g), nil
}

func (e *Escrow) withdrawable(d *Deposit, g *grant.Grant) *big.Int {
	w := e.vested(d, g)
	w.Sub(w, d.Withdrawn)
	if w.Sign() < 0 {
		return new(big.Int)
	}
	if remaining := d.Remaining(); w.Cmp(remaining) > 0 {
		return remaining
	}
	return w
}

// Withdraw pays the withdrawable part of a deposit to the grantee. Nothing
// withdrawable is not an error.
func (e *Escrow) Withdraw(caller, operator thor.Address) error {
	logger.Debug("withdrawing deposit", "operator", operator, "caller", caller)

	d, g, err := e.getExisting(operator)
	if err != nil {
		return err
	}
	if caller != g.Grantee && caller != operator {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v may not withdraw for %v", caller, operator)
	}
	amount := e.withdrawable(d, g)
	if amount.Sign() == 0 {
		return nil
	}
	d.Withdrawn.Add(d.Withdrawn, amount)
	if err := e.pay(operator, d, g.Grantee, amount); err != nil {
		return err
	}

	logger.Info("deposit withdrawn", "operator", operator, "amount", amount)
	return e.sctx.Emit("DepositWithdrawn", amountEvent{amount}, solidity.AddressTopic(operator), solidity.AddressTopic(g.Grantee))
}

// WithdrawRevoked pays the unvested remainder of a deposit of a revoked grant to its manager.
func (e *Escrow) WithdrawRevoked(caller, operator thor.Address) error {
	logger.Debug("withdrawing revoked deposit", "operator", operator, "caller", caller)

	d, g, err := e.getExisting(operator)
	if err != nil {
		return err
	}
	if !g.IsRevoked() {
		return errors.Wrapf(reverts.ErrNothingToWithdraw, "grant %d is not revoked", g.ID)
	}
	taken := e.vested(d, g)
	if d.Withdrawn.Cmp(taken) > 0 {
		taken = d.Withdrawn
	}
	amount := new(big.Int).Sub(d.Deposited, taken)
	amount.Sub(amount, d.RevokedWithdrawn)
	if amount.Sign() <= 0 {
		return errors.Wrapf(reverts.ErrNothingToWithdraw, "operator %v", operator)
	}
	d.RevokedWithdrawn.Add(d.RevokedWithdrawn, amount)
	if err := e.pay(operator, d, g.Manager, amount); err != nil {
		return err
	}

	logger.Info("revoked deposit withdrawn", "operator", operator, "amount", amount)
	return e.sctx.Emit("RevokedDepositWithdrawn", amountEvent{amount}, solidity.AddressTopic(operator), solidity.AddressTopic(g.Manager))
}

func (e *Escrow) pay(operator thor.Address, d *Deposit, to thor.Address, amount *big.Int) error {
	if err := e.deposits.Update(operator, d); err != nil {
		return err
	}
	if err := e.total.Sub(amount); err != nil {
		return err
	}
	return e.token.Transfer(e.Address(), to, amount)
}

// Redelegate stakes part of a deposit again, on a new delegation or as a
// top-up of a live delegation of the same grant.
func (e *Escrow) Redelegate(
	caller thor.Address,
	operator thor.Address,
	amount *big.Int,
	newOperator thor.Address,
	beneficiary thor.Address,
	authorizer thor.Address,
) error {
	logger.Debug("redelegating deposit", "operator", operator, "newOperator", newOperator, "amount", amount)

	d, g, err := e.getExisting(operator)
	if err != nil {
		return err
	}
	if caller != g.Grantee {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the grantee of %d", caller, g.ID)
	}
	if g.IsRevoked() {
		return errors.Wrapf(reverts.ErrGrantRevoked, "grant %d", g.ID)
	}
	if amount == nil || amount.Sign() <= 0 {
		return errors.Wrap(reverts.ErrInvalidArgument, "redelegated amount must be positive")
	}
	if remaining := d.Remaining(); amount.Cmp(remaining) > 0 {
		return errors.Wrapf(reverts.ErrInsufficientFunds, "%v above remaining %v", amount, remaining)
	}
	ledger, err := e.ledger()
	if err != nil {
		return err
	}

	ref := e.bridge.OwnerRef(g)
	status, err := ledger.StatusOf(newOperator)
	if err != nil {
		return err
	}
	if status == staking.StatusAbsent {
		err = ledger.CreateDelegation(e.Address(), newOperator, ref, beneficiary, authorizer, amount)
	} else {
		err = ledger.InitiateTopUp(e.Address(), newOperator, ref, amount)
	}
	if err != nil {
		return err
	}

	d.Withdrawn.Add(d.Withdrawn, amount)
	d.Redelegated.Add(d.Redelegated, amount)
	if err := e.deposits.Update(operator, d); err != nil {
		return err
	}
	if err := e.total.Sub(amount); err != nil {
		return err
	}

	logger.Info("deposit redelegated", "operator", operator, "newOperator", newOperator, "amount", amount)
	return e.sctx.Emit("Redelegated", redelegatedEvent{newOperator, amount}, solidity.AddressTopic(operator))
}

// AuthorizeEscrow adds target to the caller's allow-list of migration targets.
func (e *Escrow) AuthorizeEscrow(caller, target thor.Address) error {
	if target.IsZero() || target == e.Address() {
		return errors.Wrapf(reverts.ErrInvalidArgument, "target %v", target)
	}
	if err := e.authorized.Upsert(solidity.CompositeKey(caller, target), true); err != nil {
		return err
	}
	logger.Info("escrow authorized", "manager", caller, "target", target)
	return e.sctx.Emit("EscrowAuthorized", struct{}{}, solidity.AddressTopic(caller), solidity.AddressTopic(target))
}

func (e *Escrow) IsEscrowAuthorized(manager, target thor.Address) (bool, error) {
	return e.authorized.Get(solidity.CompositeKey(manager, target))
}

// Migrate moves the remaining balance of a deposit into an escrow authorized by the grant's manager.
func (e *Escrow) Migrate(caller, operator thor.Address, target Target) error {
	logger.Debug("migrating deposit", "operator", operator, "target", target.Address())

	d, g, err := e.getExisting(operator)
	if err != nil {
		return err
	}
	if caller != g.Grantee {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the grantee of %d", caller, g.ID)
	}
	ok, err := e.IsEscrowAuthorized(g.Manager, target.Address())
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(reverts.ErrNotAuthorized, "escrow %v is not authorized by the manager", target.Address())
	}
	amount := d.Remaining()
	if amount.Sign() == 0 {
		return errors.Wrapf(reverts.ErrNothingToWithdraw, "operator %v", operator)
	}
	d.Withdrawn.Add(d.Withdrawn, amount)
	if err := e.pay(operator, d, target.Address(), amount); err != nil {
		return err
	}
	if err := target.ReceiveMigration(e.Address(), operator, d.GrantID, amount); err != nil {
		return err
	}

	logger.Info("deposit migrated", "operator", operator, "target", target.Address(), "amount", amount)
	return e.sctx.Emit("Migrated", amountEvent{amount}, solidity.AddressTopic(operator), solidity.AddressTopic(target.Address()))
}

// ReceiveMigration credits a deposit moved here by another escrow, which has transferred the value already.
func (e *Escrow) ReceiveMigration(caller, operator thor.Address, grantID uint64, amount *big.Int) error {
	if caller == e.Address() {
		return errors.Wrap(reverts.ErrInvalidArgument, "migration to self")
	}
	if err := e.credit(operator, grantID, amount); err != nil {
		return err
	}
	logger.Info("migration received", "from", caller, "operator", operator, "amount", amount)
	return e.sctx.Emit("MigrationReceived", depositEvent{grantID, amount}, solidity.AddressTopic(operator), solidity.AddressTopic(caller))
}

// TransferOwnership makes newLedger the only ledger allowed to deposit.
func (e *Escrow) TransferOwnership(caller, newLedger thor.Address) error {
	admin, err := e.admin.Get()
	if err != nil {
		return err
	}
	if caller != admin {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the escrow admin", caller)
	}
	if newLedger.IsZero() {
		return errors.Wrap(reverts.ErrInvalidArgument, "zero ledger")
	}
	if err := e.owner.Upsert(newLedger); err != nil {
		return err
	}
	logger.Info("escrow ownership transferred", "ledger", newLedger)
	return e.sctx.Emit("OwnershipTransferred", struct{}{}, solidity.AddressTopic(newLedger))
}
