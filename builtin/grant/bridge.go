// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package grant

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var (
	logger = log.WithContext("pkg", "grant")

	slotGrants = thor.BytesToBytes32([]byte("grants"))
	slotStakes = thor.BytesToBytes32([]byte("grant-stakes"))
	slotNextID = thor.BytesToBytes32([]byte("grants-next-id"))
)

// Params describes a new grant.
type Params struct {
	Grantee   thor.Address
	Amount    *big.Int
	Unlocking Unlocking
	Revocable bool
	Policy    PolicyParams
}

type createdEvent struct {
	ID        uint64
	Amount    *big.Int
	Managed   bool
	Revocable bool
}

type grantAmountEvent struct {
	ID     uint64
	Amount *big.Int
}

type reassignmentEvent struct {
	ID         uint64
	NewGrantee thor.Address
}

// Bridge holds grants and delegates their value as owner of record. It stakes
// on its primary ledger and follows grant delegations onto the others, where
// escrows redelegate grant value.
type Bridge struct {
	sctx    *solidity.Context
	clock   thor.Clock
	token   *token.Token
	ledgers []*staking.Ledger

	grants *solidity.Mapping[solidity.BytesKey, *Grant]
	stakes *solidity.Mapping[solidity.BytesKey, *Stake]
	nextID *solidity.Raw[uint64]
}

// New creates the bridge. The first ledger is the one grants are staked on.
func New(addr thor.Address, state *state.State, clock thor.Clock, token *token.Token, ledger *staking.Ledger, others ...*staking.Ledger) *Bridge {
	sctx := solidity.NewContext(addr, state)
	return &Bridge{
		sctx:    sctx,
		clock:   clock,
		token:   token,
		ledgers: append([]*staking.Ledger{ledger}, others...),
		grants:  solidity.NewMapping[solidity.BytesKey, *Grant](sctx, slotGrants),
		stakes:  solidity.NewMapping[solidity.BytesKey, *Stake](sctx, slotStakes),
		nextID:  solidity.NewRaw[uint64](sctx, slotNextID),
	}
}

func (b *Bridge) Address() thor.Address {
	return b.sctx.Address()
}

// Ledger returns the ledger grants are staked on.
func (b *Bridge) Ledger() *staking.Ledger {
	return b.ledgers[0]
}

func idKey(id uint64) solidity.BytesKey {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], id)
	return k[:]
}

// GetGrant returns the grant with the given id, nil if there is none.
func (b *Bridge) GetGrant(id uint64) (*Grant, error) {
	g, err := b.grants.Get(idKey(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get grant")
	}
	if g != nil {
		g.normalize()
	}
	return g, nil
}

func (b *Bridge) getExisting(id uint64) (*Grant, error) {
	g, err := b.GetGrant(id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, errors.Wrapf(reverts.ErrInvalidArgument, "no grant %d", id)
	}
	return g, nil
}

func (b *Bridge) save(g *Grant) error {
	return b.grants.Upsert(idKey(g.ID), g)
}

// CreateGrant funds a grant from the caller, who becomes its manager.
func (b *Bridge) CreateGrant(caller thor.Address, params Params) (uint64, error) {
	return b.create(caller, params, false)
}

// CreateManagedGrant creates a grant whose grantee the manager can reassign on request.
func (b *Bridge) CreateManagedGrant(caller thor.Address, params Params) (uint64, error) {
	return b.create(caller, params, true)
}

func (b *Bridge) create(caller thor.Address, params Params, managed bool) (uint64, error) {
	logger.Debug("creating grant", "manager", caller, "grantee", params.Grantee, "amount", params.Amount, "managed", managed)

	if params.Grantee.IsZero() {
		return 0, errors.Wrap(reverts.ErrInvalidGrantee, "zero grantee")
	}
	if params.Amount == nil || params.Amount.Sign() <= 0 {
		return 0, errors.Wrap(reverts.ErrInvalidArgument, "grant amount must be positive")
	}
	u := params.Unlocking
	if u.Cliff < u.Start || u.Cliff > u.Start+u.Duration {
		return 0, errors.Wrapf(reverts.ErrInvalidArgument, "cliff %d outside [%d, %d]", u.Cliff, u.Start, u.Start+u.Duration)
	}
	if _, err := params.Policy.Policy(); err != nil {
		return 0, err
	}
	if err := b.token.Transfer(caller, b.Address(), params.Amount); err != nil {
		return 0, err
	}

	last, err := b.nextID.Get()
	if err != nil {
		return 0, err
	}
	id := last + 1
	if err := b.nextID.Upsert(id); err != nil {
		return 0, err
	}
	g := &Grant{
		ID:        id,
		Manager:   caller,
		Grantee:   params.Grantee,
		Amount:    new(big.Int).Set(params.Amount),
		Unlocking: u,
		Revocable: params.Revocable,
		Policy:    params.Policy,
		Managed:   managed,
	}
	g.normalize()
	if err := b.save(g); err != nil {
		return 0, err
	}

	logger.Info("grant created", "id", id, "grantee", params.Grantee, "amount", params.Amount)
	return id, b.sctx.Emit("GrantCreated", createdEvent{
		ID:        id,
		Amount:    params.Amount,
		Managed:   managed,
		Revocable: params.Revocable,
	}, solidity.AddressTopic(caller), solidity.AddressTopic(params.Grantee))
}

// UnlockedAmount returns the unlocked part of the grant now.
func (b *Bridge) UnlockedAmount(id uint64) (*big.Int, error) {
	g, err := b.getExisting(id)
	if err != nil {
		return nil, err
	}
	return g.UnlockedAmount(b.clock.Now()), nil
}

func (b *Bridge) Withdrawable(id uint64) (*big.Int, error) {
	g, err := b.getExisting(id)
	if err != nil {
		return nil, err
	}
	return g.Withdrawable(b.clock.Now()), nil
}

// StakeableAmount returns what the grantee may still delegate under the grant's policy.
func (b *Bridge) StakeableAmount(id uint64) (*big.Int, error) {
	g, err := b.getExisting(id)
	if err != nil {
		return nil, err
	}
	return b.stakeable(g)
}

func (b *Bridge) stakeable(g *Grant) (*big.Int, error) {
	policy, err := g.Policy.Policy()
	if err != nil {
		return nil, err
	}
	available := policy.StakeableAmount(b.clock.Now(), g, b.Ledger().MinimumStake())
	available.Sub(available, g.Staked)
	available.Sub(available, g.Escrowed)
	if held := g.Held(); available.Cmp(held) > 0 {
		available = held
	}
	if available.Sign() < 0 {
		return new(big.Int), nil
	}
	return available, nil
}

// Withdraw pays the grantee everything withdrawable.
func (b *Bridge) Withdraw(caller thor.Address, id uint64) error {
	logger.Debug("withdrawing grant", "id", id, "caller", caller)

	g, err := b.getExisting(id)
	if err != nil {
		return err
	}
	if caller != g.Grantee {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the grantee of %d", caller, id)
	}
	if !g.RequestedNewGrantee.IsZero() {
		return errors.Wrapf(reverts.ErrReassignmentPending, "grant %d", id)
	}
	amount := g.Withdrawable(b.clock.Now())
	if amount.Sign() == 0 {
		return errors.Wrapf(reverts.ErrNothingToWithdraw, "grant %d", id)
	}
	g.Withdrawn.Add(g.Withdrawn, amount)
	if err := b.save(g); err != nil {
		return err
	}
	if err := b.token.Transfer(b.Address(), g.Grantee, amount); err != nil {
		return err
	}

	logger.Info("grant withdrawn", "id", id, "amount", amount)
	return b.sctx.Emit("Withdrawn", grantAmountEvent{id, amount}, solidity.AddressTopic(g.Grantee))
}

// Revoke takes back the unvested part of a revocable grant and freezes unlocking.
func (b *Bridge) Revoke(caller thor.Address, id uint64) error {
	logger.Debug("revoking grant", "id", id, "caller", caller)

	g, err := b.getExisting(id)
	if err != nil {
		return err
	}
	if caller != g.Manager {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the manager of %d", caller, id)
	}
	if !g.Revocable {
		return errors.Wrapf(reverts.ErrNotRevocable, "grant %d", id)
	}
	if g.IsRevoked() {
		return errors.Wrapf(reverts.ErrAlreadyRevoked, "grant %d", id)
	}

	now := b.clock.Now()
	refund := new(big.Int).Sub(g.Amount, g.UnlockedAmount(now))
	g.RevokedAt = now
	g.RevokedAmount = refund

	liquid := g.RevokedWithdrawable(now)
	g.RevokedWithdrawn.Add(g.RevokedWithdrawn, liquid)
	if err := b.save(g); err != nil {
		return err
	}
	if liquid.Sign() > 0 {
		if err := b.token.Transfer(b.Address(), g.Manager, liquid); err != nil {
			return err
		}
	}

	logger.Info("grant revoked", "id", id, "refund", refund, "paid", liquid)
	return b.sctx.Emit("Revoked", grantAmountEvent{id, refund}, solidity.AddressTopic(g.Manager))
}

// WithdrawRevoked pays the manager the part of the refund that came back since revocation.
func (b *Bridge) WithdrawRevoked(caller thor.Address, id uint64) error {
	logger.Debug("withdrawing revoked grant", "id", id, "caller", caller)

	g, err := b.getExisting(id)
	if err != nil {
		return err
	}
	if caller != g.Manager {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the manager of %d", caller, id)
	}
	amount := g.RevokedWithdrawable(b.clock.Now())
	if amount.Sign() == 0 {
		return errors.Wrapf(reverts.ErrNothingToWithdraw, "grant %d", id)
	}
	g.RevokedWithdrawn.Add(g.RevokedWithdrawn, amount)
	if err := b.save(g); err != nil {
		return err
	}
	if err := b.token.Transfer(b.Address(), g.Manager, amount); err != nil {
		return err
	}

	logger.Info("revoked grant withdrawn", "id", id, "amount", amount)
	return b.sctx.Emit("RevokedWithdrawn", grantAmountEvent{id, amount}, solidity.AddressTopic(g.Manager))
}

// RequestReassignment asks the manager of a managed grant to hand it to newGrantee.
func (b *Bridge) RequestReassignment(caller thor.Address, id uint64, newGrantee thor.Address) error {
	logger.Debug("requesting reassignment", "id", id, "newGrantee", newGrantee)

	g, err := b.getExisting(id)
	if err != nil {
		return err
	}
	if !g.Managed {
		return errors.Wrapf(reverts.ErrInvalidArgument, "grant %d is not managed", id)
	}
	if caller != g.Grantee {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the grantee of %d", caller, id)
	}
	if newGrantee.IsZero() || newGrantee == g.Grantee {
		return errors.Wrapf(reverts.ErrInvalidGrantee, "%v", newGrantee)
	}
	g.RequestedNewGrantee = newGrantee
	if err := b.save(g); err != nil {
		return err
	}

	logger.Info("reassignment requested", "id", id, "newGrantee", newGrantee)
	return b.sctx.Emit("ReassignmentRequested", reassignmentEvent{id, newGrantee}, solidity.AddressTopic(caller))
}

// ConfirmReassignment completes a pending request. The grantee given must match it.
func (b *Bridge) ConfirmReassignment(caller thor.Address, id uint64, newGrantee thor.Address) error {
	logger.Debug("confirming reassignment", "id", id, "newGrantee", newGrantee)

	g, err := b.getExisting(id)
	if err != nil {
		return err
	}
	if caller != g.Manager {
		return errors.Wrapf(reverts.ErrNotAuthorized, "%v is not the manager of %d", caller, id)
	}
	if g.RequestedNewGrantee.IsZero() || g.RequestedNewGrantee != newGrantee {
		return errors.Wrapf(reverts.ErrReassignmentMismatch, "requested %v, confirmed %v", g.RequestedNewGrantee, newGrantee)
	}
	g.PreviousGrantee = g.Grantee
	g.Grantee = newGrantee
	g.RequestedNewGrantee = thor.Address{}
	g.ReassignedAt = b.clock.Now()
	if err := b.save(g); err != nil {
		return err
	}

	logger.Info("grant reassigned", "id", id, "from", g.PreviousGrantee, "to", newGrantee)
	return b.sctx.Emit("ReassignmentConfirmed", reassignmentEvent{id, newGrantee}, solidity.AddressTopic(g.PreviousGrantee))
}
