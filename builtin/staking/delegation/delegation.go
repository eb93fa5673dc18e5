// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"fmt"
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

// OwnerKind is the class of the owner of record.
type OwnerKind uint8

const (
	Account OwnerKind = iota
	Grant
	ManagedGrant
)

func (k OwnerKind) String() string {
	switch k {
	case Account:
		return "account"
	case Grant:
		return "grant"
	case ManagedGrant:
		return "managed-grant"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsGrant returns whether the owner is grant-derived.
func (k OwnerKind) IsGrant() bool {
	return k == Grant || k == ManagedGrant
}

// OwnerRef identifies the owner of record of a delegation.
// For grant kinds Address is the grant bridge and GrantID names the grant.
type OwnerRef struct {
	Kind    OwnerKind
	Address thor.Address
	GrantID uint64
}

func AccountOwner(addr thor.Address) OwnerRef {
	return OwnerRef{Kind: Account, Address: addr}
}

func GrantOwner(kind OwnerKind, bridge thor.Address, id uint64) OwnerRef {
	return OwnerRef{Kind: kind, Address: bridge, GrantID: id}
}

func (o OwnerRef) String() string {
	if o.Kind.IsGrant() {
		return fmt.Sprintf("%v(%d@%v)", o.Kind, o.GrantID, o.Address)
	}
	return o.Address.String()
}

// SameSource returns whether both refs come from the same owner class and grant.
func (o OwnerRef) SameSource(other OwnerRef) bool {
	return o == other
}

// TopUp is a top-up waiting to be committed.
type TopUp struct {
	Amount      *big.Int
	InitiatedAt uint64
}

// IsPending returns whether there is anything to commit.
func (t *TopUp) IsPending() bool {
	return t.Amount != nil && t.Amount.Sign() > 0
}

type Delegation struct {
	Amount        *big.Int
	Owner         OwnerRef
	Beneficiary   thor.Address
	Authorizer    thor.Address
	Funder        thor.Address // the account the value was pulled from at creation
	Escrow        thor.Address // the escrow that funded part of the value, zero if none did
	Escrowed      *big.Int     // value funded by Escrow, pending top-ups included
	CreatedAt     uint64
	UndelegatedAt uint64 // 0 while not undelegating
	TopUp         TopUp
	Settled       bool // cancelled or recovered, kept for history
}

// IsAbsent returns whether the operator is free for a new delegation.
func (d *Delegation) IsAbsent() bool {
	return d == nil || d.Settled
}

// IsInitializing returns whether the initialization period is still running.
func (d *Delegation) IsInitializing(now, initializationPeriod uint64) bool {
	return now < d.CreatedAt+initializationPeriod
}

// IsUndelegated returns whether an undelegation time is set.
func (d *Delegation) IsUndelegated() bool {
	return d.UndelegatedAt != 0
}

// IsReleased returns whether the scheduled undelegation has taken effect.
func (d *Delegation) IsReleased(now uint64) bool {
	return d.UndelegatedAt != 0 && now > d.UndelegatedAt
}

// IsRecoverable returns whether the undelegation period is over.
func (d *Delegation) IsRecoverable(now, undelegationPeriod uint64) bool {
	return d.UndelegatedAt != 0 && now >= d.UndelegatedAt+undelegationPeriod
}

// Total returns the amount plus any uncommitted top-up.
func (d *Delegation) Total() *big.Int {
	total := new(big.Int)
	if d.Amount != nil {
		total.Set(d.Amount)
	}
	if d.TopUp.IsPending() {
		total.Add(total, d.TopUp.Amount)
	}
	return total
}

// EscrowShare returns the part of the value to give back to the funding
// escrow, never more than the value left.
func (d *Delegation) EscrowShare() *big.Int {
	share := new(big.Int)
	if d.Escrowed != nil {
		share.Set(d.Escrowed)
	}
	if total := d.Total(); share.Cmp(total) > 0 {
		return total
	}
	return share
}

// Copy returns a deep copy.
func (d *Delegation) Copy() *Delegation {
	cpy := *d
	cpy.Amount = new(big.Int)
	if d.Amount != nil {
		cpy.Amount.Set(d.Amount)
	}
	cpy.TopUp.Amount = new(big.Int)
	if d.TopUp.Amount != nil {
		cpy.TopUp.Amount.Set(d.TopUp.Amount)
	}
	cpy.Escrowed = new(big.Int)
	if d.Escrowed != nil {
		cpy.Escrowed.Set(d.Escrowed)
	}
	return &cpy
}
