// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the errors an operation reverts with.
package reverts

import (
	"errors"
)

// Category groups revert errors by their cause.
type Category uint8

const (
	CategoryUnknown Category = iota
	// Authorization means the caller may not perform the operation.
	Authorization
	// State means the record is not in a state allowing the operation.
	State
	// Input means the arguments are invalid.
	Input
	// Resource means there is not enough value to perform the operation.
	Resource
)

func (c Category) String() string {
	switch c {
	case Authorization:
		return "authorization"
	case State:
		return "state"
	case Input:
		return "input"
	case Resource:
		return "resource"
	default:
		return "unknown"
	}
}

type ErrRevert struct {
	category Category
	message  string
}

func New(category Category, message string) *ErrRevert {
	return &ErrRevert{
		category: category,
		message:  message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Category() Category {
	return e.category
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// CategoryOf returns the category of the revert error wrapped in err.
func CategoryOf(err error) Category {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.category
	}
	return CategoryUnknown
}

// Authorization
var (
	ErrNotAuthorized        = New(Authorization, "not authorized")
	ErrNotApproved          = New(Authorization, "contract is not approved")
	ErrWrongSource          = New(Authorization, "wrong source")
	ErrUnrecognizedClaimant = New(Authorization, "unrecognized claimant")
	ErrOperatorNotAllowed   = New(Authorization, "operator not allowed")
	ErrContractNotNew       = New(Authorization, "contract is not new")
)

// State
var (
	ErrStillInitializing    = New(State, "stake is initializing")
	ErrInitializationOver   = New(State, "initialization period is over")
	ErrNotUndelegated       = New(State, "stake is not undelegated")
	ErrAlreadyUndelegated   = New(State, "stake is already undelegated")
	ErrStillUndelegating    = New(State, "stake is still undelegating")
	ErrLockedStake          = New(State, "stake is locked")
	ErrStakeReleased        = New(State, "stake is released")
	ErrOperatorInUse        = New(State, "operator is already in use")
	ErrNotDelegated         = New(State, "no stake delegated")
	ErrNoTopUp              = New(State, "no top-up initiated")
	ErrGrantRevoked         = New(State, "grant is revoked")
	ErrAlreadyRevoked       = New(State, "grant is already revoked")
	ErrNotRevocable         = New(State, "grant is not revocable")
	ErrReassignmentPending  = New(State, "grantee reassignment is pending")
	ErrAlreadyCopied        = New(State, "stake is already copied")
	ErrNotCopied            = New(State, "stake is not copied")
	ErrAlreadyPaidBack      = New(State, "stake is already paid back")
	ErrBackingNotExpired    = New(State, "backing period is not over")
	ErrReassignmentMismatch = New(State, "reassignment does not match the request")
)

// Input
var (
	ErrTimeInPast       = New(Input, "time is in the past")
	ErrZeroTopUp        = New(Input, "top-up amount is zero")
	ErrLockTooLong      = New(Input, "lock duration is too long")
	ErrInvalidGrantee   = New(Input, "invalid grantee")
	ErrUnexpectedAmount = New(Input, "unexpected amount")
	ErrInvalidArgument  = New(Input, "invalid argument")
)

// Resource
var (
	ErrBelowMinimumStake = New(Resource, "amount is below the minimum stake")
	ErrInsufficientFunds = New(Resource, "insufficient funds")
	ErrNothingToWithdraw = New(Resource, "nothing to withdraw")
)
