// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ops

import (
	"io"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/builtin/staking/delegation"
	"github.com/vechain/stakeledger/thor"
)

// binder decodes the arguments of an operation and binds them to the caller.
type binder func(caller thor.Address, body io.Reader) (func(c *builtin.Contracts) error, error)

func bind[T any](fn func(c *builtin.Contracts, caller thor.Address, args *T) error) binder {
	return func(caller thor.Address, body io.Reader) (func(c *builtin.Contracts) error, error) {
		var args T
		if err := restutil.ParseJSON(body, &args); err != nil && err != io.EOF {
			return nil, restutil.BadRequest(errors.WithMessage(err, "body"))
		}
		return func(c *builtin.Contracts) error {
			return fn(c, caller, &args)
		}, nil
	}
}

func ledgerOps(addr thor.Address) map[string]binder {
	at := func(c *builtin.Contracts) *staking.Ledger {
		return c.LedgerAt(addr)
	}
	return map[string]binder{
		"createDelegation": bind(func(c *builtin.Contracts, caller thor.Address, a *delegateArgs) error {
			return at(c).CreateDelegation(caller, a.Operator, delegation.AccountOwner(caller), a.Beneficiary, a.Authorizer, bigOf(a.Amount))
		}),
		"cancelStake": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
			return at(c).CancelStake(caller, a.Operator)
		}),
		"undelegate": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
			return at(c).Undelegate(caller, a.Operator)
		}),
		"undelegateAt": bind(func(c *builtin.Contracts, caller thor.Address, a *undelegateAtArgs) error {
			return at(c).UndelegateAt(caller, a.Operator, a.At)
		}),
		"recoverStake": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
			return at(c).RecoverStake(caller, a.Operator)
		}),
		"topUp": bind(func(c *builtin.Contracts, caller thor.Address, a *topUpArgs) error {
			return at(c).InitiateTopUp(caller, a.Operator, delegation.AccountOwner(caller), bigOf(a.Amount))
		}),
		"commitTopUp": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
			return at(c).CommitTopUp(caller, a.Operator)
		}),
		"transferStakeOwnership": bind(func(c *builtin.Contracts, caller thor.Address, a *newOwnerArgs) error {
			return at(c).TransferStakeOwnership(caller, a.Operator, a.NewOwner)
		}),
		"lockStake": bind(func(c *builtin.Contracts, caller thor.Address, a *lockArgs) error {
			return at(c).LockStake(caller, a.Operator, a.Duration)
		}),
		"unlockStake": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
			return at(c).UnlockStake(caller, a.Operator)
		}),
		"releaseExpiredLock": bind(func(c *builtin.Contracts, caller thor.Address, a *releaseLockArgs) error {
			return at(c).ReleaseExpiredLock(caller, a.Operator, a.Contract)
		}),
		"slash": bind(func(c *builtin.Contracts, caller thor.Address, a *slashArgs) error {
			return at(c).Slash(caller, bigOf(a.Amount), a.Operators)
		}),
		"seize": bind(func(c *builtin.Contracts, caller thor.Address, a *seizeArgs) error {
			return at(c).Seize(caller, bigOf(a.Amount), a.RewardMultiplier, a.Reporter, a.Operators)
		}),
		"authorizeOperatorContract": bind(func(c *builtin.Contracts, caller thor.Address, a *authorizeArgs) error {
			return at(c).AuthorizeOperatorContract(caller, a.Operator, a.Contract)
		}),
		"claimDelegatedAuthority": bind(func(c *builtin.Contracts, caller thor.Address, a *sourceArgs) error {
			return at(c).ClaimDelegatedAuthority(caller, a.Source)
		}),
	}
}

func escrowOps(addr thor.Address) map[string]binder {
	return map[string]binder{
		"withdraw": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
			return c.EscrowAt(addr).Withdraw(caller, a.Operator)
		}),
		"withdrawRevoked": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
			return c.EscrowAt(addr).WithdrawRevoked(caller, a.Operator)
		}),
		"redelegate": bind(func(c *builtin.Contracts, caller thor.Address, a *redelegateArgs) error {
			return c.EscrowAt(addr).Redelegate(caller, a.Operator, bigOf(a.Amount), a.NewOperator, a.Beneficiary, a.Authorizer)
		}),
		"authorizeEscrow": bind(func(c *builtin.Contracts, caller thor.Address, a *targetArgs) error {
			return c.EscrowAt(addr).AuthorizeEscrow(caller, a.Target)
		}),
		"migrate": bind(func(c *builtin.Contracts, caller thor.Address, a *migrateArgs) error {
			target := c.EscrowAt(a.Target)
			if target == nil {
				return errors.Wrapf(reverts.ErrInvalidArgument, "no escrow at %v", a.Target)
			}
			return c.EscrowAt(addr).Migrate(caller, a.Operator, target)
		}),
		"transferOwnership": bind(func(c *builtin.Contracts, caller thor.Address, a *ledgerArgs) error {
			return c.EscrowAt(addr).TransferOwnership(caller, a.Ledger)
		}),
	}
}

func newTable() map[string]map[string]binder {
	return map[string]map[string]binder{
		"token": {
			"transfer": bind(func(c *builtin.Contracts, caller thor.Address, a *transferArgs) error {
				return c.Token.Transfer(caller, a.To, bigOf(a.Amount))
			}),
		},
		"registry": {
			"approve": bind(func(c *builtin.Contracts, caller thor.Address, a *contractArgs) error {
				return c.Registry.Approve(caller, a.Contract)
			}),
			"disable": bind(func(c *builtin.Contracts, caller thor.Address, a *contractArgs) error {
				return c.Registry.Disable(caller, a.Contract)
			}),
			"recognize": bind(func(c *builtin.Contracts, caller thor.Address, a *claimantArgs) error {
				return c.Registry.Recognize(caller, a.Claimant)
			}),
			"unrecognize": bind(func(c *builtin.Contracts, caller thor.Address, a *claimantArgs) error {
				return c.Registry.Unrecognize(caller, a.Claimant)
			}),
			"setRegistryKeeper": bind(func(c *builtin.Contracts, caller thor.Address, a *addressArgs) error {
				return c.Registry.SetRegistryKeeper(caller, a.Address)
			}),
			"setPanicButton": bind(func(c *builtin.Contracts, caller thor.Address, a *addressArgs) error {
				return c.Registry.SetPanicButton(caller, a.Address)
			}),
			"transferGovernance": bind(func(c *builtin.Contracts, caller thor.Address, a *addressArgs) error {
				return c.Registry.TransferGovernance(caller, a.Address)
			}),
		},
		"staking":   ledgerOps(builtin.StakingAddress),
		"stakingv2": ledgerOps(builtin.StakingV2Address),
		"grants": {
			"createGrant": bind(func(c *builtin.Contracts, caller thor.Address, a *createGrantArgs) error {
				_, err := c.Grants.CreateGrant(caller, a.params())
				return err
			}),
			"createManagedGrant": bind(func(c *builtin.Contracts, caller thor.Address, a *createGrantArgs) error {
				_, err := c.Grants.CreateManagedGrant(caller, a.params())
				return err
			}),
			"withdraw": bind(func(c *builtin.Contracts, caller thor.Address, a *grantArgs) error {
				return c.Grants.Withdraw(caller, a.ID)
			}),
			"revoke": bind(func(c *builtin.Contracts, caller thor.Address, a *grantArgs) error {
				return c.Grants.Revoke(caller, a.ID)
			}),
			"withdrawRevoked": bind(func(c *builtin.Contracts, caller thor.Address, a *grantArgs) error {
				return c.Grants.WithdrawRevoked(caller, a.ID)
			}),
			"requestReassignment": bind(func(c *builtin.Contracts, caller thor.Address, a *reassignArgs) error {
				return c.Grants.RequestReassignment(caller, a.ID, a.NewGrantee)
			}),
			"confirmReassignment": bind(func(c *builtin.Contracts, caller thor.Address, a *reassignArgs) error {
				return c.Grants.ConfirmReassignment(caller, a.ID, a.NewGrantee)
			}),
			"stake": bind(func(c *builtin.Contracts, caller thor.Address, a *grantStakeArgs) error {
				return c.Grants.Stake(caller, a.ID, a.Operator, a.Beneficiary, a.Authorizer, bigOf(a.Amount))
			}),
			"topUp": bind(func(c *builtin.Contracts, caller thor.Address, a *grantTopUpArgs) error {
				return c.Grants.TopUp(caller, a.ID, a.Operator, bigOf(a.Amount))
			}),
			"cancelStake": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
				return c.Grants.CancelStake(caller, a.Operator)
			}),
			"undelegate": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
				return c.Grants.Undelegate(caller, a.Operator)
			}),
			"undelegateAt": bind(func(c *builtin.Contracts, caller thor.Address, a *undelegateAtArgs) error {
				return c.Grants.UndelegateAt(caller, a.Operator, a.At)
			}),
			"recoverStake": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
				return c.Grants.RecoverStake(caller, a.Operator)
			}),
		},
		"escrow":   escrowOps(builtin.EscrowAddress),
		"escrowv2": escrowOps(builtin.EscrowV2Address),
		"portbacker": {
			"allowOperators": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorsArgs) error {
				return c.PortBacker.AllowOperators(caller, a.Operators)
			}),
			"copyStake": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
				return c.PortBacker.CopyStake(caller, a.Operator)
			}),
			"payBack": bind(func(c *builtin.Contracts, caller thor.Address, a *payBackArgs) error {
				return c.PortBacker.PayBack(caller, a.Operator, bigOf(a.Amount))
			}),
			"undelegate": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
				return c.PortBacker.Undelegate(caller, a.Operator)
			}),
			"forceUndelegate": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
				return c.PortBacker.ForceUndelegate(caller, a.Operator)
			}),
			"recoverStake": bind(func(c *builtin.Contracts, caller thor.Address, a *operatorArgs) error {
				return c.PortBacker.RecoverStake(caller, a.Operator)
			}),
			"withdraw": bind(func(c *builtin.Contracts, caller thor.Address, a *amountArgs) error {
				return c.PortBacker.Withdraw(caller, bigOf(a.Amount))
			}),
		},
	}
}
