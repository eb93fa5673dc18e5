// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegations

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/thor"
)

// Delegations serves the records of one ledger.
type Delegations struct {
	node   *node.Node
	ledger thor.Address
}

func New(n *node.Node, ledger thor.Address) *Delegations {
	return &Delegations{n, ledger}
}

func (d *Delegations) query(fn func(l *staking.Ledger, now uint64) error) error {
	return d.node.Query(func(c *builtin.Contracts) error {
		l := c.LedgerAt(d.ledger)
		if l == nil {
			return errors.Errorf("no ledger at %v", d.ledger)
		}
		return fn(l, d.node.Clock().Now())
	})
}

func (d *Delegations) handleGetDelegation(w http.ResponseWriter, req *http.Request) error {
	operator, err := restutil.AddressVar(req, "operator")
	if err != nil {
		return err
	}
	var res *Delegation
	if err := d.query(func(l *staking.Ledger, _ uint64) error {
		del, err := l.GetDelegation(operator)
		if err != nil {
			return err
		}
		if del == nil {
			return nil
		}
		status, err := l.StatusOf(operator)
		if err != nil {
			return err
		}
		locked, err := l.IsStakeLocked(operator)
		if err != nil {
			return err
		}
		res = convertDelegation(operator, del, status, locked)
		return nil
	}); err != nil {
		return err
	}
	if res == nil {
		return restutil.NotFound(errors.Errorf("no delegation for %v", operator))
	}
	return restutil.WriteJSON(w, res)
}

func (d *Delegations) handleGetLocks(w http.ResponseWriter, req *http.Request) error {
	operator, err := restutil.AddressVar(req, "operator")
	if err != nil {
		return err
	}
	var res []*Lock
	if err := d.query(func(l *staking.Ledger, now uint64) error {
		ls, err := l.GetLocks(operator)
		if err != nil {
			return err
		}
		res = convertLocks(ls, now)
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, res)
}

func (d *Delegations) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	operator, err := restutil.AddressVar(req, "operator")
	if err != nil {
		return err
	}
	contract, err := restutil.OptionalAddressQuery(req, "contract")
	if err != nil {
		return err
	}
	if contract == nil {
		return restutil.BadRequest(errors.New("contract: required"))
	}

	res := &Stake{Contract: *contract}
	if err := d.query(func(l *staking.Ledger, _ uint64) error {
		active, err := l.ActiveStake(operator, *contract)
		if err != nil {
			return err
		}
		eligible, err := l.EligibleStake(operator, *contract)
		if err != nil {
			return err
		}
		if res.HasMinimum, err = l.HasMinimumStake(operator, *contract); err != nil {
			return err
		}
		if res.Authorized, err = l.IsAuthorizedForOperator(operator, *contract); err != nil {
			return err
		}
		res.Active, res.Eligible = amount(active), amount(eligible)
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, res)
}

func (d *Delegations) handleGetSchedule(w http.ResponseWriter, _ *http.Request) error {
	res := &Schedule{}
	if err := d.query(func(l *staking.Ledger, now uint64) error {
		staked, err := l.TotalStaked()
		if err != nil {
			return err
		}
		burned, err := l.BurnedTotal()
		if err != nil {
			return err
		}
		res.Now = now
		res.MinimumStake = amount(l.MinimumStake())
		res.InitializationPeriod = l.InitializationPeriod()
		res.UndelegationPeriod = l.UndelegationPeriod()
		res.MaximumLockDuration = l.MaximumLockDuration()
		res.TotalStaked = amount(staked)
		res.Burned = amount(burned)
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, res)
}

func (d *Delegations) Mount(root *mux.Router, pathPrefix string) {
	sub := root
	if pathPrefix != "" {
		sub = root.PathPrefix(pathPrefix).Subrouter()
	}

	sub.Path("/schedule").
		Methods(http.MethodGet).
		Name("GET /schedule").
		HandlerFunc(restutil.WrapHandlerFunc(d.handleGetSchedule))
	sub.Path("/delegations/{operator}").
		Methods(http.MethodGet).
		Name("GET /delegations/{operator}").
		HandlerFunc(restutil.WrapHandlerFunc(d.handleGetDelegation))
	sub.Path("/delegations/{operator}/locks").
		Methods(http.MethodGet).
		Name("GET /delegations/{operator}/locks").
		HandlerFunc(restutil.WrapHandlerFunc(d.handleGetLocks))
	sub.Path("/delegations/{operator}/stake").
		Methods(http.MethodGet).
		Name("GET /delegations/{operator}/stake").
		HandlerFunc(restutil.WrapHandlerFunc(d.handleGetStake))
}
