// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/thor"
)

type Deposit struct {
	Escrow           thor.Address          `json:"escrow"`
	Operator         thor.Address          `json:"operator"`
	GrantID          uint64                `json:"grantID"`
	Deposited        *math.HexOrDecimal256 `json:"deposited"`
	Withdrawn        *math.HexOrDecimal256 `json:"withdrawn"`
	Redelegated      *math.HexOrDecimal256 `json:"redelegated"`
	RevokedWithdrawn *math.HexOrDecimal256 `json:"revokedWithdrawn"`
	Withdrawable     *math.HexOrDecimal256 `json:"withdrawable"`
	Remaining        *math.HexOrDecimal256 `json:"remaining"`
}

func amount(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(v)
}

type Escrow struct {
	node *node.Node
}

func New(n *node.Node) *Escrow {
	return &Escrow{n}
}

func (e *Escrow) handleGetDeposit(w http.ResponseWriter, req *http.Request) error {
	operator, err := restutil.AddressVar(req, "operator")
	if err != nil {
		return err
	}
	escrowAddr, err := restutil.OptionalAddressQuery(req, "escrow")
	if err != nil {
		return err
	}
	if escrowAddr == nil {
		escrowAddr = &builtin.EscrowAddress
	}

	var res *Deposit
	if err := e.node.Query(func(c *builtin.Contracts) error {
		esc := c.EscrowAt(*escrowAddr)
		if esc == nil {
			return restutil.BadRequest(errors.Errorf("no escrow at %v", *escrowAddr))
		}
		d, err := esc.GetDeposit(operator)
		if err != nil || d == nil {
			return err
		}
		withdrawable, err := esc.Withdrawable(operator)
		if err != nil {
			return err
		}
		res = &Deposit{
			Escrow:           *escrowAddr,
			Operator:         operator,
			GrantID:          d.GrantID,
			Deposited:        amount(d.Deposited),
			Withdrawn:        amount(d.Withdrawn),
			Redelegated:      amount(d.Redelegated),
			RevokedWithdrawn: amount(d.RevokedWithdrawn),
			Withdrawable:     amount(withdrawable),
			Remaining:        amount(d.Remaining()),
		}
		return nil
	}); err != nil {
		return err
	}
	if res == nil {
		return restutil.NotFound(errors.Errorf("no deposit for %v", operator))
	}
	return restutil.WriteJSON(w, res)
}

func (e *Escrow) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{operator}").
		Methods(http.MethodGet).
		Name("GET /escrow/{operator}").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleGetDeposit))
}
