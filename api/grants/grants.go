// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package grants

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/grant"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/thor"
)

type Grant struct {
	ID                  uint64                `json:"id"`
	Manager             thor.Address          `json:"manager"`
	Grantee             thor.Address          `json:"grantee"`
	Managed             bool                  `json:"managed"`
	Revocable           bool                  `json:"revocable"`
	Amount              *math.HexOrDecimal256 `json:"amount"`
	Withdrawn           *math.HexOrDecimal256 `json:"withdrawn"`
	Staked              *math.HexOrDecimal256 `json:"staked"`
	Escrowed            *math.HexOrDecimal256 `json:"escrowed"`
	Unlocked            *math.HexOrDecimal256 `json:"unlocked"`
	Withdrawable        *math.HexOrDecimal256 `json:"withdrawable"`
	Stakeable           *math.HexOrDecimal256 `json:"stakeable"`
	RevokedAt           uint64                `json:"revokedAt,omitempty"`
	RevokedAmount       *math.HexOrDecimal256 `json:"revokedAmount,omitempty"`
	RevokedWithdrawable *math.HexOrDecimal256 `json:"revokedWithdrawable,omitempty"`
	Start               uint64                `json:"start"`
	Cliff               uint64                `json:"cliff"`
	Duration            uint64                `json:"duration"`
	Policy              uint8                 `json:"policy"`
	RequestedNewGrantee *thor.Address         `json:"requestedNewGrantee,omitempty"`
}

func amount(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(v)
}

type Grants struct {
	node *node.Node
}

func New(n *node.Node) *Grants {
	return &Grants{n}
}

func (g *Grants) handleGetGrant(w http.ResponseWriter, req *http.Request) error {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "id"))
	}
	now := g.node.Clock().Now()

	var res *Grant
	if err := g.node.Query(func(c *builtin.Contracts) error {
		gr, err := c.Grants.GetGrant(id)
		if err != nil || gr == nil {
			return err
		}
		stakeable, err := c.Grants.StakeableAmount(id)
		if err != nil {
			return err
		}
		res = convertGrant(gr, now, stakeable)
		return nil
	}); err != nil {
		return err
	}
	if res == nil {
		return restutil.NotFound(errors.Errorf("no grant %d", id))
	}
	return restutil.WriteJSON(w, res)
}

func convertGrant(g *grant.Grant, now uint64, stakeable *big.Int) *Grant {
	res := &Grant{
		ID:           g.ID,
		Manager:      g.Manager,
		Grantee:      g.Grantee,
		Managed:      g.Managed,
		Revocable:    g.Revocable,
		Amount:       amount(g.Amount),
		Withdrawn:    amount(g.Withdrawn),
		Staked:       amount(g.Staked),
		Escrowed:     amount(g.Escrowed),
		Unlocked:     amount(g.UnlockedAmount(now)),
		Withdrawable: amount(g.Withdrawable(now)),
		Stakeable:    amount(stakeable),
		Start:        g.Unlocking.Start,
		Cliff:        g.Unlocking.Cliff,
		Duration:     g.Unlocking.Duration,
		Policy:       uint8(g.Policy.Kind),
	}
	if g.IsRevoked() {
		res.RevokedAt = g.RevokedAt
		res.RevokedAmount = amount(g.RevokedAmount)
		res.RevokedWithdrawable = amount(g.RevokedWithdrawable(now))
	}
	if !g.RequestedNewGrantee.IsZero() {
		requested := g.RequestedNewGrantee
		res.RequestedNewGrantee = &requested
	}
	return res
}

func (g *Grants) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /grants/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(g.handleGetGrant))
}
