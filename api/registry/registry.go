// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/thor"
)

type Roles struct {
	Governance     thor.Address `json:"governance"`
	RegistryKeeper thor.Address `json:"registryKeeper"`
	PanicButton    thor.Address `json:"panicButton"`
}

type Contract struct {
	Contract thor.Address `json:"contract"`
	Status   string       `json:"status"`
	// Source is the root of the authority chain the contract acts with.
	Source thor.Address `json:"source"`
}

type Registry struct {
	node *node.Node
}

func New(n *node.Node) *Registry {
	return &Registry{n}
}

func (r *Registry) handleGetRoles(w http.ResponseWriter, _ *http.Request) error {
	res := &Roles{}
	if err := r.node.Query(func(c *builtin.Contracts) (err error) {
		if res.Governance, err = c.Registry.Governance(); err != nil {
			return
		}
		if res.RegistryKeeper, err = c.Registry.RegistryKeeper(); err != nil {
			return
		}
		res.PanicButton, err = c.Registry.PanicButton()
		return
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, res)
}

func (r *Registry) handleGetContract(w http.ResponseWriter, req *http.Request) error {
	contract, err := restutil.AddressVar(req, "contract")
	if err != nil {
		return err
	}
	res := &Contract{Contract: contract}
	if err := r.node.Query(func(c *builtin.Contracts) error {
		status, err := c.Registry.Status(contract)
		if err != nil {
			return err
		}
		res.Status = status.String()
		res.Source, err = c.Staking.AuthoritySource(contract)
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, res)
}

func (r *Registry) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /registry").
		HandlerFunc(restutil.WrapHandlerFunc(r.handleGetRoles))
	sub.Path("/{contract}").
		Methods(http.MethodGet).
		Name("GET /registry/{contract}").
		HandlerFunc(restutil.WrapHandlerFunc(r.handleGetContract))
}
