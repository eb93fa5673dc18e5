// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ops

import (
	"net/http"
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/thor"
)

// CallerHeader carries the account an operation is made on behalf of.
const CallerHeader = "X-Caller"

type Event struct {
	Address thor.Address   `json:"address"`
	Name    string         `json:"name,omitempty"`
	Topics  []thor.Bytes32 `json:"topics"`
	Data    string         `json:"data"`
}

// Receipt is the outcome of a posted operation. A reverted operation is
// still answered with 200, its reason and category set.
type Receipt struct {
	Seq      uint64       `json:"seq,omitempty"`
	Contract string       `json:"contract"`
	Op       string       `json:"op"`
	Caller   thor.Address `json:"caller"`
	Time     uint64       `json:"time"`
	Reverted bool         `json:"reverted"`
	Reason   string       `json:"reason,omitempty"`
	Category string       `json:"category,omitempty"`
	Events   []*Event     `json:"events"`
}

func convertReceipt(r *runtime.Receipt) *Receipt {
	res := &Receipt{
		Seq:      r.Seq,
		Contract: r.Contract,
		Op:       r.Name,
		Caller:   r.Caller,
		Time:     r.Time,
		Reverted: r.Reverted,
		Reason:   r.Reason,
		Events:   make([]*Event, 0, len(r.Events)),
	}
	if r.Reverted {
		res.Category = r.Category.String()
	}
	for _, ev := range r.Events {
		e := &Event{
			Address: ev.Address,
			Topics:  ev.Topics,
			Data:    hexutil.Encode(ev.Data),
		}
		if len(ev.Topics) > 0 {
			e.Name, _ = solidity.EventName(ev.Topics[0])
		}
		res.Events = append(res.Events, e)
	}
	return res
}

type Ops struct {
	node  *node.Node
	table map[string]map[string]binder
}

func New(n *node.Node) *Ops {
	return &Ops{
		node:  n,
		table: newTable(),
	}
}

func (o *Ops) handleList(w http.ResponseWriter, _ *http.Request) error {
	res := make(map[string][]string, len(o.table))
	for contract, ops := range o.table {
		names := make([]string, 0, len(ops))
		for name := range ops {
			names = append(names, name)
		}
		sort.Strings(names)
		res[contract] = names
	}
	return restutil.WriteJSON(w, res)
}

func (o *Ops) handleExec(w http.ResponseWriter, req *http.Request) error {
	vars := mux.Vars(req)
	contract, name := vars["contract"], vars["op"]

	b, ok := o.table[contract][name]
	if !ok {
		return restutil.NotFound(errors.Errorf("no operation %v.%v", contract, name))
	}
	caller, err := thor.ParseAddress(req.Header.Get(CallerHeader))
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, CallerHeader))
	}
	run, err := b(*caller, req.Body)
	if err != nil {
		return err
	}

	receipt, err := o.node.Exec(&runtime.Operation{
		Contract: contract,
		Name:     name,
		Caller:   *caller,
		Run:      run,
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, convertReceipt(receipt))
}

func (o *Ops) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /ops").
		HandlerFunc(restutil.WrapHandlerFunc(o.handleList))
	sub.Path("/{contract}/{op}").
		Methods(http.MethodPost).
		Name("POST /ops/{contract}/{op}").
		HandlerFunc(restutil.WrapHandlerFunc(o.handleExec))
}
