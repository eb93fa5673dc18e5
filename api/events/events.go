// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/thor"
)

type Event struct {
	Seq     uint64         `json:"seq"`
	Index   uint32         `json:"index"`
	Time    uint64         `json:"time"`
	Caller  thor.Address   `json:"caller"`
	Address thor.Address   `json:"address"`
	Name    string         `json:"name,omitempty"`
	Topics  []thor.Bytes32 `json:"topics"`
	Data    string         `json:"data"`
}

func convertEvent(e *logdb.Event) *Event {
	ev := &Event{
		Seq:     e.Seq,
		Index:   e.Index,
		Time:    e.Time,
		Caller:  e.Caller,
		Address: e.Address,
		Data:    hexutil.Encode(e.Data),
	}
	for _, topic := range e.Topics {
		if topic != nil {
			ev.Topics = append(ev.Topics, *topic)
		}
	}
	if e.Topics[0] != nil {
		ev.Name, _ = solidity.EventName(*e.Topics[0])
	}
	return ev
}

type Events struct {
	db    *logdb.LogDB
	limit uint64
}

func New(db *logdb.LogDB, limit uint64) *Events {
	return &Events{db, limit}
}

func parseUint(req *http.Request, name string, def uint64) (uint64, error) {
	s := req.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, restutil.BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}

func (e *Events) parseFilter(req *http.Request) (*logdb.EventFilter, error) {
	query := req.URL.Query()
	criteria := &logdb.EventCriteria{}

	addr, err := restutil.OptionalAddressQuery(req, "address")
	if err != nil {
		return nil, err
	}
	criteria.Address = addr
	if criteria.Caller, err = restutil.OptionalAddressQuery(req, "caller"); err != nil {
		return nil, err
	}
	if name := query.Get("name"); name != "" {
		topic := solidity.EventTopic(name)
		criteria.Topics[0] = &topic
	}
	subject, err := restutil.OptionalAddressQuery(req, "subject")
	if err != nil {
		return nil, err
	}
	if subject != nil {
		topic := solidity.AddressTopic(*subject)
		criteria.Topics[1] = &topic
	}

	filter := &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{criteria}}
	if query.Get("order") == string(logdb.DESC) {
		filter.Order = logdb.DESC
	}

	unit := logdb.Seq
	if query.Get("unit") == string(logdb.Time) {
		unit = logdb.Time
	}
	from, err := parseUint(req, "from", 0)
	if err != nil {
		return nil, err
	}
	to, err := parseUint(req, "to", 0)
	if err != nil {
		return nil, err
	}
	if query.Get("to") != "" && to < from {
		return nil, restutil.BadRequest(errors.New("to must be greater than or equal to from"))
	}
	if query.Get("from") != "" || query.Get("to") != "" {
		filter.Range = &logdb.Range{Unit: unit, From: from, To: to}
	}

	offset, err := parseUint(req, "offset", 0)
	if err != nil {
		return nil, err
	}
	limit, err := parseUint(req, "limit", e.limit)
	if err != nil {
		return nil, err
	}
	if limit > e.limit {
		return nil, restutil.Forbidden(fmt.Errorf("limit exceeds the maximum allowed value of %d", e.limit))
	}
	filter.Options = &logdb.Options{Offset: offset, Limit: limit}
	return filter, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := e.parseFilter(req)
	if err != nil {
		return err
	}
	events, err := e.db.FilterEvents(req.Context(), filter)
	if err != nil {
		return err
	}
	res := make([]*Event, 0, len(events))
	for _, ev := range events {
		res = append(res, convertEvent(ev))
	}
	return restutil.WriteJSON(w, res)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleFilter))
}
