// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/stakeledger/api/delegations"
	"github.com/vechain/stakeledger/api/escrow"
	"github.com/vechain/stakeledger/api/events"
	"github.com/vechain/stakeledger/api/grants"
	"github.com/vechain/stakeledger/api/ops"
	"github.com/vechain/stakeledger/api/registry"
	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/node"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EnableReqLogger bool
	EnableMetrics   bool
	LogsLimit       uint64
	SkipLogs        bool
}

// New return api router
func New(n *node.Node, opts Options) http.Handler {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	delegations.New(n, builtin.StakingAddress).
		Mount(router, "")
	delegations.New(n, builtin.StakingV2Address).
		Mount(router, "/stakingv2")
	grants.New(n).
		Mount(router, "/grants")
	escrow.New(n).
		Mount(router, "/escrow")
	registry.New(n).
		Mount(router, "/registry")
	ops.New(n).
		Mount(router, "/ops")
	if !opts.SkipLogs {
		events.New(n.LogDB(), opts.LogsLimit).
			Mount(router, "/events")
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", "x-caller"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}
	return handler
}
