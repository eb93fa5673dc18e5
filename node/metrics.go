// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import "github.com/vechain/stakeledger/metrics"

var (
	metricOperationCount = metrics.LazyLoadCounterVec("node_operation_count", []string{"status"})
	metricStakedGauge    = metrics.LazyLoadGaugeVec("node_staked_units", []string{"ledger"})
	metricEscrowedGauge  = metrics.LazyLoadGaugeVec("node_escrowed_units", []string{"escrow"})
)
