// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"time"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/metrics"
)

var (
	metricOperationCount    = metrics.LazyLoadCounterVec("runtime_operation_count", []string{"contract", "op", "outcome"})
	metricOperationDuration = metrics.LazyLoadHistogramVec(
		"runtime_operation_duration_us", []string{"contract"}, []int64{10, 50, 100, 250, 500, 1000, 5000, 25000},
	)
)

func observe(op *Operation, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		if reverts.IsRevertErr(err) {
			outcome = "reverted"
		} else {
			outcome = "failed"
		}
	}
	metricOperationCount().AddWithLabel(1, map[string]string{"contract": op.Contract, "op": op.Name, "outcome": outcome})
	metricOperationDuration().ObserveWithLabels(elapsed.Microseconds(), map[string]string{"contract": op.Contract})
}
