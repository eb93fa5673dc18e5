// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

// Ledger parameters. Each may be overridden in state, a zero override keeps the default.
var (
	InitializationPeriod     = solidity.NewConfigVariable("staking-initialization-period", thor.InitialInitializationPeriod)
	ShortUndelegationPeriod  = solidity.NewConfigVariable("staking-short-undelegation-period", thor.ShortUndelegationPeriod)
	LongUndelegationPeriod   = solidity.NewConfigVariable("staking-long-undelegation-period", thor.LongUndelegationPeriod)
	UndelegationPeriodSwitch = solidity.NewConfigVariable("staking-undelegation-period-switch", thor.UndelegationPeriodSwitch)
	MaximumLockDuration      = solidity.NewConfigVariable("staking-maximum-lock-duration", thor.MaximumLockDuration)
	SeizureRewardBps         = solidity.NewConfigVariable("staking-seizure-reward-bps", thor.SeizureRewardBps)
)

// Params lists all ledger parameters.
var Params = []*solidity.ConfigVariable{
	InitializationPeriod,
	ShortUndelegationPeriod,
	LongUndelegationPeriod,
	UndelegationPeriodSwitch,
	MaximumLockDuration,
	SeizureRewardBps,
}
