// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"math/big"
)

// Time units in seconds.
const (
	Minute uint64 = 60
	Hour          = 60 * Minute
	Day           = 24 * Hour
	Week          = 7 * Day
	Year          = 365 * Day
)

// Ledger constants.
const (
	// InitialInitializationPeriod is the default time a fresh delegation or top-up waits before it counts.
	InitialInitializationPeriod = 12 * Hour

	// UndelegationPeriodSwitch is the age of the ledger after which the long undelegation period applies.
	UndelegationPeriodSwitch = 60 * Day
	ShortUndelegationPeriod  = 2 * Week
	LongUndelegationPeriod   = 60 * Day

	MaximumLockDuration = 200 * Day
	SeizureRewardBps    = 500

	MinimumStakeSteps    = 10
	MinimumStakeSchedule = 2 * Year

	// MaxBackingDuration is how long the port bridge backs a copied stake before it may force undelegation.
	MaxBackingDuration = 90 * Day
)

var (
	// Unit is one token in its smallest denomination.
	Unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	// MinimumStakeBase is the floor once the minimum stake schedule has elapsed.
	MinimumStakeBase = new(big.Int).Mul(big.NewInt(10000), Unit)
)
