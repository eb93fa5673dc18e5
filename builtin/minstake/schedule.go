// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package minstake computes the minimum stake floor, which steps down
// linearly from Base*Steps to Base over the schedule duration.
package minstake

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

// Schedule is immutable once created.
type Schedule struct {
	base     *big.Int
	steps    uint64
	start    uint64
	duration uint64
}

// New creates a schedule. Zero steps or duration are raised to one.
func New(base *big.Int, steps, start, duration uint64) *Schedule {
	return &Schedule{
		base:     new(big.Int).Set(base),
		steps:    max(steps, 1),
		start:    start,
		duration: max(duration, 1),
	}
}

// Default returns the schedule with the default parameters starting at start.
func Default(start uint64) *Schedule {
	return New(thor.MinimumStakeBase, thor.MinimumStakeSteps, start, thor.MinimumStakeSchedule)
}

func (s *Schedule) Base() *big.Int   { return new(big.Int).Set(s.base) }
func (s *Schedule) Steps() uint64    { return s.steps }
func (s *Schedule) Start() uint64    { return s.start }
func (s *Schedule) Duration() uint64 { return s.duration }

// Current returns the floor at now: Base * max(1, Steps - Steps*elapsed/Duration).
func (s *Schedule) Current(now uint64) *big.Int {
	var elapsed uint64
	if now > s.start {
		elapsed = now - s.start
	}
	if elapsed >= s.duration {
		return new(big.Int).Set(s.base)
	}

	// Steps*elapsed may overflow uint64 for long schedules
	dec := new(big.Int).SetUint64(s.steps)
	dec.Mul(dec, new(big.Int).SetUint64(elapsed))
	dec.Div(dec, new(big.Int).SetUint64(s.duration))

	mult := new(big.Int).SetUint64(s.steps)
	mult.Sub(mult, dec)
	if mult.Cmp(big.NewInt(1)) < 0 {
		mult.SetInt64(1)
	}
	return mult.Mul(mult, s.base)
}
