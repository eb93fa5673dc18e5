// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/vechain/stakeledger/thor"
)

// Uint256 is a non-negative counter stored at a fixed slot.
type Uint256 struct {
	raw *Raw[*big.Int]
}

func NewUint256(context *Context, pos thor.Bytes32) *Uint256 {
	return &Uint256{raw: NewRaw[*big.Int](context, pos)}
}

// Get never returns a nil value.
func (u *Uint256) Get() (*big.Int, error) {
	v, err := u.raw.Get()
	if err != nil {
		return nil, err
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

func (u *Uint256) Set(value *big.Int) error {
	return u.raw.Upsert(value)
}

func (u *Uint256) Add(value *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(v.Add(v, value))
}

// Sub fails rather than going below zero.
func (u *Uint256) Sub(value *big.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	if v.Cmp(value) < 0 {
		return errors.Errorf("uint256 underflow: %v - %v", v, value)
	}
	return u.Set(v.Sub(v, value))
}
