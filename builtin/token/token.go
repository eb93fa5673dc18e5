// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token is the balance book of the fungible unit staked in the ledger.
package token

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var (
	logger = log.WithContext("pkg", "token")

	slotBalances = thor.BytesToBytes32([]byte("balances"))
	slotSupply   = thor.BytesToBytes32([]byte("total-supply"))
	slotBurned   = thor.BytesToBytes32([]byte("total-burned"))
)

type Token struct {
	sctx     *solidity.Context
	balances *solidity.Mapping[thor.Address, *big.Int]
	supply   *solidity.Uint256
	burned   *solidity.Uint256
}

func New(addr thor.Address, state *state.State) *Token {
	sctx := solidity.NewContext(addr, state)
	return &Token{
		sctx:     sctx,
		balances: solidity.NewMapping[thor.Address, *big.Int](sctx, slotBalances),
		supply:   solidity.NewUint256(sctx, slotSupply),
		burned:   solidity.NewUint256(sctx, slotBurned),
	}
}

type transferEvent struct {
	Amount *big.Int
}

func (t *Token) Address() thor.Address {
	return t.sctx.Address()
}

// BalanceOf never returns nil.
func (t *Token) BalanceOf(addr thor.Address) (*big.Int, error) {
	bal, err := t.balances.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	if bal == nil {
		return new(big.Int), nil
	}
	return bal, nil
}

func (t *Token) TotalSupply() (*big.Int, error) {
	return t.supply.Get()
}

func (t *Token) TotalBurned() (*big.Int, error) {
	return t.burned.Get()
}

func (t *Token) setBalance(addr thor.Address, bal *big.Int) error {
	if bal.Sign() == 0 {
		t.balances.Delete(addr)
		return nil
	}
	return t.balances.Upsert(addr, bal)
}

// add credits amount to addr, failing if the balance leaves the 256 bits range.
func (t *Token) add(addr thor.Address, amount *big.Int) error {
	bal, err := t.BalanceOf(addr)
	if err != nil {
		return err
	}
	a, overflow := uint256.FromBig(bal)
	b, overflow2 := uint256.FromBig(amount)
	if overflow || overflow2 {
		return errors.Wrap(reverts.ErrInvalidArgument, "amount exceeds 256 bits")
	}
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return errors.Wrap(reverts.ErrInvalidArgument, "balance overflow")
	}
	return t.setBalance(addr, sum.ToBig())
}

func (t *Token) sub(addr thor.Address, amount *big.Int) error {
	bal, err := t.BalanceOf(addr)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return errors.Wrapf(reverts.ErrInsufficientFunds, "balance of %v is %v, needs %v", addr, bal, amount)
	}
	return t.setBalance(addr, new(big.Int).Sub(bal, amount))
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.Wrap(reverts.ErrInvalidArgument, "negative amount")
	}
	return nil
}

// Mint creates new units for to.
func (t *Token) Mint(to thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if err := t.add(to, amount); err != nil {
		return err
	}
	if err := t.supply.Add(amount); err != nil {
		return err
	}
	logger.Debug("minted", "to", to, "amount", amount)
	return t.sctx.Emit("Transfer", transferEvent{amount}, solidity.AddressTopic(thor.Address{}), solidity.AddressTopic(to))
}

// Transfer moves amount from one account to another.
func (t *Token) Transfer(from, to thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	if err := t.sub(from, amount); err != nil {
		return err
	}
	if err := t.add(to, amount); err != nil {
		return err
	}
	return t.sctx.Emit("Transfer", transferEvent{amount}, solidity.AddressTopic(from), solidity.AddressTopic(to))
}

// Burn removes amount held by from out of circulation.
func (t *Token) Burn(from thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}
	if err := t.sub(from, amount); err != nil {
		return err
	}
	if err := t.supply.Sub(amount); err != nil {
		return err
	}
	if err := t.burned.Add(amount); err != nil {
		return err
	}
	logger.Debug("burned", "from", from, "amount", amount)
	return t.sctx.Emit("Transfer", transferEvent{amount}, solidity.AddressTopic(from), solidity.AddressTopic(thor.Address{}))
}
