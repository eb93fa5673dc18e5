// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/thor"
)

// ConfigVariable is a contract parameter with a default value, which may be
// overridden by a value stored in the contract's slot named after the variable.
type ConfigVariable struct {
	slot         thor.Bytes32
	name         string
	defaultValue uint64
}

func NewConfigVariable(name string, defaultValue uint64) *ConfigVariable {
	return &ConfigVariable{
		slot:         thor.BytesToBytes32([]byte(name)),
		name:         name,
		defaultValue: defaultValue,
	}
}

func (c *ConfigVariable) Name() string {
	return c.name
}

func (c *ConfigVariable) Slot() thor.Bytes32 {
	return c.slot
}

func (c *ConfigVariable) Default() uint64 {
	return c.defaultValue
}

// Get returns the overridden value if any, else the default.
// Unreadable overrides fall back to the default.
func (c *ConfigVariable) Get(ctx *Context) uint64 {
	v, err := NewRaw[uint64](ctx, c.slot).Get()
	if err != nil {
		log.Warn("failed to read config value", "name", c.name, "err", err)
		return c.defaultValue
	}
	if v == 0 {
		return c.defaultValue
	}
	return v
}

// Override stores a value for the variable, zero restores the default.
func (c *ConfigVariable) Override(ctx *Context, value uint64) error {
	log.Debug("override config value", "name", c.name, "value", value)
	return NewRaw[uint64](ctx, c.slot).Upsert(value)
}
