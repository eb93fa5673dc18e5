// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/escrow"
	"github.com/vechain/stakeledger/builtin/grant"
	"github.com/vechain/stakeledger/builtin/minstake"
	"github.com/vechain/stakeledger/builtin/portbacker"
	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

// Builtin contract addresses.
var (
	TokenAddress      = thor.BytesToAddress([]byte("Token"))
	RegistryAddress   = thor.BytesToAddress([]byte("Registry"))
	StakingAddress    = thor.BytesToAddress([]byte("Staking"))
	StakingV2Address  = thor.BytesToAddress([]byte("StakingV2"))
	GrantBridgeAddr   = thor.BytesToAddress([]byte("GrantBridge"))
	EscrowAddress     = thor.BytesToAddress([]byte("Escrow"))
	EscrowV2Address   = thor.BytesToAddress([]byte("EscrowV2"))
	PortBackerAddress = thor.BytesToAddress([]byte("PortBacker"))
)

// Names maps contract names, as used by operation routing, to addresses.
var Names = map[string]thor.Address{
	"token":      TokenAddress,
	"registry":   RegistryAddress,
	"staking":    StakingAddress,
	"stakingv2":  StakingV2Address,
	"grants":     GrantBridgeAddr,
	"escrow":     EscrowAddress,
	"escrowv2":   EscrowV2Address,
	"portbacker": PortBackerAddress,
}

// SortedNames returns contract names in a stable order.
func SortedNames() []string {
	names := make([]string, 0, len(Names))
	for name := range Names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Deployment holds the parameters fixed when the contracts are bound.
type Deployment struct {
	DeployedAt uint64
	Schedule   *minstake.Schedule
}

// Contracts are the builtin contracts bound to one state.
type Contracts struct {
	State      *state.State
	Token      *token.Token
	Registry   *registry.Registry
	Staking    *staking.Ledger
	StakingV2  *staking.Ledger
	Grants     *grant.Bridge
	Escrow     *escrow.Escrow
	EscrowV2   *escrow.Escrow
	PortBacker *portbacker.Backer
}

// New binds every builtin contract to st.
func New(st *state.State, clock thor.Clock, dep Deployment) *Contracts {
	schedule := dep.Schedule
	if schedule == nil {
		schedule = minstake.Default(dep.DeployedAt)
	}

	tok := token.New(TokenAddress, st)
	reg := registry.New(RegistryAddress, st)
	old := staking.New(StakingAddress, st, clock, dep.DeployedAt, schedule, reg, tok, GrantBridgeAddr)
	successor := staking.New(StakingV2Address, st, clock, dep.DeployedAt, schedule, reg, tok, GrantBridgeAddr)
	bridge := grant.New(GrantBridgeAddr, st, clock, tok, old, successor)

	esc := escrow.New(EscrowAddress, st, clock, bridge, tok, old, successor)
	escV2 := escrow.New(EscrowV2Address, st, clock, bridge, tok, old, successor)
	old.SetDepositors(esc, escV2)
	successor.SetDepositors(escV2, esc)

	return &Contracts{
		State:      st,
		Token:      tok,
		Registry:   reg,
		Staking:    old,
		StakingV2:  successor,
		Grants:     bridge,
		Escrow:     esc,
		EscrowV2:   escV2,
		PortBacker: portbacker.New(PortBackerAddress, st, clock, old, successor, bridge, tok),
	}
}

// EscrowAt returns the escrow deployed at addr, nil if there is none.
func (c *Contracts) EscrowAt(addr thor.Address) *escrow.Escrow {
	switch addr {
	case EscrowAddress:
		return c.Escrow
	case EscrowV2Address:
		return c.EscrowV2
	}
	return nil
}

// LedgerAt returns the ledger deployed at addr, nil if there is none.
func (c *Contracts) LedgerAt(addr thor.Address) *staking.Ledger {
	switch addr {
	case StakingAddress:
		return c.Staking
	case StakingV2Address:
		return c.StakingV2
	}
	return nil
}

// Roles are the privileged accounts set up at genesis.
type Roles struct {
	Governance     thor.Address
	RegistryKeeper thor.Address
	PanicButton    thor.Address
	EscrowAdmin    thor.Address
	BackerOwner    thor.Address
}

// Genesis initializes the contracts of an empty state.
type Genesis struct {
	Roles Roles
	Alloc map[thor.Address]*big.Int

	// Approved contracts are approved in the registry right away.
	Approved []thor.Address

	// Params override ledger parameters by name, on both ledgers.
	Params map[string]uint64
}

// Initialize runs the one-off setup of every contract.
func (c *Contracts) Initialize(g *Genesis) error {
	r := g.Roles
	if err := c.Registry.Initialize(r.Governance, r.RegistryKeeper, r.PanicButton); err != nil {
		return errors.Wrap(err, "registry")
	}
	if err := c.Escrow.Initialize(r.EscrowAdmin, StakingAddress); err != nil {
		return errors.Wrap(err, "escrow")
	}
	if err := c.EscrowV2.Initialize(r.EscrowAdmin, StakingV2Address); err != nil {
		return errors.Wrap(err, "escrow v2")
	}
	if err := c.PortBacker.Initialize(r.BackerOwner); err != nil {
		return errors.Wrap(err, "port backer")
	}
	if err := c.overrideParams(g.Params); err != nil {
		return err
	}
	for _, contract := range g.Approved {
		if err := c.Registry.Approve(r.RegistryKeeper, contract); err != nil {
			return errors.Wrapf(err, "approve %v", contract)
		}
	}

	// deterministic order keeps the event journal stable
	addrs := make([]thor.Address, 0, len(g.Alloc))
	for addr := range g.Alloc {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return string(addrs[i][:]) < string(addrs[j][:])
	})
	for _, addr := range addrs {
		if err := c.Token.Mint(addr, g.Alloc[addr]); err != nil {
			return errors.Wrapf(err, "alloc %v", addr)
		}
	}
	return nil
}

func (c *Contracts) overrideParams(params map[string]uint64) error {
	known := make(map[string]bool, len(staking.Params))
	for _, p := range staking.Params {
		known[p.Name()] = true
		v, ok := params[p.Name()]
		if !ok {
			continue
		}
		for _, l := range []*staking.Ledger{c.Staking, c.StakingV2} {
			if err := p.Override(l.Context(), v); err != nil {
				return errors.Wrapf(err, "override %v", p.Name())
			}
		}
	}
	for name := range params {
		if !known[name] {
			return errors.Errorf("unknown param %v", name)
		}
	}
	return nil
}

// IsInitialized reports whether Initialize ran on the bound state.
func (c *Contracts) IsInitialized() (bool, error) {
	gov, err := c.Registry.Governance()
	if err != nil {
		return false, err
	}
	return !gov.IsZero(), nil
}
