// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/thor"
)

var dumper = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}

func inspectAction(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	operator, err := parseAddress(operatorFlag.Name, ctx.String(operatorFlag.Name))
	if err != nil {
		return err
	}
	n, closeAll, err := openNode(cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	return inspect(os.Stdout, n, operator)
}

// inspect dumps every record kept for operator.
func inspect(w io.Writer, n *node.Node, operator thor.Address) error {
	fmt.Fprintf(w, "seq %d head %v\n", n.Seq(), n.Head())
	return n.Query(func(c *builtin.Contracts) error {
		for _, name := range []string{"staking", "stakingv2"} {
			ledger := c.LedgerAt(builtin.Names[name])
			del, err := ledger.GetDelegation(operator)
			if err != nil {
				return errors.WithMessage(err, name)
			}
			if del == nil || del.IsAbsent() {
				continue
			}
			status, err := ledger.StatusOf(operator)
			if err != nil {
				return err
			}
			locks, err := ledger.GetLocks(operator)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%v delegation (%v):\n%s", name, status, dumper.Sdump(del))
			if len(locks) > 0 {
				fmt.Fprintf(w, "%v locks:\n%s", name, dumper.Sdump(locks))
			}
		}
		for _, name := range []string{"escrow", "escrowv2"} {
			deposit, err := c.EscrowAt(builtin.Names[name]).GetDeposit(operator)
			if err != nil {
				return errors.WithMessage(err, name)
			}
			if deposit != nil {
				fmt.Fprintf(w, "%v deposit:\n%s", name, dumper.Sdump(deposit))
			}
		}
		copied, err := c.PortBacker.GetCopy(operator)
		if err != nil {
			return err
		}
		if copied != nil {
			fmt.Fprintf(w, "port copy:\n%s", dumper.Sdump(copied))
		}
		return nil
	})
}
