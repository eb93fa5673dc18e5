// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/api"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/thor"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

var (
	configFlag = cli.StringFlag{
		Name:   "config",
		EnvVar: "STAKELEDGER_CONFIG",
		Usage:  "path to the yaml configuration file",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Usage: "directory for the ledger databases, overrides the configuration",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Usage: "API service listening address, overrides the configuration",
	}
	verbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Usage: "log level (trace|debug|info|warn|error|crit), overrides the configuration",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables the metrics server",
	}
	operatorFlag = cli.StringFlag{
		Name:  "operator",
		Usage: "operator address to inspect",
	}
)

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "stakeledger",
		Usage:     "Stake delegation ledger",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			apiAddrFlag,
			verbosityFlag,
			enableMetricsFlag,
		},
		Action: serveAction,
		Commands: []cli.Command{
			{
				Name:   "serve",
				Usage:  "run the ledger and its API",
				Flags:  []cli.Flag{configFlag, dataDirFlag, apiAddrFlag, verbosityFlag, enableMetricsFlag},
				Action: serveAction,
			},
			{
				Name:   "inspect",
				Usage:  "dump the records kept for an operator",
				Flags:  []cli.Flag{configFlag, dataDirFlag, operatorFlag},
				Action: inspectAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and applies the flags over it.
func setup(ctx *cli.Context) (*Config, error) {
	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	if v := ctx.String(dataDirFlag.Name); v != "" {
		cfg.DataDir = v
	}
	if v := ctx.String(apiAddrFlag.Name); v != "" {
		cfg.API.Addr = v
	}
	if v := ctx.String(verbosityFlag.Name); v != "" {
		cfg.Log.Level = v
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		cfg.Metrics.Enabled = true
	}
	if err := initLogger(&cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openNode(cfg *Config) (*node.Node, func(), error) {
	dep, err := cfg.deployment()
	if err != nil {
		return nil, nil, err
	}
	mainDB, err := openMainDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	logDB, err := openLogDB(cfg)
	if err != nil {
		mainDB.Close()
		return nil, nil, err
	}
	closeAll := func() {
		log.Info("closing log database...")
		logDB.Close()
		log.Info("closing main database...")
		mainDB.Close()
	}

	n, err := node.New(mainDB, logDB, thor.SystemClock{}, dep)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return n, closeAll, nil
}

func serveAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	if cfg.Metrics.Enabled {
		metrics.InitializePrometheusMetrics()
	}

	gene, err := cfg.genesis()
	if err != nil {
		return err
	}
	n, closeAll, err := openNode(cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	if err := n.Genesis(gene); err != nil {
		return err
	}
	log.Info("ledger ready", "dataDir", cfg.DataDir, "seq", n.Seq(), "head", n.Head())

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(sigCtx)
	group.Go(func() error {
		return serve(groupCtx, "api", cfg.API.Addr, api.New(n, api.Options{
			AllowedOrigins:  cfg.API.CORS,
			EnableReqLogger: cfg.API.RequestLogger,
			EnableMetrics:   cfg.Metrics.Enabled,
			LogsLimit:       cfg.API.LogsLimit,
		}))
	})
	if cfg.Metrics.Enabled {
		group.Go(func() error {
			return serve(groupCtx, "metrics", cfg.Metrics.Addr, metricsHandler())
		})
	}
	return group.Wait()
}
