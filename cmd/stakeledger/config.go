// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/minstake"
	"github.com/vechain/stakeledger/thor"
)

type APIConfig struct {
	Addr          string `yaml:"addr" env:"STAKELEDGER_API_ADDR"`
	CORS          string `yaml:"cors" env:"STAKELEDGER_API_CORS"`
	LogsLimit     uint64 `yaml:"logsLimit" env:"STAKELEDGER_API_LOGS_LIMIT"`
	RequestLogger bool   `yaml:"requestLogger" env:"STAKELEDGER_API_REQUEST_LOGGER"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"STAKELEDGER_METRICS"`
	Addr    string `yaml:"addr" env:"STAKELEDGER_METRICS_ADDR"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"STAKELEDGER_LOG_LEVEL"`
	Format string `yaml:"format" env:"STAKELEDGER_LOG_FORMAT"` // terminal, json or logfmt
}

type RolesConfig struct {
	Governance     string `yaml:"governance" env:"STAKELEDGER_GOVERNANCE"`
	RegistryKeeper string `yaml:"registryKeeper" env:"STAKELEDGER_REGISTRY_KEEPER"`
	PanicButton    string `yaml:"panicButton" env:"STAKELEDGER_PANIC_BUTTON"`
	EscrowAdmin    string `yaml:"escrowAdmin" env:"STAKELEDGER_ESCROW_ADMIN"`
	BackerOwner    string `yaml:"backerOwner" env:"STAKELEDGER_BACKER_OWNER"`
}

// ScheduleConfig describes the minimum stake schedule. A zero base keeps the default.
type ScheduleConfig struct {
	DeployedAt uint64 `yaml:"deployedAt" env:"STAKELEDGER_DEPLOYED_AT"`
	Base       string `yaml:"base" env:"STAKELEDGER_SCHEDULE_BASE"`
	Steps      uint64 `yaml:"steps" env:"STAKELEDGER_SCHEDULE_STEPS"`
	Duration   uint64 `yaml:"duration" env:"STAKELEDGER_SCHEDULE_DURATION"`
}

type Config struct {
	DataDir  string         `yaml:"dataDir" env:"STAKELEDGER_DATA_DIR"`
	CacheMB  int            `yaml:"cacheMB" env:"STAKELEDGER_CACHE_MB"`
	API      APIConfig      `yaml:"api"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
	Roles    RolesConfig    `yaml:"roles"`
	Schedule ScheduleConfig `yaml:"schedule"`

	// Params override ledger parameters, periods in seconds.
	Params   map[string]uint64 `yaml:"params"`
	Alloc    map[string]string `yaml:"alloc"`
	Approved []string          `yaml:"approved"`
}

func defaultConfig() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		CacheMB: 128,
		API: APIConfig{
			Addr:      "localhost:8669",
			LogsLimit: 1000,
		},
		Metrics: MetricsConfig{Addr: "localhost:2112"},
		Log:     LogConfig{Level: "info", Format: "terminal"},
	}
}

// loadConfig reads the yaml file at path, if any, over the defaults and then
// applies the environment.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "decode config")
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}
	return cfg, nil
}

func parseAddress(name, s string) (thor.Address, error) {
	addr, err := thor.ParseAddress(s)
	if err != nil {
		return thor.Address{}, errors.WithMessage(err, name)
	}
	return *addr, nil
}

func parseAmount(name, s string) (*big.Int, error) {
	v, ok := math.ParseBig256(s)
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("%v: invalid amount %q", name, s)
	}
	return v, nil
}

func (c *Config) deployment() (builtin.Deployment, error) {
	dep := builtin.Deployment{DeployedAt: c.Schedule.DeployedAt}
	if dep.DeployedAt == 0 {
		return dep, errors.New("schedule.deployedAt: required")
	}
	if c.Schedule.Base != "" {
		base, err := parseAmount("schedule.base", c.Schedule.Base)
		if err != nil {
			return dep, err
		}
		steps, duration := c.Schedule.Steps, c.Schedule.Duration
		if steps == 0 {
			steps = thor.MinimumStakeSteps
		}
		if duration == 0 {
			duration = thor.MinimumStakeSchedule
		}
		dep.Schedule = minstake.New(base, steps, dep.DeployedAt, duration)
	}
	return dep, nil
}

func (c *Config) genesis() (*builtin.Genesis, error) {
	g := &builtin.Genesis{
		Alloc:  make(map[thor.Address]*big.Int, len(c.Alloc)),
		Params: c.Params,
	}
	for _, role := range []struct {
		name string
		val  string
		dst  *thor.Address
	}{
		{"roles.governance", c.Roles.Governance, &g.Roles.Governance},
		{"roles.registryKeeper", c.Roles.RegistryKeeper, &g.Roles.RegistryKeeper},
		{"roles.panicButton", c.Roles.PanicButton, &g.Roles.PanicButton},
		{"roles.escrowAdmin", c.Roles.EscrowAdmin, &g.Roles.EscrowAdmin},
		{"roles.backerOwner", c.Roles.BackerOwner, &g.Roles.BackerOwner},
	} {
		addr, err := parseAddress(role.name, role.val)
		if err != nil {
			return nil, err
		}
		*role.dst = addr
	}
	for s, v := range c.Alloc {
		addr, err := parseAddress("alloc", s)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount("alloc", v)
		if err != nil {
			return nil, err
		}
		g.Alloc[addr] = amount
	}
	for _, s := range c.Approved {
		contract, ok := builtin.Names[s]
		if !ok {
			addr, err := parseAddress("approved", s)
			if err != nil {
				return nil, err
			}
			contract = addr
		}
		g.Approved = append(g.Approved, contract)
	}
	return g, nil
}
