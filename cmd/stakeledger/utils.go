// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/metrics"
)

func initLogger(cfg *LogConfig) error {
	lvl, err := log.LvlFromString(cfg.Level)
	if err != nil {
		return err
	}
	var level slog.LevelVar
	level.Set(lvl)

	var handler slog.Handler
	switch cfg.Format {
	case "", "terminal":
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, &level, useColor)
	case "json":
		handler = log.JSONHandlerWithLevel(os.Stderr, &level)
	case "logfmt":
		handler = log.LogfmtHandlerWithLevel(os.Stderr, &level)
	default:
		return errors.Errorf("unknown log format: %v", cfg.Format)
	}
	log.SetDefault(log.NewLogger(handler))
	return nil
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.vechain.stakeledger")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.stakeledger")
		default:
			return filepath.Join(home, ".org.vechain.stakeledger")
		}
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func openMainDB(cfg *Config) (*lvldb.LevelDB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", cfg.DataDir)
	}
	path := filepath.Join(cfg.DataDir, "main.db")
	db, err := lvldb.New(path, lvldb.Options{
		CacheSizeMB:            cfg.CacheMB,
		OpenFilesCacheCapacity: 64,
		SyncWrites:             true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", path)
	}
	return db, nil
}

func openLogDB(cfg *Config) (*logdb.LogDB, error) {
	path := filepath.Join(cfg.DataDir, "logs.db")
	db, err := logdb.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open log database [%v]", path)
	}
	return db, nil
}

// serve runs srv on addr until ctx is done.
func serve(ctx context.Context, name, addr string, handler http.Handler) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %v addr [%v]", name, addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	log.Info("serving", "name", name, "url", "http://"+listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	select {
	case err := <-errCh:
		return errors.Wrapf(err, "%v server", name)
	case <-ctx.Done():
		log.Info("stopping server...", "name", name)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func metricsHandler() http.Handler {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	return handlers.CompressHandler(router)
}
