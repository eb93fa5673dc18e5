// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"log/slog"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func debugHandler(buf *bytes.Buffer) slog.Handler {
	var lvl slog.LevelVar
	lvl.Set(slog.LevelDebug)
	return NewTerminalHandlerWithLevel(buf, &lvl, false)
}

func TestTerminalHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(debugHandler(&buf))

	l.Info("delegation created", "operator", "0xab", "amount", big.NewInt(1234567))
	out := buf.String()

	assert.Contains(t, out, "INFO  [")
	assert.Contains(t, out, "delegation created")
	assert.Contains(t, out, "operator=0xab")
	assert.Contains(t, out, "amount=1,234,567")
}

func TestTerminalHandlerLevel(t *testing.T) {
	var (
		buf bytes.Buffer
		lvl slog.LevelVar
	)
	lvl.Set(slog.LevelWarn)
	l := NewLogger(NewTerminalHandlerWithLevel(&buf, &lvl, false))

	l.Info("dropped")
	assert.Empty(t, buf.String())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestFormatSlogValue(t *testing.T) {
	tests := []struct {
		name string
		in   slog.Value
		want string
	}{
		{"small int", slog.Int64Value(42), "42"},
		{"negative int", slog.Int64Value(-1234567), "-1,234,567"},
		{"uint", slog.Uint64Value(100000), "100,000"},
		{"quoted string", slog.StringValue("a b"), `"a b"`},
		{"escaped string", slog.StringValue("a\"b"), `"a\"b"`},
		{"big", slog.AnyValue(new(big.Int).Exp(big.NewInt(10), big.NewInt(21), nil)), "1,000,000,000,000,000,000,000"},
		{"u256", slog.AnyValue(uint256.NewInt(7)), "7"},
		{"nil", slog.AnyValue(nil), "<nil>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(FormatSlogValue(tt.in, nil)))
		})
	}
}

func TestLvlFromString(t *testing.T) {
	lvl, err := LvlFromString("WARN")
	assert.NoError(t, err)
	assert.Equal(t, LevelWarn, lvl)

	lvl, err = LvlFromString(" trace ")
	assert.NoError(t, err)
	assert.Equal(t, LevelTrace, lvl)

	_, err = LvlFromString("loud")
	assert.Error(t, err)
}

func TestWithContextFollowsRoot(t *testing.T) {
	old := Root()
	defer SetDefault(old)

	pkgLogger := WithContext("pkg", "ledger")

	var buf bytes.Buffer
	SetDefault(NewLogger(debugHandler(&buf)))

	pkgLogger.Info("stake recovered")
	assert.Contains(t, buf.String(), "stake recovered")
	assert.Contains(t, buf.String(), "pkg=ledger")
}
