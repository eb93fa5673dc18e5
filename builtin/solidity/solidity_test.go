// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

type TestStruct struct {
	Field1 uint64
	Addr1  thor.Address
	Amount *big.Int
}

func newTestContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewContext(thor.BytesToAddress([]byte("contract")), state.NewStater(db).NewState())
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[thor.Address, *TestStruct](ctx, thor.Bytes32{1})
	key := thor.BytesToAddress([]byte("key"))

	v, err := m.Get(key)
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, m.Update(key, &TestStruct{}), "update requires the key")

	want := &TestStruct{Field1: 7, Addr1: key, Amount: big.NewInt(100)}
	require.NoError(t, m.Insert(key, want))
	assert.Error(t, m.Insert(key, want), "insert rejects existing keys")

	v, err = m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, want, v)

	want.Field1 = 8
	require.NoError(t, m.Update(key, want))
	v, err = m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), v.Field1)

	m.Delete(key)
	exists, err := m.Exists(key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMappingSeparatedByBase(t *testing.T) {
	ctx := newTestContext(t)
	a := NewMapping[thor.Bytes32, uint64](ctx, thor.Bytes32{1})
	b := NewMapping[thor.Bytes32, uint64](ctx, thor.Bytes32{2})

	require.NoError(t, a.Upsert(thor.Bytes32{9}, 1))

	v, err := b.Get(thor.Bytes32{9})
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestCompositeKey(t *testing.T) {
	a := thor.BytesToAddress([]byte("a"))
	b := thor.BytesToAddress([]byte("b"))

	assert.NotEqual(t, CompositeKey(a, b), CompositeKey(b, a))
	assert.Equal(t, CompositeKey(a, b), CompositeKey(a, b))
	// lengths are part of the key
	assert.NotEqual(t, CompositeKey(BytesKey{1, 2}, BytesKey{3}), CompositeKey(BytesKey{1}, BytesKey{2, 3}))
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, thor.BytesToBytes32([]byte("total")))

	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	require.NoError(t, u.Add(big.NewInt(10)))
	require.NoError(t, u.Sub(big.NewInt(4)))
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(6), v)

	assert.Error(t, u.Sub(big.NewInt(7)))
}

func TestConfigVariable(t *testing.T) {
	ctx := newTestContext(t)
	cfg := NewConfigVariable("initialization-period", 43200)

	assert.Equal(t, "initialization-period", cfg.Name())
	assert.Equal(t, thor.BytesToBytes32([]byte("initialization-period")), cfg.Slot())
	assert.Equal(t, uint64(43200), cfg.Get(ctx))

	require.NoError(t, cfg.Override(ctx, 60))
	assert.Equal(t, uint64(60), cfg.Get(ctx))
	assert.Equal(t, uint64(43200), cfg.Default())

	require.NoError(t, cfg.Override(ctx, 0))
	assert.Equal(t, uint64(43200), cfg.Get(ctx))
}

func TestEmit(t *testing.T) {
	ctx := newTestContext(t)
	subject := thor.BytesToAddress([]byte("operator"))

	require.NoError(t, ctx.Emit("StakeDelegated", struct{ Amount *big.Int }{big.NewInt(1)}, AddressTopic(subject)))

	events := ctx.State().EventsSince(0)
	require.Len(t, events, 1)
	assert.Equal(t, ctx.Address(), events[0].Address)
	assert.Equal(t, thor.Keccak256([]byte("StakeDelegated")), events[0].Topics[0])
	assert.Equal(t, AddressTopic(subject), events[0].Topics[1])

	name, ok := EventName(events[0].Topics[0])
	assert.True(t, ok)
	assert.Equal(t, "StakeDelegated", name)

	_, ok = EventName(thor.Bytes32{})
	assert.False(t, ok)
}
