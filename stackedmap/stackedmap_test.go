// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vechain/stakeledger/stackedmap"
)

func TestStackedMap(t *testing.T) {
	src := map[string]string{"foo": "bar"}
	sm := stackedmap.New(func(key string) (string, bool, error) {
		v, ok := src[key]
		return v, ok, nil
	})

	get := func(key string) string {
		v, _, err := sm.Get(key)
		assert.NoError(t, err)
		return v
	}

	tests := []struct {
		f        func()
		depth    int
		putKey   string
		putValue string
		want     string
	}{
		{func() {}, 1, "", "", "bar"},
		{func() { sm.Push() }, 2, "foo", "baz", "baz"},
		{func() {}, 2, "foo", "baz1", "baz1"},
		{func() { sm.Push() }, 3, "foo", "qux", "qux"},
		{func() { sm.Pop() }, 2, "", "", "baz1"},
		{func() { sm.Pop() }, 1, "", "", "bar"},
	}

	for _, tt := range tests {
		tt.f()
		assert.Equal(t, tt.depth, sm.Depth())
		if tt.putKey != "" {
			sm.Put(tt.putKey, tt.putValue)
		}
		assert.Equal(t, tt.want, get("foo"))
	}

	sm.Push()
	sm.Push()
	sm.PopTo(1)
	assert.Equal(t, 1, sm.Depth())
}

func TestStackedMapJournal(t *testing.T) {
	sm := stackedmap.New(func(string) (int, bool, error) { return 0, false, nil })

	kvs := []struct {
		k string
		v int
	}{
		{"a", 1},
		{"a", 2},
		{"b", 3},
		{"c", 4},
	}
	for _, kv := range kvs {
		sm.Push()
		sm.Put(kv.k, kv.v)
	}

	i := 0
	sm.Journal(func(k string, v int) bool {
		assert.Equal(t, kvs[i].k, k)
		assert.Equal(t, kvs[i].v, v)
		i++
		return true
	})
	assert.Equal(t, len(kvs), i)

	i = 0
	sm.Journal(func(string, int) bool {
		i++
		return false
	})
	assert.Equal(t, 1, i, "journal traverse should abort")

	// reverting drops the journal too
	sm.PopTo(2)
	i = 0
	sm.Journal(func(string, int) bool {
		i++
		return true
	})
	assert.Equal(t, 1, i)
}

func TestStackedMapSourceError(t *testing.T) {
	boom := errors.New("boom")
	sm := stackedmap.New(func(string) (int, bool, error) { return 0, false, boom })

	_, _, err := sm.Get("x")
	assert.ErrorIs(t, err, boom)

	sm.Put("x", 1)
	v, ok, err := sm.Get("x")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}
