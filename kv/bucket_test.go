// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/lvldb"
)

func TestBucket(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	a := kv.Bucket("a")
	b := kv.Bucket("b")

	require.NoError(t, a.NewPutter(db).Put([]byte("k"), []byte("va")))
	require.NoError(t, b.NewPutter(db).Put([]byte("k"), []byte("vb")))

	v, err := a.NewGetter(db).Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("va"), v)

	v, err = db.Get([]byte("bk"))
	require.NoError(t, err)
	assert.Equal(t, []byte("vb"), v)

	require.NoError(t, a.NewPutter(db).Delete([]byte("k")))
	_, err = a.NewGetter(db).Get([]byte("k"))
	assert.True(t, db.IsNotFound(err))

	has, err := b.NewGetter(db).Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestBucketBulkAndIterate(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	bkt := kv.Bucket("s/")
	bulk := bkt.NewBulk(db.Bulk())
	for _, k := range []string{"3", "1", "2"} {
		require.NoError(t, bulk.Put([]byte(k), []byte("v"+k)))
	}
	require.NoError(t, db.Put([]byte("t/1"), []byte("other")))
	assert.Equal(t, 3, bulk.Len())
	require.NoError(t, bulk.Write())

	iter := bkt.NewIterator(db, kv.Range{})
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"1", "2", "3"}, keys)
}
