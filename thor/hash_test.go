// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashVectors(t *testing.T) {
	assert.Equal(t,
		"0x0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		Blake2b([]byte{}).String())
	assert.Equal(t,
		"0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		Keccak256().String())
}

func TestBlake2bParts(t *testing.T) {
	a := []byte("delegations")
	b := []byte{0x1, 0x2, 0x3}

	joined := append(append([]byte{}, a...), b...)
	assert.Equal(t, Blake2b(joined), Blake2b(a, b))
	assert.NotEqual(t, Blake2b(a, b), Blake2b(b, a))
}

func BenchmarkBlake2b(b *testing.B) {
	data := make([]byte, 100)

	rng := rand.New(rand.NewSource(1)) //#nosec G404
	for i := range data {
		data[i] = byte(rng.Uint64())
	}
	b.Run("Blake2b", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			Blake2b(data).Bytes()
		}
	})
	b.Run("Blake2b-slot", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			Blake2b(data[:20], data[20:52]).Bytes()
		}
	})
}
