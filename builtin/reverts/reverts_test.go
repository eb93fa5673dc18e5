// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New(Input, "test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))
}

func TestWrappedSentinels(t *testing.T) {
	err := errors.Wrapf(ErrNotAuthorized, "operator %v", "0x01")

	assert.True(t, IsRevertErr(err))
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.NotErrorIs(t, err, ErrNotApproved)
	assert.Equal(t, Authorization, CategoryOf(err))
	assert.Equal(t, "operator 0x01: not authorized", err.Error())
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		err  error
		want Category
	}{
		{ErrStillInitializing, State},
		{ErrTimeInPast, Input},
		{ErrInsufficientFunds, Resource},
		{ErrWrongSource, Authorization},
		{errors.New("disk failure"), CategoryUnknown},
		{nil, CategoryUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryOf(tt.err), "%v", tt.err)
	}
	assert.Equal(t, "resource", Resource.String())
	assert.Equal(t, "unknown", CategoryUnknown.String())
}
