// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package lin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumKnownVectors(t *testing.T) {
	// keepalive acknowledge as sent on the wire
	assert.Equal(t, byte(0x01), Checksum([]byte{0x03, 0x02, 0xF9, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}))
	// carry wrap: 0xFF + 0x01 rolls over and adds the carry back
	assert.Equal(t, ^byte(0x01), Checksum([]byte{0xFF, 0x01}))
	assert.Equal(t, ^byte(0x00), Checksum(nil))
}

func TestChecksumClosure(t *testing.T) {
	seqs := [][]byte{
		{0x00},
		{0x12, 0x34, 0x56},
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{0x03, 0x06, 0xF2, 0x17, 0x46, 0x00, 0x1F, 0x00},
	}
	for _, b := range seqs {
		cs := Checksum(b)
		require.NoError(t, VerifyChecksum(append(append([]byte{}, b...), cs)))
		assert.ErrorIs(t, VerifyChecksum(append(append([]byte{}, b...), cs^0x01)), ErrChecksum)
	}
}

func TestEnhancedChecksumClosure(t *testing.T) {
	pid := ApplyParity(0x18)
	data := []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	cs := EnhancedChecksum(pid, data)
	require.NoError(t, VerifyEnhancedChecksum(pid, append(append([]byte{}, data...), cs)))
	assert.ErrorIs(t, VerifyEnhancedChecksum(pid^0x40, append(append([]byte{}, data...), cs)), ErrChecksum)
	// enhanced and classic differ whenever the PID contributes
	assert.NotEqual(t, cs, Checksum(data))
}

func TestVerifyChecksumEmpty(t *testing.T) {
	assert.ErrorIs(t, VerifyChecksum(nil), ErrTruncated)
	assert.ErrorIs(t, VerifyEnhancedChecksum(0xD8, nil), ErrTruncated)
}
