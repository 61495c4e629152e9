// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package lin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyParityKnownValues(t *testing.T) {
	tests := []struct {
		id   byte
		want byte
	}{
		{0x18, 0xD8}, // status poll frame
		{0x3C, 0x3C}, // master request, parity bits both zero
		{0x3D, 0x7D}, // slave response
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ApplyParity(tt.id), "id %#02x", tt.id)
	}
}

func TestClassifyPIDRoundTrip(t *testing.T) {
	for id := byte(0); id < 0x40; id++ {
		raw := ApplyParity(id)
		got, err := ClassifyPID(raw)
		require.NoError(t, err, "id %#02x", id)
		assert.Equal(t, id, got)

		// flipping either parity bit must be rejected
		for _, bad := range []byte{raw ^ 0x40, raw ^ 0x80, raw ^ 0xC0} {
			_, err := ClassifyPID(bad)
			assert.ErrorIs(t, err, ErrParity, "raw %#02x", bad)
		}
	}
}

func TestIsDiagnostic(t *testing.T) {
	assert.True(t, IsDiagnostic(PIDMasterRequest))
	assert.True(t, IsDiagnostic(PIDSlaveResponse))
	assert.False(t, IsDiagnostic(0x18))
}

func TestFrameBytes(t *testing.T) {
	assert.Equal(t, 9, FrameBytes(0x20))
}
