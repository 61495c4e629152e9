// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package inet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDisplayCommand(t *testing.T) {
	// room 2930 (0xB72), water 3130 (0xC3A) in packed nibbles
	data := []byte{0x72, 0xAB, 0xC3, 0x00, 0x09, 0xB2, 0x12, 0x34}
	got, ok := DecodeDisplayFrame(PIDDisplayCommand, data)
	require.True(t, ok)
	assert.Equal(t, "20", got["target_temp_room"])
	assert.Equal(t, "40", got["target_temp_water"])
	assert.Equal(t, "electricity", got["energy_mix"])
	assert.Equal(t, "mix/electricity 1", got["energy_mode"])
	assert.Equal(t, "Electricity", got["energy_mode_2"])
	assert.Equal(t, "Eco", got["vent_mode"])
	assert.Equal(t, "0x12", got["pid_20_unknown_byte_6"])
}

func TestDecodeDisplayStatus1(t *testing.T) {
	data := []byte{0x86, 0xEB, 0xC4, 0x00, 0x00, 0x02, 0x00, 0x00}
	got, ok := DecodeDisplayFrame(PIDDisplayStatus1, data)
	require.True(t, ok)
	assert.Equal(t, "22", got["current_temp_room"]) // 0xB86 = 2950
	assert.Equal(t, "42", got["current_temp_water"]) // 0xC4E = 3150
	assert.Equal(t, "on", got["vent_or_something_status"])
}

func TestDecodeDisplayStatus2(t *testing.T) {
	data := []byte{0x7C, 0xF0, 0x11, 0x04, 0x00, 0x00, 0x00, 0x00}
	got, ok := DecodeDisplayFrame(PIDDisplayStatus2, data)
	require.True(t, ok)
	assert.Equal(t, "12.4", got["voltage"])
	assert.Equal(t, "heating on", got["cp_plus_display_status"])
	assert.Equal(t, "boiler eco heating", got["heating_status"])
	assert.Equal(t, "normal", got["heating_status_2"])
}

func TestDecodeDisplayUnknown(t *testing.T) {
	_, ok := DecodeDisplayFrame(0x23, make([]byte, 8))
	assert.False(t, ok)

	got, ok := DecodeDisplayFrame(PIDDisplayStatus2, []byte{0, 0x13, 0, 0, 0, 0, 0, 0})
	require.True(t, ok)
	assert.Equal(t, "unknown value 13", got["cp_plus_display_status"])
}

func TestDecodeDisplayShort(t *testing.T) {
	_, ok := DecodeDisplayFrame(PIDDisplayCommand, []byte{1, 2, 3})
	assert.False(t, ok)
}
