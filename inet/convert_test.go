// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package inet

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempRoundTrip(t *testing.T) {
	for c := 5; c <= 99; c++ {
		code, err := TempFromString(fmt.Sprintf("%d", c))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%d", c), TempToString(code), "%d °C", c)
	}
}

func TestTempSentinels(t *testing.T) {
	assert.Equal(t, "0", TempToString(0x0000))
	assert.Equal(t, "0", TempToString(0x0AAA))
	assert.Equal(t, "0", TempToString(0xAAAA))
}

func TestTempBelowMinimumEncodesZero(t *testing.T) {
	for _, s := range []string{"0", "4", "4.9", "-10", "2.5"} {
		code, err := TempFromString(s)
		require.NoError(t, err, s)
		assert.Equal(t, uint16(0), code, s)
	}
}

func TestTempFixedPoint(t *testing.T) {
	code, err := TempFromString("21.5")
	require.NoError(t, err)
	assert.Equal(t, uint16(2945), code)
	assert.Equal(t, "21.5", TempToString(2945))

	assert.Equal(t, "20", TempToString(2930))
	assert.Equal(t, "40", TempToString(3130))
}

func TestTempBadInput(t *testing.T) {
	for _, s := range []string{"", "abc", "20.55", "2..0", "."} {
		_, err := TempFromString(s)
		assert.ErrorIs(t, err, ErrConversion, "%q", s)
	}
}

func TestEnumRoundTrips(t *testing.T) {
	fields := []struct {
		name  string
		codes []uint16
	}{
		{"heating_mode", []uint16{0, 1, 10}},
		{"energy_mix", []uint16{0, 1, 2, 3}},
		{"el_power_level", []uint16{0, 900, 1800}},
		{"clock_mode", []uint16{0, 1}},
		{"clock_source", []uint16{1, 2}},
	}
	for _, f := range fields {
		cnv := Conversions[f.name]
		require.NotNil(t, cnv.Encode, f.name)
		for _, code := range f.codes {
			back, err := cnv.Encode(cnv.Decode(code))
			require.NoError(t, err, "%s %d", f.name, code)
			assert.Equal(t, code, back, "%s %d", f.name, code)
		}
	}
}

func TestEnumUnknownValues(t *testing.T) {
	assert.Equal(t, "unknown(0x07)", Conversions["heating_mode"].Decode(7))
	assert.Equal(t, "UNKNOWN(9)", Conversions["operating_status"].Decode(9))

	_, err := Conversions["heating_mode"].Encode("boost")
	assert.ErrorIs(t, err, ErrConversion)
}

func TestOperatingStatus(t *testing.T) {
	d := Conversions["operating_status"].Decode
	assert.Equal(t, "Off", d(0))
	assert.Equal(t, "WARNING", d(1))
	assert.Equal(t, "On (starting)", d(4))
	assert.Equal(t, "On", d(5))
	assert.Nil(t, Conversions["operating_status"].Encode)
}

func TestErrorCode(t *testing.T) {
	d := Conversions["error_code"].Decode
	assert.Equal(t, "0", d(0))
	// raw bytes [0x02, 0x07]: second byte * 100 + first
	assert.Equal(t, "702", d(0x0207))
	assert.Nil(t, Conversions["error_code"].Encode)
}

func TestElPowerEncode(t *testing.T) {
	cnv := Conversions["el_power_level"]
	_, err := cnv.Encode("450")
	assert.ErrorIs(t, err, ErrConversion)
	code, err := cnv.Encode("1800")
	require.NoError(t, err)
	assert.Equal(t, uint16(1800), code)
}

func TestTimerActive(t *testing.T) {
	cnv := Conversions["timer_active"]
	assert.Equal(t, "1", cnv.Decode(1))
	assert.Equal(t, "0", cnv.Decode(0))
	v, err := cnv.Encode("true")
	require.NoError(t, err)
	assert.Equal(t, uint16(1), v)
}

func TestReadOnlyFieldsHaveNoEncoder(t *testing.T) {
	for _, name := range []string{"current_temp_room", "current_temp_water", "operating_status", "error_code"} {
		assert.Nil(t, Conversions[name].Encode, name)
	}
}
