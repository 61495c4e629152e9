// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package inet

import (
	"fmt"
	"strconv"
	"strings"
)

// Field conversions between raw record values and their external string
// form. Decoding is total: unrecognized codes yield a synthesized
// placeholder instead of an error. Encoding is partial: read only fields
// carry no encoder.

// Temperatures travel as an unsigned value in tenths of a Kelvin. A
// handful of sentinel values mean "no value".
const (
	tempSentinelA uint16 = 0x0AAA
	tempSentinelB uint16 = 0xAAAA
	tempZeroK            = 2730 // 0 °C in wire units
	tempMin              = 50   // below 5 °C the heater is off
)

// TempToString renders a wire temperature as a fixed point decimal
// string. Sentinels render as "0".
func TempToString(v uint16) string {
	if v == 0 || v == tempSentinelA || v == tempSentinelB {
		return "0"
	}
	t := int(v) - tempZeroK
	whole, frac := t/10, t%10
	if frac < 0 {
		frac = -frac
	}
	if frac == 0 {
		return strconv.Itoa(whole)
	}
	if t < 0 && whole == 0 {
		return fmt.Sprintf("-0.%d", frac)
	}
	return fmt.Sprintf("%d.%d", whole, frac)
}

// TempFromString parses a decimal °C string with at most one fractional
// digit. Values below 5 °C (the heater's minimum) encode as zero.
func TempFromString(s string) (uint16, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" || len(frac) > 1 {
		return 0, fmt.Errorf("%w: temperature %q", ErrConversion, s)
	}
	w, err := strconv.Atoi(whole)
	if err != nil {
		return 0, fmt.Errorf("%w: temperature %q", ErrConversion, s)
	}
	tenths := w * 10
	if frac != "" {
		d, err := strconv.Atoi(frac)
		if err != nil {
			return 0, fmt.Errorf("%w: temperature %q", ErrConversion, s)
		}
		tenths += d
	}
	if neg {
		tenths = -tenths
	}
	if tenths < tempMin {
		return 0, nil
	}
	return uint16(tenths + tempZeroK), nil
}

// Value enumerations. Decode falls back to a stable unknown marker.
var (
	heatingModes = map[uint16]string{0: "off", 1: "eco", 10: "high"}

	// two low bits select the energy source
	energyMixes = map[uint16]string{0: "none", 1: "gas", 2: "electricity", 3: "mix"}

	elPowerLevels = map[uint16]string{0: "0", 900: "900", 1800: "1800"}

	operatingStates = map[uint16]string{0: "Off", 1: "WARNING", 4: "On (starting)", 5: "On"}

	clockModes   = map[uint16]string{0: "24h", 1: "12h"}
	clockSources = map[uint16]string{1: "manual", 2: "inetbox"}
)

func unknownCode(v uint16) string {
	return fmt.Sprintf("unknown(0x%02x)", v)
}

func decodeEnum(m map[uint16]string) func(uint16) string {
	return func(v uint16) string {
		if s, ok := m[v]; ok {
			return s
		}
		return unknownCode(v)
	}
}

func encodeEnum(m map[uint16]string, what string) func(string) (uint16, error) {
	return func(s string) (uint16, error) {
		for code, name := range m {
			if name == s {
				return code, nil
			}
		}
		return 0, fmt.Errorf("%w: invalid %s %q", ErrConversion, what, s)
	}
}

func decodeEnergyMix(v uint16) string {
	return energyMixes[v&0x03]
}

func decodeOperatingStatus(v uint16) string {
	if s, ok := operatingStates[v]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", v)
}

// error code rides as two raw bytes, second*100 + first
func decodeErrorCode(v uint16) string {
	return strconv.Itoa(int(v&0xFF)*100 + int(v>>8))
}

func decodeInt(v uint16) string { return strconv.Itoa(int(v)) }

func encodeInt(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: integer %q", ErrConversion, s)
	}
	return uint16(n), nil
}

func decodeBool(v uint16) string {
	if v != 0 {
		return "1"
	}
	return "0"
}

func encodeBool(s string) (uint16, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return 0, fmt.Errorf("%w: boolean %q", ErrConversion, s)
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

func encodeElPower(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: power level %q", ErrConversion, s)
	}
	if _, ok := elPowerLevels[uint16(n)]; !ok {
		return 0, fmt.Errorf("%w: power level %q", ErrConversion, s)
	}
	return uint16(n), nil
}

// Converter pairs a decoder with an optional encoder. A nil encoder
// marks the field read only.
type Converter struct {
	Decode func(uint16) string
	Encode func(string) (uint16, error)
}

// Conversions maps every named record field to its converter.
var Conversions = map[string]Converter{
	"target_temp_room":  {TempToString, TempFromString},
	"heating_mode":      {decodeEnum(heatingModes), encodeEnum(heatingModes, "heating mode")},
	"target_temp_water": {TempToString, TempFromString},
	"el_power_level":    {decodeEnum(elPowerLevels), encodeElPower},
	"energy_mix":        {decodeEnergyMix, encodeEnum(energyMixes, "energy mix")},

	"current_temp_room":  {TempToString, nil},
	"current_temp_water": {TempToString, nil},
	"operating_status":   {decodeOperatingStatus, nil},
	"error_code":         {decodeErrorCode, nil},

	"timer_target_temp_room":  {TempToString, TempFromString},
	"timer_target_temp_water": {TempToString, TempFromString},
	"timer_heating_mode":      {decodeEnum(heatingModes), encodeEnum(heatingModes, "heating mode")},
	"timer_el_power_level":    {decodeInt, encodeInt},
	"timer_active":            {decodeBool, encodeBool},
	"timer_start_minutes":     {decodeInt, encodeInt},
	"timer_start_hours":       {decodeInt, encodeInt},
	"timer_stop_minutes":      {decodeInt, encodeInt},
	"timer_stop_hours":        {decodeInt, encodeInt},

	"wall_time_hours":   {decodeInt, encodeInt},
	"wall_time_minutes": {decodeInt, encodeInt},
	"wall_time_seconds": {decodeInt, encodeInt},
	"clock_mode":        {decodeEnum(clockModes), encodeEnum(clockModes, "clock mode")},
	"clock_source":      {decodeEnum(clockSources), encodeEnum(clockSources, "clock source")},
}
