// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package inet

// Command records carried inside the status buffer, identified by a cid
// byte. Reading uses cid, writing uses cid-1. Field names starting with
// an underscore are unidentified bytes that are stored and written back
// verbatim.

// FieldKind selects the wire width and byte order of a record field.
type FieldKind uint8

// FieldKind defined
const (
	U8    FieldKind = iota // one byte
	U16                    // two bytes, least significant first
	Raw16                  // two bytes, kept in record order
)

// Field is one slot of a record schema. The same name may appear in two
// slots; both are written from the same value, on read the later slot
// wins.
type Field struct {
	Name string
	Kind FieldKind
}

func (sf Field) size() int {
	if sf.Kind == U8 {
		return 1
	}
	return 2
}

// Command describes one record type: the writable prefix and the read
// only tail.
type Command struct {
	CID   byte
	Write []Field
	Read  []Field
}

// CIDWrite returns the cid used when this node writes the record.
func (sf *Command) CIDWrite() byte { return sf.CID - 1 }

// WriteLen returns the packed size of the writable prefix in bytes.
func (sf *Command) WriteLen() int { return schemaSize(sf.Write) }

// ReadLen returns the packed size of the full record in bytes.
func (sf *Command) ReadLen() int { return schemaSize(sf.Write) + schemaSize(sf.Read) }

func schemaSize(fs []Field) int {
	n := 0
	for _, f := range fs {
		n += f.size()
	}
	return n
}

// Unpack decodes a full record. data must hold at least ReadLen bytes,
// anything beyond is ignored.
func (sf *Command) Unpack(data []byte) (map[string]uint16, error) {
	if len(data) < sf.ReadLen() {
		return nil, ErrRecordTooShort
	}
	out := make(map[string]uint16, len(sf.Write)+len(sf.Read))
	pos := 0
	for _, f := range append(append([]Field{}, sf.Write...), sf.Read...) {
		switch f.Kind {
		case U8:
			out[f.Name] = uint16(data[pos])
		case U16:
			out[f.Name] = uint16(data[pos]) | uint16(data[pos+1])<<8
		case Raw16:
			out[f.Name] = uint16(data[pos])<<8 | uint16(data[pos+1])
		}
		pos += f.size()
	}
	return out, nil
}

// Pack encodes the writable prefix from values. Every write slot must be
// present; a missing slot aborts with ErrIncomplete so the caller can
// fall back to listening until the master has delivered the full record.
func (sf *Command) Pack(values map[string]uint16) ([]byte, error) {
	out := make([]byte, 0, sf.WriteLen())
	for _, f := range sf.Write {
		v, ok := values[f.Name]
		if !ok {
			return nil, ErrIncomplete
		}
		switch f.Kind {
		case U8:
			out = append(out, byte(v))
		case U16:
			out = append(out, byte(v), byte(v>>8))
		case Raw16:
			out = append(out, byte(v>>8), byte(v))
		}
	}
	return out, nil
}

// WriteNames returns the distinct names of the writable prefix, schema
// order preserved.
func (sf *Command) WriteNames() []string {
	seen := make(map[string]struct{}, len(sf.Write))
	out := make([]string, 0, len(sf.Write))
	for _, f := range sf.Write {
		if _, ok := seen[f.Name]; ok {
			continue
		}
		seen[f.Name] = struct{}{}
		out = append(out, f.Name)
	}
	return out
}

// Record cids
const (
	CIDStatus  byte = 0x33
	CIDTimer   byte = 0x3D
	CIDTime    byte = 0x15
	CIDCounter byte = 0x0D // counter adoption only, no record
)

// CommandStatus is the heater status record.
var CommandStatus = &Command{
	CID: CIDStatus,
	Write: []Field{
		{"target_temp_room", U16},
		{"heating_mode", U8},
		{"_recv_status_u3", U8},
		{"el_power_level", U16},
		{"target_temp_water", U16},
		{"el_power_level", U16},
		{"energy_mix", U8},
		{"energy_mix", U8},
	},
	Read: []Field{
		{"current_temp_water", U16},
		{"current_temp_room", U16},
		{"operating_status", U8},
		{"error_code", Raw16},
		{"_recv_status_u10", U8},
	},
}

// CommandTimer is the heating timer record. Most bytes are still
// unidentified and pass through verbatim.
var CommandTimer = &Command{
	CID: CIDTimer,
	Write: []Field{
		{"timer_target_temp_room", U16},
		{"timer_heating_mode", U8},
		{"_timer_unknown1", U8},
		{"timer_el_power_level", U8},
		{"_timer_unknown2", U8},
		{"timer_target_temp_water", U16},
		{"_timer_unknown3", U8},
		{"_timer_unknown4", U8},
		{"_timer_unknown5", U8},
		{"timer_active", U8},
		{"timer_start_minutes", U8},
		{"timer_start_hours", U8},
		{"timer_stop_minutes", U8},
		{"timer_stop_hours", U8},
	},
	Read: []Field{
		{"_timer_unknown6", U8},
		{"_timer_unknown7", U8},
		{"_timer_unknown8", U8},
		{"_timer_unknown9", U8},
		{"_timer_unknown10", U8},
		{"_timer_unknown11", U8},
		{"_timer_unknown12", U8},
		{"_timer_unknown13", U8},
	},
}

// CommandTime is the wall clock record.
var CommandTime = &Command{
	CID: CIDTime,
	Write: []Field{
		{"wall_time_hours", U8},
		{"wall_time_minutes", U8},
		{"wall_time_seconds", U8},
		{"_time_display1", U8},
		{"_time_display2", U8},
		{"_time_display3", U8},
		{"clock_mode", U8},
		{"clock_source", U8},
	},
	Read: []Field{
		{"_time_display4", U8},
		{"_time_display5", U8},
	},
}

// Commands in write priority order: the first record with a pending
// update wins a data upload slot.
var Commands = []*Command{CommandStatus, CommandTimer, CommandTime}

// CommandByCID indexes Commands by their read cid.
var CommandByCID = map[byte]*Command{
	CIDStatus: CommandStatus,
	CIDTimer:  CommandTimer,
	CIDTime:   CommandTime,
}
