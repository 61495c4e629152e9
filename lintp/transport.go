// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package lintp

// LIN diagnostic transport layer (ISO 17987-2 style)
//
//	| NAD | PCI | ... |
//
// The upper nibble of the PCI byte selects the frame kind, the lower
// nibble carries the length (single/first) or the sequence number
// (consecutive). For first frames the length is twelve bits, continued in
// the following byte.
const (
	NADBroadcast byte = 0x7F

	pciSingle      byte = 0x0
	pciFirst       byte = 0x1
	pciConsecutive byte = 0x2

	// RSIDNegative marks a negative response on the slave → master
	// direction.
	RSIDNegative byte = 0x7F
)

// ServiceName maps the node configuration service identifiers to their
// names, for diagnostics output only.
var ServiceName = map[byte]string{
	0xB0: "Assign NAD",
	0xB1: "Assign Frame Identifier",
	0xB2: "Read by Identifier",
	0xB3: "Conditional Change NAD",
	0xB4: "Data Dump",
	0xB5: "Assign NAD via Slave Node Position Detection",
	0xB6: "Save Configuration",
	0xB7: "Assign Frame Identifier Range",
	0xB9: "Keepalive",
	0xBA: "Data Upload",
	0xBB: "Data Download",
}

// Single is a complete request in one frame.
type Single struct {
	SID     byte
	Payload []byte
}

// First opens a multi frame request. Total counts the bytes following the
// SID (the length field minus one); Payload holds the bytes carried by the
// first frame itself.
type First struct {
	SID     byte
	Total   int
	Payload []byte
}

// Consecutive continues a multi frame request.
type Consecutive struct {
	Seq     byte
	Payload []byte
}

// Negative is a negative response (slave → master direction only).
type Negative struct {
	Code byte
}

// Parse classifies the data field of a diagnostic frame and returns the
// node address together with one of Single, First, Consecutive or
// Negative.
func Parse(data []byte) (nad byte, frame interface{}, err error) {
	if len(data) < 2 {
		return 0, nil, ErrTruncated
	}
	nad = data[0]
	switch data[1] >> 4 {
	case pciSingle:
		if len(data) < 3 {
			return nad, nil, ErrTruncated
		}
		n := int(data[1]&0x0F) - 1
		if n < 0 || 3+n > len(data) {
			return nad, nil, ErrLengthMismatch
		}
		if data[2] == RSIDNegative {
			if n < 2 {
				return nad, nil, ErrLengthMismatch
			}
			return nad, Negative{Code: data[4]}, nil
		}
		return nad, Single{SID: data[2], Payload: data[3 : 3+n]}, nil
	case pciFirst:
		if len(data) < 4 {
			return nad, nil, ErrTruncated
		}
		total := (int(data[1]&0x0F)<<8 | int(data[2])) - 1
		if total < 0 {
			return nad, nil, ErrLengthMismatch
		}
		return nad, First{SID: data[3], Total: total, Payload: data[4:]}, nil
	case pciConsecutive:
		return nad, Consecutive{Seq: data[1] & 0x0F, Payload: data[2:]}, nil
	}
	return nad, nil, ErrReservedPCI
}

// Assembler accumulates a First frame and its Consecutive continuations
// into one request buffer. One request is in flight at most; a new First
// frame discards the previous one.
type Assembler struct {
	sid      byte
	expected int
	buf      []byte
	active   bool
}

// Start begins reassembly for sid, expecting total payload bytes of which
// initial have already arrived with the first frame. If the first frame
// carries the whole request already it is returned complete.
func (sf *Assembler) Start(sid byte, total int, initial []byte) (sid2 byte, payload []byte, done bool) {
	sf.sid = sid
	sf.expected = total
	sf.buf = append(sf.buf[:0], initial...)
	sf.active = true
	return sf.complete()
}

// Add appends a consecutive frame. A consecutive with no preceding first
// frame is rejected with ErrOrphanConsecutive.
func (sf *Assembler) Add(c Consecutive) (sid byte, payload []byte, done bool, err error) {
	if !sf.active {
		return 0, nil, false, ErrOrphanConsecutive
	}
	sf.buf = append(sf.buf, c.Payload...)
	sid, payload, done = sf.complete()
	return sid, payload, done, nil
}

// Reset drops any request in flight.
func (sf *Assembler) Reset() {
	sf.active = false
	sf.buf = sf.buf[:0]
}

func (sf *Assembler) complete() (byte, []byte, bool) {
	if !sf.active || len(sf.buf) < sf.expected {
		return 0, nil, false
	}
	sf.active = false
	out := make([]byte, sf.expected)
	copy(out, sf.buf[:sf.expected])
	return sf.sid, out, true
}
