// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package inet

import (
	"bytes"

	"github.com/roamkit/go-inetbox/lin"
)

// Status buffer layout as exchanged over the diagnostic transport:
//
//	| preamble (10) | len | cid | counter | checksum | record |
//
// The checksum spans from byte 8 of the preamble to the end of the
// record; the first eight preamble bytes are constant and excluded.
var Preamble = []byte{0x00, 0x1E, 0x00, 0x00, 0x22, 0xFF, 0xFF, 0xFF, 0x54, 0x01}

const checksumStart = 8

// BufferHeader is a split status buffer.
type BufferHeader struct {
	Len      byte
	CID      byte
	Counter  byte
	Checksum byte
	Record   []byte
}

// SplitBuffer validates the preamble and splits the buffer into header
// and record.
func SplitBuffer(data []byte) (BufferHeader, error) {
	if len(data) < len(Preamble)+4 {
		return BufferHeader{}, ErrBufferTooShort
	}
	if !bytes.Equal(data[:len(Preamble)], Preamble) {
		return BufferHeader{}, ErrPreambleMismatch
	}
	h := BufferHeader{
		Len:      data[len(Preamble)],
		CID:      data[len(Preamble)+1],
		Counter:  data[len(Preamble)+2],
		Checksum: data[len(Preamble)+3],
		Record:   data[len(Preamble)+4:],
	}
	return h, nil
}

// VerifyChecksum recomputes the record checksum and compares it against
// the received one.
func (sf BufferHeader) VerifyChecksum() error {
	if recordChecksum(sf.Len, sf.CID, sf.Counter, sf.Record) != sf.Checksum {
		return lin.ErrChecksum
	}
	return nil
}

// BuildBuffer assembles a write buffer around a packed record: preamble,
// header with the new counter and the computed checksum, then the record.
func BuildBuffer(writeLen, cidWrite, counter byte, record []byte) []byte {
	out := make([]byte, 0, len(Preamble)+4+len(record))
	out = append(out, Preamble...)
	out = append(out, writeLen, cidWrite, counter, recordChecksum(writeLen, cidWrite, counter, record))
	out = append(out, record...)
	return out
}

func recordChecksum(length, cid, counter byte, record []byte) byte {
	b := make([]byte, 0, len(Preamble)-checksumStart+3+len(record))
	b = append(b, Preamble[checksumStart:]...)
	b = append(b, length, cid, counter)
	b = append(b, record...)
	return lin.Checksum(b)
}
