// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package lintp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingle(t *testing.T) {
	nad, frame, err := Parse([]byte{0x03, 0x03, 0xB9, 0x00, 0x1F, 0xFF, 0xFF, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, byte(0x03), nad)
	s, ok := frame.(Single)
	require.True(t, ok)
	assert.Equal(t, byte(0xB9), s.SID)
	assert.Equal(t, []byte{0x00, 0x1F}, s.Payload)
}

func TestParseFirst(t *testing.T) {
	nad, frame, err := Parse([]byte{0x03, 0x10, 0x25, 0xBB, 0x00, 0x1F, 0xAA, 0xBB})
	require.NoError(t, err)
	assert.Equal(t, byte(0x03), nad)
	f, ok := frame.(First)
	require.True(t, ok)
	assert.Equal(t, byte(0xBB), f.SID)
	assert.Equal(t, 0x24, f.Total)
	assert.Equal(t, []byte{0x00, 0x1F, 0xAA, 0xBB}, f.Payload)
}

func TestParseFirstTwelveBitLength(t *testing.T) {
	_, frame, err := Parse([]byte{0x03, 0x11, 0x00, 0xBB, 0x01, 0x02, 0x03, 0x04})
	require.NoError(t, err)
	f := frame.(First)
	assert.Equal(t, 0x0FF, f.Total)
}

func TestParseConsecutive(t *testing.T) {
	_, frame, err := Parse([]byte{0x03, 0x22, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06})
	require.NoError(t, err)
	c, ok := frame.(Consecutive)
	require.True(t, ok)
	assert.Equal(t, byte(2), c.Seq)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, c.Payload)
}

func TestParseNegative(t *testing.T) {
	_, frame, err := Parse([]byte{0x03, 0x03, 0x7F, 0xB2, 0x12, 0xFF, 0xFF, 0xFF})
	require.NoError(t, err)
	n, ok := frame.(Negative)
	require.True(t, ok)
	assert.Equal(t, byte(0x12), n.Code)
}

func TestParseBroken(t *testing.T) {
	_, _, err := Parse([]byte{0x03})
	assert.ErrorIs(t, err, ErrTruncated)

	_, _, err = Parse([]byte{0x03, 0x0F, 0xB9, 0x00, 0x1F, 0xFF, 0xFF, 0xFF})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, _, err = Parse([]byte{0x03, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrReservedPCI)
}

func TestAssembler(t *testing.T) {
	var asm Assembler

	_, _, done := asm.Start(0xBB, 10, []byte{1, 2})
	assert.False(t, done)

	_, _, done, err := asm.Add(Consecutive{Seq: 1, Payload: []byte{3, 4, 5, 6, 7, 8}})
	require.NoError(t, err)
	assert.False(t, done)

	sid, payload, done, err := asm.Add(Consecutive{Seq: 2, Payload: []byte{9, 10, 11, 12, 13, 14}})
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, byte(0xBB), sid)
	// accumulated payload truncated to the announced total
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, payload)

	// a finished request does not accept trailing frames
	_, _, _, err = asm.Add(Consecutive{Payload: []byte{0xFF}})
	assert.ErrorIs(t, err, ErrOrphanConsecutive)
}

func TestAssemblerOrphan(t *testing.T) {
	var asm Assembler
	_, _, _, err := asm.Add(Consecutive{Seq: 1, Payload: []byte{1, 2, 3}})
	assert.ErrorIs(t, err, ErrOrphanConsecutive)
}

func TestAssemblerFirstFrameComplete(t *testing.T) {
	var asm Assembler
	sid, payload, done := asm.Start(0xBA, 2, []byte{0x40, 0x64})
	require.True(t, done)
	assert.Equal(t, byte(0xBA), sid)
	assert.Equal(t, []byte{0x40, 0x64}, payload)
}

func TestSingleResponse(t *testing.T) {
	assert.Equal(t,
		[]byte{0x03, 0x02, 0xF9, 0x00, 0xFF, 0xFF, 0xFF, 0xFF},
		SingleResponse(0x03, 0xF9, []byte{0x00}))
	assert.Equal(t,
		[]byte{0x03, 0x01, 0xF0, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		SingleResponse(0x03, 0xF0, nil))
	assert.Equal(t,
		[]byte{0x03, 0x06, 0xF2, 0x17, 0x46, 0x00, 0x1F, 0x00},
		SingleResponse(0x03, 0xF2, []byte{0x17, 0x46, 0x00, 0x1F, 0x00}))
}

func TestSegments(t *testing.T) {
	payload := make([]byte, 40) // identifier tail + 38 byte record
	for i := range payload {
		payload[i] = byte(i)
	}
	segs := Segments(0x03, 0xFA, payload)
	require.Len(t, segs, 7)

	assert.Equal(t, []byte{0x03, 0x10, 0x29, 0xFA, 0x00, 0x01, 0x02, 0x03}, segs[0])
	for k, seg := range segs[1:] {
		assert.Equal(t, byte(0x03), seg[0])
		assert.Equal(t, byte(0x21+k), seg[1])
		assert.Len(t, seg, 8)
	}
	assert.Equal(t, []byte{0x03, 0x26, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27}, segs[6])
}

func TestSegmentsShortPayload(t *testing.T) {
	segs := Segments(0x03, 0xF2, []byte{0xAA, 0xBB})
	require.Len(t, segs, 1)
	assert.Equal(t, []byte{0x03, 0x10, 0x03, 0xF2, 0xAA, 0xBB, 0xFF, 0xFF}, segs[0])
}
