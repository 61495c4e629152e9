// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package slave

import (
	"bytes"
	"fmt"

	"github.com/roamkit/go-inetbox/clog"
	"github.com/roamkit/go-inetbox/lintp"
)

// Node identity. The identifier tags this node as an iNet Box; the CP
// Plus registers it under node address 3.
const NodeAddress byte = 0x03

// Identifier is the vendor identifier of the genuine accessory.
var Identifier = []byte{0x17, 0x46, 0x00, 0x1F}

// Service identifiers the node reacts to.
const (
	sidAssignNAD    byte = 0xB0
	sidReadByID     byte = 0xB2
	sidKeepalive    byte = 0xB9
	sidDataUpload   byte = 0xBA // master requests data from the slave
	sidDataDownload byte = 0xBB // master pushes data to the slave

	rsidOffset byte = 0x40
)

// PIDStatusPoll is the application frame the master polls the accessory
// with; the answer signals whether an upload is waiting.
const PIDStatusPoll byte = 0x18

// uploadPayloadSize pads every upload record to the size the master
// expects.
const uploadPayloadSize = 38

// Protocol is the per inbound frame decision table. It owns the
// transport reassembly state and the queue of pre-segmented responses.
type Protocol struct {
	app   *App
	asm   lintp.Assembler
	queue [][]byte
	log   clog.Clog
}

// NewProtocol creates the protocol state machine around an application
// state.
func NewProtocol(app *App, log clog.Clog) *Protocol {
	return &Protocol{app: app, log: log}
}

// ResponseWaiting reports whether a response segment is queued.
func (sf *Protocol) ResponseWaiting() bool {
	return len(sf.queue) > 0
}

// PopResponse takes the next queued response segment, nil when none.
func (sf *Protocol) PopResponse() []byte {
	if len(sf.queue) == 0 {
		return nil
	}
	head := sf.queue[0]
	sf.queue = sf.queue[1:]
	return head
}

// PollAnswer builds the answer to the status poll frame: 0xFF announces
// an upload waiting for the master, 0xFE asks it to keep pushing.
func (sf *Protocol) PollAnswer() []byte {
	lead := byte(0xFE)
	if sf.app.UpdatesQueued() {
		lead = 0xFF
	}
	return []byte{lead, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
}

// HandleMasterRequest runs one master → slave diagnostic frame through
// the decision table. Only a foreign address assignment is returned as an
// error; everything else is handled or dropped here.
func (sf *Protocol) HandleMasterRequest(data []byte) error {
	nad, frame, err := lintp.Parse(data)
	if err != nil {
		sf.log.Debug("transport frame dropped: %v", err)
		return nil
	}

	// read by identifier is answered regardless of the addressed node
	if s, ok := frame.(lintp.Single); ok && s.SID == sidReadByID {
		if len(s.Payload) >= 5 && bytes.Equal(s.Payload[1:5], Identifier) {
			sf.log.Debug("read by identifier, announcing inet box")
			sf.queue = append(sf.queue, lintp.SingleResponse(NodeAddress, sidReadByID+rsidOffset, append(append([]byte{}, Identifier...), 0x00)))
		}
		return nil
	}

	if nad != NodeAddress && nad != lintp.NADBroadcast {
		return nil
	}

	switch f := frame.(type) {
	case lintp.Single:
		return sf.handleSingle(f)
	case lintp.First:
		if (f.SID == sidDataUpload || f.SID == sidDataDownload) && f.Total >= 2 &&
			len(f.Payload) >= 2 && bytes.Equal(f.Payload[:2], Identifier[2:]) {
			if sid, payload, done := sf.asm.Start(f.SID, f.Total-2, f.Payload[2:]); done {
				return sf.completeRequest(sid, payload)
			}
			return nil
		}
		sf.log.Debug("unexpected first frame, sid %#02x", f.SID)
	case lintp.Consecutive:
		sid, payload, done, err := sf.asm.Add(f)
		if err != nil {
			sf.log.Debug("consecutive frame dropped: %v", err)
			return nil
		}
		if done {
			return sf.completeRequest(sid, payload)
		}
	case lintp.Negative:
		sf.log.Debug("negative response on the bus, code %#02x", f.Code)
	}
	return nil
}

func (sf *Protocol) handleSingle(f lintp.Single) error {
	switch f.SID {
	case sidKeepalive:
		if len(f.Payload) >= 2 && bytes.Equal(f.Payload[:2], Identifier[2:]) {
			sf.log.Debug("keepalive request")
			sf.queue = append(sf.queue, lintp.SingleResponse(NodeAddress, sidKeepalive+rsidOffset, []byte{0x00}))
		}
	case sidAssignNAD:
		if !bytes.HasPrefix(f.Payload, Identifier) {
			return nil
		}
		if f.Payload[len(f.Payload)-1] != NodeAddress {
			return fmt.Errorf("%w: %#02x", ErrNadReassignUnsupported, f.Payload[len(f.Payload)-1])
		}
		sf.queue = append(sf.queue, lintp.SingleResponse(NodeAddress, sidAssignNAD+rsidOffset, nil))
		sf.log.Debug("registered with the master")
	default:
		return fmt.Errorf("%w: %#02x", ErrUnknownSID, f.SID)
	}
	return nil
}

func (sf *Protocol) completeRequest(sid byte, payload []byte) error {
	switch sid {
	case sidDataDownload:
		// acknowledge regardless, a broken buffer is the master's problem
		sf.queue = append(sf.queue, lintp.SingleResponse(NodeAddress, sidDataDownload+rsidOffset, nil))
		if err := sf.app.Ingest(payload); err != nil {
			sf.log.Warn("status buffer dropped: %v", err)
			return nil
		}
		sf.log.Debug("status buffer ingested, %d bytes", len(payload))
	case sidDataUpload:
		buf := sf.app.MaterializeWrite()
		if buf == nil {
			sf.log.Debug("nothing to upload")
			return nil
		}
		for len(buf) < uploadPayloadSize {
			buf = append(buf, 0x00)
		}
		resp := append(append([]byte{}, Identifier[2:]...), buf...)
		sf.queue = append(sf.queue, lintp.Segments(NodeAddress, sidDataUpload+rsidOffset, resp)...)
		sf.log.Debug("upload queued, %d segments", len(sf.queue))
	}
	return nil
}

// HandleSlaveResponse observes a slave → master diagnostic frame in read
// only mode; diagnostics output only.
func (sf *Protocol) HandleSlaveResponse(data []byte) {
	_, frame, err := lintp.Parse(data)
	if err != nil {
		return
	}
	switch f := frame.(type) {
	case lintp.Negative:
		sf.log.Debug("negative response, code %#02x", f.Code)
	case lintp.Single:
		if name, ok := lintp.ServiceName[f.SID-rsidOffset]; ok {
			sf.log.Debug("positive response to %s", name)
		}
	}
}
