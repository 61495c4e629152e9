// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package serialport

import (
	"time"

	gserial "github.com/daedaluz/goserial"
)

// Port is the hardware serial channel: a raw 9600 8N1 tty without flow
// control, the wire parameters the CP Plus bus runs at.
type Port struct {
	p *gserial.Port
}

// Open opens device in raw mode at 9600 8N1 with the given read timeout.
func Open(device string, timeout time.Duration) (*Port, error) {
	p, err := gserial.Open(device, gserial.NewOptions().SetReadTimeout(timeout))
	if err != nil {
		return nil, err
	}
	if err := p.MakeRaw(); err != nil {
		p.Close()
		return nil, err
	}
	attrs, err := p.GetAttr()
	if err != nil {
		p.Close()
		return nil, err
	}
	attrs.SetSpeed(gserial.B9600)
	attrs.Cflag &= ^(gserial.CSTOPB | gserial.CRTSCTS)
	// return from read as soon as a single byte is available
	attrs.Cc[gserial.VMIN] = 0
	attrs.Cc[gserial.VTIME] = 0
	if err := p.SetAttr(gserial.TCSANOW, attrs); err != nil {
		p.Close()
		return nil, err
	}
	return &Port{p: p}, nil
}

func (sf *Port) Read(p []byte) (int, error)  { return sf.p.Read(p) }
func (sf *Port) Write(p []byte) (int, error) { return sf.p.Write(p) }

// FlushInput discards everything buffered on the receive side, in
// particular this node's own answers echoed by the transceiver.
func (sf *Port) FlushInput() error { return sf.p.Flush(gserial.TCIFLUSH) }

// Close releases the tty.
func (sf *Port) Close() error { return sf.p.Close() }
