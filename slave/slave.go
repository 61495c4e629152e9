// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package slave

import (
	"context"
	"errors"
	"io"

	"github.com/roamkit/go-inetbox/clog"
	"github.com/roamkit/go-inetbox/lin"
)

// Channel is the abstract byte oriented duplex channel the bus loop
// drives. Reads honor the configured timeout by returning short;
// FlushInput drops bytes echoed back by the transceiver.
type Channel interface {
	io.Reader
	io.Writer
	FlushInput() error
}

// Slave drives the protocol engine against a channel. One Step call
// processes at most one inbound frame or emits one response segment;
// callers drive it in a tight poll.
type Slave struct {
	ch    Channel
	cfg   Config
	app   *App
	proto *Protocol
	stats Stats
	buf   [3 + lin.FrameDataSize + 1]byte

	log clog.Clog
}

// New creates a bus loop over ch. A nil config takes the defaults.
func New(ch Channel, app *App, cfg *Config, log clog.Clog) (*Slave, error) {
	if cfg == nil {
		c := DefaultConfig()
		cfg = &c
	}
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	app.LenientRecordChecksum(cfg.LenientRecordChecksum)
	sl := &Slave{
		ch:    ch,
		cfg:   *cfg,
		app:   app,
		proto: NewProtocol(app, log),
		log:   log,
	}
	app.bindStats(&sl.stats)
	return sl, nil
}

// App returns the application state the loop feeds.
func (sf *Slave) App() *App { return sf.app }

// Stats returns the loop counters.
func (sf *Slave) Stats() *Stats { return &sf.stats }

// Run polls Step until the context ends, the channel is exhausted or a
// fatal protocol error surfaces.
func (sf *Slave) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		switch err := sf.Step(); {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
	}
}

// Step reads one frame header and either stays silent, processes the
// frame body, or answers. Frame level failures are logged and recovered
// by resynchronizing on the next sync sequence; the only error returned
// besides io.EOF is ErrNadReassignUnsupported.
func (sf *Slave) Step() error {
	n, err := sf.ch.Read(sf.buf[:3])
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		sf.log.Debug("read: %v", err)
		return nil
	}
	if n < 3 {
		return nil
	}
	if sf.buf[0] != lin.SyncBreak || sf.buf[1] != lin.SyncField {
		sf.log.Debug("in < %02x %02x not a proper sync, waiting for sync", sf.buf[0], sf.buf[1])
		return nil
	}

	rawPID := sf.buf[2]
	id, err := lin.ClassifyPID(rawPID)
	if err != nil {
		sf.stats.FrameErrors.Add(1)
		sf.log.Debug("in < %02x PID parity error", rawPID)
		return nil
	}
	sf.stats.Frames.Add(1)

	if (id == lin.PIDSlaveResponse && sf.proto.ResponseWaiting()) || id == PIDStatusPoll {
		if sf.cfg.Active {
			sf.answer(id, rawPID)
		} else {
			sf.log.Debug("in < pid %02x not considering answer (read-only mode)", id)
		}
		return nil
	}

	n, err = sf.ch.Read(sf.buf[3:])
	if err != nil && !errors.Is(err, io.EOF) {
		sf.log.Debug("read: %v", err)
		return nil
	}
	frame := sf.buf[3 : 3+n]
	if len(frame) < 2 {
		sf.log.Debug("skipping truncated frame, pid %02x", id)
		return nil
	}

	// Frame identifiers 60 (0x3C) and 61 (0x3D) always use the classic
	// checksum; everything else includes the raw PID.
	if lin.IsDiagnostic(id) {
		err = lin.VerifyChecksum(frame)
	} else {
		err = lin.VerifyEnhancedChecksum(rawPID, frame)
	}
	if err != nil {
		sf.stats.FrameErrors.Add(1)
		sf.log.Warn("pid %02x: %v", id, err)
		return nil
	}
	data := frame[:len(frame)-1]

	switch {
	case id == lin.PIDMasterRequest:
		if err := sf.proto.HandleMasterRequest(data); err != nil {
			if errors.Is(err, ErrNadReassignUnsupported) {
				sf.log.Critical("%v", err)
				return err
			}
			sf.log.Warn("master request dropped: %v", err)
		}
	case id == lin.PIDSlaveResponse:
		sf.proto.HandleSlaveResponse(data)
	default:
		if !sf.app.HandleFrame(id, data) {
			sf.log.Debug("pid %02x not handled", id)
		}
	}
	return nil
}

func (sf *Slave) answer(id, rawPID byte) {
	var data []byte
	if id == PIDStatusPoll {
		data = sf.proto.PollAnswer()
	} else {
		data = sf.proto.PopResponse()
	}
	if data == nil {
		return
	}
	var cs byte
	if lin.IsDiagnostic(id) {
		cs = lin.Checksum(data)
	} else {
		cs = lin.EnhancedChecksum(rawPID, data)
	}
	out := make([]byte, 0, len(data)+1)
	out = append(out, data...)
	out = append(out, cs)
	if _, err := sf.ch.Write(out); err != nil {
		sf.log.Error("write: %v", err)
		return
	}
	// drop our own answer echoed by the transceiver
	if err := sf.ch.FlushInput(); err != nil {
		sf.log.Debug("flush: %v", err)
	}
	sf.stats.Answers.Add(1)
	sf.log.Debug("out > % 02x", out)
}
