// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package slave

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"

	"github.com/roamkit/go-inetbox/clog"
	"github.com/roamkit/go-inetbox/inet"
)

// UpdateState is the coarse position of the write half cycle.
type UpdateState int

// UpdateState defined
const (
	Idle             UpdateState = iota // nothing queued, nothing in flight
	WaitingForMaster                    // updates queued but no record type open for writing yet
	WaitingCommit                       // updates queued, waiting for an upload poll
	WaitingMasterAck                    // record sent, waiting for the master's next push
)

func (sf UpdateState) String() string {
	switch sf {
	case WaitingForMaster:
		return "waiting_for_cp_plus"
	case WaitingCommit:
		return "waiting_commit"
	case WaitingMasterAck:
		return "waiting_truma"
	}
	return "idle"
}

// per record type write gating
type cmdFlags struct {
	// canSend flips true the first time the master delivers a record of
	// this type; a failed pack flips it back.
	canSend bool
	// pending flips true once a pack succeeded, false after the next
	// successful receive.
	pending bool
}

// App is the authoritative mirror of the last seen status plus the
// queued outbound updates. All protocol driven mutation happens on the
// bus loop's goroutine; Set and the snapshot accessors are safe to call
// from anywhere.
type App struct {
	mu            sync.Mutex
	status        map[string]uint16
	updates       map[string]uint16
	flags         map[byte]*cmdFlags
	display       map[string]string
	counter       byte
	statusUpdated bool
	lenient       bool
	stats         *Stats

	log clog.Clog
}

func (sf *App) bindStats(st *Stats) {
	sf.mu.Lock()
	sf.stats = st
	sf.mu.Unlock()
}

// NewApp creates an application state with a randomized command counter.
func NewApp(log clog.Clog) *App {
	sf := &App{
		status:  make(map[string]uint16),
		updates: make(map[string]uint16),
		flags:   make(map[byte]*cmdFlags),
		display: make(map[string]string),
		counter: byte(rand.Intn(0xFF)),
		log:     log,
	}
	for _, cmd := range inet.Commands {
		sf.flags[cmd.CID] = &cmdFlags{}
	}
	return sf
}

// LenientRecordChecksum disables verification of the inner record
// checksum on ingest.
func (sf *App) LenientRecordChecksum(enable bool) {
	sf.mu.Lock()
	sf.lenient = enable
	sf.mu.Unlock()
}

// Get reads one field from the last seen status, rendered through its
// conversion.
func (sf *App) Get(field string) (string, error) {
	sf.mu.Lock()
	v, ok := sf.status[field]
	sf.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotPresent, field)
	}
	if field[0] == '_' {
		return fmt.Sprintf("unknown - %d = %#x", v, v), nil
	}
	cnv, ok := inet.Conversions[field]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return cnv.Decode(v), nil
}

// Set queues one field for the next write record. Fields starting with an
// underscore bypass conversion and take a raw numeric value. The
// synthetic field "wall_time" takes HH:MM:SS and expands into the three
// clock fields.
func (sf *App) Set(field, value string) error {
	if field == "wall_time" {
		return sf.setWallTime(value)
	}
	if field == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownField)
	}
	var raw uint16
	if field[0] == '_' {
		n, err := parseRaw(value)
		if err != nil {
			return err
		}
		raw = n
	} else {
		cnv, ok := inet.Conversions[field]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		if cnv.Encode == nil {
			return fmt.Errorf("%w: %s", ErrReadOnly, field)
		}
		n, err := cnv.Encode(value)
		if err != nil {
			return err
		}
		raw = n
	}
	sf.mu.Lock()
	sf.updates[field] = raw
	sf.mu.Unlock()
	sf.log.Debug("set %s = %s", field, value)
	return nil
}

func parseRaw(value string) (uint16, error) {
	n, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: raw value %q", inet.ErrConversion, value)
	}
	return uint16(n), nil
}

func (sf *App) setWallTime(value string) error {
	if len(value) != 8 || value[2] != ':' || value[5] != ':' {
		return fmt.Errorf("%w: wall_time %q (expected HH:MM:SS)", inet.ErrConversion, value)
	}
	h, err1 := parseClockPart(value[0:2])
	m, err2 := parseClockPart(value[3:5])
	s, err3 := parseClockPart(value[6:8])
	if err1 != nil || err2 != nil || err3 != nil {
		return fmt.Errorf("%w: wall_time %q (expected HH:MM:SS)", inet.ErrConversion, value)
	}
	if h > 23 || m > 59 || s > 59 {
		return fmt.Errorf("%w: wall_time %q out of range", inet.ErrConversion, value)
	}
	sf.mu.Lock()
	sf.updates["wall_time_hours"] = uint16(h)
	sf.updates["wall_time_minutes"] = uint16(m)
	sf.updates["wall_time_seconds"] = uint16(s)
	sf.mu.Unlock()
	return nil
}

func parseClockPart(s string) (int, error) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, inet.ErrConversion
	}
	return strconv.Atoi(s)
}

// Ingest merges one pushed status buffer into the mirror. The FB
// acknowledge is owed regardless of the outcome; errors only mean the
// buffer itself was dropped.
func (sf *App) Ingest(buf []byte) error {
	h, err := inet.SplitBuffer(buf)
	if err != nil {
		return err
	}
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if !sf.lenient {
		if err := h.VerifyChecksum(); err != nil {
			return err
		}
	}
	if h.CID == inet.CIDCounter {
		sf.log.Debug("command counter adopted: %d", h.Counter)
		sf.counter = h.Counter
		return nil
	}
	cmd, ok := inet.CommandByCID[h.CID]
	if !ok {
		return fmt.Errorf("%w: %#02x", inet.ErrUnknownCID, h.CID)
	}
	values, err := cmd.Unpack(h.Record)
	if err != nil {
		return err
	}
	for k, v := range values {
		sf.status[k] = v
	}
	sf.statusUpdated = true
	f := sf.flags[cmd.CID]
	f.canSend = true
	f.pending = false
	if sf.stats != nil {
		sf.stats.Records.Add(1)
	}
	return nil
}

// MaterializeWrite drains pending updates into one complete write buffer,
// or returns nil when nothing can be sent. The command counter advances
// only on success.
func (sf *App) MaterializeWrite() []byte {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	cmd := sf.findCommandWithUpdates()
	if cmd == nil {
		// leftovers target no writable record, drop them
		sf.updates = make(map[string]uint16)
		return nil
	}
	f := sf.flags[cmd.CID]
	if !f.canSend {
		sf.log.Debug("no %#02x record from master yet, holding update", cmd.CID)
		return nil
	}

	merged := make(map[string]uint16, len(cmd.Write))
	for _, name := range cmd.WriteNames() {
		if v, ok := sf.updates[name]; ok {
			merged[name] = v
		} else if v, ok := sf.status[name]; ok {
			merged[name] = v
		}
	}
	record, err := cmd.Pack(merged)
	if err != nil {
		// not all required data mirrored yet, wait for the next push
		f.canSend = false
		sf.log.Debug("pack %#02x: %v", cmd.CIDWrite(), err)
		return nil
	}

	next := (sf.counter + 1) % 0xFF
	out := inet.BuildBuffer(byte(cmd.WriteLen()), cmd.CIDWrite(), next, record)
	sf.counter = next
	f.pending = true
	for _, name := range cmd.WriteNames() {
		delete(sf.updates, name)
	}
	if sf.stats != nil {
		sf.stats.Uploads.Add(1)
	}
	return out
}

func (sf *App) findCommandWithUpdates() *inet.Command {
	for _, cmd := range inet.Commands {
		for _, name := range cmd.WriteNames() {
			if name[0] == '_' {
				continue
			}
			if _, ok := sf.updates[name]; ok {
				return cmd
			}
		}
	}
	return nil
}

// HandleFrame feeds one application frame into the display telemetry
// mirror. Returns false for ids this node does not parse.
func (sf *App) HandleFrame(id byte, data []byte) bool {
	values, ok := inet.DecodeDisplayFrame(id, data)
	if !ok {
		return false
	}
	sf.mu.Lock()
	for k, v := range values {
		sf.display[k] = v
	}
	sf.mu.Unlock()
	return true
}

// UpdatesQueued reports whether any update is waiting for an upload slot.
func (sf *App) UpdatesQueued() bool {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return len(sf.updates) > 0
}

// CommandSeen reports whether the master delivered at least one record
// with the given cid.
func (sf *App) CommandSeen(cid byte) bool {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	f, ok := sf.flags[cid]
	return ok && f.canSend
}

// CanSendUpdates reports whether every record type has been seen at least
// once, i.e. the CP Plus is fully mirrored.
func (sf *App) CanSendUpdates() bool {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	for _, f := range sf.flags {
		if !f.canSend {
			return false
		}
	}
	return true
}

// UpdateState derives the write half cycle position.
func (sf *App) UpdateState() UpdateState {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	if len(sf.updates) > 0 {
		for _, f := range sf.flags {
			if f.canSend {
				return WaitingCommit
			}
		}
		return WaitingForMaster
	}
	for _, f := range sf.flags {
		if f.pending {
			return WaitingMasterAck
		}
	}
	return Idle
}

// StatusUpdated reports whether a record arrived since the last Snapshot.
func (sf *App) StatusUpdated() bool {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.statusUpdated
}

// Snapshot renders every known field through its conversion and clears
// the status updated mark. When the three clock fields are present a
// combined wall_time is synthesized.
func (sf *App) Snapshot() map[string]string {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	sf.statusUpdated = false
	out := make(map[string]string, len(sf.status)+1)
	for k, v := range sf.status {
		if k[0] == '_' {
			out[k] = fmt.Sprintf("unknown - %d = %#x", v, v)
			continue
		}
		if cnv, ok := inet.Conversions[k]; ok {
			out[k] = cnv.Decode(v)
		}
	}
	h, okH := sf.status["wall_time_hours"]
	m, okM := sf.status["wall_time_minutes"]
	s, okS := sf.status["wall_time_seconds"]
	if okH && okM && okS {
		out["wall_time"] = fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return out
}

// DisplaySnapshot copies the live display telemetry.
func (sf *App) DisplaySnapshot() map[string]string {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	out := make(map[string]string, len(sf.display))
	for k, v := range sf.display {
		out[k] = v
	}
	return out
}
