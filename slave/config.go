// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package slave

import (
	"errors"
	"time"
)

// defines the bus loop configuration range
const (
	// serial read timeout range, default 30ms on a live bus. Log replay
	// uses 100ms.
	ReadTimeoutMin = 1 * time.Millisecond
	ReadTimeoutMax = 10 * time.Second
)

// Config defines the bus loop behavior.
// The default is applied for each unspecified value.
type Config struct {
	// Active answers response polls; false observes the bus without ever
	// writing to it.
	Active bool

	// ReadTimeout bounds one serial read; the loop returns to the caller
	// when it expires so an outer scheduler can interleave other work.
	ReadTimeout time.Duration

	// LenientRecordChecksum skips verification of the inner status
	// buffer checksum on ingest, like the genuine accessory appears to.
	LenientRecordChecksum bool
}

// Valid applies the default for each unspecified value.
func (sf *Config) Valid() error {
	if sf == nil {
		return errors.New("invalid pointer")
	}
	if sf.ReadTimeout == 0 {
		sf.ReadTimeout = 30 * time.Millisecond
	} else if sf.ReadTimeout < ReadTimeoutMin || sf.ReadTimeout > ReadTimeoutMax {
		return errors.New("ReadTimeout not in [1ms, 10s]")
	}
	return nil
}

// DefaultConfig default config: active peer, 30ms read timeout, strict
// record checksums.
func DefaultConfig() Config {
	return Config{
		Active:      true,
		ReadTimeout: 30 * time.Millisecond,
	}
}
