// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package clog

import (
	"log"
	"os"
	"sync/atomic"
)

// LogProvider RFC5424 log message levels only Critical, Error, Warn and Debug
type LogProvider interface {
	Critical(format string, v ...interface{})
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// Clog internal debugging implementation. The zero value is silent and
// LogMode cannot enable it; NewLogger and NewLoggerWith return loggers
// whose output LogMode switches on.
type Clog struct {
	provider LogProvider
	// is log output enabled, 1: enable, 0: disable
	has *uint32
}

// NewLogger creates a new log with the specified prefix, output disabled.
func NewLogger(prefix string) Clog {
	return Clog{
		provider: stdLogger{log.New(os.Stdout, prefix, log.LstdFlags)},
		has:      new(uint32),
	}
}

// NewLoggerWith creates a new log on the given provider, output disabled.
func NewLoggerWith(p LogProvider) Clog {
	c := Clog{provider: p, has: new(uint32)}
	if p == nil {
		c.provider = stdLogger{log.New(os.Stdout, "", log.LstdFlags)}
	}
	return c
}

// LogMode set enable or disable log output
func (sf Clog) LogMode(enable bool) {
	if sf.has == nil {
		return
	}
	if enable {
		atomic.StoreUint32(sf.has, 1)
	} else {
		atomic.StoreUint32(sf.has, 0)
	}
}

// SetLogProvider set provider
func (sf *Clog) SetLogProvider(p LogProvider) {
	if p != nil {
		sf.provider = p
	}
}

func (sf Clog) enabled() bool {
	return sf.has != nil && atomic.LoadUint32(sf.has) == 1 && sf.provider != nil
}

// Critical Log CRITICAL level message.
func (sf Clog) Critical(format string, v ...interface{}) {
	if sf.enabled() {
		sf.provider.Critical(format, v...)
	}
}

// Error Log ERROR level message.
func (sf Clog) Error(format string, v ...interface{}) {
	if sf.enabled() {
		sf.provider.Error(format, v...)
	}
}

// Warn Log WARN level message.
func (sf Clog) Warn(format string, v ...interface{}) {
	if sf.enabled() {
		sf.provider.Warn(format, v...)
	}
}

// Debug Log DEBUG level message.
func (sf Clog) Debug(format string, v ...interface{}) {
	if sf.enabled() {
		sf.provider.Debug(format, v...)
	}
}

// default provider on the standard library logger
type stdLogger struct {
	*log.Logger
}

var _ LogProvider = (*stdLogger)(nil)

// Critical Log CRITICAL level message.
func (sf stdLogger) Critical(format string, v ...interface{}) {
	sf.Printf("[C]: "+format, v...)
}

// Error Log ERROR level message.
func (sf stdLogger) Error(format string, v ...interface{}) {
	sf.Printf("[E]: "+format, v...)
}

// Warn Log WARN level message.
func (sf stdLogger) Warn(format string, v ...interface{}) {
	sf.Printf("[W]: "+format, v...)
}

// Debug Log DEBUG level message.
func (sf stdLogger) Debug(format string, v ...interface{}) {
	sf.Printf("[D]: "+format, v...)
}
