// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package clog

import "github.com/sirupsen/logrus"

// logrusProvider adapts a logrus logger to LogProvider. The subsystem
// name rides as a structured field.
type logrusProvider struct {
	entry *logrus.Entry
}

var _ LogProvider = (*logrusProvider)(nil)

// NewLogrusProvider returns a LogProvider logging to l, tagged with the
// subsystem name.
func NewLogrusProvider(l *logrus.Logger, subsystem string) LogProvider {
	return &logrusProvider{entry: l.WithField("subsystem", subsystem)}
}

func (sf *logrusProvider) Critical(format string, v ...interface{}) {
	sf.entry.Errorf(format, v...)
}

func (sf *logrusProvider) Error(format string, v ...interface{}) {
	sf.entry.Errorf(format, v...)
}

func (sf *logrusProvider) Warn(format string, v ...interface{}) {
	sf.entry.Warnf(format, v...)
}

func (sf *logrusProvider) Debug(format string, v ...interface{}) {
	sf.entry.Debugf(format, v...)
}
