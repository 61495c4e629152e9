// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package inet

import "errors"

// Record level errors.
var (
	ErrPreambleMismatch = errors.New("inet: status buffer preamble mismatch")
	ErrBufferTooShort   = errors.New("inet: status buffer too short")
	ErrRecordTooShort   = errors.New("inet: record shorter than schema")
	ErrIncomplete       = errors.New("inet: record fields missing")
	ErrUnknownCID       = errors.New("inet: unknown record cid")
	ErrConversion       = errors.New("inet: conversion failed")
)
